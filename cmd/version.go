package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/spigell/roomeo/internal/matching"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (%s, %d scoring rules)\n", app, version, runtime.Version(), len(matching.DefaultRules()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

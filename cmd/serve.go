package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve match scores over a JSON HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "address to listen on (default is :8080)")
	viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := newSession(ctx)
	defer s.Close()

	s.logger.Info("starting the roomeo api", zap.String("version", version), zap.Bool("offline", s.offline))

	server := httpapi.NewServer(s.backend(), s.scorer, s.explainer(ctx), s.logger)
	if err := httpapi.Serve(ctx, s.config.Serve.Addr, server.Routes(), s.logger); err != nil {
		s.logger.Fatal("serving http api", zap.Error(err))
	}
}

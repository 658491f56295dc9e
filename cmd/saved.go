package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/logger"
)

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List saved listings with their match scores",
	Run: func(cmd *cobra.Command, _ []string) {
		saved(cmd)
	},
}

func init() {
	rootCmd.AddCommand(savedCmd)

	savedCmd.Flags().String("toggle", "", "save the listing with this id, or unsave it when already saved")
}

func saved(cmd *cobra.Command) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	client, err := s.remote()
	if err != nil {
		s.logger.Fatal("saved listings", zap.Error(err))
	}

	seeker := s.mustSeeker(ctx)

	if id, _ := cmd.Flags().GetString("toggle"); id != "" {
		isSaved, err := client.ToggleSaved(ctx, seeker.ID, id)
		if err != nil {
			s.logger.Fatal("toggling saved listing", zap.Error(err))
		}
		logger.ForMatch(s.logger, seeker.ID, id).Info("toggled saved listing", zap.Bool("saved", isSaved))
		return
	}

	listings, err := client.SavedListings(ctx, seeker.ID)
	if err != nil {
		s.logger.Fatal("getting saved listings", zap.Error(err))
	}

	s.logger.Info("saved listings", zap.Int("count", listings.Len()))

	for _, sc := range s.scorer.ScoreAll(ctx, seeker, listings.Items) {
		s.logger.Info(label(sc), zap.Strings("reasons", sc.Match.Reasons))
	}
}

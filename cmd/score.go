package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/logger"
)

var scoreCmd = &cobra.Command{
	Use:   "score <listing-id>...",
	Short: "Score listings against the seeker profile",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		score(args)
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <listing-id>",
	Short: "Score a listing and narrate the match with ai",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		explain(args[0])
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(explainCmd)
}

func score(ids []string) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	seeker := s.mustSeeker(ctx)

	for _, id := range ids {
		log := logger.ForMatch(s.logger, seeker.ID, id)

		listing, err := s.backend().GetListing(ctx, id)
		if err != nil {
			log.Error("getting listing", zap.Error(err))
			continue
		}

		result := s.scorer.Score(ctx, seeker, listing)
		log.Info(listing.Title,
			zap.Int("score", result.Score),
			zap.String("quality", result.Quality()),
			zap.Strings("reasons", result.Reasons),
		)
	}
}

func explain(id string) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	seeker := s.mustSeeker(ctx)
	log := logger.ForMatch(s.logger, seeker.ID, id)

	listing, err := s.backend().GetListing(ctx, id)
	if err != nil {
		log.Fatal("getting listing", zap.Error(err))
	}

	result := s.scorer.Score(ctx, seeker, listing)
	explanation := s.explainer(ctx).Explain(ctx, seeker, listing, result)

	log.Info(explanation,
		zap.Int("score", result.Score),
		zap.String("quality", result.Quality()),
		zap.Strings("reasons", result.Reasons),
	)
}

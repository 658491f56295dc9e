package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/logger"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy backend listings and the seeker profile into the local store for --offline use",
	Run: func(_ *cobra.Command, _ []string) {
		syncStore()
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func syncStore() {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	client, err := s.remote()
	if err != nil {
		s.logger.Fatal("syncing the local store", zap.Error(err))
	}

	st, err := s.openStore(ctx)
	if err != nil {
		s.logger.Fatal("opening local store", zap.Error(err), zap.String("path", s.config.Store.Path))
	}

	listings, err := client.ListListings(ctx)
	if err != nil {
		s.logger.Fatal("getting listings", zap.Error(err))
	}

	n, err := st.UpsertListings(ctx, listings)
	if err != nil {
		s.logger.Fatal("storing listings", zap.Error(err))
	}

	profiles := 0
	if seeker, err := s.seeker(ctx); err == nil {
		if err := st.UpsertProfile(ctx, seeker); err != nil {
			s.logger.Fatal("storing seeker profile", zap.Error(err))
		}
		profiles++
	} else {
		s.logger.Warn("seeker profile is not synced", zap.Error(err))
	}

	for _, l := range listings.Items {
		if l.ListerProfile == nil || l.ListerProfile.ID == "" {
			continue
		}
		if err := st.UpsertProfile(ctx, l.ListerProfile); err != nil {
			logger.ForMatch(s.logger, "", l.ID).Warn("storing lister profile", zap.Error(err))
			continue
		}
		profiles++
	}

	total, err := st.CountListings(ctx)
	if err != nil {
		s.logger.Fatal("counting stored listings", zap.Error(err))
	}

	s.logger.Info("local store synced",
		zap.Int("listings", n),
		zap.Int("profiles", profiles),
		zap.Int("stored listings", total),
		zap.String("path", s.config.Store.Path),
	)
}

package cmd

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/utils"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the web for student housing near the seeker's institution",
	Run: func(cmd *cobra.Command, args []string) {
		search(cmd, strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().BoolP("import", "i", false, "store found sources as listings")
	searchCmd.Flags().String("institution", "", "institution to search around (default is the seeker's)")
}

func search(cmd *cobra.Command, query string) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	institution, _ := cmd.Flags().GetString("institution")
	if institution == "" && s.userID != "" {
		if seeker, err := s.seeker(ctx); err == nil {
			institution = seeker.University
		} else {
			s.logger.Warn("searching without institution", zap.Error(err))
		}
	}

	query = utils.FirstNonEmpty(query, ai.DefaultSearchQuery)
	result := s.searcher(ctx).Search(ctx, query, institution)

	s.logger.Info(result.Text, zap.String("query", query), zap.String("institution", institution), zap.Int("sources", len(result.Sources)))
	for _, src := range result.Sources {
		s.logger.Info(src.Title, zap.String("url", src.URL))
	}

	if doImport, _ := cmd.Flags().GetBool("import"); !doImport || len(result.Sources) == 0 {
		return
	}

	listings := ai.ListingsFromSources(result, s.userID, query)
	if listings.Len() == 0 {
		s.logger.Info("nothing to import", zap.String("reason", "no sources with links"))
		return
	}

	if err := importListings(ctx, s, listings); err != nil {
		s.logger.Fatal("importing search results", zap.Error(err))
	}
}

// importListings writes found listings to the backend, or to the local store
// when offline.
func importListings(ctx context.Context, s *session, listings *housing.Listings) error {
	if client, err := s.remote(); err == nil {
		created, err := client.CreateListings(ctx, listings.Items...)
		if err != nil {
			return err
		}
		s.logger.Info("imported listings to the backend", zap.Int("count", created.Len()))
		return nil
	}

	for _, l := range listings.Items {
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
	}

	n, err := s.store.UpsertListings(ctx, listings)
	if err != nil {
		return err
	}
	s.logger.Info("imported listings to the local store", zap.Int("count", n), zap.String("path", s.config.Store.Path))
	return nil
}

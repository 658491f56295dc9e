package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/filtering"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/logger"
	"github.com/spigell/roomeo/internal/matching"
)

const (
	PromptBrowse           = "Browse listings"
	PromptReportByLocation = "Report by location"
	PromptHideAll          = "Hide all listings"
	PromptHideLowScores    = "Hide listings below a score"
	PromptListingsToFile   = "Dump listings to file"
	PromptExit             = "Exit"
	PromptBack             = "back"

	PromptExplain = "Explain the match"
	PromptSave    = "Save / unsave"
	PromptMessage = "Message the lister"
	PromptHide    = "Hide this listing"
)

var errExit = errors.New("exit requested")

var feedPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptBrowse, PromptReportByLocation, PromptHideLowScores, PromptHideAll, PromptListingsToFile, PromptExit},
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Rank listings for the seeker and act on them",
	Run: func(cmd *cobra.Command, _ []string) {
		feed(cmd)
	},
}

func init() {
	rootCmd.AddCommand(feedCmd)

	feedCmd.Flags().StringP("hidden-file", "e", "", "file with listings that never show up in the feed. Default is unset.")
	feedCmd.Flags().String("room-type", "", "keep only private or shared rooms")
	feedCmd.Flags().StringP("text", "t", "", "keep only listings whose title or location contains the text")
	feedCmd.Flags().Int("minimum-score", 0, "drop listings scoring below this value")
	feedCmd.Flags().BoolP("print", "p", false, "print the ranked listings and exit without prompting")
	feedCmd.Flags().Bool("include-own", false, "keep listings posted by the seeker")

	viper.BindPFlag("filters.hidden-file", feedCmd.Flags().Lookup("hidden-file"))
	viper.BindPFlag("filters.room-type", feedCmd.Flags().Lookup("room-type"))
	viper.BindPFlag("filters.text", feedCmd.Flags().Lookup("text"))
	viper.BindPFlag("filters.minimum-score", feedCmd.Flags().Lookup("minimum-score"))
}

// feed is the main interactive command.
func feed(cmd *cobra.Command) {
	ctx := context.Background()

	s := newSession(ctx)
	defer s.Close()

	s.logger.Info("starting the roomeo feed", zap.String("version", version), zap.Bool("offline", s.offline))

	seeker := s.mustSeeker(ctx)

	listings, err := s.backend().ListListings(ctx)
	if err != nil {
		s.logger.Fatal("getting listings", zap.Error(err))
	}

	s.logger.Info("getting listings", zap.Int("count", listings.Len()))

	if listings.Len() == 0 {
		s.logger.Info("exiting", zap.String("reason", "no listings found"))
		return
	}

	steps := filtering.Default()
	if include, _ := cmd.Flags().GetBool("include-own"); include {
		filtering.DisableByName(steps, "own_listings", "requested by --include-own")
	}

	for _, status := range filtering.Describe(steps) {
		s.logger.Debug("filter status", zap.String("name", status.Name), zap.Bool("enabled", status.Enabled), zap.String("reason", status.Reason))
	}

	filtered, known, err := filtering.Run(ctx, &s.config.Filters, filtering.Deps{
		Logger: s.logger,
		Seeker: seeker,
		Scorer: s.scorer,
	}, steps, listings)
	if err != nil {
		s.logger.Fatal("filtering failed", zap.Error(err))
	}

	if filtered.Len() == 0 {
		s.logger.Info("exiting", zap.String("reason", "no listings left after filters"))
		return
	}

	f := &feedState{
		session:   s,
		seeker:    seeker,
		scored:    rank(ctx, s.scorer, seeker, filtered, known),
		explainer: s.explainer(ctx),
	}

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		f.print()
		return
	}

	for {
		_, action, err := feedPrompt.Run()
		if err != nil {
			s.logger.Fatal("exiting", zap.Error(err))
		}

		s.logger.Info("current list of listings", zap.Int("count", len(f.scored)))

		if err := f.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			s.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

type feedState struct {
	*session
	seeker    *housing.Profile
	scored    []matching.Scored
	explainer ai.Explainer
}

func (f *feedState) listings() *housing.Listings {
	items := make([]*housing.Listing, 0, len(f.scored))
	for _, sc := range f.scored {
		items = append(items, sc.Listing)
	}
	return &housing.Listings{Items: items}
}

func (f *feedState) drop(ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}

	kept := f.scored[:0]
	for _, sc := range f.scored {
		if _, found := set[sc.Listing.ID]; !found {
			kept = append(kept, sc)
		}
	}
	f.scored = kept
}

func (f *feedState) print() {
	for i, sc := range f.scored {
		f.logger.Info(label(sc),
			zap.Int("rank", i+1),
			zap.String(logger.FieldListing, sc.Listing.ID),
			zap.Strings("reasons", sc.Match.Reasons),
		)
	}
}

func (f *feedState) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptBrowse:
		return f.browse(ctx)
	case PromptReportByLocation:
		pretty, _ := json.MarshalIndent(f.listings().ReportByLocation(), "", "  ")
		f.logger.Info(string(pretty), zap.Int("listings count", len(f.scored)))
		return nil
	case PromptHideAll:
		return f.hide(f.listings(), housing.HiddenByUser, "hidden in bulk from feed")
	case PromptHideLowScores:
		return f.hideLowScores()
	case PromptListingsToFile:
		filename, err := f.listings().DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		f.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptExit:
		f.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func label(sc matching.Scored) string {
	return fmt.Sprintf("%s %3d%% %s / %s / $%.0f",
		sc.Listing.ID, sc.Match.Score, sc.Listing.Title, sc.Listing.Location, sc.Listing.Price,
	)
}

func (f *feedState) browse(ctx context.Context) error {
	for {
		if len(f.scored) == 0 {
			f.logger.Info("no listings left")
			return nil
		}

		items := make([]string, 0, len(f.scored)+1)
		for _, sc := range f.scored {
			items = append(items, label(sc))
		}

		listingPrompt := promptui.Select{
			Label: "Choose a listing and press ENTER",
			Items: append(items, PromptBack),
			Size:  10,
		}

		_, selected, err := listingPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id := strings.Split(selected, " ")[0]
		sc, ok := f.find(id)
		if !ok {
			return fmt.Errorf("there is no such listing id %s", id)
		}

		if err := f.listingActions(ctx, sc); err != nil {
			return err
		}
	}
}

func (f *feedState) find(id string) (matching.Scored, bool) {
	for _, sc := range f.scored {
		if sc.Listing.ID == id {
			return sc, true
		}
	}
	return matching.Scored{}, false
}

func (f *feedState) listingActions(ctx context.Context, sc matching.Scored) error {
	actionPrompt := promptui.Select{
		Label: sc.Listing.Title,
		Items: []string{PromptExplain, PromptSave, PromptMessage, PromptHide, PromptBack},
	}

	log := logger.ForMatch(f.logger, f.seeker.ID, sc.Listing.ID)

	for {
		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptExplain:
			log.Info(f.explainer.Explain(ctx, f.seeker, sc.Listing, sc.Match),
				zap.Int("score", sc.Match.Score),
				zap.String("quality", sc.Match.Quality()),
				zap.Strings("reasons", sc.Match.Reasons),
			)
		case PromptSave:
			client, err := f.remote()
			if err != nil {
				log.Warn("cannot save listing", zap.Error(err))
				continue
			}
			saved, err := client.ToggleSaved(ctx, f.seeker.ID, sc.Listing.ID)
			if err != nil {
				return err
			}
			log.Info("toggled saved listing", zap.Bool("saved", saved))
		case PromptMessage:
			if err := f.message(ctx, log, sc.Listing); err != nil {
				return err
			}
		case PromptHide:
			return f.hide(&housing.Listings{Items: []*housing.Listing{sc.Listing}}, housing.HiddenByUser, "hidden from feed")
		}
	}
}

func (f *feedState) message(ctx context.Context, log *zap.Logger, listing *housing.Listing) error {
	client, err := f.remote()
	if err != nil {
		log.Warn("cannot message the lister", zap.Error(err))
		return nil
	}

	textPrompt := promptui.Prompt{
		Label: "Message",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("message must not be empty")
			}
			return nil
		},
	}

	text, err := textPrompt.Run()
	if err != nil {
		return err
	}

	sent, err := client.SendMessage(ctx, &housing.Message{
		ListingID:  listing.ID,
		SenderID:   f.seeker.ID,
		ReceiverID: listing.UserID,
		Text:       text,
	})
	if err != nil {
		return err
	}

	log.Info("message sent", zap.String("message_id", sent.ID))
	return nil
}

func (f *feedState) hideLowScores() error {
	thresholdPrompt := promptui.Prompt{
		Label:   "Hide listings scoring below",
		Default: strconv.Itoa(max(f.config.Filters.MinimumScore, 1)),
		Validate: func(input string) error {
			v, err := strconv.Atoi(strings.TrimSpace(input))
			if err != nil || v < 1 || v > matching.MaxScore {
				return fmt.Errorf("enter a score between 1 and %d", matching.MaxScore)
			}
			return nil
		},
	}

	input, err := thresholdPrompt.Run()
	if err != nil {
		return err
	}
	threshold, _ := strconv.Atoi(strings.TrimSpace(input))

	low := belowScore(f.scored, threshold)
	if low.Len() == 0 {
		f.logger.Info("no listings below the score", zap.Int("threshold", threshold))
		return nil
	}

	return f.hide(low, housing.HiddenByScore, fmt.Sprintf("score below %d", threshold))
}

// belowScore returns the listings whose match score is under threshold.
func belowScore(scored []matching.Scored, threshold int) *housing.Listings {
	low := &housing.Listings{}
	for _, sc := range scored {
		if sc.Match.Score < threshold {
			low.Items = append(low.Items, sc.Listing)
		}
	}
	return low
}

// rank pairs listings with their match and orders them best first. Results
// already computed by the filters are reused; the rest are scored here.
func rank(ctx context.Context, scorer filtering.Scorer, seeker *housing.Profile, listings *housing.Listings, known map[string]matching.Result) []matching.Scored {
	scored := make([]matching.Scored, 0, listings.Len())
	for _, l := range listings.Items {
		if l == nil {
			continue
		}
		result, ok := known[l.ID]
		if !ok || l.ID == "" {
			result = scorer.Score(ctx, seeker, l)
		}
		scored = append(scored, matching.Scored{Listing: l, Match: result})
	}

	matching.SortScored(scored)
	return scored
}

func (f *feedState) hide(listings *housing.Listings, actor, reason string) error {
	hiddenFile := f.config.Filters.HiddenFile
	if hiddenFile == "" {
		f.logger.Warn("hidden file is not configured", zap.String("hint", "set filters.hidden-file or pass --hidden-file"))
		return nil
	}

	hidden, err := housing.GetHiddenListingsFromFile(hiddenFile)
	if err != nil {
		return err
	}

	hidden.Append(listings.ToHidden(actor, reason))

	if err := hidden.ToFile(hiddenFile); err != nil {
		return err
	}

	f.logger.Info("appended to hidden file",
		zap.String("filename", hiddenFile),
		zap.Int("count", listings.Len()),
		zap.String("hidden_by", actor),
	)

	ids := make([]string, 0, listings.Len())
	for _, l := range listings.Items {
		ids = append(ids, l.ID)
	}
	f.drop(ids)

	return nil
}

package filtering

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

type scorerFunc func(seeker *housing.Profile, listing *housing.Listing) matching.Result

func (f scorerFunc) Score(_ context.Context, seeker *housing.Profile, listing *housing.Listing) matching.Result {
	return f(seeker, listing)
}

func feed() *housing.Listings {
	return &housing.Listings{Items: []*housing.Listing{
		{ID: "l1", UserID: "me", Title: "My own room", Location: "Toronto", Price: 900, RoomType: housing.RoomPrivate},
		{ID: "l2", UserID: "u2", Title: "Sunny room", Location: "Toronto", Price: 1000, RoomType: housing.RoomPrivate},
		{ID: "l3", UserID: "u3", Title: "Shared flat", Location: "Montreal", Price: 600, RoomType: housing.RoomShared},
		{ID: "l4", UserID: "u4", Title: "Luxury loft", Location: "Toronto", Price: 3000, RoomType: housing.RoomPrivate},
	}}
}

func ids(v *housing.Listings) []string {
	out := make([]string, 0, v.Len())
	for _, l := range v.Items {
		out = append(out, l.ID)
	}
	return out
}

func assertIDs(t *testing.T, v *housing.Listings, want ...string) {
	t.Helper()
	got := ids(v)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestRunDefaultPipeline(t *testing.T) {
	hiddenPath := filepath.Join(t.TempDir(), "hidden.json")
	hidden := (&housing.Listings{Items: []*housing.Listing{{ID: "l3"}}}).ToHidden(housing.HiddenByUser, "not my city")
	if err := hidden.ToFile(hiddenPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	seeker := &housing.Profile{ID: "me", BudgetMin: 800, BudgetMax: 1200}
	deps := Deps{
		Logger: zap.New(core),
		Seeker: seeker,
		Scorer: scorerFunc(matching.Score),
	}
	cfg := &Config{HiddenFile: hiddenPath, RoomType: "Private", Text: "toronto", MinimumScore: 30}

	left, results, err := Run(context.Background(), cfg, deps, Default(), feed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertIDs(t, left, "l2")

	if results["l2"].Score != 40 {
		t.Fatalf("expected l2 score 40, got %+v", results["l2"])
	}
	if results["l4"].Score != 10 {
		t.Fatalf("expected l4 score 10 to be recorded, got %+v", results["l4"])
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 5 {
		t.Fatalf("expected 5 logged steps, got %d", len(steps))
	}
	last := steps[4].ContextMap()
	if last["name"] != "minimum_score" || last["initial"] != int64(2) || last["dropped"] != int64(1) || last["left"] != int64(1) {
		t.Fatalf("unexpected last step: %v", last)
	}
}

func TestRunSkipsDisabledFilters(t *testing.T) {
	steps := Default()
	DisableByName(steps, "own_listings", "show everything")

	left, _, err := Run(context.Background(), &Config{}, Deps{Seeker: &housing.Profile{ID: "me"}}, steps, feed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, left, "l1", "l2", "l3", "l4")

	statuses := Describe(steps)
	if statuses[0].Enabled || statuses[0].Reason != "show everything" {
		t.Fatalf("unexpected own_listings status: %+v", statuses[0])
	}
	if statuses[4].Reason != "threshold is not set" {
		t.Fatalf("unexpected minimum_score status: %+v", statuses[4])
	}
}

func TestRunValidatesRoomType(t *testing.T) {
	_, _, err := Run(context.Background(), &Config{RoomType: "penthouse"}, Deps{}, Default(), feed())
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestRunReportsEveryValidationError(t *testing.T) {
	_, _, err := Run(context.Background(), &Config{RoomType: "penthouse", MinimumScore: 101}, Deps{}, Default(), feed())
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, name := range []string{"room_type:", "minimum_score:"} {
		if !strings.Contains(err.Error(), name) {
			t.Fatalf("expected %q in %q", name, err)
		}
	}
}

func TestRunValidatesOnlyEnabledFilters(t *testing.T) {
	steps := Default()
	DisableByName(steps, "room_type", "any room")

	left, _, err := Run(context.Background(), &Config{RoomType: "penthouse"}, Deps{Seeker: &housing.Profile{ID: "me"}}, steps, feed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, left, "l2", "l3", "l4")
}

func TestRunStopsWhenNothingIsLeft(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	scored := 0
	deps := Deps{
		Logger: zap.New(core),
		Seeker: &housing.Profile{ID: "me"},
		Scorer: scorerFunc(func(*housing.Profile, *housing.Listing) matching.Result {
			scored++
			return matching.Result{Score: 100}
		}),
	}

	left, results, err := Run(context.Background(), &Config{Text: "vancouver", MinimumScore: 50}, deps, Default(), feed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.Len() != 0 || len(results) != 0 || scored != 0 {
		t.Fatalf("expected nothing left and nothing scored, got %d listings, %d results, %d scored", left.Len(), len(results), scored)
	}

	steps := logs.FilterMessage("filter step").All()
	if len(steps) != 4 {
		t.Fatalf("expected 4 logged steps, got %d", len(steps))
	}
	if _, ok := steps[3].ContextMap()["took"]; !ok {
		t.Fatalf("expected step duration to be logged: %v", steps[3].ContextMap())
	}
}

func TestMinimumScoreRequiresScorer(t *testing.T) {
	_, _, err := Run(context.Background(), &Config{MinimumScore: 10}, Deps{}, []Filter{NewMinimumScore()}, feed())
	if err == nil {
		t.Fatal("expected error without scorer")
	}
}

func TestMinimumScoreAboveMaximum(t *testing.T) {
	if err := NewMinimumScore().Validate(&Config{MinimumScore: 101}); err == nil {
		t.Fatal("expected error for threshold above maximum")
	}
}

func TestHiddenFileMissingIsEmpty(t *testing.T) {
	cfg := &Config{HiddenFile: filepath.Join(t.TempDir(), "absent.json")}
	left, _, err := Run(context.Background(), cfg, Deps{}, []Filter{NewHiddenFile()}, feed())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if left.Len() != 4 {
		t.Fatalf("expected all listings to be kept, got %d", left.Len())
	}
}

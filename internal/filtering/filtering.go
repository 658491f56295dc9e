package filtering

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

// Filter represents a single filtering step applied to listings.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, v *housing.Listings) (*housing.Listings, Step, error)
}

// Scorer is satisfied by cache.CachedScorer.
type Scorer interface {
	Score(ctx context.Context, seeker *housing.Profile, listing *housing.Listing) matching.Result
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
	Seeker *housing.Profile
	Scorer Scorer
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	HiddenFile   string `mapstructure:"hidden-file"`
	RoomType     string `mapstructure:"room-type"`
	Text         string `mapstructure:"text"`
	MinimumScore int    `mapstructure:"minimum-score"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

type resultCollector interface {
	Results() map[string]matching.Result
}

// Default returns the feed pipeline in execution order.
func Default() []Filter {
	return []Filter{
		NewOwnListings(),
		NewHiddenFile(),
		NewRoomType(),
		NewText(),
		NewMinimumScore(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run applies the enabled steps in order. Every enabled step is validated
// before any runs, and all validation problems are reported together. Match
// results computed on the way are returned keyed by listing ID.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, v *housing.Listings) (*housing.Listings, map[string]matching.Result, error) {
	if v == nil {
		v = &housing.Listings{}
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	active := enabled(steps)
	if err := validate(cfg, active); err != nil {
		return nil, nil, err
	}

	results := make(map[string]matching.Result, v.Len())
	for _, step := range steps {
		if !step.IsEnabled() {
			log.Debug("filter disabled", zap.String("name", step.Name()))
		}
	}

	for _, step := range active {
		started := time.Now()
		next, info, err := step.Apply(ctx, deps, v)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		log.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
			zap.Duration("took", time.Since(started)),
		)

		if collector, ok := step.(resultCollector); ok {
			maps.Copy(results, collector.Results())
		}

		v = next
		if v.Len() == 0 {
			log.Debug("no listings left, skipping remaining filters", zap.String("after", step.Name()))
			break
		}
	}

	return v, results, nil
}

func enabled(steps []Filter) []Filter {
	active := make([]Filter, 0, len(steps))
	for _, step := range steps {
		if step.IsEnabled() {
			active = append(active, step)
		}
	}
	return active
}

func validate(cfg *Config, steps []Filter) error {
	if cfg == nil {
		cfg = &Config{}
	}
	var errs []error
	for _, step := range steps {
		if err := step.Validate(cfg); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Describe reports every step, enabled or not, in pipeline order.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, len(steps))
	for i, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses[i] = reporter.Status()
			continue
		}
		statuses[i] = Status{Name: step.Name(), Enabled: step.IsEnabled()}
	}
	return statuses
}

// toggle carries the disable state shared by every filter.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

func unchanged(v *housing.Listings) Step {
	return Step{Initial: v.Len(), Dropped: 0, Left: v.Len()}
}

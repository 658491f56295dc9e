package filtering

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

type minimumScoreFilter struct {
	toggle
	threshold int
	results   map[string]matching.Result
}

// NewMinimumScore creates a filter that scores every listing for the seeker
// and drops the ones below the configured threshold.
func NewMinimumScore() Filter {
	return &minimumScoreFilter{}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Validate(cfg *Config) error {
	f.threshold = 0
	if cfg != nil {
		f.threshold = cfg.MinimumScore
	}
	if f.threshold > matching.MaxScore {
		return fmt.Errorf("minimum score %d is above the maximum of %d", f.threshold, matching.MaxScore)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(ctx context.Context, deps Deps, v *housing.Listings) (*housing.Listings, Step, error) {
	f.results = make(map[string]matching.Result, v.Len())
	if f.threshold <= 0 {
		return v, unchanged(v), nil
	}
	if deps.Scorer == nil {
		return v, Step{}, fmt.Errorf("scorer is required")
	}

	initial := v.Len()
	dropped := v.Keep(func(l *housing.Listing) bool {
		result := deps.Scorer.Score(ctx, deps.Seeker, l)
		f.results[l.ID] = result
		return result.Score >= f.threshold
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Debug("excluding listings below minimum score",
			zap.Int("threshold", f.threshold),
			zap.Strings("excluded_listings", dropped),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *minimumScoreFilter) Results() map[string]matching.Result {
	if f.results == nil {
		return map[string]matching.Result{}
	}
	return f.results
}

func (f *minimumScoreFilter) Status() Status {
	details := map[string]string{"threshold": strconv.Itoa(f.threshold)}
	reason := f.reason
	if reason == "" && f.threshold <= 0 {
		reason = "threshold is not set"
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: reason, Details: details}
}

// Package matching scores how compatible a seeker is with a listing.
//
// Scoring is a fixed, ordered rule set. Each rule either awards its points
// and appends a reason, or does nothing. The total is capped at MaxScore.
// A Scorer has no mutable state and may be shared between goroutines.
package matching

import (
	"sort"

	"github.com/spigell/roomeo/internal/housing"
)

const (
	// MaxScore is the upper bound of every Result.Score.
	MaxScore = 100
)

// Result is the outcome of scoring one listing for one seeker.
type Result struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
}

// Quality returns a coarse label for display.
func (r Result) Quality() string {
	switch {
	case r.Score >= 80:
		return "excellent"
	case r.Score >= 60:
		return "good"
	case r.Score >= 40:
		return "fair"
	default:
		return "low"
	}
}

type Scorer struct {
	weights Weights
	rules   []Rule
}

// NewScorer returns a scorer running DefaultRules with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w, rules: DefaultRules()}
}

// NewScorerWithRules is NewScorer with a custom rule list, evaluated in order.
func NewScorerWithRules(w Weights, rules []Rule) *Scorer {
	return &Scorer{weights: w, rules: append([]Rule(nil), rules...)}
}

var defaultScorer = NewScorer(DefaultWeights())

// Score rates the listing for the seeker with the default weights.
func Score(seeker *housing.Profile, listing *housing.Listing) Result {
	return defaultScorer.Score(seeker, listing)
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score never fails. Nil inputs are treated as empty records.
func (s *Scorer) Score(seeker *housing.Profile, listing *housing.Listing) Result {
	if seeker == nil {
		seeker = &housing.Profile{}
	}
	if listing == nil {
		listing = &housing.Listing{}
	}

	total := 0
	reasons := make([]string, 0, len(s.rules))

	for _, rule := range s.rules {
		if rule.Evaluate == nil || !rule.applies(listing) {
			continue
		}

		points, reason := rule.Evaluate(s.weights, seeker, listing)
		if points <= 0 {
			continue
		}

		// total never exceeds MaxScore, so the headroom cannot overflow.
		total += min(points, MaxScore-total)
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	return Result{
		Score:   total,
		Reasons: reasons,
	}
}

// Scored pairs a listing with its result.
type Scored struct {
	Listing *housing.Listing `json:"listing"`
	Match   Result           `json:"match"`
}

// ScoreAll scores every listing and orders them by score, best first. Ties
// keep the newest listing first.
func (s *Scorer) ScoreAll(seeker *housing.Profile, listings []*housing.Listing) []Scored {
	out := make([]Scored, 0, len(listings))
	for _, listing := range listings {
		if listing == nil {
			continue
		}
		out = append(out, Scored{Listing: listing, Match: s.Score(seeker, listing)})
	}

	SortScored(out)
	return out
}

// SortScored orders results by score descending, then by creation time
// descending.
func SortScored(out []Scored) {
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Match.Score != out[j].Match.Score {
			return out[i].Match.Score > out[j].Match.Score
		}
		return out[i].Listing.CreatedAt > out[j].Listing.CreatedAt
	})
}

package matching

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Weights holds the points awarded by each rule.
type Weights struct {
	Institution      int `json:"institution" mapstructure:"institution"`
	BudgetFit        int `json:"budget_fit" mapstructure:"budget-fit"`
	NearBudget       int `json:"near_budget" mapstructure:"near-budget"`
	GenderPreference int `json:"gender_preference" mapstructure:"gender-preference"`
	Cleanliness      int `json:"cleanliness" mapstructure:"cleanliness"`
	SleepSchedule    int `json:"sleep_schedule" mapstructure:"sleep-schedule"`
	NoLister         int `json:"no_lister" mapstructure:"no-lister"`
	// NearBudgetTolerance is how far above budget_max the rent may be and
	// still count as near budget.
	NearBudgetTolerance float64 `json:"near_budget_tolerance" mapstructure:"near-budget-tolerance"`
	// MaxCleanlinessGap is the largest cleanliness difference still
	// considered similar.
	MaxCleanlinessGap int `json:"max_cleanliness_gap" mapstructure:"max-cleanliness-gap"`
}

// DefaultWeights returns the stock rule set. With these weights the
// lister-present path sums to at most 100.
func DefaultWeights() Weights {
	return Weights{
		Institution:         30,
		BudgetFit:           30,
		NearBudget:          15,
		GenderPreference:    20,
		Cleanliness:         10,
		SleepSchedule:       10,
		NoLister:            10,
		NearBudgetTolerance: 150,
		MaxCleanlinessGap:   1,
	}
}

// LoadWeightsFromFile overlays the JSON file on top of DefaultWeights. The
// defaults are returned together with any read or decode error.
func LoadWeightsFromFile(path string) (Weights, error) {
	w := DefaultWeights()
	b, err := os.ReadFile(path)
	if err != nil {
		return w, fmt.Errorf("read weights file: %w", err)
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return DefaultWeights(), fmt.Errorf("unmarshal weights: %w", err)
	}
	return w, nil
}

// RawMaximum is the best possible outcome before capping at MaxScore. It
// saturates at math.MaxInt.
func (w Weights) RawMaximum() int {
	listerPath := addCapped(nonNegative(w.GenderPreference), nonNegative(w.Cleanliness), nonNegative(w.SleepSchedule))
	bestBudget := max(nonNegative(w.BudgetFit), nonNegative(w.NearBudget))
	return addCapped(nonNegative(w.Institution), bestBudget, max(listerPath, nonNegative(w.NoLister)))
}

// ExceedsScale reports whether some listing could earn more than MaxScore,
// in which case scores are capped and lose resolution at the top.
func (w Weights) ExceedsScale() bool {
	return w.RawMaximum() > MaxScore
}

func addCapped(values ...int) int {
	total := 0
	for _, v := range values {
		if v > math.MaxInt-total {
			return math.MaxInt
		}
		total += v
	}
	return total
}

// Fingerprint identifies the weight set. Results computed under different
// weights must never be mixed up.
func (w Weights) Fingerprint() string {
	b, _ := json.Marshal(w)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum[:6])
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

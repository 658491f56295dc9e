package matching

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultWeightsFitTheScale(t *testing.T) {
	if got := DefaultWeights().RawMaximum(); got != MaxScore {
		t.Fatalf("expected default weights to sum to %d, got %d", MaxScore, got)
	}
}

func TestLoadWeightsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.json")
	if err := os.WriteFile(path, []byte(`{"institution": 40, "near_budget_tolerance": 200}`), 0o600); err != nil {
		t.Fatalf("write weights: %v", err)
	}

	w, err := LoadWeightsFromFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if w.Institution != 40 {
		t.Fatalf("expected institution weight 40, got %d", w.Institution)
	}
	if w.NearBudgetTolerance != 200 {
		t.Fatalf("expected tolerance 200, got %v", w.NearBudgetTolerance)
	}
	if w.BudgetFit != DefaultWeights().BudgetFit {
		t.Fatalf("expected untouched weights to keep defaults, got %d", w.BudgetFit)
	}
}

func TestLoadWeightsFromFileFallsBack(t *testing.T) {
	w, err := LoadWeightsFromFile(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if w != DefaultWeights() {
		t.Fatalf("expected defaults on error, got %+v", w)
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{"institution": "lots"`), 0o600); err != nil {
		t.Fatalf("write weights: %v", err)
	}
	w, err = LoadWeightsFromFile(path)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if w != DefaultWeights() {
		t.Fatalf("expected defaults on decode error, got %+v", w)
	}
}

func TestFingerprintChangesWithWeights(t *testing.T) {
	base := DefaultWeights()
	changed := base
	changed.SleepSchedule = 5

	if base.Fingerprint() == changed.Fingerprint() {
		t.Fatal("expected different fingerprints for different weights")
	}
	if base.Fingerprint() != DefaultWeights().Fingerprint() {
		t.Fatal("expected stable fingerprint")
	}
}

func TestRawMaximumSaturates(t *testing.T) {
	w := DefaultWeights()
	if w.ExceedsScale() {
		t.Fatal("default weights must fit the scale")
	}

	w.Institution = math.MaxInt
	w.NoLister = math.MaxInt
	if got := w.RawMaximum(); got != math.MaxInt {
		t.Fatalf("expected saturation at MaxInt, got %d", got)
	}
	if !w.ExceedsScale() {
		t.Fatal("expected huge weights to exceed the scale")
	}
}

package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitForReturnsAfterSleep(t *testing.T) {
	originalSleep := sleep
	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }
	defer func() { sleep = originalSleep }()

	if err := WaitFor(context.Background(), 3*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 3*time.Second {
		t.Fatalf("expected sleep of 3s, got %v", slept)
	}
}

func TestWaitForHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForNonPositiveDuration(t *testing.T) {
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("", "  ", " b ", "c"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := FirstNonEmpty(); got != "" {
		t.Fatalf("expected empty string, got %q", got)
	}
}

func TestTruncateForLog(t *testing.T) {
	cases := map[string]struct {
		input string
		limit int
		want  string
	}{
		"disabled limit":   {input: "Both attend UofT", limit: 0, want: ""},
		"fits":             {input: "Perfect budget alignment", limit: 40, want: "Perfect budget alignment"},
		"cut with marker":  {input: "Near budget range", limit: 4, want: "Near..."},
		"trimmed first":    {input: "\n  Similar tidiness  \n", limit: 7, want: "Similar..."},
		"counts runes":     {input: "Résidence près du campus", limit: 9, want: "Résidence..."},
		"exactly at limit": {input: "Same sleep cycle", limit: 16, want: "Same sleep cycle"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := TruncateForLog(tc.input, tc.limit); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

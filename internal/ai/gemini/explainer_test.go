package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
	lastSystem string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestExplainerPrompt(t *testing.T) {
	stub := &stubGenerator{response: "  You both keep early hours. The rent sits inside your budget.  "}
	explainer := NewExplainer(stub, zap.NewNop(), 0)

	seeker := &housing.Profile{ID: "u1", University: "UofT", Cleanliness: 4, SleepSchedule: housing.SleepEarly}
	listing := &housing.Listing{
		ID:            "l1",
		Price:         1000,
		ListerProfile: &housing.Profile{University: "UofT"},
	}

	text := explainer.Explain(context.Background(), seeker, listing, matching.Result{Score: 100})
	if text != "You both keep early hours. The rent sits inside your budget." {
		t.Fatalf("unexpected explanation: %q", text)
	}

	for _, want := range []string{
		"Tenant: Uni UofT, Clean 4/5, Sleep early.",
		"Listing: Uni UofT, Rent $1000.",
		"Score: 100%.",
		"Provide a 2-sentence lifestyle sync summary.",
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, stub.lastPrompt)
		}
	}
}

func TestExplainerPromptWithoutLister(t *testing.T) {
	stub := &stubGenerator{response: "ok"}
	explainer := NewExplainer(stub, nil, 0)

	explainer.Explain(context.Background(), &housing.Profile{}, &housing.Listing{Price: 850.5}, matching.Result{Score: 140})

	for _, want := range []string{
		"Clean 3/5",
		"Listing: Uni Any, Rent $850.5.",
		"Score: 100%.",
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, stub.lastPrompt)
		}
	}
}

func TestExplainerFallbacks(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
		warn bool
	}{
		{name: "error", err: errors.New("quota"), want: ai.ExplainErrorFallback, warn: true},
		{name: "empty", err: ErrEmptyResponse, want: ai.ExplainEmptyFallback},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			explainer := NewExplainer(&stubGenerator{err: tc.err}, zap.New(core), 0)

			got := explainer.Explain(context.Background(), nil, nil, matching.Result{Score: 25})
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
			if warned := logs.Len() > 0; warned != tc.warn {
				t.Fatalf("warning logged = %v, want %v", warned, tc.warn)
			}
		})
	}
}

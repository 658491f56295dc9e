package gemini

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/logger"
	"github.com/spigell/roomeo/internal/matching"
	"github.com/spigell/roomeo/internal/metrics"
	"github.com/spigell/roomeo/internal/utils"
)

const defaultMaxLogLength = 200

//go:embed explain_prompt.md
var explainTemplate string

type contentGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
}

// Explainer writes a short lifestyle summary for a computed match.
type Explainer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Explainer = (*Explainer)(nil)

func NewExplainer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Explainer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Explainer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (e *Explainer) Explain(ctx context.Context, seeker *housing.Profile, listing *housing.Listing, result matching.Result) string {
	if seeker == nil {
		seeker = &housing.Profile{}
	}
	if listing == nil {
		listing = &housing.Listing{}
	}

	log := logger.ForMatch(e.logger, seeker.ID, listing.ID)
	prompt := buildExplainPrompt(seeker, listing, result)

	log.Debug("gemini explain request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, e.maxLogLen)),
	)

	start := time.Now()
	raw, err := e.generator.GenerateContent(ctx, "", prompt)
	metrics.AIRequestDuration.WithLabelValues("explain").Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, ErrEmptyResponse):
		metrics.AIRequests.WithLabelValues("explain", metrics.AIFallback).Inc()
		return ai.ExplainEmptyFallback
	case err != nil:
		metrics.AIRequests.WithLabelValues("explain", metrics.AIFallback).Inc()
		log.Warn("gemini explain failed, using fallback", zap.Error(err))
		return ai.ExplainErrorFallback
	}

	metrics.AIRequests.WithLabelValues("explain", metrics.AISuccess).Inc()
	log.Debug("gemini explain response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	return strings.TrimSpace(raw)
}

func buildExplainPrompt(seeker *housing.Profile, listing *housing.Listing, result matching.Result) string {
	listingUniversity := "Any"
	if listing.ListerProfile != nil && strings.TrimSpace(listing.ListerProfile.University) != "" {
		listingUniversity = strings.TrimSpace(listing.ListerProfile.University)
	}

	score := min(max(result.Score, 0), matching.MaxScore)

	replacer := strings.NewReplacer(
		"{{TENANT_UNIVERSITY}}", strings.TrimSpace(seeker.University),
		"{{TENANT_CLEANLINESS}}", strconv.Itoa(seeker.CleanlinessOrDefault()),
		"{{TENANT_SLEEP}}", string(seeker.SleepSchedule),
		"{{LISTING_UNIVERSITY}}", listingUniversity,
		"{{LISTING_RENT}}", strconv.FormatFloat(listing.Price, 'f', -1, 64),
		"{{SCORE}}", strconv.Itoa(score),
	)
	return strings.TrimSpace(replacer.Replace(explainTemplate))
}

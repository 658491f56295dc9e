package gemini

import (
	"context"
	"strings"
	"time"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/metrics"
)

//go:embed search_prompt.md
var searchTemplate string

type groundedGenerator interface {
	GenerateGrounded(ctx context.Context, system, message string) (*Grounded, error)
}

// Searcher finds student housing posts on the web through Google Search grounding.
type Searcher struct {
	generator groundedGenerator
	logger    *zap.Logger
}

var _ ai.Searcher = (*Searcher)(nil)

func NewSearcher(generator groundedGenerator, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Searcher{generator: generator, logger: logger}
}

func (s *Searcher) Search(ctx context.Context, query, institution string) *ai.SearchResult {
	query = strings.TrimSpace(query)
	if query == "" {
		query = ai.DefaultSearchQuery
	}

	prompt := strings.NewReplacer(
		"{{INSTITUTION}}", strings.TrimSpace(institution),
		"{{QUERY}}", query,
	).Replace(searchTemplate)

	start := time.Now()
	grounded, err := s.generator.GenerateGrounded(ctx, "", strings.TrimSpace(prompt))
	metrics.AIRequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.AIRequests.WithLabelValues("search", metrics.AIFallback).Inc()
		s.logger.Warn("gemini web search failed", zap.String("query", query), zap.Error(err))
		return &ai.SearchResult{Text: ai.SearchUnavailable, Sources: []ai.Source{}}
	}
	metrics.AIRequests.WithLabelValues("search", metrics.AISuccess).Inc()

	result := &ai.SearchResult{Text: grounded.Text, Sources: make([]ai.Source, 0, len(grounded.Chunks))}
	for _, chunk := range grounded.Chunks {
		if chunk == nil || chunk.Web == nil || strings.TrimSpace(chunk.Web.URI) == "" {
			continue
		}
		title := strings.TrimSpace(chunk.Web.Title)
		if title == "" {
			title = ai.DefaultSourceTitle
		}
		result.Sources = append(result.Sources, ai.Source{Title: title, URL: chunk.Web.URI})
	}

	s.logger.Debug("gemini web search done", zap.String("query", query), zap.Int("sources", len(result.Sources)))
	return result
}

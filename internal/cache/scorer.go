package cache

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
	"github.com/spigell/roomeo/internal/metrics"
)

// CachedScorer scores through a Cache. Cache failures are logged and the
// listing is scored directly.
type CachedScorer struct {
	scorer      *matching.Scorer
	cache       Cache
	fingerprint string
	logger      *zap.Logger
}

func NewCachedScorer(scorer *matching.Scorer, c Cache, logger *zap.Logger) *CachedScorer {
	if scorer == nil {
		scorer = matching.NewScorer(matching.DefaultWeights())
	}
	if c == nil {
		c = Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CachedScorer{
		scorer:      scorer,
		cache:       c,
		fingerprint: scorer.Weights().Fingerprint(),
		logger:      logger,
	}
}

func (s *CachedScorer) Score(ctx context.Context, seeker *housing.Profile, listing *housing.Listing) matching.Result {
	if seeker == nil || listing == nil || seeker.ID == "" || listing.ID == "" {
		metrics.CacheLookups.WithLabelValues(metrics.CacheSkip).Inc()
		return s.score(seeker, listing)
	}

	key := Key(seeker.ID, listing.ID, s.fingerprint)
	fields := []zap.Field{zap.String("seeker_id", seeker.ID), zap.String("listing_id", listing.ID)}

	cached, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues(metrics.CacheError).Inc()
		s.logger.Warn("match cache lookup failed, scoring directly", append(fields, zap.Error(err))...)
		return s.score(seeker, listing)
	case ok:
		metrics.CacheLookups.WithLabelValues(metrics.CacheHit).Inc()
		return cached
	}

	metrics.CacheLookups.WithLabelValues(metrics.CacheMiss).Inc()
	result := s.score(seeker, listing)

	if err := s.cache.Set(ctx, key, result); err != nil {
		s.logger.Warn("failed to store match result", append(fields, zap.Error(err))...)
	}

	return result
}

// ScoreAll is matching.Scorer.ScoreAll through the cache.
func (s *CachedScorer) ScoreAll(ctx context.Context, seeker *housing.Profile, listings []*housing.Listing) []matching.Scored {
	out := make([]matching.Scored, 0, len(listings))
	for _, listing := range listings {
		if listing == nil {
			continue
		}
		out = append(out, matching.Scored{Listing: listing, Match: s.Score(ctx, seeker, listing)})
	}

	matching.SortScored(out)
	return out
}

func (s *CachedScorer) score(seeker *housing.Profile, listing *housing.Listing) matching.Result {
	result := s.scorer.Score(seeker, listing)
	metrics.MatchScores.Observe(float64(result.Score))
	metrics.MatchQuality.WithLabelValues(result.Quality()).Inc()
	return result
}

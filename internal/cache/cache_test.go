package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedis(client, time.Minute)
}

func perfectPair() (*housing.Profile, *housing.Listing) {
	seeker := &housing.Profile{
		ID: "seeker-1", University: "UofT", Cleanliness: 4,
		SleepSchedule: housing.SleepEarly, BudgetMin: 800, BudgetMax: 1200,
	}
	listing := &housing.Listing{
		ID: "listing-1", Price: 1000,
		ListerProfile: &housing.Profile{University: "uoft ", Cleanliness: 5, SleepSchedule: housing.SleepEarly},
	}
	return seeker, listing
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (matching.Result, bool, error) {
	return matching.Result{}, false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, matching.Result) error {
	return errors.New("connection refused")
}

func TestRedisRoundTrip(t *testing.T) {
	mr, c := setupRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	want := matching.Result{Score: 55, Reasons: []string{"Near budget range"}}
	require.NoError(t, c.Set(ctx, "k", want))

	got, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	assert.Equal(t, time.Minute, mr.TTL("k"))
}

func TestCachedScorerStoresAndServesResults(t *testing.T) {
	mr, c := setupRedis(t)
	ctx := context.Background()
	seeker, listing := perfectPair()

	scorer := matching.NewScorer(matching.DefaultWeights())
	cached := NewCachedScorer(scorer, c, zap.NewNop())

	first := cached.Score(ctx, seeker, listing)
	assert.Equal(t, 100, first.Score)

	key := Key(seeker.ID, listing.ID, scorer.Weights().Fingerprint())
	assert.True(t, mr.Exists(key))

	// Poison the stored value to prove the second call reads from the cache.
	require.NoError(t, c.Set(ctx, key, matching.Result{Score: 42}))
	second := cached.Score(ctx, seeker, listing)
	assert.Equal(t, 42, second.Score)
}

func TestCachedScorerKeysIncludeWeights(t *testing.T) {
	mr, c := setupRedis(t)
	ctx := context.Background()
	seeker, listing := perfectPair()

	defaults := NewCachedScorer(matching.NewScorer(matching.DefaultWeights()), c, nil)
	defaults.Score(ctx, seeker, listing)

	custom := matching.DefaultWeights()
	custom.Institution = 5
	customScorer := NewCachedScorer(matching.NewScorer(custom), c, nil)
	result := customScorer.Score(ctx, seeker, listing)

	assert.Equal(t, 75, result.Score)
	assert.Len(t, mr.Keys(), 2)
}

func TestCachedScorerSkipsMissingIDs(t *testing.T) {
	mr, c := setupRedis(t)
	seeker, listing := perfectPair()
	seeker.ID = ""

	result := NewCachedScorer(nil, c, nil).Score(context.Background(), seeker, listing)

	assert.Equal(t, 100, result.Score)
	assert.Empty(t, mr.Keys())
}

func TestCachedScorerFallsBackOnCacheError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	seeker, listing := perfectPair()

	result := NewCachedScorer(nil, failingCache{}, zap.New(core)).Score(context.Background(), seeker, listing)

	assert.Equal(t, matching.Score(seeker, listing), result)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "match cache lookup failed, scoring directly", logs.All()[0].Message)
}

func TestCachedScorerFallsBackWhenRedisIsDown(t *testing.T) {
	mr, c := setupRedis(t)
	mr.Close()
	seeker, listing := perfectPair()

	result := NewCachedScorer(nil, c, nil).Score(context.Background(), seeker, listing)

	assert.Equal(t, 100, result.Score)
}

func TestCachedScorerScoreAllOrdersResults(t *testing.T) {
	seeker, best := perfectPair()
	worse := &housing.Listing{ID: "listing-2", Price: 1300, CreatedAt: "2024-05-01"}
	nothing := &housing.Listing{ID: "listing-3", Price: 5000, CreatedAt: "2024-06-01"}

	scored := NewCachedScorer(nil, Nop{}, nil).ScoreAll(context.Background(), seeker,
		[]*housing.Listing{nothing, worse, nil, best})

	require.Len(t, scored, 3)
	assert.Equal(t, "listing-1", scored[0].Listing.ID)
	assert.Equal(t, "listing-2", scored[1].Listing.ID)
	assert.Equal(t, "listing-3", scored[2].Listing.ID)
}

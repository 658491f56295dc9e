// Package cache memoizes match results. It sits in front of the scorer and
// never changes what the scorer returns.
package cache

import (
	"context"
	"fmt"

	"github.com/spigell/roomeo/internal/matching"
)

const keyPrefix = "roomeo:match"

type Cache interface {
	// Get returns the cached result, and false when there is none.
	Get(ctx context.Context, key string) (matching.Result, bool, error)
	Set(ctx context.Context, key string, result matching.Result) error
}

// Key builds the cache key for a seeker and a listing scored with the
// weights identified by fingerprint.
func Key(seekerID, listingID, fingerprint string) string {
	return fmt.Sprintf("%s:%s:%s:%s", keyPrefix, seekerID, listingID, fingerprint)
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) (matching.Result, bool, error) {
	return matching.Result{}, false, nil
}

func (Nop) Set(context.Context, string, matching.Result) error {
	return nil
}

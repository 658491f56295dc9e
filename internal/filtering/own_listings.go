package filtering

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
)

type ownListingsFilter struct {
	toggle
}

// NewOwnListings creates a filter that removes listings posted by the seeker.
func NewOwnListings() Filter {
	return &ownListingsFilter{}
}

func (f *ownListingsFilter) Name() string { return "own_listings" }

func (f *ownListingsFilter) Validate(*Config) error { return nil }

func (f *ownListingsFilter) Apply(_ context.Context, deps Deps, v *housing.Listings) (*housing.Listings, Step, error) {
	if deps.Seeker == nil || deps.Seeker.ID == "" {
		return v, unchanged(v), nil
	}

	initial := v.Len()
	excluded := v.Exclude(housing.ListingUserIDField, []string{deps.Seeker.ID})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding own listings",
			zap.Strings("excluded_listings", excluded),
			zap.Int("listings_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *ownListingsFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

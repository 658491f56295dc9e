package filtering

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/housing"
)

type hiddenFileFilter struct {
	toggle
	path string
}

// NewHiddenFile creates a filter that removes listings recorded in the hidden listings file.
func NewHiddenFile() Filter {
	return &hiddenFileFilter{}
}

func (f *hiddenFileFilter) Name() string { return "hidden_file" }

func (f *hiddenFileFilter) Validate(cfg *Config) error {
	f.path = ""
	if cfg != nil {
		f.path = strings.TrimSpace(cfg.HiddenFile)
	}
	return nil
}

func (f *hiddenFileFilter) Apply(_ context.Context, deps Deps, v *housing.Listings) (*housing.Listings, Step, error) {
	if f.path == "" {
		return v, unchanged(v), nil
	}

	hidden, err := housing.GetHiddenListingsFromFile(f.path)
	if err != nil {
		return v, Step{}, fmt.Errorf("getting hidden listings from file: %w", err)
	}

	initial := v.Len()
	removed := v.Exclude(housing.ListingIDField, hidden.ListingIDs())
	if deps.Logger != nil && len(removed) > 0 {
		deps.Logger.Info("excluding listings based on hidden file",
			zap.String("path", f.path),
			zap.Strings("excluded_listings", removed),
			zap.Int("listings_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(removed), Left: v.Len()}, nil
}

func (f *hiddenFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

package filtering

import (
	"context"
	"strings"

	"github.com/spigell/roomeo/internal/housing"
)

type textFilter struct {
	toggle
	term string
}

// NewText creates a filter that keeps listings whose title or location contains the search term.
func NewText() Filter {
	return &textFilter{}
}

func (f *textFilter) Name() string { return "text" }

func (f *textFilter) Validate(cfg *Config) error {
	f.term = ""
	if cfg != nil {
		f.term = strings.TrimSpace(cfg.Text)
	}
	return nil
}

func (f *textFilter) Apply(_ context.Context, _ Deps, v *housing.Listings) (*housing.Listings, Step, error) {
	if f.term == "" {
		return v, unchanged(v), nil
	}

	initial := v.Len()
	dropped := v.Keep(func(l *housing.Listing) bool { return l.Matches(f.term) })

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *textFilter) Status() Status {
	details := map[string]string{}
	if f.term != "" {
		details["term"] = f.term
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

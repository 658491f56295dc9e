package filtering

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/roomeo/internal/housing"
)

type roomTypeFilter struct {
	toggle
	roomType housing.RoomType
}

// NewRoomType creates a filter that keeps only listings of the configured room type.
func NewRoomType() Filter {
	return &roomTypeFilter{}
}

func (f *roomTypeFilter) Name() string { return "room_type" }

func (f *roomTypeFilter) Validate(cfg *Config) error {
	f.roomType = ""
	if cfg == nil {
		return nil
	}

	value := housing.RoomType(strings.ToLower(strings.TrimSpace(cfg.RoomType)))
	switch value {
	case "", housing.RoomPrivate, housing.RoomShared:
		f.roomType = value
		return nil
	default:
		return fmt.Errorf("unknown room type %q, expected %q or %q", cfg.RoomType, housing.RoomPrivate, housing.RoomShared)
	}
}

func (f *roomTypeFilter) Apply(_ context.Context, _ Deps, v *housing.Listings) (*housing.Listings, Step, error) {
	if f.roomType == "" {
		return v, unchanged(v), nil
	}

	initial := v.Len()
	dropped := v.Keep(func(l *housing.Listing) bool { return l.RoomType == f.roomType })

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *roomTypeFilter) Status() Status {
	details := map[string]string{}
	if f.roomType != "" {
		details["room_type"] = string(f.roomType)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

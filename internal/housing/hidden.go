package housing

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

const (
	HiddenByUser  = "user"
	HiddenByScore = "score"
)

// HiddenListings is the content of the hidden listings file. Listings in it
// never show up in the feed again.
type HiddenListings struct {
	Items []*HiddenListing
}

type HiddenListing struct {
	ID       string
	Title    string
	Location string
	HiddenAt time.Time
	HiddenBy string `json:",omitempty"`
	Reason   string `json:",omitempty"`
}

func (v *Listings) ToHidden(actor, reason string) *HiddenListings {
	hidden := &HiddenListings{}
	for _, listing := range v.Items {
		hidden.Items = append(hidden.Items, &HiddenListing{
			ID:       listing.ID,
			Title:    listing.Title,
			Location: listing.Location,
			HiddenAt: time.Now().UTC(),
			HiddenBy: actor,
			Reason:   reason,
		})
	}
	return hidden
}

// GetHiddenListingsFromFile reads the hidden listings file. A missing or
// empty file yields an empty list.
func GetHiddenListingsFromFile(path string) (*HiddenListings, error) {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return &HiddenListings{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &HiddenListings{}, nil
	}

	var hidden HiddenListings
	if err := json.NewDecoder(file).Decode(&hidden); err != nil {
		return nil, err
	}
	return &hidden, nil
}

// Append adds entries that are not in the list yet.
func (h *HiddenListings) Append(s *HiddenListings) {
	known := make(map[string]struct{}, len(h.Items))
	for _, item := range h.Items {
		known[item.ID] = struct{}{}
	}
	for _, item := range s.Items {
		if _, ok := known[item.ID]; ok {
			continue
		}
		known[item.ID] = struct{}{}
		h.Items = append(h.Items, item)
	}
}

func (h *HiddenListings) ListingIDs() []string {
	ids := make([]string, 0, len(h.Items))
	for _, item := range h.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (h *HiddenListings) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(h)
}

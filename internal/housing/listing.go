package housing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	ListingIDField     = "ID"
	ListingUserIDField = "UserID"
)

type RoomType string

const (
	RoomPrivate RoomType = "private"
	RoomShared  RoomType = "shared"
)

type Listings struct {
	Items []*Listing
}

type Listing struct {
	ID            string   `json:"id,omitempty"`
	UserID        string   `json:"user_id,omitempty"`
	Title         string   `json:"title,omitempty"`
	Location      string   `json:"location,omitempty"`
	Price         float64  `json:"price"`
	StartDate     string   `json:"start_date,omitempty"`
	EndDate       string   `json:"end_date,omitempty"`
	RoomType      RoomType `json:"room_type,omitempty"`
	Amenities     []string `json:"amenities,omitempty"`
	Description   string   `json:"description,omitempty"`
	PhotoURLs     []string `json:"photo_urls,omitempty"`
	CreatedAt     string   `json:"created_at,omitempty"`
	ListerProfile *Profile `json:"lister_profile,omitempty"`
}

// Amenities offered by the listing form.
var Amenities = []string{
	"Wifi", "Kitchen", "Laundry", "Parking", "Gym",
	"Study Room", "Air Conditioning", "Private Bathroom", "Furnished",
}

func (l *Listing) GetStringField(name string) string {
	switch name {
	case ListingIDField:
		return l.ID
	case ListingUserIDField:
		return l.UserID
	default:
		return ""
	}
}

// Matches reports whether the search term is contained in the title or the
// location, ignoring case. An empty term matches everything.
func (l *Listing) Matches(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), term) ||
		strings.Contains(strings.ToLower(l.Location), term)
}

func (v *Listings) Len() int {
	return len(v.Items)
}

func (v *Listings) FindByID(id string) *Listing {
	for _, listing := range v.Items {
		if listing.ID == id {
			return listing
		}
	}
	return nil
}

// Keep retains the listings for which keep returns true and returns the IDs
// of the dropped ones. Order is preserved.
func (v *Listings) Keep(keep func(*Listing) bool) []string {
	var dropped []string
	kept := v.Items[:0]
	for _, listing := range v.Items {
		if keep(listing) {
			kept = append(kept, listing)
			continue
		}
		dropped = append(dropped, listing.ID)
	}
	v.Items = kept
	return dropped
}

// Exclude drops every listing whose named field equals one of the targets.
func (v *Listings) Exclude(name string, targets []string) []string {
	if len(targets) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		set[target] = struct{}{}
	}
	return v.Keep(func(l *Listing) bool {
		_, found := set[l.GetStringField(name)]
		return !found
	})
}

func (v *Listings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "listings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportByLocation groups a short summary of each listing by its location.
func (v *Listings) ReportByLocation() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, listing := range v.Items {
		key := strings.TrimSpace(listing.Location)
		if key == "" {
			key = "unknown"
		}

		entry := map[string]string{
			"id":        listing.ID,
			"title":     listing.Title,
			"price":     fmt.Sprintf("%.0f", listing.Price),
			"room_type": string(listing.RoomType),
			"dates":     fmt.Sprintf("%s - %s", listing.StartDate, listing.EndDate),
		}
		if listing.ListerProfile != nil {
			entry["lister"] = listing.ListerProfile.Name
			entry["lister_university"] = listing.ListerProfile.University
		}

		report[key] = append(report[key], entry)
	}
	return report
}

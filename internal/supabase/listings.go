package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/roomeo/internal/housing"
)

const (
	listingsTable = "listings"
	profilesTable = "profiles"
	// listingSelect embeds the lister profile the way the feed needs it.
	listingSelect = "*,lister_profile:profiles(*)"
)

// DefaultPhotoURL is attached to listings created without photos.
const DefaultPhotoURL = "https://images.unsplash.com/photo-1522771739844-6a9f6d5f14af?auto=format&fit=crop&w=800"

func (c *Client) GetProfile(ctx context.Context, id string) (*housing.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("profile id is required")
	}

	q := url.Values{}
	q.Set("select", "*")
	q.Set("id", eq(id))

	rows, err := c.getRows(ctx, profilesTable, q)
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}

	var profile housing.Profile
	if err := decodeRows(rows[0], &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListListings returns every listing with its lister profile, newest first.
func (c *Client) ListListings(ctx context.Context) (*housing.Listings, error) {
	q := url.Values{}
	q.Set("select", listingSelect)
	q.Set("order", "created_at.desc")

	rows, err := c.getRows(ctx, listingsTable, q)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	var listings []*housing.Listing
	if err := decodeRows(rows, &listings); err != nil {
		return nil, err
	}

	return &housing.Listings{Items: listings}, nil
}

func (c *Client) GetListing(ctx context.Context, id string) (*housing.Listing, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("listing id is required")
	}

	q := url.Values{}
	q.Set("select", listingSelect)
	q.Set("id", eq(id))

	rows, err := c.getRows(ctx, listingsTable, q)
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}

	var listing housing.Listing
	if err := decodeRows(rows[0], &listing); err != nil {
		return nil, err
	}
	return &listing, nil
}

type listingInsert struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Title       string           `json:"title"`
	Location    string           `json:"location"`
	Price       float64          `json:"price"`
	StartDate   string           `json:"start_date,omitempty"`
	EndDate     string           `json:"end_date,omitempty"`
	RoomType    housing.RoomType `json:"room_type,omitempty"`
	Amenities   []string         `json:"amenities"`
	Description string           `json:"description"`
	PhotoURLs   []string         `json:"photo_urls"`
}

// CreateListings inserts the listings and returns the stored rows. Listings
// without an ID get a random one, listings without photos get DefaultPhotoURL.
func (c *Client) CreateListings(ctx context.Context, listings ...*housing.Listing) (*housing.Listings, error) {
	if len(listings) == 0 {
		return &housing.Listings{}, nil
	}

	payload := make([]listingInsert, 0, len(listings))
	for _, l := range listings {
		if l == nil {
			continue
		}
		if strings.TrimSpace(l.UserID) == "" {
			return nil, errors.New("listing owner is required")
		}
		if strings.TrimSpace(l.Title) == "" {
			return nil, errors.New("listing title is required")
		}

		id := strings.TrimSpace(l.ID)
		if id == "" {
			id = uuid.NewString()
		}
		photos := l.PhotoURLs
		if len(photos) == 0 {
			photos = []string{DefaultPhotoURL}
		}
		amenities := l.Amenities
		if amenities == nil {
			amenities = []string{}
		}

		payload = append(payload, listingInsert{
			ID:          id,
			UserID:      l.UserID,
			Title:       l.Title,
			Location:    l.Location,
			Price:       l.Price,
			StartDate:   l.StartDate,
			EndDate:     l.EndDate,
			RoomType:    l.RoomType,
			Amenities:   amenities,
			Description: l.Description,
			PhotoURLs:   photos,
		})
	}

	rows, err := c.postRows(ctx, listingsTable, payload)
	if err != nil {
		return nil, fmt.Errorf("create listings: %w", err)
	}

	var created []*housing.Listing
	if err := decodeRows(rows, &created); err != nil {
		return nil, err
	}

	return &housing.Listings{Items: created}, nil
}

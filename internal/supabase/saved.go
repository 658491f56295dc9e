package supabase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/spigell/roomeo/internal/housing"
)

const savedTable = "saved_listings"

type savedRow struct {
	Listing *housing.Listing `json:"listing"`
}

// SavedListings returns the listings bookmarked by the user.
func (c *Client) SavedListings(ctx context.Context, userID string) (*housing.Listings, error) {
	q := url.Values{}
	q.Set("select", "listing:listings("+listingSelect+")")
	q.Set("user_id", eq(userID))

	rows, err := c.getRows(ctx, savedTable, q)
	if err != nil {
		return nil, fmt.Errorf("get saved listings: %w", err)
	}

	var saved []savedRow
	if err := decodeRows(rows, &saved); err != nil {
		return nil, err
	}

	listings := &housing.Listings{}
	for _, row := range saved {
		if row.Listing != nil {
			listings.Items = append(listings.Items, row.Listing)
		}
	}
	return listings, nil
}

// ToggleSaved bookmarks the listing, or removes the bookmark when it
// exists. It returns whether the listing is saved afterwards.
func (c *Client) ToggleSaved(ctx context.Context, userID, listingID string) (bool, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", eq(userID))
	q.Set("listing_id", eq(listingID))

	rows, err := c.getRows(ctx, savedTable, q)
	if err != nil {
		return false, fmt.Errorf("check saved listing: %w", err)
	}

	if len(rows) > 0 {
		q.Del("select")
		if err := c.deleteRows(ctx, savedTable, q); err != nil {
			return true, fmt.Errorf("remove saved listing: %w", err)
		}
		return false, nil
	}

	body := map[string]string{"user_id": userID, "listing_id": listingID}
	if _, err := c.postRows(ctx, savedTable, body); err != nil {
		return false, fmt.Errorf("save listing: %w", err)
	}
	return true, nil
}

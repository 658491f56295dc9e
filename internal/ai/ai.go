package ai

import (
	"context"
	"fmt"

	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/matching"
)

const (
	// ExplainErrorFallback is returned when the explanation could not be generated.
	ExplainErrorFallback = "Institutional proximity and shared lifestyle preferences indicate high compatibility."
	// ExplainEmptyFallback is returned when the model replied with nothing.
	ExplainEmptyFallback = "Strong lifestyle alignment and institutional proximity make this a high-quality match."
	// SearchUnavailable is returned as the search text when web search failed.
	SearchUnavailable = "Our AI scraper is currently facing restrictions on external sites. Please browse our verified student-posted marketplace below."
	// DefaultSearchQuery is used when the search query is blank.
	DefaultSearchQuery = "Major Cities"
	// DefaultSourceTitle names grounded sources that came without a title.
	DefaultSourceTitle = "External Marketplace Listing"
)

// Explainer narrates a computed match. It never fails: implementations
// return one of the fallback texts instead.
type Explainer interface {
	Explain(ctx context.Context, seeker *housing.Profile, listing *housing.Listing, result matching.Result) string
}

type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type SearchResult struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// Searcher looks for housing posts outside the marketplace.
type Searcher interface {
	Search(ctx context.Context, query, institution string) *SearchResult
}

// Static is used when no AI provider is configured.
type Static struct{}

func (Static) Explain(context.Context, *housing.Profile, *housing.Listing, matching.Result) string {
	return ExplainErrorFallback
}

func (Static) Search(context.Context, string, string) *SearchResult {
	return &SearchResult{Text: SearchUnavailable}
}

// ListingsFromSources turns grounded search sources into listings that can
// be stored locally. Only the title, the location and the link are known.
func ListingsFromSources(result *SearchResult, ownerID, location string) *housing.Listings {
	listings := &housing.Listings{}
	if result == nil {
		return listings
	}

	for _, src := range result.Sources {
		if src.URL == "" {
			continue
		}
		listings.Items = append(listings.Items, &housing.Listing{
			UserID:      ownerID,
			Title:       src.Title,
			Location:    location,
			Description: fmt.Sprintf("Found on the web: %s", src.URL),
		})
	}
	return listings
}

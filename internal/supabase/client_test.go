package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/spigell/roomeo/internal/housing"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	header http.Header
	body   string
}

type fakeBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request)
}

func newFakeBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*fakeBackend, *Client) {
	t.Helper()

	backend := &fakeBackend{handler: handler}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))
		backend.mu.Lock()
		backend.requests = append(backend.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			header: r.Header.Clone(),
			body:   string(body),
		})
		backend.mu.Unlock()
		backend.handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return backend, New(nil, srv.URL+"/", "anon-key")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListListingsDecodesListerProfile(t *testing.T) {
	backend, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{
				"id":         "l1",
				"user_id":    "u2",
				"title":      "Sunny room",
				"location":   "Toronto",
				"price":      1000,
				"room_type":  "private",
				"amenities":  []string{"Wifi"},
				"created_at": "2024-01-02T00:00:00Z",
				"lister_profile": map[string]any{
					"id":                "u2",
					"university":        "UofT",
					"cleanliness":       4,
					"sleep_schedule":    "early",
					"gender_preference": nil,
					"budget_min":        800,
					"budget_max":        1200,
				},
			},
			{
				"id":             "l2",
				"title":          "Basement",
				"price":          "750",
				"lister_profile": nil,
			},
		})
	})

	listings, err := client.ListListings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if listings.Len() != 2 {
		t.Fatalf("expected 2 listings, got %d", listings.Len())
	}

	first := listings.Items[0]
	if first.ListerProfile == nil {
		t.Fatalf("expected lister profile to be decoded")
	}
	if first.ListerProfile.Cleanliness != 4 || first.ListerProfile.SleepSchedule != housing.SleepEarly {
		t.Fatalf("unexpected lister profile: %+v", first.ListerProfile)
	}
	if first.Price != 1000 || first.RoomType != housing.RoomPrivate {
		t.Fatalf("unexpected listing: %+v", first)
	}

	second := listings.Items[1]
	if second.ListerProfile != nil {
		t.Fatalf("expected nil lister profile, got %+v", second.ListerProfile)
	}
	if second.Price != 750 {
		t.Fatalf("expected weakly typed price 750, got %v", second.Price)
	}

	req := backend.requests[0]
	if req.path != "/rest/v1/listings" {
		t.Fatalf("unexpected path: %s", req.path)
	}
	if req.query != "order=created_at.desc&select=%2A%2Clister_profile%3Aprofiles%28%2A%29" {
		t.Fatalf("unexpected query: %s", req.query)
	}
	if req.header.Get("apikey") != "anon-key" {
		t.Fatalf("expected apikey header")
	}
	if req.header.Get("Authorization") != "Bearer anon-key" {
		t.Fatalf("expected anon key as bearer, got %q", req.header.Get("Authorization"))
	}
	if req.header.Get("x-application-name") != applicationName {
		t.Fatalf("expected application header")
	}
}

func TestGetListingNotFound(t *testing.T) {
	_, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})

	_, err := client.GetListing(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAPIErrorIsReturned(t *testing.T) {
	_, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"code":    "PGRST301",
			"message": "JWT expired",
		})
	})

	_, err := client.GetProfile(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Code != "PGRST301" || apiErr.Message != "JWT expired" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
}

func TestCreateListingsFillsDefaults(t *testing.T) {
	backend, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		var payload []map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		writeJSON(w, http.StatusCreated, payload)
	})

	created, err := client.CreateListings(context.Background(), &housing.Listing{
		UserID: "u1",
		Title:  "Room near campus",
		Price:  900,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if created.Len() != 1 {
		t.Fatalf("expected 1 created listing, got %d", created.Len())
	}
	listing := created.Items[0]
	if listing.ID == "" {
		t.Fatalf("expected generated id")
	}
	if len(listing.PhotoURLs) != 1 || listing.PhotoURLs[0] != DefaultPhotoURL {
		t.Fatalf("expected default photo, got %v", listing.PhotoURLs)
	}

	req := backend.requests[0]
	if req.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.method)
	}
	if req.header.Get("Prefer") != preferReturn {
		t.Fatalf("expected Prefer header, got %q", req.header.Get("Prefer"))
	}
}

func TestCreateListingsRequiresOwner(t *testing.T) {
	client := New(nil, "http://127.0.0.1:1", "key")
	if _, err := client.CreateListings(context.Background(), &housing.Listing{Title: "x"}); err == nil {
		t.Fatal("expected error for listing without owner")
	}
}

func TestToggleSaved(t *testing.T) {
	saved := false
	backend, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if saved {
				writeJSON(w, http.StatusOK, []map[string]any{{"user_id": "u1", "listing_id": "l1"}})
				return
			}
			writeJSON(w, http.StatusOK, []any{})
		case http.MethodPost:
			saved = true
			writeJSON(w, http.StatusCreated, []map[string]any{{"user_id": "u1", "listing_id": "l1"}})
		case http.MethodDelete:
			saved = false
			w.WriteHeader(http.StatusNoContent)
		}
	})

	state, err := client.ToggleSaved(context.Background(), "u1", "l1")
	if err != nil || !state {
		t.Fatalf("expected listing to be saved, got %v (%v)", state, err)
	}

	state, err = client.ToggleSaved(context.Background(), "u1", "l1")
	if err != nil || state {
		t.Fatalf("expected listing to be unsaved, got %v (%v)", state, err)
	}

	last := backend.requests[len(backend.requests)-1]
	if last.method != http.MethodDelete {
		t.Fatalf("expected DELETE as last request, got %s", last.method)
	}
	if last.query != "listing_id=eq.l1&user_id=eq.u1" {
		t.Fatalf("unexpected delete query: %s", last.query)
	}
}

func TestConversationsGroupsByListingAndUser(t *testing.T) {
	_, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			message("m3", "l1", "u2", "u1", "newest", map[string]any{
				"listing":  map[string]any{"title": "Sunny room"},
				"sender":   map[string]any{"name": "Alex"},
				"receiver": map[string]any{"name": "Me"},
			}),
			message("m2", "l1", "u1", "u2", "older", map[string]any{
				"listing": map[string]any{"title": "Sunny room"},
			}),
			message("m1", "l2", "u1", "u3", "other", map[string]any{
				"listing":  map[string]any{"title": "Studio"},
				"receiver": map[string]any{"name": "Sam"},
			}),
		})
	})

	conversations, err := client.Conversations(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}

	first := conversations[0]
	if first.Last.ID != "m3" || first.OtherUserID != "u2" || first.OtherName != "Alex" || first.ListingTitle != "Sunny room" {
		t.Fatalf("unexpected first conversation: %+v", first)
	}

	second := conversations[1]
	if second.OtherUserID != "u3" || second.OtherName != "Sam" || second.ListingTitle != "Studio" {
		t.Fatalf("unexpected second conversation: %+v", second)
	}
}

func message(id, listingID, senderID, receiverID, text string, joined map[string]any) map[string]any {
	row := map[string]any{
		"id":          id,
		"listing_id":  listingID,
		"sender_id":   senderID,
		"receiver_id": receiverID,
		"text":        text,
	}
	for k, v := range joined {
		row[k] = v
	}
	return row
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	client := New(nil, "http://127.0.0.1:1", "key")
	_, err := client.SendMessage(context.Background(), &housing.Message{
		ListingID: "l1", SenderID: "u1", ReceiverID: "u2", Text: "   ",
	})
	if err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestSignInSetsAccessToken(t *testing.T) {
	backend, client := newFakeBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/token" {
			writeJSON(w, http.StatusOK, map[string]any{
				"access_token": "user-token",
				"user":         map[string]any{"id": "u1", "email": "a@b.c"},
			})
			return
		}
		writeJSON(w, http.StatusOK, []map[string]any{{"id": "u1"}})
	})

	session, err := client.SignIn(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.User.ID != "u1" {
		t.Fatalf("unexpected session: %+v", session)
	}

	if _, err := client.GetProfile(context.Background(), "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backend.requests[0].query != "grant_type=password" {
		t.Fatalf("unexpected sign in query: %s", backend.requests[0].query)
	}
	if got := backend.requests[1].header.Get("Authorization"); got != "Bearer user-token" {
		t.Fatalf("expected user token as bearer, got %q", got)
	}
}

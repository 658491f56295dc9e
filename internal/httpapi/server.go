// Package httpapi serves match results over JSON for other frontends.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spigell/roomeo/internal/ai"
	"github.com/spigell/roomeo/internal/housing"
	"github.com/spigell/roomeo/internal/logger"
	"github.com/spigell/roomeo/internal/matching"
	"github.com/spigell/roomeo/internal/metrics"
)

const (
	defaultLimit    = 20
	maxLimit        = 100
	shutdownTimeout = 10 * time.Second
)

// Backend is satisfied by supabase.Client and store.Snapshot.
type Backend interface {
	GetProfile(ctx context.Context, id string) (*housing.Profile, error)
	GetListing(ctx context.Context, id string) (*housing.Listing, error)
	ListListings(ctx context.Context) (*housing.Listings, error)
}

// Scorer is satisfied by cache.CachedScorer.
type Scorer interface {
	Score(ctx context.Context, seeker *housing.Profile, listing *housing.Listing) matching.Result
	ScoreAll(ctx context.Context, seeker *housing.Profile, listings []*housing.Listing) []matching.Scored
}

type Server struct {
	backend   Backend
	scorer    Scorer
	explainer ai.Explainer
	logger    *zap.Logger
}

func NewServer(backend Backend, scorer Scorer, explainer ai.Explainer, log *zap.Logger) *Server {
	if explainer == nil {
		explainer = ai.Static{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{backend: backend, scorer: scorer, explainer: explainer, logger: log}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /health", s.instrument("health", s.handleHealth))
	mux.Handle("POST /match", s.instrument("match", s.handleMatch))
	mux.Handle("GET /listings", s.instrument("listings", s.handleListings))
	mux.Handle("GET /listings/{id}", s.instrument("listing", s.handleListing))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Serve runs the handler on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("http api listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down http api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-serverErr
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type MatchRequest struct {
	Seeker  *housing.Profile `json:"seeker"`
	Listing *housing.Listing `json:"listing"`
}

type MatchResponse struct {
	Score   int      `json:"score"`
	Reasons []string `json:"reasons"`
	Quality string   `json:"quality"`
}

func newMatchResponse(r matching.Result) MatchResponse {
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return MatchResponse{Score: r.Score, Reasons: reasons, Quality: r.Quality()}
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	result := s.scorer.Score(r.Context(), req.Seeker, req.Listing)
	writeJSON(w, http.StatusOK, newMatchResponse(result))
}

type ScoredListing struct {
	Listing *housing.Listing `json:"listing"`
	Match   MatchResponse    `json:"match"`
}

type ListingsResponse struct {
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Total  int             `json:"total"`
	Items  []ScoredListing `json:"items"`
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	seeker, ok := s.seeker(w, r)
	if !ok {
		return
	}

	listings, err := s.backend.ListListings(r.Context())
	if err != nil {
		s.backendError(w, "list listings", err)
		return
	}

	listings.Exclude(housing.ListingUserIDField, []string{seeker.ID})
	scored := s.scorer.ScoreAll(r.Context(), seeker, listings.Items)

	limit, offset := parseLimitOffset(r)
	total := len(scored)
	offset = min(offset, total)
	end := min(offset+limit, total)

	items := make([]ScoredListing, 0, end-offset)
	for _, sc := range scored[offset:end] {
		items = append(items, ScoredListing{Listing: sc.Listing, Match: newMatchResponse(sc.Match)})
	}

	writeJSON(w, http.StatusOK, ListingsResponse{Limit: limit, Offset: offset, Total: total, Items: items})
}

type ListingResponse struct {
	Listing     *housing.Listing `json:"listing"`
	Match       MatchResponse    `json:"match"`
	Explanation string           `json:"explanation,omitempty"`
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	seeker, ok := s.seeker(w, r)
	if !ok {
		return
	}

	listing, err := s.backend.GetListing(r.Context(), r.PathValue("id"))
	if err != nil {
		s.backendError(w, "get listing", err)
		return
	}

	result := s.scorer.Score(r.Context(), seeker, listing)
	resp := ListingResponse{Listing: listing, Match: newMatchResponse(result)}

	if explain, _ := strconv.ParseBool(r.URL.Query().Get("explain")); explain {
		resp.Explanation = s.explainer.Explain(r.Context(), seeker, listing, result)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) seeker(w http.ResponseWriter, r *http.Request) (*housing.Profile, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("seeker"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "seeker query parameter is required")
		return nil, false
	}

	seeker, err := s.backend.GetProfile(r.Context(), id)
	if err != nil {
		s.backendError(w, "get seeker profile", err)
		return nil, false
	}
	return seeker, true
}

func (s *Server) backendError(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, housing.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.logger.Error("backend request failed", zap.String("action", action), zap.Error(err))
	writeError(w, http.StatusBadGateway, action+" failed")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next(rec, r)

		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		logger.ForMatch(s.logger, r.URL.Query().Get("seeker"), r.PathValue("id")).Debug("http request",
			zap.String("route", route),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func parseLimitOffset(r *http.Request) (int, int) {
	limit, offset := defaultLimit, 0
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// Package supabase talks to the hosted backend that owns profiles, listings,
// saved listings and messages. It speaks the PostgREST dialect over plain HTTP.
package supabase

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	restPath        = "/rest/v1"
	authPath        = "/auth/v1"
	applicationName = "roomeo-ai"
	userAgent       = "spigell/roomeo"
)

type Client struct {
	logger     *zap.Logger
	apiKey     string
	HTTPClient *http.Client
	UserAgent  string
	URL        string

	mu          sync.RWMutex
	accessToken string
}

// New creates a client for the project at url using its public (anon) key.
func New(logger *zap.Logger, url, apiKey string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		logger: logger,
		apiKey: strings.TrimSpace(apiKey),
		URL:    strings.TrimRight(strings.TrimSpace(url), "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// SetAccessToken makes subsequent requests run as the signed-in user.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = strings.TrimSpace(token)
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.accessToken != "" {
		return c.accessToken
	}
	return c.apiKey
}

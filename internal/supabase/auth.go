package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type Session struct {
	AccessToken string `json:"access_token"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// SignIn exchanges email and password for a session. On success the client
// uses the session's access token for further requests.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	q := url.Values{}
	q.Set("grant_type", "password")

	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.do(ctx, http.MethodPost, c.URL+authPath+"/token", q, body, &session); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	if session.AccessToken == "" {
		return nil, errors.New("sign in: backend returned no access token")
	}

	c.SetAccessToken(session.AccessToken)
	return &session, nil
}

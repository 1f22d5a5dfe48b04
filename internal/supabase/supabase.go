// Package supabase verifies Supabase access tokens, either by asking the
// Supabase auth API or by checking the token signature locally.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lildude/strengthboard/internal/client"
	"golang.org/x/oauth2"
)

// ErrInvalidToken is returned when a token does not identify a user.
var ErrInvalidToken = errors.New("invalid access token")

// User holds only the data we want from Supabase for an authenticated user.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// DisplayName returns the full name from the user metadata, falling back to
// the local part of the email and then to "User".
func (u *User) DisplayName() string {
	if name, ok := u.UserMetadata["full_name"].(string); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if local, _, ok := strings.Cut(u.Email, "@"); ok && local != "" {
		return local
	}
	return "User"
}

// Client asks the Supabase auth API who a token belongs to.
type Client struct {
	baseURL *url.URL
	anonKey string
}

// NewClient returns a Client for the project at baseURL.
func NewClient(baseURL *url.URL, anonKey string) *Client {
	u := *baseURL
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &Client{baseURL: &u, anonKey: anonKey}
}

// GetUser returns the user the token was issued to.
func (c *Client) GetUser(ctx context.Context, token string) (*User, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
	rc := client.NewClient(c.baseURL, oauth2.NewClient(ctx, ts))
	if c.anonKey != "" {
		rc.Header.Set("apikey", c.anonKey)
	}

	req, err := rc.NewRequest(ctx, http.MethodGet, "auth/v1/user", nil)
	if err != nil {
		return nil, err
	}

	var u User
	if _, err := rc.Do(req, &u); err != nil { //nolint:bodyclose
		return nil, fmt.Errorf("fetching supabase user: %w", err)
	}
	if u.ID == "" {
		return nil, ErrInvalidToken
	}
	return &u, nil
}

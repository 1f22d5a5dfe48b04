// Package sessions keeps the caller's access token in a signed cookie so
// browser requests without an Authorization header can be identified.
package sessions

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// CookieName is the session cookie shared with the web client.
const CookieName = "app_session_id"

const tokenKey = "access_token"

// ErrDisabled is returned when no session key is configured.
var ErrDisabled = errors.New("sessions are disabled")

// Store reads and writes the session cookie. A nil Store is disabled.
type Store struct {
	cookies *sessions.CookieStore
	maxAge  int
}

// New returns a Store signing cookies with key, or nil when key is empty.
func New(key string, maxAge time.Duration) *Store {
	if key == "" {
		return nil
	}
	return &Store{
		cookies: sessions.NewCookieStore([]byte(key)),
		maxAge:  int(maxAge.Seconds()),
	}
}

// Token returns the access token stored in the request's session, if any.
func (s *Store) Token(r *http.Request) string {
	if s == nil {
		return ""
	}
	session, err := s.cookies.Get(r, CookieName)
	if err != nil {
		return ""
	}
	token, _ := session.Values[tokenKey].(string)
	return token
}

// SaveToken stores token in the session cookie.
func (s *Store) SaveToken(w http.ResponseWriter, r *http.Request, token string) error {
	if s == nil {
		return ErrDisabled
	}
	// A cookie signed with an old key fails to decode; start a fresh session.
	session, _ := s.cookies.Get(r, CookieName)
	session.Options = cookieOptions(r, s.maxAge)
	session.Values[tokenKey] = token
	return session.Save(r, w)
}

// Clear expires the session cookie. It works on a disabled Store so stale
// cookies are still removed.
func (s *Store) Clear(w http.ResponseWriter, r *http.Request) error {
	opts := cookieOptions(r, -1)
	if s == nil {
		http.SetCookie(w, sessions.NewCookie(CookieName, "", opts))
		return nil
	}
	session, _ := s.cookies.Get(r, CookieName)
	session.Options = opts
	session.Values = map[any]any{}
	return session.Save(r, w)
}

// cookieOptions allows cross-site cookies only over HTTPS.
func cookieOptions(r *http.Request, maxAge int) *sessions.Options {
	opts := &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if isSecure(r) {
		opts.Secure = true
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return r.Header.Get("X-Forwarded-Proto") == "https"
}

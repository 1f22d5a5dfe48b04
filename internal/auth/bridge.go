// Package auth resolves the caller of a request into a local user and
// enforces who may change what.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lildude/strengthboard/internal/database"
	"github.com/lildude/strengthboard/internal/model"
	"github.com/lildude/strengthboard/internal/supabase"
	"github.com/sirupsen/logrus"
)

// Provider verifies an access token with the identity provider.
type Provider interface {
	GetUser(ctx context.Context, token string) (*supabase.User, error)
}

// UserStore is the part of the database store the bridge needs.
type UserStore interface {
	GetUserByOpenID(ctx context.Context, openID string) (*model.User, error)
	UpsertUser(ctx context.Context, p database.UserParams) (*model.User, error)
	TouchLastSignedIn(ctx context.Context, userID uint, at time.Time) error
	SetUserRole(ctx context.Context, userID uint, role model.Role) error
	SyncUserAthlete(ctx context.Context, u *model.User) error
}

// TokenSource yields an access token kept outside the Authorization header.
type TokenSource interface {
	Token(r *http.Request) string
}

const loginMethod = "supabase"

// Bridge turns request credentials into a local user. It never fails a
// request: any problem leaves the caller anonymous.
type Bridge struct {
	provider    Provider
	store       UserStore
	sessions    TokenSource
	ownerOpenID string
	log         logrus.FieldLogger
	now         func() time.Time
}

type Option func(*Bridge)

func WithProvider(p Provider) Option {
	return func(b *Bridge) { b.provider = p }
}

func WithStore(s UserStore) Option {
	return func(b *Bridge) { b.store = s }
}

func WithSessions(ts TokenSource) Option {
	return func(b *Bridge) { b.sessions = ts }
}

// WithOwner makes the user with this open id an admin.
func WithOwner(openID string) Option {
	return func(b *Bridge) { b.ownerOpenID = openID }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Bridge) { b.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bridge) { b.now = now }
}

func NewBridge(opts ...Option) *Bridge {
	b := &Bridge{
		log: logrus.StandardLogger(),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Token returns the bearer token of the request, falling back to the
// session cookie.
func (b *Bridge) Token(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if b.sessions != nil {
		return b.sessions.Token(r)
	}
	return ""
}

// Resolve returns the local user behind the request, or nil.
func (b *Bridge) Resolve(ctx context.Context, r *http.Request) *model.User {
	token := b.Token(r)
	if token == "" || b.provider == nil || b.store == nil {
		return nil
	}

	identity, err := b.provider.GetUser(ctx, token)
	if err != nil {
		b.log.WithError(err).Warn("identity verification failed")
		return nil
	}

	u, err := b.userFor(ctx, identity)
	if err != nil {
		b.log.WithError(err).WithField("open_id", identity.ID).Warn("resolving local user failed")
		return nil
	}
	return u
}

// Forget drops any cached verification of the request's token.
func (b *Bridge) Forget(ctx context.Context, r *http.Request) {
	f, ok := b.provider.(interface {
		Forget(ctx context.Context, token string) error
	})
	if !ok {
		return
	}
	if token := b.Token(r); token != "" {
		if err := f.Forget(ctx, token); err != nil {
			b.log.WithError(err).Warn("forgetting cached identity failed")
		}
	}
}

func (b *Bridge) userFor(ctx context.Context, identity *supabase.User) (*model.User, error) {
	now := b.now()
	isOwner := b.ownerOpenID != "" && identity.ID == b.ownerOpenID

	u, err := b.store.GetUserByOpenID(ctx, identity.ID)
	if err != nil {
		return nil, err
	}

	if u == nil {
		p := database.UserParams{
			OpenID:       identity.ID,
			Name:         identity.DisplayName(),
			Email:        identity.Email,
			LoginMethod:  loginMethod,
			Metadata:     identity.UserMetadata,
			LastSignedIn: now,
		}
		if isOwner {
			p.Role = model.RoleAdmin
		}
		if u, err = b.store.UpsertUser(ctx, p); err != nil {
			return nil, fmt.Errorf("creating user: %w", err)
		}
		if u == nil {
			return nil, nil
		}
		b.log.WithFields(logrus.Fields{"user_id": u.ID, "open_id": u.OpenID}).Info("created user")
	} else {
		if err := b.store.TouchLastSignedIn(ctx, u.ID, now); err != nil {
			return nil, err
		}
		u.LastSignedIn = now
		if isOwner && !u.IsAdmin() {
			if err := b.store.SetUserRole(ctx, u.ID, model.RoleAdmin); err != nil {
				return nil, err
			}
			u.Role = model.RoleAdmin
		}
	}

	if err := b.store.SyncUserAthlete(ctx, u); err != nil {
		return nil, fmt.Errorf("syncing athlete: %w", err)
	}
	return u, nil
}

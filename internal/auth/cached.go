package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/lildude/strengthboard/internal/cache"
	"github.com/lildude/strengthboard/internal/supabase"
	"github.com/sirupsen/logrus"
)

// CachedProvider remembers successful verifications for a short time so
// every request does not call the identity provider.
type CachedProvider struct {
	next  Provider
	cache cache.Cache
	ttl   time.Duration
	log   logrus.FieldLogger
}

func NewCachedProvider(next Provider, c cache.Cache, ttl time.Duration, log logrus.FieldLogger) *CachedProvider {
	return &CachedProvider{next: next, cache: c, ttl: ttl, log: log}
}

// Tokens are hashed so the cache never holds a usable credential.
func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) GetUser(ctx context.Context, token string) (*supabase.User, error) {
	key := cacheKey(token)

	var cached supabase.User
	err := p.cache.GetJSON(ctx, key, &cached)
	if err == nil && cached.ID != "" {
		return &cached, nil
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		p.log.WithError(err).Warn("reading identity cache failed")
	}

	u, err := p.next.GetUser(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := p.cache.SetJSON(ctx, key, u, p.ttl); err != nil {
		p.log.WithError(err).Warn("writing identity cache failed")
	}
	return u, nil
}

// Forget removes the cached verification of token.
func (p *CachedProvider) Forget(ctx context.Context, token string) error {
	return p.cache.Delete(ctx, cacheKey(token))
}

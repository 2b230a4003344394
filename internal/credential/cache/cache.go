// Package cache accelerates public share-link verification with a Redis
// lookaside mapping share tokens to credential IDs. The cache is an
// optimization only: every miss or Redis failure falls through to the store.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "attest/pkg/domain"
)

const keyPrefix = "attest:share:"

// ShareTokenCache maps share tokens to credential IDs. A nil *ShareTokenCache
// is a valid disabled cache, so callers never branch on whether Redis is
// configured.
type ShareTokenCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ShareTokenCache {
	return &ShareTokenCache{client: client, ttl: ttl, logger: logger}
}

// Get resolves a share token to a credential ID. Returns false on miss,
// on a disabled cache, and on any Redis failure.
func (c *ShareTokenCache) Get(ctx context.Context, shareToken string) (id.CredentialID, bool) {
	if c == nil {
		return id.CredentialID{}, false
	}
	value, err := c.client.Get(ctx, keyPrefix+shareToken).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "share token cache read failed", "error", err)
		}
		return id.CredentialID{}, false
	}
	credentialID, err := id.ParseCredentialID(value)
	if err != nil {
		// Poisoned entry; drop it rather than serve garbage.
		c.Invalidate(ctx, shareToken)
		return id.CredentialID{}, false
	}
	return credentialID, true
}

// Set records a share token resolution with the configured TTL.
func (c *ShareTokenCache) Set(ctx context.Context, shareToken string, credentialID id.CredentialID) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+shareToken, credentialID.String(), c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "share token cache write failed", "error", err)
	}
}

// Invalidate drops a share token entry. Called on revocation so a revoked
// credential never verifies from a stale cache hit.
func (c *ShareTokenCache) Invalidate(ctx context.Context, shareToken string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+shareToken).Err(); err != nil {
		c.logger.WarnContext(ctx, "share token cache invalidation failed", "error", err)
	}
}

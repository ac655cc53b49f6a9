package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sellerpanel/account-service/internal/core/ports"
)

var _ ports.TokenRevoker = (*TokenRevoker)(nil)

// TokenRevoker keeps a denylist of signed-out token ids.
// Key format: revoked:<jti>, expiring with the token itself.
type TokenRevoker struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewTokenRevoker(client redis.UniversalClient) *TokenRevoker {
	return &TokenRevoker{client: client, now: time.Now}
}

// Revoke denylists id until expiresAt. Already-expired tokens are skipped.
func (r *TokenRevoker) Revoke(ctx context.Context, id string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, r.key(id), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether id is on the denylist. Callers treat an error as
// revoked.
func (r *TokenRevoker) IsRevoked(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (r *TokenRevoker) key(id string) string {
	return "revoked:" + id
}

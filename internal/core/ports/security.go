package ports

import (
	"context"
	"time"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// PasswordHasher hashes and verifies plaintext passwords. Verify returns
// (false, nil) on a mismatch and an error only when the primitive itself fails.
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// IssuedToken is a freshly signed bearer token.
type IssuedToken struct {
	Token     string
	ID        string // jti
	ExpiresAt time.Time
}

// TokenIssuer signs bearer tokens carrying account identity and role.
type TokenIssuer interface {
	Issue(account *domain.Account) (*IssuedToken, error)
}

// TokenRevoker remembers signed-out tokens until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

package ports

import (
	"context"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
//
// Uniqueness of email and username is enforced by the store itself (unique
// index or constraint); Insert and Update report collisions as
// domain.ErrEmailTaken or domain.ErrUsernameTaken.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	// FindByID returns domain.ErrAccountNotFound for unknown or malformed ids.
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	Insert(ctx context.Context, account *domain.Account) (*domain.Account, error)
	Update(ctx context.Context, id string, patch domain.AccountPatch) (*domain.Account, error)
	Delete(ctx context.Context, id string) error
	// List returns one page of accounts, newest first, and the total count.
	List(ctx context.Context, page, pageSize int) ([]*domain.Account, int64, error)
	// Search matches query case-insensitively as a substring of first_name,
	// last_name or username.
	Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Account, int64, error)
}

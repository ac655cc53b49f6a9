package ports

import (
	"context"
	"time"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// SignupInput is the signup request schema. Fields are trimmed before the
// validate tags are evaluated.
type SignupInput struct {
	FirstName       string `json:"first_name"      validate:"required,alphaspace"`
	LastName        string `json:"last_name"       validate:"required,alphaspace"`
	Username        string `json:"username"        validate:"required"`
	Email           string `json:"email"           validate:"required,mailbox"`
	Role            string `json:"role"            validate:"required,oneof=seller admin"`
	Password        string `json:"password"        validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// UpdateInput carries a partial account update; nil fields are not changed.
type UpdateInput struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitnil,min=1,alphaspace"`
	LastName  *string `json:"last_name,omitempty"  validate:"omitnil,min=1,alphaspace"`
	Username  *string `json:"username,omitempty"   validate:"omitnil,min=1"`
	Email     *string `json:"email,omitempty"      validate:"omitnil,min=1,mailbox"`
	Role      *string `json:"role,omitempty"       validate:"omitnil,min=1,oneof=seller admin"`
	Password  *string `json:"password,omitempty"   validate:"omitnil,min=1,min=8"`
}

// SigninResult is returned after a successful signin.
type SigninResult struct {
	Account   *domain.Account
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

// SearchInput carries the search query and paging.
type SearchInput struct {
	Query string
	Page  int // 1-based
	Limit int // capped at 100 by the service
}

// AccountPage is one page of accounts plus pagination metadata.
type AccountPage struct {
	Items     []*domain.Account
	Page      int
	Limit     int
	ItemCount int64
	PageCount int
}

// AccountService defines the account lifecycle and authentication use cases.
type AccountService interface {
	Signup(ctx context.Context, input SignupInput) (*domain.Account, error)
	Signin(ctx context.Context, email, password string) (*SigninResult, error)
	Signout(ctx context.Context, tokenID string, expiresAt time.Time) error
	GetByID(ctx context.Context, requester domain.Requester, id string) (*domain.Account, error)
	Update(ctx context.Context, requester domain.Requester, id string, input UpdateInput) (*domain.Account, error)
	Delete(ctx context.Context, requester domain.Requester, id string) error
	List(ctx context.Context, requester domain.Requester, page int) (*AccountPage, error)
	Search(ctx context.Context, requester domain.Requester, input SearchInput) (*AccountPage, error)
}

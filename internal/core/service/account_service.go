package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/pkg/metrics"
	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
	"github.com/sellerpanel/account-service/internal/core/validation"
)

const (
	// ListPageSize is the fixed page size of List.
	ListPageSize = 10

	defaultSearchLimit = 10
	maxSearchLimit     = 100

	// MaxPage bounds page numbers so store offsets cannot overflow.
	MaxPage = 1_000_000

	// timingPassword is hashed once and compared against on signin for
	// unknown emails so both failure paths cost one bcrypt compare.
	timingPassword = "account-service-timing-equaliser"
)

// AccountService implements the account lifecycle and authentication use
// cases. It holds no per-request state; every call is an independent unit of
// work.
type AccountService struct {
	repo      ports.AccountRepository
	hasher    ports.PasswordHasher
	tokens    ports.TokenIssuer
	revoker   ports.TokenRevoker   // optional
	events    ports.EventPublisher // optional
	validator *validation.Validator
	logger    zerolog.Logger
	now       func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(
	repo ports.AccountRepository,
	hasher ports.PasswordHasher,
	tokens ports.TokenIssuer,
	revoker ports.TokenRevoker,
	events ports.EventPublisher,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:      repo,
		hasher:    hasher,
		tokens:    tokens,
		revoker:   revoker,
		events:    events,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// Signup validates the payload, hashes the password and persists a new
// account. The email/username lookups only short-circuit the common case; the
// store's unique indexes decide concurrent races.
func (s *AccountService) Signup(ctx context.Context, input ports.SignupInput) (*domain.Account, error) {
	in, err := s.validator.Signup(input)
	if err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, "", &in.Email, &in.Username); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, domain.Internal("signup: hash password", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Insert(ctx, &domain.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    now,
		LastUpdated:  now,
	})
	if err != nil {
		return nil, storeErr("signup: insert account", err)
	}

	metrics.SignupsTotal.WithLabelValues(created.Role).Inc()
	s.publish(domain.EventAccountCreated, created.ID, "")
	s.logger.Info().Str("account_id", created.ID).Str("role", created.Role).Msg("account created")

	return created, nil
}

// Signin verifies credentials and issues a token. An unknown email and a
// wrong password both yield domain.ErrInvalidCredentials.
func (s *AccountService) Signin(ctx context.Context, email, password string) (*ports.SigninResult, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, &domain.ValidationError{Violations: missingCredentials(email, password)}
	}

	acc, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrAccountNotFound) {
		s.compareDummy(ctx, password)
		metrics.SigninAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		metrics.SigninAttemptsTotal.WithLabelValues("error").Inc()
		return nil, domain.Internal("signin: find account", err)
	}

	ok, err := s.hasher.Verify(ctx, password, acc.PasswordHash)
	if err != nil {
		metrics.SigninAttemptsTotal.WithLabelValues("error").Inc()
		return nil, domain.Internal("signin: verify password", err)
	}
	if !ok {
		metrics.SigninAttemptsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	issued, err := s.tokens.Issue(acc)
	if err != nil {
		metrics.SigninAttemptsTotal.WithLabelValues("error").Inc()
		return nil, domain.Internal("signin: issue token", err)
	}

	metrics.SigninAttemptsTotal.WithLabelValues("success").Inc()
	s.publish(domain.EventAccountSignedIn, acc.ID, "")

	return &ports.SigninResult{
		Account:   acc,
		Token:     issued.Token,
		TokenID:   issued.ID,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

// Signout revokes the token identified by tokenID until it expires.
func (s *AccountService) Signout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return domain.ErrUnauthenticated
	}
	if s.revoker == nil {
		return nil
	}
	if err := s.revoker.Revoke(ctx, tokenID, expiresAt); err != nil {
		return domain.Internal("signout: revoke token", err)
	}
	metrics.TokensRevokedTotal.Inc()
	return nil
}

// GetByID returns any account to an admin or manager.
func (s *AccountService) GetByID(ctx context.Context, requester domain.Requester, id string) (*domain.Account, error) {
	if err := authenticated(requester); err != nil {
		return nil, err
	}
	if !domain.IsPrivileged(requester.Role) {
		return nil, domain.ErrForbidden
	}

	acc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr("get account", err)
	}
	return acc, nil
}

// Update merges the present fields of input into the account. Privileged
// requesters may update anyone; other accounts only themselves and never their
// role.
func (s *AccountService) Update(ctx context.Context, requester domain.Requester, id string, input ports.UpdateInput) (*domain.Account, error) {
	if err := authenticated(requester); err != nil {
		return nil, err
	}
	if !requester.CanManage(id) {
		return nil, domain.ErrForbidden
	}

	in, err := s.validator.Update(input)
	if err != nil {
		return nil, err
	}
	if in.Role != nil && !domain.IsPrivileged(requester.Role) {
		return nil, domain.ErrForbidden
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, storeErr("update: find account", err)
	}
	if err := s.ensureAvailable(ctx, id, in.Email, in.Username); err != nil {
		return nil, err
	}

	patch := domain.AccountPatch{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Username:    in.Username,
		Email:       in.Email,
		Role:        in.Role,
		LastUpdated: s.now().UTC(),
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(ctx, *in.Password)
		if err != nil {
			return nil, domain.Internal("update: hash password", err)
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, storeErr("update account", err)
	}

	s.publish(domain.EventAccountUpdated, id, requester.ID)
	s.logger.Info().Str("account_id", id).Str("actor_id", requester.ID).Msg("account updated")

	return updated, nil
}

// Delete removes an account. Same authorization as Update.
func (s *AccountService) Delete(ctx context.Context, requester domain.Requester, id string) error {
	if err := authenticated(requester); err != nil {
		return err
	}
	if !requester.CanManage(id) {
		return domain.ErrForbidden
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return storeErr("delete: find account", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeErr("delete account", err)
	}

	s.publish(domain.EventAccountDeleted, id, requester.ID)
	s.logger.Info().Str("account_id", id).Str("actor_id", requester.ID).Msg("account deleted")

	return nil
}

// List returns a fixed-size page of accounts, newest first.
func (s *AccountService) List(ctx context.Context, requester domain.Requester, page int) (*ports.AccountPage, error) {
	if err := authenticated(requester); err != nil {
		return nil, err
	}
	page, err := pageNumber(page)
	if err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, page, ListPageSize)
	if err != nil {
		return nil, domain.Internal("list accounts", err)
	}
	return newPage(items, page, ListPageSize, total), nil
}

// Search matches the query against first name, last name and username.
func (s *AccountService) Search(ctx context.Context, requester domain.Requester, input ports.SearchInput) (*ports.AccountPage, error) {
	if err := authenticated(requester); err != nil {
		return nil, err
	}

	page, err := pageNumber(input.Page)
	if err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	items, total, err := s.repo.Search(ctx, strings.TrimSpace(input.Query), page, limit)
	if err != nil {
		return nil, domain.Internal("search accounts", err)
	}
	return newPage(items, page, limit, total), nil
}

// ensureAvailable fails with a conflict when email or username already
// belongs to an account other than selfID. Nil values are skipped.
func (s *AccountService) ensureAvailable(ctx context.Context, selfID string, email, username *string) error {
	if email != nil {
		acc, err := s.repo.FindByEmail(ctx, *email)
		switch {
		case err == nil && acc.ID != selfID:
			return domain.ErrEmailTaken
		case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
			return domain.Internal("check email", err)
		}
	}
	if username != nil {
		acc, err := s.repo.FindByUsername(ctx, *username)
		switch {
		case err == nil && acc.ID != selfID:
			return domain.ErrUsernameTaken
		case err != nil && !errors.Is(err, domain.ErrAccountNotFound):
			return domain.Internal("check username", err)
		}
	}
	return nil
}

func (s *AccountService) compareDummy(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), timingPassword)
		if err != nil {
			s.logger.Warn().Err(err).Msg("timing hash unavailable")
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(ctx, password, s.dummyHash)
	}
}

func (s *AccountService) publish(t domain.AccountEventType, accountID, actorID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(domain.AccountEvent{
		Type:       t,
		AccountID:  accountID,
		ActorID:    actorID,
		OccurredAt: s.now().UTC(),
	})
}

func authenticated(r domain.Requester) error {
	if r.ID == "" || r.Role == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// storeErr passes domain errors through and wraps everything else.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrAccountNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	return domain.Internal(op, err)
}

func missingCredentials(email, password string) []domain.FieldViolation {
	var out []domain.FieldViolation
	if email == "" {
		out = append(out, domain.FieldViolation{Field: "email", Rule: validation.RuleRequired, Message: "email is required"})
	}
	if password == "" {
		out = append(out, domain.FieldViolation{Field: "password", Rule: validation.RuleRequired, Message: "password is required"})
	}
	return out
}

// pageNumber defaults pages below 1 to the first page and rejects pages past
// MaxPage.
func pageNumber(page int) (int, error) {
	if page < 1 {
		return 1, nil
	}
	if page > MaxPage {
		return 0, domain.NewValidationError("page", validation.RuleRange, fmt.Sprintf("page must be at most %d", MaxPage))
	}
	return page, nil
}

func newPage(items []*domain.Account, page, limit int, total int64) *ports.AccountPage {
	if items == nil {
		items = []*domain.Account{}
	}
	pageCount := int((total + int64(limit) - 1) / int64(limit))
	return &ports.AccountPage{
		Items:     items,
		Page:      page,
		Limit:     limit,
		ItemCount: total,
		PageCount: pageCount,
	}
}

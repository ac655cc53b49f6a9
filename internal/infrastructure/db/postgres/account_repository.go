package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

const (
	constraintEmailUnique    = "accounts_email_unique"
	constraintUsernameUnique = "accounts_username_unique"

	uniqueViolation = "23505"

	accountColumns = `id, first_name, last_name, username, email, role, password_hash, created_at, last_updated`
)

// Ensure AccountRepository satisfies the ports interface at compile time.
var _ ports.AccountRepository = (*AccountRepository)(nil)

// AccountRepository provides Postgres-backed persistence for accounts.
type AccountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Insert adds a new row; the UNIQUE constraints decide concurrent duplicates.
func (r *AccountRepository) Insert(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const query = `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + accountColumns
	row := r.pool.QueryRow(ctx, query,
		uuid.New(), a.FirstName, a.LastName, a.Username, a.Email, a.Role, a.PasswordHash, a.CreatedAt, a.LastUpdated)

	created, err := scanAccount(row)
	if err != nil {
		return nil, uniqueOr(err, "insert account")
	}
	return created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, "email", email)
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, "username", username)
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, "id", uid)
}

// findOne is only called with fixed column names.
func (r *AccountRepository) findOne(ctx context.Context, column string, value any) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, value))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return acc, nil
}

// Update merges the non-nil patch fields with COALESCE in a single statement.
func (r *AccountRepository) Update(ctx context.Context, id string, p domain.AccountPatch) (*domain.Account, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	const query = `
		UPDATE accounts SET
			first_name    = COALESCE($2, first_name),
			last_name     = COALESCE($3, last_name),
			username      = COALESCE($4, username),
			email         = COALESCE($5, email),
			role          = COALESCE($6, role),
			password_hash = COALESCE($7, password_hash),
			last_updated  = $8
		WHERE id = $1
		RETURNING ` + accountColumns
	row := r.pool.QueryRow(ctx, query, uid,
		p.FirstName, p.LastName, p.Username, p.Email, p.Role, p.PasswordHash, p.LastUpdated)

	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, err
		}
		return nil, uniqueOr(err, "update account")
	}
	return updated, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Account, int64, error) {
	return r.page(ctx, "", nil, page, pageSize)
}

// Search uses ILIKE over first_name, last_name and username with LIKE
// wildcards in the query escaped.
func (r *AccountRepository) Search(ctx context.Context, query string, page, pageSize int) ([]*domain.Account, int64, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return r.page(ctx, "", nil, page, pageSize)
	}
	where := `WHERE first_name ILIKE $3 OR last_name ILIKE $3 OR username ILIKE $3`
	return r.page(ctx, where, []any{"%" + escapeLike(query) + "%"}, page, pageSize)
}

func (r *AccountRepository) page(ctx context.Context, where string, args []any, page, pageSize int) ([]*domain.Account, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := `SELECT ` + accountColumns + `, COUNT(*) OVER() FROM accounts ` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, append([]any{pageSize, (page - 1) * pageSize}, args...)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var (
		out   []*domain.Account
		total int64
	)
	for rows.Next() {
		var a domain.Account
		var id uuid.UUID
		if err := rows.Scan(&id, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.Role,
			&a.PasswordHash, &a.CreatedAt, &a.LastUpdated, &total); err != nil {
			return nil, 0, fmt.Errorf("scan account: %w", err)
		}
		a.ID = id.String()
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}

	// COUNT(*) OVER() yields nothing when the page is past the end.
	if len(out) == 0 && page > 1 {
		countQuery := `SELECT COUNT(*) FROM accounts ` + strings.ReplaceAll(where, "$3", "$1")
		if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
			return nil, 0, fmt.Errorf("count accounts: %w", err)
		}
	}
	return out, total, nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	var id uuid.UUID
	if err := row.Scan(&id, &a.FirstName, &a.LastName, &a.Username, &a.Email, &a.Role,
		&a.PasswordHash, &a.CreatedAt, &a.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	a.ID = id.String()
	a.CreatedAt = a.CreatedAt.UTC()
	a.LastUpdated = a.LastUpdated.UTC()
	return &a, nil
}

func uniqueOr(err error, op string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pgErr.ConstraintName {
	case constraintEmailUnique:
		return domain.ErrEmailTaken
	case constraintUsernameUnique:
		return domain.ErrUsernameTaken
	default:
		return domain.ErrConflict
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// EventRepository writes account events to the account_events table.
type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.AccountEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var actor *string
	if event.ActorID != "" {
		actor = &event.ActorID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO account_events (type, account_id, actor_id, occurred_at) VALUES ($1, $2, $3, $4)`,
		string(event.Type), event.AccountID, actor, event.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("insert account event: %w", err)
	}
	return nil
}

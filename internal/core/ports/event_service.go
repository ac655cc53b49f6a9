package ports

import (
	"context"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// EventPublisher hands account events off for asynchronous recording.
// Publish must not block on persistence.
type EventPublisher interface {
	Publish(event domain.AccountEvent)
}

// EventService records a single account event.
type EventService interface {
	Record(ctx context.Context, event domain.AccountEvent) error
}

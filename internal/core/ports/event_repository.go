package ports

import (
	"context"

	"github.com/sellerpanel/account-service/internal/core/domain"
)

// EventRepository persists account audit events.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.AccountEvent) error
}

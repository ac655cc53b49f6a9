package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/sellerpanel/account-service/internal/pkg/metrics"
	"github.com/sellerpanel/account-service/internal/core/domain"
	"github.com/sellerpanel/account-service/internal/core/ports"
)

type eventService struct {
	eventRepo ports.EventRepository
	log       zerolog.Logger
}

// NewEventService returns an EventService that persists account events.
func NewEventService(eventRepo ports.EventRepository, log zerolog.Logger) ports.EventService {
	return &eventService{eventRepo: eventRepo, log: log}
}

// Record persists a single account event to the audit trail.
func (s *eventService) Record(ctx context.Context, event domain.AccountEvent) error {
	if event.AccountID == "" {
		return fmt.Errorf("record event: %w", domain.NewValidationError("account_id", "required", "account_id is required"))
	}

	if err := s.eventRepo.InsertEvent(ctx, &event); err != nil {
		metrics.EventsErrorsTotal.WithLabelValues(string(event.Type)).Inc()
		return fmt.Errorf("record event: %w", err)
	}

	metrics.EventsRecordedTotal.WithLabelValues(string(event.Type)).Inc()
	s.log.Debug().
		Str("type", string(event.Type)).
		Str("account_id", event.AccountID).
		Str("actor_id", event.ActorID).
		Msg("account event recorded")

	return nil
}

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/citas-api/internal/model"
)

// insertOutboxEvent records a lifecycle event inside the mutation's
// transaction so the event cannot outlive a rolled-back change.
func insertOutboxEvent(ctx context.Context, tx *sqlx.Tx, event *model.OutboxEvent) error {
	if event == nil {
		return nil
	}
	query := `
		INSERT INTO outbox_events (id, event_type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message, created_at, processed_at, updated_at
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	var events []*model.OutboxEvent
	if err := r.db.SelectContext(ctx, &events, query, model.OutboxStatusPending, limit); err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, processed_at = $3, updated_at = $4
		WHERE id = $5
	`
	now := time.Now().UTC()
	var processedAt *time.Time
	if status == model.OutboxStatusProcessed {
		processedAt = &now
	}
	if _, err := r.db.ExecContext(ctx, query, status, errorMessage, processedAt, now, id); err != nil {
		return fmt.Errorf("failed to update event status: %w", err)
	}
	return nil
}

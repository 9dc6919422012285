package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/citas-api/internal/model"
)

// insertTrace appends one trail row inside the mutation's transaction.
// Rows in cita_trazas are never updated or deleted.
func insertTrace(ctx context.Context, tx *sqlx.Tx, trace *model.TraceEntry) error {
	if trace == nil {
		return nil
	}
	query := `
		INSERT INTO cita_trazas (id, cita_id, accion, actor_id, detalles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		trace.ID,
		trace.CitaID,
		trace.Accion,
		trace.ActorID,
		trace.Detalles,
		trace.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append trace entry: %w", err)
	}
	return nil
}

func (r *traceRepository) ListByAppointment(ctx context.Context, citaID uuid.UUID) ([]*model.TraceEntry, error) {
	query := `
		SELECT id, cita_id, accion, actor_id, detalles, created_at
		FROM cita_trazas
		WHERE cita_id = $1
		ORDER BY created_at ASC, id ASC
	`
	var entries []*model.TraceEntry
	if err := r.db.SelectContext(ctx, &entries, query, citaID); err != nil {
		return nil, fmt.Errorf("failed to list trace entries: %w", err)
	}
	return entries, nil
}

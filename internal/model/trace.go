package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Trace actions. The trail is append-only: entries are inserted in the same
// transaction as the mutation they record and never updated or deleted.
const (
	AccionCreacion       = "creacion"
	AccionModificacion   = "modificacion"
	AccionCambioEstado   = "cambio_estado"
	AccionReprogramacion = "reprogramacion"
	AccionCancelacion    = "cancelacion"
	AccionFinalizacion   = "finalizacion"
)

// TraceEntry is one row of an appointment's trazabilidad.
type TraceEntry struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	CitaID    uuid.UUID       `db:"cita_id" json:"cita_id"`
	Accion    string          `db:"accion" json:"accion"`
	ActorID   string          `db:"actor_id" json:"actor_id"`
	Detalles  json.RawMessage `db:"detalles" json:"detalles,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"fecha"`
}

// NewTraceEntry builds a trace row with a UTC timestamp taken at call time.
// Details that fail to marshal are recorded as null rather than dropping the
// entry — the trail must grow on every mutation.
func NewTraceEntry(citaID uuid.UUID, accion, actorID string, detalles map[string]interface{}) *TraceEntry {
	var raw json.RawMessage
	if detalles != nil {
		if b, err := json.Marshal(detalles); err == nil {
			raw = b
		}
	}
	return &TraceEntry{
		ID:        uuid.New(),
		CitaID:    citaID,
		Accion:    accion,
		ActorID:   actorID,
		Detalles:  raw,
		CreatedAt: time.Now().UTC(),
	}
}

package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Appointment lifecycle event types published through the outbox.
const (
	EventCitaCreada       = "cita.creada"
	EventCitaEstado       = "cita.estado"
	EventCitaEditada      = "cita.editada"
	EventCitaReprogramada = "cita.reprogramada"
	EventCitaCancelada    = "cita.cancelada"
	EventCitaFinalizada   = "cita.finalizada"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOutboxEvent marshals the payload and stamps a pending event.
func NewOutboxEvent(eventType string, payload interface{}) (*OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   raw,
		Status:    OutboxStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

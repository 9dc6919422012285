package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vetlink/citas-api/internal/model"
)

// ErrNotFound is returned when no row matches the lookup.
var ErrNotFound = errors.New("record not found")

type (
	// AppointmentRepository is the record store for citas. Mutations take the
	// trace entry (and optional outbox event) that must commit in the same
	// transaction as the row change.
	AppointmentRepository interface {
		Create(ctx context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetDetailForOwner(ctx context.Context, id, userID uuid.UUID) (*model.Appointment, error)
		ListByOwner(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
		ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error
	}

	// PetRepository exposes the ownership lookup the guard needs.
	PetRepository interface {
		GetOwnerID(ctx context.Context, petID uuid.UUID) (uuid.UUID, error)
	}

	// TraceRepository reads an appointment's trail in append order. Writes go
	// through AppointmentRepository so they share the mutation's transaction.
	TraceRepository interface {
		ListByAppointment(ctx context.Context, citaID uuid.UUID) ([]*model.TraceEntry, error)
	}

	OutboxRepository interface {
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)

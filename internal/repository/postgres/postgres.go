package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/citas-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

type petRepository struct {
	db *sqlx.DB
}

type traceRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

func NewPetRepository(db *sqlx.DB) repository.PetRepository {
	return &petRepository{db: db}
}

func NewTraceRepository(db *sqlx.DB) repository.TraceRepository {
	return &traceRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}

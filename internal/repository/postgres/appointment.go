package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/internal/repository"
)

const citaColumns = `
	c.id, c.user_id, c.mascota_id, c.clinica_id, c.servicio_id,
	c.fecha_inicio, c.horario, c.motivo, c.notas, c.recordatorio,
	c.acepta_terminos, c.estado, c.motivo_reprogramacion, c.motivo_cancelacion,
	c.diagnostico, c.tratamiento, c.medicamentos, c.recomendaciones,
	c.seguimiento, c.notas_internas, c.servicios_adicionales, c.productos_vendidos,
	c.created_at, c.updated_at
`

// citaRow widens Appointment with the joined display columns.
type citaRow struct {
	model.Appointment
	PetNombre        sql.NullString `db:"pet_nombre"`
	PetFoto          sql.NullString `db:"pet_foto"`
	ClinicaNombre    sql.NullString `db:"clinica_nombre"`
	ClinicaDireccion sql.NullString `db:"clinica_direccion"`
	ServicioNombre   sql.NullString `db:"servicio_nombre"`
	OwnerNombre      sql.NullString `db:"owner_nombre"`
	OwnerEmail       sql.NullString `db:"owner_email"`
	OwnerTelefono    sql.NullString `db:"owner_telefono"`
}

func (row *citaRow) toAppointment() *model.Appointment {
	apt := row.Appointment
	if row.PetNombre.Valid {
		apt.Pet = &model.PetInfo{Nombre: row.PetNombre.String, Foto: row.PetFoto.String}
	}
	if row.ClinicaNombre.Valid {
		apt.Clinic = &model.ClinicInfo{Nombre: row.ClinicaNombre.String, Direccion: row.ClinicaDireccion.String}
	}
	if row.ServicioNombre.Valid {
		apt.Service = &model.ServiceInfo{Nombre: row.ServicioNombre.String}
	}
	if row.OwnerNombre.Valid {
		apt.Owner = &model.OwnerInfo{
			Nombre:   row.OwnerNombre.String,
			Email:    row.OwnerEmail.String,
			Telefono: row.OwnerTelefono.String,
		}
	}
	return &apt
}

// withTx runs fn inside a transaction so the row change, its trace entry and
// the outbox event commit or roll back together.
func (r *appointmentRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error {
	query := `
		INSERT INTO citas (
			id, user_id, mascota_id, clinica_id, servicio_id,
			fecha_inicio, horario, motivo, notas, recordatorio,
			acepta_terminos, estado, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	apt.CreatedAt = time.Now().UTC()
	apt.UpdatedAt = apt.CreatedAt

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.UserID,
			apt.PetID,
			apt.ClinicID,
			apt.ServiceID,
			apt.FechaInicio,
			apt.Horario,
			apt.Motivo,
			apt.Notas,
			apt.Recordatorio,
			apt.AceptaTerminos,
			apt.Estado,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		if err := insertTrace(ctx, tx, trace); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + citaColumns + `,
			m.nombre AS pet_nombre, m.foto AS pet_foto,
			u.nombre AS owner_nombre, u.email AS owner_email, u.telefono AS owner_telefono
		FROM citas c
		LEFT JOIN mascotas m ON m.id = c.mascota_id
		LEFT JOIN usuarios u ON u.id = c.user_id
		WHERE c.id = $1
	`
	var row citaRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return row.toAppointment(), nil
}

func (r *appointmentRepository) GetDetailForOwner(ctx context.Context, id, userID uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + citaColumns + `,
			m.nombre AS pet_nombre, m.foto AS pet_foto,
			cl.nombre AS clinica_nombre, cl.direccion AS clinica_direccion,
			s.nombre AS servicio_nombre
		FROM citas c
		LEFT JOIN mascotas m ON m.id = c.mascota_id
		LEFT JOIN clinicas cl ON cl.id = c.clinica_id
		LEFT JOIN servicios s ON s.id = c.servicio_id
		WHERE c.id = $1 AND c.user_id = $2
	`
	var row citaRow
	if err := r.db.GetContext(ctx, &row, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get appointment detail: %w", err)
	}
	return row.toAppointment(), nil
}

func (r *appointmentRepository) ListByOwner(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + citaColumns + `,
			m.nombre AS pet_nombre, m.foto AS pet_foto,
			cl.nombre AS clinica_nombre, cl.direccion AS clinica_direccion
		FROM citas c
		LEFT JOIN mascotas m ON m.id = c.mascota_id
		LEFT JOIN clinicas cl ON cl.id = c.clinica_id
		WHERE c.user_id = $1
		ORDER BY c.fecha_inicio ASC, c.created_at ASC
	`
	return r.list(ctx, query, userID)
}

func (r *appointmentRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Appointment, error) {
	query := `
		SELECT ` + citaColumns + `,
			m.nombre AS pet_nombre, m.foto AS pet_foto,
			u.nombre AS owner_nombre, u.email AS owner_email, u.telefono AS owner_telefono
		FROM citas c
		LEFT JOIN mascotas m ON m.id = c.mascota_id
		LEFT JOIN usuarios u ON u.id = c.user_id
		WHERE c.clinica_id = $1
		ORDER BY c.fecha_inicio ASC, c.created_at ASC
	`
	return r.list(ctx, query, clinicID)
}

func (r *appointmentRepository) list(ctx context.Context, query string, arg interface{}) ([]*model.Appointment, error) {
	var rows []citaRow
	if err := r.db.SelectContext(ctx, &rows, query, arg); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	appointments := make([]*model.Appointment, 0, len(rows))
	for i := range rows {
		appointments = append(appointments, rows[i].toAppointment())
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error {
	query := `
		UPDATE citas
		SET mascota_id = $1, servicio_id = $2, fecha_inicio = $3, horario = $4,
			motivo = $5, notas = $6, recordatorio = $7, estado = $8,
			motivo_reprogramacion = $9, motivo_cancelacion = $10,
			diagnostico = $11, tratamiento = $12, medicamentos = $13,
			recomendaciones = $14, seguimiento = $15, notas_internas = $16,
			servicios_adicionales = $17, productos_vendidos = $18,
			updated_at = $19
		WHERE id = $20
	`
	apt.UpdatedAt = time.Now().UTC()

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, query,
			apt.PetID,
			apt.ServiceID,
			apt.FechaInicio,
			apt.Horario,
			apt.Motivo,
			apt.Notas,
			apt.Recordatorio,
			apt.Estado,
			apt.MotivoReprogramacion,
			apt.MotivoCancelacion,
			apt.Diagnostico,
			apt.Tratamiento,
			apt.Medicamentos,
			apt.Recomendaciones,
			apt.Seguimiento,
			apt.NotasInternas,
			apt.ServiciosAdicionales,
			apt.ProductosVendidos,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		if err := insertTrace(ctx, tx, trace); err != nil {
			return err
		}
		return insertOutboxEvent(ctx, tx, event)
	})
}

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is the canonical appointment status vocabulary. Presentation
// translation (owner view vs clinic view) happens in the handler layer, never
// here.
type Status string

const (
	StatusPendiente              Status = "pendiente"
	StatusConfirmada             Status = "confirmada"
	StatusRechazada              Status = "rechazada"
	StatusReprogramacionSugerida Status = "reprogramacion_sugerida"
	// StatusReprogramada marks an owner-initiated reschedule awaiting clinic
	// re-confirmation. Distinct from pendiente so UIs can tell "never
	// responded" apart from "responded, pending re-acceptance".
	StatusReprogramada Status = "reprogramada"
	StatusFinalizada   Status = "finalizada"
	StatusCancelada    Status = "cancelada"
)

// IsTerminal reports whether no further transitions are accepted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFinalizada, StatusCancelada, StatusRechazada:
		return true
	}
	return false
}

// Reminder preference values.
const (
	ReminderEmail = "email"
	ReminderSMS   = "sms"
	ReminderBoth  = "both"
)

// Appointment is the persisted cita record. Joined display sub-records are
// populated only by queries that request them.
type Appointment struct {
	ID             uuid.UUID `db:"id" json:"id"`
	UserID         uuid.UUID `db:"user_id" json:"user_id"`
	PetID          uuid.UUID `db:"mascota_id" json:"mascota_id"`
	ClinicID       uuid.UUID `db:"clinica_id" json:"clinica_id"`
	ServiceID      uuid.UUID `db:"servicio_id" json:"servicio_id"`
	FechaInicio    time.Time `db:"fecha_inicio" json:"fecha_inicio"`
	Horario        string    `db:"horario" json:"horario"`
	Motivo         string    `db:"motivo" json:"motivo,omitempty"`
	Notas          string    `db:"notas" json:"notas,omitempty"`
	Recordatorio   string    `db:"recordatorio" json:"recordatorio"`
	AceptaTerminos bool      `db:"acepta_terminos" json:"acepta_terminos"`
	Estado         Status    `db:"estado" json:"estado"`

	MotivoReprogramacion *string `db:"motivo_reprogramacion" json:"motivo_reprogramacion,omitempty"`
	MotivoCancelacion    *string `db:"motivo_cancelacion" json:"motivo_cancelacion,omitempty"`

	// Clinical fields, populated only at finalization.
	Diagnostico          *string        `db:"diagnostico" json:"diagnostico,omitempty"`
	Tratamiento          *string        `db:"tratamiento" json:"tratamiento,omitempty"`
	Medicamentos         pq.StringArray `db:"medicamentos" json:"medicamentos,omitempty"`
	Recomendaciones      *string        `db:"recomendaciones" json:"recomendaciones,omitempty"`
	Seguimiento          *string        `db:"seguimiento" json:"seguimiento,omitempty"`
	NotasInternas        *string        `db:"notas_internas" json:"notas_internas,omitempty"`
	ServiciosAdicionales *string        `db:"servicios_adicionales" json:"servicios_adicionales,omitempty"`
	ProductosVendidos    *string        `db:"productos_vendidos" json:"productos_vendidos,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Pet     *PetInfo     `db:"-" json:"mascota,omitempty"`
	Clinic  *ClinicInfo  `db:"-" json:"clinica,omitempty"`
	Service *ServiceInfo `db:"-" json:"servicio,omitempty"`
	Owner   *OwnerInfo   `db:"-" json:"propietario,omitempty"`
}

// PetInfo carries the denormalized pet display fields pulled by joins.
type PetInfo struct {
	Nombre string `json:"nombre"`
	Foto   string `json:"foto,omitempty"`
}

type ClinicInfo struct {
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion,omitempty"`
}

type ServiceInfo struct {
	Nombre string `json:"nombre"`
}

type OwnerInfo struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email,omitempty"`
	Telefono string `json:"telefono,omitempty"`
}

// ScheduleRequest is the owner-facing creation payload.
type ScheduleRequest struct {
	PetID              string `json:"petId"`
	ServiceID          string `json:"serviceId"`
	ClinicID           string `json:"clinicId"`
	Date               string `json:"date"`
	TimeSlot           string `json:"timeSlot" binding:"omitempty,horario"`
	Reason             string `json:"reason"`
	Notes              string `json:"notes"`
	ReminderPreference string `json:"reminderPreference" binding:"omitempty,oneof=email sms both"`
	AcceptedTerms      bool   `json:"acceptedTerms"`
}

// UpdateStatusRequest is the clinic response to a pending appointment.
type UpdateStatusRequest struct {
	Status  Status `json:"status" binding:"required"`
	Message string `json:"message"`
}

// EditRequest applies partial updates; nil means "leave untouched". Reason and
// notes may be set to the empty string explicitly.
type EditRequest struct {
	PetID              *string `json:"petId"`
	ServiceID          *string `json:"serviceId"`
	Date               *string `json:"date"`
	TimeSlot           *string `json:"timeSlot" binding:"omitempty,horario"`
	Reason             *string `json:"reason"`
	Notes              *string `json:"notes"`
	ReminderPreference *string `json:"reminderPreference" binding:"omitempty,oneof=email sms both"`
}

// FinalizeRequest carries the clinical outcome submitted by the clinic.
type FinalizeRequest struct {
	Diagnostico          *string  `json:"diagnosis"`
	Tratamiento          *string  `json:"treatment"`
	Medicamentos         []string `json:"medications"`
	Recomendaciones      *string  `json:"recommendations"`
	Seguimiento          *string  `json:"followUp"`
	NotasInternas        *string  `json:"internalNotes"`
	ServiciosAdicionales *string  `json:"additionalServices"`
	ProductosVendidos    *string  `json:"productsSold"`
}

type RescheduleRequest struct {
	Date   string `json:"date" binding:"required"`
	Time   string `json:"time" binding:"required,horario"`
	Reason string `json:"reason"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

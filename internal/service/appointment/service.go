package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vetlink/citas-api/internal/email"
	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/internal/repository"
	apperrors "github.com/vetlink/citas-api/pkg/errors"
	"github.com/vetlink/citas-api/pkg/logger"
	"github.com/vetlink/citas-api/pkg/metrics"
)

// User-facing messages. The schedule validation message is load-bearing for
// API consumers, do not reword it.
const (
	MsgDatosIncompletos       = "Datos de cita incompletos o inválidos."
	MsgCitaAgendada           = "Cita agendada exitosamente"
	MsgCitaConfirmada         = "Cita confirmada exitosamente"
	MsgCitaRechazada          = "Cita rechazada"
	MsgReprogramacionSugerida = "Se sugirió reprogramar la cita"
	MsgCitaActualizada        = "Cita actualizada exitosamente"
	MsgCitaFinalizada         = "Cita finalizada exitosamente"
	MsgCitaReprogramada       = "Cita reprogramada exitosamente"
	MsgCitaCancelada          = "Cita cancelada exitosamente"

	msgCitaNoEncontrada    = "Cita no encontrada"
	msgCitaNoDelUsuario    = "Cita no encontrada o no pertenece al usuario"
	msgCitaNoDeClinica     = "La cita no pertenece a la clínica"
	msgMascotaNoEncontrada = "Mascota no encontrada"
	msgMascotaNoDelUsuario = "La mascota no pertenece al usuario"
	msgEstadoNoValido      = "Estado no válido"
	msgEstadoTerminal      = "La cita ya se encuentra en un estado terminal"
)

// clinicResponses are the three transitions a clinic may request on /status.
var clinicResponses = map[model.Status]string{
	model.StatusConfirmada:             MsgCitaConfirmada,
	model.StatusRechazada:              MsgCitaRechazada,
	model.StatusReprogramacionSugerida: MsgReprogramacionSugerida,
}

// Service implements the appointment state machine. Every operation runs the
// same fixed sequence: role (handler middleware), ownership, field validation,
// then one transactional mutation carrying its trace entry and outbox event.
type Service struct {
	repo      repository.AppointmentRepository
	petRepo   repository.PetRepository
	traceRepo repository.TraceRepository
	emailSvc  email.Service
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

// NewService wires the state machine. metrics may be nil in tests.
func NewService(
	repo repository.AppointmentRepository,
	petRepo repository.PetRepository,
	traceRepo repository.TraceRepository,
	emailSvc email.Service,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		repo:      repo,
		petRepo:   petRepo,
		traceRepo: traceRepo,
		emailSvc:  emailSvc,
		logger:    logger,
		metrics:   metrics,
	}
}

// parseFecha accepts a full timestamp or a calendar date.
func parseFecha(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// storeErr translates repository failures into the response taxonomy.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound(msgCitaNoEncontrada)
	}
	return apperrors.Persistence(err)
}

// verifyPetOwnership confirms the pet exists and belongs to the user.
func (s *Service) verifyPetOwnership(ctx context.Context, petID, userID uuid.UUID) error {
	ownerID, err := s.petRepo.GetOwnerID(ctx, petID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound(msgMascotaNoEncontrada)
		}
		return apperrors.Persistence(err)
	}
	if ownerID != userID {
		return apperrors.Forbidden(msgMascotaNoDelUsuario)
	}
	return nil
}

// getOwned loads an appointment scoped to its owning user. Absent and foreign
// records are indistinguishable to the caller.
func (s *Service) getOwned(ctx context.Context, id, userID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCitaNoDelUsuario)
		}
		return nil, apperrors.Persistence(err)
	}
	if apt.UserID != userID {
		return nil, apperrors.NotFound(msgCitaNoDelUsuario)
	}
	return apt, nil
}

// getForClinic loads an appointment scoped to its linked clinic.
func (s *Service) getForClinic(ctx context.Context, id, clinicID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound(msgCitaNoEncontrada)
		}
		return nil, apperrors.Persistence(err)
	}
	if apt.ClinicID != clinicID {
		return nil, apperrors.Forbidden(msgCitaNoDeClinica)
	}
	return apt, nil
}

func guardTerminal(apt *model.Appointment) error {
	if apt.Estado.IsTerminal() {
		return apperrors.Conflict(msgEstadoTerminal)
	}
	return nil
}

// Schedule creates a pending appointment for the owner's pet.
func (s *Service) Schedule(ctx context.Context, userID uuid.UUID, req *model.ScheduleRequest) (*model.Appointment, error) {
	if !req.AcceptedTerms || req.PetID == "" || req.ServiceID == "" || req.ClinicID == "" ||
		req.Date == "" || req.TimeSlot == "" {
		return nil, apperrors.Validation(MsgDatosIncompletos)
	}

	petID, err := uuid.Parse(req.PetID)
	if err != nil {
		return nil, apperrors.Validation(MsgDatosIncompletos)
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		return nil, apperrors.Validation(MsgDatosIncompletos)
	}
	clinicID, err := uuid.Parse(req.ClinicID)
	if err != nil {
		return nil, apperrors.Validation(MsgDatosIncompletos)
	}
	fecha, err := parseFecha(req.Date)
	if err != nil {
		return nil, apperrors.Validation(MsgDatosIncompletos)
	}

	if err := s.verifyPetOwnership(ctx, petID, userID); err != nil {
		return nil, err
	}

	recordatorio := req.ReminderPreference
	if recordatorio == "" {
		recordatorio = model.ReminderBoth
	}

	apt := &model.Appointment{
		ID:             uuid.New(),
		UserID:         userID,
		PetID:          petID,
		ClinicID:       clinicID,
		ServiceID:      serviceID,
		FechaInicio:    fecha,
		Horario:        req.TimeSlot,
		Motivo:         req.Reason,
		Notas:          req.Notes,
		Recordatorio:   recordatorio,
		AceptaTerminos: true,
		Estado:         model.StatusPendiente,
	}

	trace := model.NewTraceEntry(apt.ID, model.AccionCreacion, userID.String(), map[string]interface{}{
		"estado": apt.Estado,
		"motivo": apt.Motivo,
		"notas":  apt.Notas,
	})
	event := s.lifecycleEvent(model.EventCitaCreada, apt)

	if err := s.repo.Create(ctx, apt, trace, event); err != nil {
		return nil, storeErr(err)
	}

	if s.metrics != nil {
		s.metrics.AppointmentsScheduled.Inc()
	}
	s.logger.Info("cita agendada", "cita_id", apt.ID.String(), "user_id", userID.String())
	return apt, nil
}

// ListForOwner returns the caller's appointments joined with pet and clinic
// display fields, ascending by date.
func (s *Service) ListForOwner(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return appointments, nil
}

// ListForClinic returns the clinic's appointments joined with pet and owner
// display fields, ascending by date.
func (s *Service) ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Appointment, error) {
	appointments, err := s.repo.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return appointments, nil
}

// GetDetail returns the owner-scoped joined detail plus the trace trail.
func (s *Service) GetDetail(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, []*model.TraceEntry, error) {
	apt, err := s.repo.GetDetailForOwner(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.NotFound(msgCitaNoEncontrada)
		}
		return nil, nil, apperrors.Persistence(err)
	}
	trail, err := s.traceRepo.ListByAppointment(ctx, id)
	if err != nil {
		return nil, nil, apperrors.Persistence(err)
	}
	return apt, trail, nil
}

// UpdateStatus applies a clinic response: confirmada, rechazada or
// reprogramacion_sugerida. Returns the caller-facing message for the applied
// transition.
func (s *Service) UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateStatusRequest) (string, error) {
	apt, err := s.getForClinic(ctx, id, clinicID)
	if err != nil {
		return "", err
	}

	message, ok := clinicResponses[req.Status]
	if !ok {
		return "", apperrors.Validation(msgEstadoNoValido)
	}

	if err := guardTerminal(apt); err != nil {
		return "", err
	}

	apt.Estado = req.Status

	trace := model.NewTraceEntry(apt.ID, model.AccionCambioEstado, clinicID.String(), map[string]interface{}{
		"nuevo_estado": req.Status,
		"mensaje":      req.Message,
	})
	event := s.lifecycleEvent(model.EventCitaEstado, apt)

	if err := s.repo.Update(ctx, apt, trace, event); err != nil {
		return "", storeErr(err)
	}

	s.countTransition(apt.Estado)
	s.notifyOwner(ctx, apt, req.Message)
	return message, nil
}

// Edit applies the owner's partial update. Absent fields stay untouched;
// reason and notes may be cleared explicitly. Status never changes here.
func (s *Service) Edit(ctx context.Context, userID, id uuid.UUID, req *model.EditRequest) error {
	apt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := guardTerminal(apt); err != nil {
		return err
	}

	applied := map[string]interface{}{}

	if req.PetID != nil {
		petID, err := uuid.Parse(*req.PetID)
		if err != nil {
			return apperrors.Validation(MsgDatosIncompletos)
		}
		if err := s.verifyPetOwnership(ctx, petID, userID); err != nil {
			return err
		}
		apt.PetID = petID
		applied["mascota_id"] = petID
	}
	if req.ServiceID != nil {
		serviceID, err := uuid.Parse(*req.ServiceID)
		if err != nil {
			return apperrors.Validation(MsgDatosIncompletos)
		}
		apt.ServiceID = serviceID
		applied["servicio_id"] = serviceID
	}
	if req.Date != nil {
		fecha, err := parseFecha(*req.Date)
		if err != nil {
			return apperrors.Validation(MsgDatosIncompletos)
		}
		apt.FechaInicio = fecha
		applied["fecha_inicio"] = *req.Date
	}
	if req.TimeSlot != nil {
		apt.Horario = *req.TimeSlot
		applied["horario"] = *req.TimeSlot
	}
	if req.Reason != nil {
		apt.Motivo = *req.Reason
		applied["motivo"] = *req.Reason
	}
	if req.Notes != nil {
		apt.Notas = *req.Notes
		applied["notas"] = *req.Notes
	}
	if req.ReminderPreference != nil {
		apt.Recordatorio = *req.ReminderPreference
		applied["recordatorio"] = *req.ReminderPreference
	}

	trace := model.NewTraceEntry(apt.ID, model.AccionModificacion, userID.String(), applied)
	event := s.lifecycleEvent(model.EventCitaEditada, apt)

	return storeErr(s.repo.Update(ctx, apt, trace, event))
}

// Finalize records the clinical outcome and forces the terminal finalizada
// state. All submitted fields land in the trace, absent ones as null.
func (s *Service) Finalize(ctx context.Context, clinicID, id uuid.UUID, req *model.FinalizeRequest) error {
	apt, err := s.getForClinic(ctx, id, clinicID)
	if err != nil {
		return err
	}
	if err := guardTerminal(apt); err != nil {
		return err
	}

	apt.Estado = model.StatusFinalizada
	apt.Diagnostico = req.Diagnostico
	apt.Tratamiento = req.Tratamiento
	apt.Medicamentos = pq.StringArray(req.Medicamentos)
	apt.Recomendaciones = req.Recomendaciones
	apt.Seguimiento = req.Seguimiento
	apt.NotasInternas = req.NotasInternas
	apt.ServiciosAdicionales = req.ServiciosAdicionales
	apt.ProductosVendidos = req.ProductosVendidos

	trace := model.NewTraceEntry(apt.ID, model.AccionFinalizacion, clinicID.String(), map[string]interface{}{
		"diagnostico":           req.Diagnostico,
		"tratamiento":           req.Tratamiento,
		"medicamentos":          req.Medicamentos,
		"recomendaciones":       req.Recomendaciones,
		"seguimiento":           req.Seguimiento,
		"notas_internas":        req.NotasInternas,
		"servicios_adicionales": req.ServiciosAdicionales,
		"productos_vendidos":    req.ProductosVendidos,
	})
	event := s.lifecycleEvent(model.EventCitaFinalizada, apt)

	if err := s.repo.Update(ctx, apt, trace, event); err != nil {
		return storeErr(err)
	}

	s.countTransition(apt.Estado)
	s.notifyOwner(ctx, apt, "")
	return nil
}

// Reschedule moves the appointment and marks it reprogramada: the clinic must
// respond again through /status before it counts as confirmed.
func (s *Service) Reschedule(ctx context.Context, userID, id uuid.UUID, req *model.RescheduleRequest) error {
	apt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := guardTerminal(apt); err != nil {
		return err
	}

	fecha, err := parseFecha(req.Date)
	if err != nil {
		return apperrors.Validation(MsgDatosIncompletos)
	}

	apt.FechaInicio = fecha
	apt.Horario = req.Time
	apt.MotivoReprogramacion = &req.Reason
	apt.Estado = model.StatusReprogramada

	trace := model.NewTraceEntry(apt.ID, model.AccionReprogramacion, userID.String(), map[string]interface{}{
		"fecha_inicio": req.Date,
		"horario":      req.Time,
		"motivo":       req.Reason,
	})
	event := s.lifecycleEvent(model.EventCitaReprogramada, apt)

	if err := s.repo.Update(ctx, apt, trace, event); err != nil {
		return storeErr(err)
	}
	s.countTransition(apt.Estado)
	return nil
}

// Cancel is the owner's terminal transition.
func (s *Service) Cancel(ctx context.Context, userID, id uuid.UUID, reason string) error {
	apt, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := guardTerminal(apt); err != nil {
		return err
	}

	apt.Estado = model.StatusCancelada
	apt.MotivoCancelacion = &reason

	trace := model.NewTraceEntry(apt.ID, model.AccionCancelacion, userID.String(), map[string]interface{}{
		"motivo": reason,
	})
	event := s.lifecycleEvent(model.EventCitaCancelada, apt)

	if err := s.repo.Update(ctx, apt, trace, event); err != nil {
		return storeErr(err)
	}
	s.countTransition(apt.Estado)
	return nil
}

func (s *Service) countTransition(estado model.Status) {
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(estado)).Inc()
	}
}

// lifecycleEvent builds the outbox row committed with the mutation. A payload
// that fails to marshal is logged and skipped, never blocks the mutation.
func (s *Service) lifecycleEvent(eventType string, apt *model.Appointment) *model.OutboxEvent {
	event, err := model.NewOutboxEvent(eventType, map[string]interface{}{
		"cita_id":    apt.ID,
		"user_id":    apt.UserID,
		"clinica_id": apt.ClinicID,
		"estado":     apt.Estado,
		"fecha":      apt.FechaInicio,
		"horario":    apt.Horario,
	})
	if err != nil {
		s.logger.Error(err, "failed to build outbox event", "event_type", eventType)
		return nil
	}
	return event
}

// notifyOwner emails the owner when their reminder preference includes email.
// SMS delivery is handled elsewhere; here it is only logged.
func (s *Service) notifyOwner(ctx context.Context, apt *model.Appointment, mensaje string) {
	if apt.Owner == nil || apt.Owner.Email == "" {
		return
	}
	if apt.Recordatorio != model.ReminderEmail && apt.Recordatorio != model.ReminderBoth {
		s.logger.Debug("recordatorio sin email, se omite notificación", "cita_id", apt.ID.String())
		return
	}
	petName := ""
	if apt.Pet != nil {
		petName = apt.Pet.Nombre
	}
	if err := s.emailSvc.SendStatusUpdate(ctx, apt.Owner.Email, petName, apt.Estado, mensaje); err != nil {
		s.logger.Error(err, "failed to notify owner", "cita_id", apt.ID.String())
	}
}

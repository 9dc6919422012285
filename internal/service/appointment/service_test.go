package appointment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/citas-api/internal/email"
	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/internal/repository"
	apperrors "github.com/vetlink/citas-api/pkg/errors"
	"github.com/vetlink/citas-api/pkg/logger"
)

type fakeAppointmentRepo struct {
	appointments map[uuid.UUID]*model.Appointment
	traces       map[uuid.UUID][]*model.TraceEntry
	events       []*model.OutboxEvent
	createCalls  int
	updateCalls  int
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{
		appointments: map[uuid.UUID]*model.Appointment{},
		traces:       map[uuid.UUID][]*model.TraceEntry{},
	}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error {
	f.createCalls++
	copied := *apt
	f.appointments[apt.ID] = &copied
	if trace != nil {
		f.traces[apt.ID] = append(f.traces[apt.ID], trace)
	}
	if event != nil {
		f.events = append(f.events, event)
	}
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) GetDetailForOwner(_ context.Context, id, userID uuid.UUID) (*model.Appointment, error) {
	apt, ok := f.appointments[id]
	if !ok || apt.UserID != userID {
		return nil, repository.ErrNotFound
	}
	copied := *apt
	return &copied, nil
}

func (f *fakeAppointmentRepo) ListByOwner(_ context.Context, userID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.UserID == userID {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListByClinic(_ context.Context, clinicID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.ClinicID == clinicID {
			out = append(out, apt)
		}
	}
	return out, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment, trace *model.TraceEntry, event *model.OutboxEvent) error {
	f.updateCalls++
	if _, ok := f.appointments[apt.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *apt
	f.appointments[apt.ID] = &copied
	if trace != nil {
		f.traces[apt.ID] = append(f.traces[apt.ID], trace)
	}
	if event != nil {
		f.events = append(f.events, event)
	}
	return nil
}

type fakePetRepo struct {
	owners map[uuid.UUID]uuid.UUID
}

func (f *fakePetRepo) GetOwnerID(_ context.Context, petID uuid.UUID) (uuid.UUID, error) {
	owner, ok := f.owners[petID]
	if !ok {
		return uuid.Nil, repository.ErrNotFound
	}
	return owner, nil
}

type fakeTraceRepo struct {
	repo *fakeAppointmentRepo
}

func (f *fakeTraceRepo) ListByAppointment(_ context.Context, citaID uuid.UUID) ([]*model.TraceEntry, error) {
	return f.repo.traces[citaID], nil
}

type fixture struct {
	svc      *Service
	repo     *fakeAppointmentRepo
	pets     *fakePetRepo
	userID   uuid.UUID
	clinicID uuid.UUID
	petID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	repo := newFakeAppointmentRepo()
	userID := uuid.New()
	petID := uuid.New()
	pets := &fakePetRepo{owners: map[uuid.UUID]uuid.UUID{petID: userID}}

	svc := NewService(repo, pets, &fakeTraceRepo{repo: repo}, email.NewNoopService(), logger.NewLogger(nil), nil)

	return &fixture{
		svc:      svc,
		repo:     repo,
		pets:     pets,
		userID:   userID,
		clinicID: uuid.New(),
		petID:    petID,
	}
}

func (fx *fixture) scheduleRequest() *model.ScheduleRequest {
	return &model.ScheduleRequest{
		PetID:         fx.petID.String(),
		ServiceID:     uuid.New().String(),
		ClinicID:      fx.clinicID.String(),
		Date:          "2026-09-15",
		TimeSlot:      "10:00-10:30",
		Reason:        "Vacuna anual",
		AcceptedTerms: true,
	}
}

func (fx *fixture) schedule(t *testing.T) *model.Appointment {
	t.Helper()
	apt, err := fx.svc.Schedule(context.Background(), fx.userID, fx.scheduleRequest())
	require.NoError(t, err)
	return apt
}

func assertKind(t *testing.T, err error, kind apperrors.Kind, message string) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, kind, appErr.Kind)
	if message != "" {
		assert.Equal(t, message, appErr.Message)
	}
}

func TestScheduleCreatesPendingWithTrace(t *testing.T) {
	fx := newFixture(t)

	apt := fx.schedule(t)

	assert.Equal(t, model.StatusPendiente, apt.Estado)
	assert.Equal(t, model.ReminderBoth, apt.Recordatorio)
	assert.True(t, apt.AceptaTerminos)

	trail := fx.repo.traces[apt.ID]
	require.Len(t, trail, 1)
	assert.Equal(t, model.AccionCreacion, trail[0].Accion)
	assert.Equal(t, fx.userID.String(), trail[0].ActorID)

	require.Len(t, fx.repo.events, 1)
	assert.Equal(t, model.EventCitaCreada, fx.repo.events[0].EventType)
}

func TestScheduleRejectsIncompletePayload(t *testing.T) {
	fx := newFixture(t)

	cases := map[string]func(*model.ScheduleRequest){
		"missing date":     func(r *model.ScheduleRequest) { r.Date = "" },
		"missing pet":      func(r *model.ScheduleRequest) { r.PetID = "" },
		"missing clinic":   func(r *model.ScheduleRequest) { r.ClinicID = "" },
		"missing timeslot": func(r *model.ScheduleRequest) { r.TimeSlot = "" },
		"terms declined":   func(r *model.ScheduleRequest) { r.AcceptedTerms = false },
		"malformed pet id": func(r *model.ScheduleRequest) { r.PetID = "not-a-uuid" },
		"malformed date":   func(r *model.ScheduleRequest) { r.Date = "mañana" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := fx.scheduleRequest()
			mutate(req)

			_, err := fx.svc.Schedule(context.Background(), fx.userID, req)
			assertKind(t, err, apperrors.KindValidation, MsgDatosIncompletos)
		})
	}

	assert.Zero(t, fx.repo.createCalls, "no insert on validation failure")
}

func TestScheduleRejectsForeignPet(t *testing.T) {
	fx := newFixture(t)

	otherPet := uuid.New()
	fx.pets.owners[otherPet] = uuid.New()

	req := fx.scheduleRequest()
	req.PetID = otherPet.String()

	_, err := fx.svc.Schedule(context.Background(), fx.userID, req)
	assertKind(t, err, apperrors.KindForbidden, "La mascota no pertenece al usuario")
}

func TestScheduleRejectsUnknownPet(t *testing.T) {
	fx := newFixture(t)

	req := fx.scheduleRequest()
	req.PetID = uuid.New().String()

	_, err := fx.svc.Schedule(context.Background(), fx.userID, req)
	assertKind(t, err, apperrors.KindNotFound, "Mascota no encontrada")
}

func TestScheduleAcceptsFullTimestamp(t *testing.T) {
	fx := newFixture(t)

	req := fx.scheduleRequest()
	req.Date = "2026-09-15T10:00:00Z"

	apt, err := fx.svc.Schedule(context.Background(), fx.userID, req)
	require.NoError(t, err)
	assert.Equal(t, 2026, apt.FechaInicio.Year())
}

func TestUpdateStatusClinicResponses(t *testing.T) {
	cases := []struct {
		status  model.Status
		message string
	}{
		{model.StatusConfirmada, MsgCitaConfirmada},
		{model.StatusRechazada, MsgCitaRechazada},
		{model.StatusReprogramacionSugerida, MsgReprogramacionSugerida},
	}

	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			fx := newFixture(t)
			apt := fx.schedule(t)

			msg, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, apt.ID, &model.UpdateStatusRequest{Status: tc.status})
			require.NoError(t, err)
			assert.Equal(t, tc.message, msg)

			stored := fx.repo.appointments[apt.ID]
			assert.Equal(t, tc.status, stored.Estado)

			trail := fx.repo.traces[apt.ID]
			require.Len(t, trail, 2)
			assert.Equal(t, model.AccionCambioEstado, trail[1].Accion)
			assert.Equal(t, fx.clinicID.String(), trail[1].ActorID)
		})
	}
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, apt.ID, &model.UpdateStatusRequest{Status: "aprobada"})
	assertKind(t, err, apperrors.KindValidation, "Estado no válido")

	assert.Equal(t, model.StatusPendiente, fx.repo.appointments[apt.ID].Estado)
	assert.Len(t, fx.repo.traces[apt.ID], 1, "no trace on rejected transition")
}

func TestUpdateStatusRejectsForeignClinic(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	_, err := fx.svc.UpdateStatus(context.Background(), uuid.New(), apt.ID, &model.UpdateStatusRequest{Status: model.StatusConfirmada})
	assertKind(t, err, apperrors.KindForbidden, "La cita no pertenece a la clínica")
}

func TestUpdateStatusMissingAppointment(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, uuid.New(), &model.UpdateStatusRequest{Status: model.StatusConfirmada})
	assertKind(t, err, apperrors.KindNotFound, "Cita no encontrada")
}

func TestTerminalStatesRejectFurtherTransitions(t *testing.T) {
	terminal := []model.Status{model.StatusFinalizada, model.StatusCancelada, model.StatusRechazada}

	for _, estado := range terminal {
		t.Run(string(estado), func(t *testing.T) {
			fx := newFixture(t)
			apt := fx.schedule(t)
			fx.repo.appointments[apt.ID].Estado = estado

			_, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, apt.ID, &model.UpdateStatusRequest{Status: model.StatusConfirmada})
			assertKind(t, err, apperrors.KindConflict, "La cita ya se encuentra en un estado terminal")

			err = fx.svc.Cancel(context.Background(), fx.userID, apt.ID, "ya no puedo")
			assertKind(t, err, apperrors.KindConflict, "")

			err = fx.svc.Reschedule(context.Background(), fx.userID, apt.ID, &model.RescheduleRequest{Date: "2026-10-01", Time: "11:00-11:30"})
			assertKind(t, err, apperrors.KindConflict, "")

			assert.Equal(t, estado, fx.repo.appointments[apt.ID].Estado, "terminal state stays put")
		})
	}
}

func TestEditAppliesOnlyProvidedFields(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	notas := "traer cartilla"
	horario := "16:00-16:30"
	err := fx.svc.Edit(context.Background(), fx.userID, apt.ID, &model.EditRequest{
		Notes:    &notas,
		TimeSlot: &horario,
	})
	require.NoError(t, err)

	stored := fx.repo.appointments[apt.ID]
	assert.Equal(t, "traer cartilla", stored.Notas)
	assert.Equal(t, "16:00-16:30", stored.Horario)
	assert.Equal(t, "Vacuna anual", stored.Motivo, "untouched field survives")
	assert.Equal(t, model.StatusPendiente, stored.Estado, "edit never changes status")

	trail := fx.repo.traces[apt.ID]
	require.Len(t, trail, 2)
	assert.Equal(t, model.AccionModificacion, trail[1].Accion)
}

func TestEditRejectsForeignAppointment(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	notas := "x"
	err := fx.svc.Edit(context.Background(), uuid.New(), apt.ID, &model.EditRequest{Notes: &notas})
	assertKind(t, err, apperrors.KindNotFound, "Cita no encontrada o no pertenece al usuario")
}

func TestEditRejectsForeignReplacementPet(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	otherPet := uuid.New()
	fx.pets.owners[otherPet] = uuid.New()
	petID := otherPet.String()

	err := fx.svc.Edit(context.Background(), fx.userID, apt.ID, &model.EditRequest{PetID: &petID})
	assertKind(t, err, apperrors.KindForbidden, "")
}

func TestFinalizeRecordsClinicalOutcome(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	diagnostico := "otitis"
	err := fx.svc.Finalize(context.Background(), fx.clinicID, apt.ID, &model.FinalizeRequest{
		Diagnostico:  &diagnostico,
		Medicamentos: []string{"amoxicilina", "meloxicam"},
	})
	require.NoError(t, err)

	stored := fx.repo.appointments[apt.ID]
	assert.Equal(t, model.StatusFinalizada, stored.Estado)
	require.NotNil(t, stored.Diagnostico)
	assert.Equal(t, "otitis", *stored.Diagnostico)
	assert.Equal(t, []string{"amoxicilina", "meloxicam"}, []string(stored.Medicamentos))

	trail := fx.repo.traces[apt.ID]
	require.Len(t, trail, 2)
	assert.Equal(t, model.AccionFinalizacion, trail[1].Accion)
}

func TestRescheduleAwaitsClinicReconfirmation(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, apt.ID, &model.UpdateStatusRequest{Status: model.StatusConfirmada})
	require.NoError(t, err)

	err = fx.svc.Reschedule(context.Background(), fx.userID, apt.ID, &model.RescheduleRequest{
		Date:   "2026-10-01",
		Time:   "09:00-09:30",
		Reason: "viaje",
	})
	require.NoError(t, err)

	stored := fx.repo.appointments[apt.ID]
	assert.Equal(t, model.StatusReprogramada, stored.Estado)
	assert.Equal(t, "09:00-09:30", stored.Horario)
	require.NotNil(t, stored.MotivoReprogramacion)
	assert.Equal(t, "viaje", *stored.MotivoReprogramacion)
}

func TestCancelIsTerminal(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	err := fx.svc.Cancel(context.Background(), fx.userID, apt.ID, "ya no lo necesito")
	require.NoError(t, err)

	stored := fx.repo.appointments[apt.ID]
	assert.Equal(t, model.StatusCancelada, stored.Estado)
	require.NotNil(t, stored.MotivoCancelacion)
	assert.Equal(t, "ya no lo necesito", *stored.MotivoCancelacion)

	err = fx.svc.Cancel(context.Background(), fx.userID, apt.ID, "otra vez")
	assertKind(t, err, apperrors.KindConflict, "")
}

func TestTraceTrailGrowsMonotonically(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	_, err := fx.svc.UpdateStatus(context.Background(), fx.clinicID, apt.ID, &model.UpdateStatusRequest{Status: model.StatusConfirmada})
	require.NoError(t, err)

	notas := "n"
	require.NoError(t, fx.svc.Edit(context.Background(), fx.userID, apt.ID, &model.EditRequest{Notes: &notas}))
	require.NoError(t, fx.svc.Cancel(context.Background(), fx.userID, apt.ID, "motivo"))

	trail := fx.repo.traces[apt.ID]
	require.Len(t, trail, 4)
	acciones := []string{trail[0].Accion, trail[1].Accion, trail[2].Accion, trail[3].Accion}
	assert.Equal(t, []string{
		model.AccionCreacion,
		model.AccionCambioEstado,
		model.AccionModificacion,
		model.AccionCancelacion,
	}, acciones)
}

func TestGetDetailReturnsTrail(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	got, trail, err := fx.svc.GetDetail(context.Background(), fx.userID, apt.ID)
	require.NoError(t, err)
	assert.Equal(t, apt.ID, got.ID)
	require.Len(t, trail, 1)
	assert.Equal(t, model.AccionCreacion, trail[0].Accion)
}

func TestGetDetailHidesForeignAppointments(t *testing.T) {
	fx := newFixture(t)
	apt := fx.schedule(t)

	_, _, err := fx.svc.GetDetail(context.Background(), uuid.New(), apt.ID)
	assertKind(t, err, apperrors.KindNotFound, "")
}

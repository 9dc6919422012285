package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/citas-api/internal/model"
)

func TestPresentStatusOwnerVocabulary(t *testing.T) {
	cases := []struct {
		estado model.Status
		want   string
	}{
		{model.StatusPendiente, "pending"},
		{model.StatusConfirmada, "confirmed"},
		{model.StatusRechazada, "rechazada"},
		{model.StatusReprogramacionSugerida, "reprogramacion_sugerida"},
		{model.StatusReprogramada, "reprogramada"},
		{model.StatusFinalizada, "finalizada"},
		{model.StatusCancelada, "cancelada"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PresentStatus(tc.estado, OwnerView), "owner view of %s", tc.estado)
	}
}

func TestPresentStatusClinicViewPassesThrough(t *testing.T) {
	for _, estado := range []model.Status{
		model.StatusPendiente,
		model.StatusConfirmada,
		model.StatusFinalizada,
	} {
		assert.Equal(t, string(estado), PresentStatus(estado, ClinicView))
	}
}

func sampleAppointment() *model.Appointment {
	return &model.Appointment{
		ID:          uuid.New(),
		FechaInicio: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		Horario:     "10:00-10:30",
		Estado:      model.StatusPendiente,
		Motivo:      "Vacuna",
		Pet:         &model.PetInfo{Nombre: "Luna"},
		Clinic:      &model.ClinicInfo{Nombre: "Clínica Central"},
		Owner:       &model.OwnerInfo{Nombre: "Ana", Email: "ana@example.com"},
	}
}

func TestPresentOwnerList(t *testing.T) {
	items := PresentOwnerList([]*model.Appointment{sampleAppointment()})

	require.Len(t, items, 1)
	assert.Equal(t, "2026-09-15", items[0].Fecha)
	assert.Equal(t, "pending", items[0].Estado)
	assert.Equal(t, "Luna", items[0].Mascota.Nombre)
	assert.Equal(t, "Clínica Central", items[0].Clinica.Nombre)
}

func TestPresentClinicListKeepsStoredStatus(t *testing.T) {
	items := PresentClinicList([]*model.Appointment{sampleAppointment()})

	require.Len(t, items, 1)
	assert.Equal(t, "pendiente", items[0].Estado)
	assert.Equal(t, "Ana", items[0].Propietario.Nombre)
}

func TestPresentListsNeverNil(t *testing.T) {
	assert.NotNil(t, PresentOwnerList(nil))
	assert.NotNil(t, PresentClinicList(nil))
}

func TestPresentDetailPaymentPlaceholders(t *testing.T) {
	view := PresentDetail(sampleAppointment(), nil)

	assert.Equal(t, "pending", view.PaymentStatus)
	assert.Equal(t, "none", view.PaymentType)
	assert.NotNil(t, view.Trazabilidad, "trail serializes as [] not null")
}

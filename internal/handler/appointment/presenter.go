package appointment

import (
	"time"

	"github.com/vetlink/citas-api/internal/model"
)

// View identifies the consumer a response is shaped for. The owner frontend
// speaks an English status vocabulary for the two common states; the clinic
// dashboard consumes the stored vocabulary unchanged.
type View int

const (
	OwnerView View = iota
	ClinicView
)

var ownerVocabulary = map[model.Status]string{
	model.StatusPendiente:  "pending",
	model.StatusConfirmada: "confirmed",
}

// PresentStatus translates a stored status for the given consumer. Unmapped
// values pass through unchanged.
func PresentStatus(s model.Status, view View) string {
	if view == OwnerView {
		if translated, ok := ownerVocabulary[s]; ok {
			return translated
		}
	}
	return string(s)
}

const fechaLayout = "2006-01-02"

// OwnerListItem is one row of GET /appointments/user.
type OwnerListItem struct {
	ID      string            `json:"id"`
	Fecha   string            `json:"fecha"`
	Horario string            `json:"horario"`
	Estado  string            `json:"estado"`
	Motivo  string            `json:"motivo,omitempty"`
	Mascota *model.PetInfo    `json:"mascota,omitempty"`
	Clinica *model.ClinicInfo `json:"clinica,omitempty"`
}

// ClinicListItem is one row of GET /appointments/clinic.
type ClinicListItem struct {
	ID           string           `json:"id"`
	Fecha        string           `json:"fecha"`
	Horario      string           `json:"horario"`
	Estado       string           `json:"estado"`
	Motivo       string           `json:"motivo,omitempty"`
	Notas        string           `json:"notas,omitempty"`
	Mascota     *model.PetInfo   `json:"mascota,omitempty"`
	Propietario *model.OwnerInfo `json:"propietario,omitempty"`
}

// DetailView is the owner-scoped full detail. Payment is out of scope and
// always reports its placeholder defaults.
type DetailView struct {
	*model.Appointment
	PaymentStatus string              `json:"paymentStatus"`
	PaymentType   string              `json:"paymentType"`
	Trazabilidad  []*model.TraceEntry `json:"trazabilidad"`
}

func presentFecha(t time.Time) string {
	return t.Format(fechaLayout)
}

func PresentOwnerList(appointments []*model.Appointment) []OwnerListItem {
	items := make([]OwnerListItem, 0, len(appointments))
	for _, apt := range appointments {
		items = append(items, OwnerListItem{
			ID:      apt.ID.String(),
			Fecha:   presentFecha(apt.FechaInicio),
			Horario: apt.Horario,
			Estado:  PresentStatus(apt.Estado, OwnerView),
			Motivo:  apt.Motivo,
			Mascota: apt.Pet,
			Clinica: apt.Clinic,
		})
	}
	return items
}

func PresentClinicList(appointments []*model.Appointment) []ClinicListItem {
	items := make([]ClinicListItem, 0, len(appointments))
	for _, apt := range appointments {
		items = append(items, ClinicListItem{
			ID:          apt.ID.String(),
			Fecha:       presentFecha(apt.FechaInicio),
			Horario:     apt.Horario,
			Estado:      PresentStatus(apt.Estado, ClinicView),
			Motivo:      apt.Motivo,
			Notas:       apt.Notas,
			Mascota:     apt.Pet,
			Propietario: apt.Owner,
		})
	}
	return items
}

func PresentDetail(apt *model.Appointment, trail []*model.TraceEntry) DetailView {
	if trail == nil {
		trail = []*model.TraceEntry{}
	}
	return DetailView{
		Appointment:   apt,
		PaymentStatus: "pending",
		PaymentType:   "none",
		Trazabilidad:  trail,
	}
}

package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/vetlink/citas-api/config"
	"github.com/vetlink/citas-api/internal/model"
)

// Service delivers owner-facing appointment notifications. Delivery is
// best-effort: callers log failures and never fail the request on them.
type Service interface {
	SendStatusUpdate(ctx context.Context, to, petName string, estado model.Status, mensaje string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPService builds a gomail-backed sender.
func NewSMTPService(cfg config.SMTPConfig) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

var statusSubjects = map[model.Status]string{
	model.StatusConfirmada:             "Tu cita fue confirmada",
	model.StatusRechazada:              "Tu cita fue rechazada",
	model.StatusReprogramacionSugerida: "La clínica sugiere reprogramar tu cita",
	model.StatusFinalizada:             "Tu cita fue finalizada",
}

func (s *smtpService) SendStatusUpdate(ctx context.Context, to, petName string, estado model.Status, mensaje string) error {
	subject, ok := statusSubjects[estado]
	if !ok {
		subject = "Actualización de tu cita"
	}

	body := fmt.Sprintf("Hola,<br><br>La cita de <b>%s</b> cambió de estado a <b>%s</b>.", petName, estado)
	if mensaje != "" {
		body += fmt.Sprintf("<br><br>Mensaje de la clínica: %s", mensaje)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send status email: %w", err)
	}
	return nil
}

type noopService struct{}

// NewNoopService is used when SMTP is not configured.
func NewNoopService() Service {
	return noopService{}
}

func (noopService) SendStatusUpdate(context.Context, string, string, model.Status, string) error {
	return nil
}

package appointment

import (
	"context"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vetlink/citas-api/internal/handler"
	"github.com/vetlink/citas-api/internal/middleware"
	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/internal/service/appointment"
	apperrors "github.com/vetlink/citas-api/pkg/errors"
)

// Service is the state-machine surface the handler consumes.
type Service interface {
	Schedule(ctx context.Context, userID uuid.UUID, req *model.ScheduleRequest) (*model.Appointment, error)
	ListForOwner(ctx context.Context, userID uuid.UUID) ([]*model.Appointment, error)
	ListForClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Appointment, error)
	GetDetail(ctx context.Context, userID, id uuid.UUID) (*model.Appointment, []*model.TraceEntry, error)
	UpdateStatus(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateStatusRequest) (string, error)
	Edit(ctx context.Context, userID, id uuid.UUID, req *model.EditRequest) error
	Finalize(ctx context.Context, clinicID, id uuid.UUID, req *model.FinalizeRequest) error
	Reschedule(ctx context.Context, userID, id uuid.UUID, req *model.RescheduleRequest) error
	Cancel(ctx context.Context, userID, id uuid.UUID, reason string) error
}

type Handler struct {
	svc       Service
	responder *handler.Responder
}

func NewHandler(svc Service, responder *handler.Responder) *Handler {
	return &Handler{svc: svc, responder: responder}
}

var horarioPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d-([01]\d|2[0-3]):[0-5]\d$`)

// RegisterValidations installs the horario (HH:MM-HH:MM) rule on gin's
// binding engine. Call once at startup.
func RegisterValidations() error {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		return v.RegisterValidation("horario", func(fl validator.FieldLevel) bool {
			return horarioPattern.MatchString(fl.Field().String())
		})
	}
	return nil
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	citas := rg.Group("/appointments")
	citas.Use(auth.Authenticate())
	{
		citas.POST("/schedule", auth.RequireRole(model.RoleOwner), h.Schedule)
		citas.GET("/user", auth.RequireRole(model.RoleOwner), h.ListForOwner)
		citas.GET("/clinic", auth.RequireRole(model.RoleVet), h.ListForClinic)
		citas.GET("/:id", auth.RequireRole(model.RoleOwner), h.GetDetail)
		citas.PUT("/:id/status", auth.RequireRole(model.RoleVet), h.UpdateStatus)
		citas.PUT("/:id/edit", auth.RequireRole(model.RoleOwner), h.Edit)
		citas.PUT("/:id/finalize", auth.RequireRole(model.RoleVet), h.Finalize)
	}

	// The reschedule/cancel routes live in a singular namespace, kept for
	// frontend compatibility.
	cita := rg.Group("/appointment")
	cita.Use(auth.Authenticate())
	{
		cita.PATCH("/:id/reschedule", auth.RequireRole(model.RoleOwner), h.Reschedule)
		cita.PATCH("/:id/cancel", auth.RequireRole(model.RoleOwner), h.Cancel)
	}
}

func (h *Handler) Schedule(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	var req model.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation(appointment.MsgDatosIncompletos))
		return
	}

	apt, err := h.svc.Schedule(c.Request.Context(), actor.UserID, &req)
	if err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": appointment.MsgCitaAgendada,
		"cita":    apt,
	})
}

func (h *Handler) ListForOwner(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	appointments, err := h.svc.ListForOwner(c.Request.Context(), actor.UserID)
	if err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"citas": PresentOwnerList(appointments)})
}

func (h *Handler) ListForClinic(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	appointments, err := h.svc.ListForClinic(c.Request.Context(), actor.ClinicID)
	if err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"citas": PresentClinicList(appointments)})
}

func (h *Handler) GetDetail(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada"))
		return
	}

	apt, trail, err := h.svc.GetDetail(c.Request.Context(), actor.UserID, id)
	if err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointment": PresentDetail(apt, trail)})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada"))
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation("Estado no válido"))
		return
	}

	message, err := h.svc.UpdateStatus(c.Request.Context(), actor.ClinicID, id, &req)
	if err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *Handler) Edit(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada o no pertenece al usuario"))
		return
	}

	var req model.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation(appointment.MsgDatosIncompletos))
		return
	}

	if err := h.svc.Edit(c.Request.Context(), actor.UserID, id, &req); err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": appointment.MsgCitaActualizada})
}

func (h *Handler) Finalize(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada"))
		return
	}

	var req model.FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation(appointment.MsgDatosIncompletos))
		return
	}

	if err := h.svc.Finalize(c.Request.Context(), actor.ClinicID, id, &req); err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": appointment.MsgCitaFinalizada})
}

func (h *Handler) Reschedule(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada o no pertenece al usuario"))
		return
	}

	var req model.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation(appointment.MsgDatosIncompletos))
		return
	}

	if err := h.svc.Reschedule(c.Request.Context(), actor.UserID, id, &req); err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": appointment.MsgCitaReprogramada})
}

func (h *Handler) Cancel(c *gin.Context) {
	actor, _ := middleware.ActorFromContext(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.responder.Error(c, apperrors.NotFound("Cita no encontrada o no pertenece al usuario"))
		return
	}

	var req model.CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.responder.Error(c, apperrors.Validation(appointment.MsgDatosIncompletos))
		return
	}

	if err := h.svc.Cancel(c.Request.Context(), actor.UserID, id, req.Reason); err != nil {
		h.responder.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": appointment.MsgCitaCancelada})
}

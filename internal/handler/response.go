package handler

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/vetlink/citas-api/pkg/errors"
	"github.com/vetlink/citas-api/pkg/logger"
)

// Responder maps application errors onto HTTP responses. Persistence detail
// reaches the client only when ExposeErrors is on; it is always logged.
type Responder struct {
	ExposeErrors bool
	Logger       *logger.Logger
}

func NewResponder(exposeErrors bool, l *logger.Logger) *Responder {
	return &Responder{ExposeErrors: exposeErrors, Logger: l}
}

func (r *Responder) Error(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Persistence(err)
	}

	body := gin.H{"message": appErr.Message}
	if appErr.Kind == apperrors.KindPersistence {
		r.Logger.Error(appErr.Err, "store failure",
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		if r.ExposeErrors && appErr.Err != nil {
			body["error"] = appErr.Err.Error()
		}
	}

	c.JSON(appErr.StatusCode(), body)
}

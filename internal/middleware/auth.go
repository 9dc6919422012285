package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/pkg/auth"
)

const (
	// CookieAuthToken is the HTTP-only cookie set at login. It takes
	// precedence over the Authorization header when both are present.
	CookieAuthToken = "auth_token"

	contextActor = "actor"
)

type AuthMiddleware struct {
	jwtSvc auth.JWTService
}

func NewAuthMiddleware(jwtSvc auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtSvc: jwtSvc}
}

func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(CookieAuthToken); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// Authenticate verifies the bearer credential and attaches the derived actor
// to the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "No token, autorización denegada"})
			return
		}

		claims, err := m.jwtSvc.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token no válido"})
			return
		}

		actor := model.Actor{Role: claims.UserType}
		switch claims.UserType {
		case auth.RoleOwner:
			actor.UserID, err = uuid.Parse(claims.UserID)
		case auth.RoleVet:
			actor.ClinicID, err = uuid.Parse(claims.ClinicID)
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token no válido"})
			return
		}

		c.Set(contextActor, actor)
		c.Next()
	}
}

// RequireRole gates a route group to one actor role.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok || actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Acceso denegado"})
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated actor, if any.
func ActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(contextActor)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetlink/citas-api/internal/model"
	"github.com/vetlink/citas-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T) (*gin.Engine, auth.JWTService) {
	t.Helper()
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret"})
	mw := NewAuthMiddleware(jwtSvc)

	r := gin.New()
	r.GET("/owner", mw.Authenticate(), mw.RequireRole(model.RoleOwner), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"userId": actor.UserID.String()})
	})
	r.GET("/clinic", mw.Authenticate(), mw.RequireRole(model.RoleVet), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, jwtSvc
}

func TestAuthenticateMissingToken(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "No token, autorización denegada")
}

func TestAuthenticateInvalidToken(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token no válido")
}

func TestAuthenticateBearerHeader(t *testing.T) {
	r, jwtSvc := testRouter(t)

	userID := uuid.New()
	token, err := jwtSvc.GenerateOwnerToken(userID.String())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthenticateCookieTakesPrecedence(t *testing.T) {
	r, jwtSvc := testRouter(t)

	cookieUser := uuid.New()
	headerUser := uuid.New()
	cookieToken, err := jwtSvc.GenerateOwnerToken(cookieUser.String())
	require.NoError(t, err)
	headerToken, err := jwtSvc.GenerateOwnerToken(headerUser.String())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/owner", nil)
	req.AddCookie(&http.Cookie{Name: CookieAuthToken, Value: cookieToken})
	req.Header.Set("Authorization", "Bearer "+headerToken)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), cookieUser.String())
	assert.NotContains(t, w.Body.String(), headerUser.String())
}

func TestRequireRoleRejectsWrongRole(t *testing.T) {
	r, jwtSvc := testRouter(t)

	token, err := jwtSvc.GenerateOwnerToken(uuid.New().String())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/clinic", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Acceso denegado")
}

func TestClinicTokenCarriesClinicID(t *testing.T) {
	jwtSvc := auth.NewJWTService(auth.Config{Secret: "test-secret"})
	mw := NewAuthMiddleware(jwtSvc)

	clinicID := uuid.New()
	token, err := jwtSvc.GenerateClinicToken(clinicID.String())
	require.NoError(t, err)

	r := gin.New()
	r.GET("/", mw.Authenticate(), func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		require.True(t, ok)
		assert.Equal(t, model.RoleVet, actor.Role)
		assert.Equal(t, clinicID, actor.ClinicID)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOwnerTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret"})

	token, err := svc.GenerateOwnerToken("user-123")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, RoleOwner, claims.UserType)
	assert.Empty(t, claims.ClinicID)
}

func TestClinicTokenRoundTrip(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret"})

	token, err := svc.GenerateClinicToken("clinic-456")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clinic-456", claims.ClinicID)
	assert.Equal(t, RoleVet, claims.UserType)
	assert.Empty(t, claims.UserID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(Config{Secret: "secret-a"})
	verifier := NewJWTService(Config{Secret: "secret-b"})

	token, err := issuer.GenerateOwnerToken("user-123")
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret", OwnerExpiry: -time.Minute})

	token, err := svc.GenerateOwnerToken("user-123")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateRejectsUnsignedToken(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret"})

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
		UserID:   "user-123",
		UserType: RoleOwner,
	})
	tokenString, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestValidateRejectsRolelessToken(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:   "user-123",
		UserType: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidateRejectsOwnerTokenWithoutUserID(t *testing.T) {
	svc := NewJWTService(Config{Secret: "secret"})

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserType: RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

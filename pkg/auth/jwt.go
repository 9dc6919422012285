package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the userType claim.
const (
	RoleOwner = "owner"
	RoleVet   = "vet"
)

// Claims is the credential payload: either userId+owner or clinicaId+vet.
type Claims struct {
	UserID   string `json:"userId,omitempty"`
	ClinicID string `json:"clinicaId,omitempty"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies signed bearer credentials.
type JWTService interface {
	GenerateOwnerToken(userID string) (string, error)
	GenerateClinicToken(clinicID string) (string, error)
	ValidateToken(token string) (*Claims, error)
}

type Config struct {
	Secret       string
	OwnerExpiry  time.Duration
	ClinicExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	if cfg.OwnerExpiry == 0 {
		cfg.OwnerExpiry = 8 * time.Hour
	}
	if cfg.ClinicExpiry == 0 {
		cfg.ClinicExpiry = 24 * time.Hour
	}
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateOwnerToken(userID string) (string, error) {
	return s.sign(&Claims{
		UserID:   userID,
		UserType: RoleOwner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.OwnerExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (s *jwtService) GenerateClinicToken(clinicID string) (string, error) {
	return s.sign(&Claims{
		ClinicID: clinicID,
		UserType: RoleVet,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.cfg.ClinicExpiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

func (s *jwtService) sign(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *jwtService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	switch claims.UserType {
	case RoleOwner:
		if claims.UserID == "" {
			return nil, fmt.Errorf("owner token missing userId")
		}
	case RoleVet:
		if claims.ClinicID == "" {
			return nil, fmt.Errorf("vet token missing clinicaId")
		}
	default:
		return nil, fmt.Errorf("unknown userType %q", claims.UserType)
	}

	return claims, nil
}

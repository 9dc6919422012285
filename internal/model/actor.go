package model

import "github.com/google/uuid"

// Actor roles.
const (
	RoleOwner = "owner"
	RoleVet   = "vet"
)

// Actor is the identity derived from a verified credential. It is rebuilt on
// every request and never persisted.
type Actor struct {
	Role     string
	UserID   uuid.UUID
	ClinicID uuid.UUID
}

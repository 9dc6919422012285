package model

import (
	"time"

	"github.com/google/uuid"
)

// Pet is referenced by appointments; only the fields the guard and the joins
// need are modeled here.
type Pet struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OwnerID   uuid.UUID `db:"user_id" json:"user_id"`
	Nombre    string    `db:"nombre" json:"nombre"`
	Foto      string    `db:"foto" json:"foto,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

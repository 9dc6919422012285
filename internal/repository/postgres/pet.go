package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vetlink/citas-api/internal/repository"
)

func (r *petRepository) GetOwnerID(ctx context.Context, petID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := r.db.GetContext(ctx, &ownerID, `SELECT user_id FROM mascotas WHERE id = $1`, petID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, repository.ErrNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to get pet owner: %w", err)
	}
	return ownerID, nil
}

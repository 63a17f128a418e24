package repository

import (
	"context"

	"github.com/google/uuid"
)

// TokenRepository expone la capacidad de revocación de tokens que el core
// invoca al crear un bloqueo (forzar re-login en todas las sesiones).
type TokenRepository interface {
	// RevokeAllForUser revoca todos los refresh tokens vivos del usuario.
	// Retorna cuántos fueron revocados.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

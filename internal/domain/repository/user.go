package repository

import (
	"context"

	"github.com/google/uuid"
)

// UserDirectory resuelve el canal de contacto registrado de un usuario.
// Lo consume el notifier SMTP; el core nunca ve direcciones de email.
type UserDirectory interface {
	// EmailByID retorna el email (lowercased) del usuario, o ErrNotFound.
	EmailByID(ctx context.Context, userID uuid.UUID) (string, error)
}

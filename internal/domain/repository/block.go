package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Block es un bloqueo temporal durable sobre (usuario, acción). Se crea cuando
// el contador de intentos fallidos alcanza el máximo configurado. Nunca se
// actualiza: si el usuario vuelve a ser bloqueado después de expirar, se crea
// un registro nuevo.
type Block struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SessionID    *string
	IPAddress    *string
	UserAgent    *string
	Action       string
	BlockedUntil time.Time
	CreatedAt    time.Time
}

// Active reporta si el bloqueo sigue vigente en el instante now.
func (b *Block) Active(now time.Time) bool {
	return b != nil && b.BlockedUntil.After(now)
}

// BlockRepository define operaciones sobre bloqueos.
type BlockRepository interface {
	// Create persiste un bloqueo nuevo. Asigna ID y CreatedAt si faltan.
	Create(ctx context.Context, b *Block) error

	// ActiveBlock retorna el bloqueo vigente más reciente para (usuario,
	// acción), o ErrNotFound.
	ActiveBlock(ctx context.Context, userID uuid.UUID, action string) (*Block, error)

	// ActiveBlockForUser retorna el bloqueo vigente más reciente para el
	// usuario sin filtrar por acción, o ErrNotFound. Usado por el gate de
	// login: un bloqueo sobre cualquier acción sensible también impide
	// autenticarse.
	ActiveBlockForUser(ctx context.Context, userID uuid.UUID) (*Block, error)

	// ListActive retorna los bloqueos vigentes, más recientes primero.
	// Si userID != uuid.Nil filtra por usuario.
	ListActive(ctx context.Context, userID uuid.UUID, limit int) ([]*Block, error)
}

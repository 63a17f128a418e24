package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenStore implementa repository.TokenRepository sobre refresh_token.
type TokenStore struct {
	DB *pgxpool.Pool
}

func NewTokenStore(db *pgxpool.Pool) *TokenStore { return &TokenStore{DB: db} }

// RevokeAllForUser marca como revocados todos los refresh tokens vivos del
// usuario. Se invoca al crear un bloqueo: todas las sesiones caen.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
		UPDATE refresh_token
		   SET revoked_at = now()
		 WHERE user_id = $1 AND revoked_at IS NULL`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

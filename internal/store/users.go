package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stepup/internal/domain/repository"
)

// UserStore implementa repository.UserDirectory sobre app_user.
type UserStore struct {
	DB *pgxpool.Pool
}

func NewUserStore(db *pgxpool.Pool) *UserStore { return &UserStore{DB: db} }

// EmailByID devuelve el email (lowercased) del usuario, o ErrNotFound.
func (s *UserStore) EmailByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var email string
	err := s.DB.QueryRow(ctx, `SELECT lower(email) FROM app_user WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return email, nil
}

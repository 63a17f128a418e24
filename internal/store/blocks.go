package store

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stepup/internal/domain/repository"
)

// BlockStore implementa repository.BlockRepository sobre session_block.
// Los bloqueos nunca se actualizan: re-bloquear crea una fila nueva.
type BlockStore struct {
	DB *pgxpool.Pool
}

func NewBlockStore(db *pgxpool.Pool) *BlockStore { return &BlockStore{DB: db} }

func (s *BlockStore) Create(ctx context.Context, b *repository.Block) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	// ip/ua usan NULLIF para evitar ""
	row := s.DB.QueryRow(ctx, `
		INSERT INTO session_block
		    (id, user_id, session_id, ip_address, user_agent, action, blocked_until)
		VALUES ($1, $2, NULLIF($3,''), NULLIF($4,'')::inet, NULLIF($5,''), $6, $7)
		RETURNING created_at`,
		b.ID, b.UserID, deref(b.SessionID), deref(b.IPAddress), deref(b.UserAgent),
		b.Action, b.BlockedUntil,
	)
	return row.Scan(&b.CreatedAt)
}

func (s *BlockStore) ActiveBlock(ctx context.Context, userID uuid.UUID, action string) (*repository.Block, error) {
	return s.scanOne(ctx, `
		SELECT id, user_id, session_id, host(ip_address), user_agent, action, blocked_until, created_at
		  FROM session_block
		 WHERE user_id = $1 AND action = $2 AND blocked_until > now()
		 ORDER BY blocked_until DESC
		 LIMIT 1`, userID, action)
}

func (s *BlockStore) ActiveBlockForUser(ctx context.Context, userID uuid.UUID) (*repository.Block, error) {
	// Sin filtro por acción: un bloqueo sobre cualquier acción gatea el login.
	return s.scanOne(ctx, `
		SELECT id, user_id, session_id, host(ip_address), user_agent, action, blocked_until, created_at
		  FROM session_block
		 WHERE user_id = $1 AND blocked_until > now()
		 ORDER BY blocked_until DESC
		 LIMIT 1`, userID)
}

func (s *BlockStore) ListActive(ctx context.Context, userID uuid.UUID, limit int) ([]*repository.Block, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := `
		SELECT id, user_id, session_id, host(ip_address), user_agent, action, blocked_until, created_at
		  FROM session_block
		 WHERE blocked_until > now()`
	args := []any{}
	if userID != uuid.Nil {
		q += ` AND user_id = $1`
		args = append(args, userID)
	}
	q += ` ORDER BY created_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*repository.Block
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *BlockStore) scanOne(ctx context.Context, q string, args ...any) (*repository.Block, error) {
	b, err := scanBlock(s.DB.QueryRow(ctx, q, args...))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlock(r rowScanner) (*repository.Block, error) {
	var b repository.Block
	var until, created time.Time
	if err := r.Scan(&b.ID, &b.UserID, &b.SessionID, &b.IPAddress, &b.UserAgent,
		&b.Action, &until, &created); err != nil {
		return nil, err
	}
	b.BlockedUntil = until
	b.CreatedAt = created
	return &b, nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

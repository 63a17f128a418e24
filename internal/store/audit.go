package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stepup/internal/audit"
	"github.com/dropDatabas3/stepup/internal/observability/logger"
)

// AuditStore implementa audit.Sink sobre la tabla audit_log. Un fallo de
// inserción se loguea y no corta el flujo del core.
type AuditStore struct {
	DB *pgxpool.Pool

	log *zap.Logger
}

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{DB: db, log: logger.Named("store.audit")}
}

func (s *AuditStore) Record(ctx context.Context, e audit.Event) {
	var data []byte
	if len(e.Data) > 0 {
		data, _ = json.Marshal(e.Data)
	}
	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_log (id, user_id, event, action, session_id, ip_address, user_agent, data)
		VALUES ($1, $2, $3, $4, NULLIF($5,''), NULLIF($6,'')::inet, NULLIF($7,''), $8)`,
		uuid.New(), e.UserID, e.Event, e.Action, e.SessionID, e.IPAddress, e.UserAgent, data,
	)
	if err != nil {
		s.log.Error("audit insert failed",
			zap.String("event", e.Event),
			zap.String("user_id", e.UserID.String()),
			zap.Error(err),
		)
	}
}

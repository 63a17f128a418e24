// Package audit define el sink de auditoría del flujo de step-up.
// Cada camino de fallo o escalamiento escribe un evento; nada se traga.
package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stepup/internal/observability/logger"
)

// Eventos emitidos por el orquestador.
const (
	EventCodeSent      = "code_sent"
	EventVerifyFailed  = "verify_code_failed"
	EventVerifySuccess = "verify_code_success"
	EventUserBlocked   = "user_blocked"
	EventBlockedAccess = "blocked_access_attempt"
)

// Event es una entrada de auditoría.
type Event struct {
	UserID    uuid.UUID
	Event     string
	Action    string // acción sensible gateada (ej. "process.update")
	SessionID string
	IPAddress string
	UserAgent string
	Data      map[string]any
}

// Sink acepta eventos de auditoría. Las implementaciones no deben devolver
// error al caller del core: un fallo al auditar se loguea, no corta el flujo.
type Sink interface {
	Record(ctx context.Context, e Event)
}

// logSink escribe eventos como líneas estructuradas via zap.
type logSink struct {
	log *zap.Logger
}

// NewLogSink crea un sink que escribe al logger del proceso.
func NewLogSink() Sink {
	return &logSink{log: logger.Named("audit")}
}

func (s *logSink) Record(ctx context.Context, e Event) {
	fields := []zap.Field{
		zap.String("event", e.Event),
		zap.String("user_id", e.UserID.String()),
		zap.String("action", e.Action),
	}
	if e.IPAddress != "" {
		fields = append(fields, zap.String("ip", e.IPAddress))
	}
	if e.SessionID != "" {
		fields = append(fields, zap.String("session_id", e.SessionID))
	}
	if len(e.Data) > 0 {
		fields = append(fields, zap.Any("data", e.Data))
	}
	s.log.Info("audit", fields...)
}

// fanout reparte cada evento a varios sinks.
type fanout struct {
	sinks []Sink
}

// Fanout combina sinks (típico: log + base de datos).
func Fanout(sinks ...Sink) Sink {
	return &fanout{sinks: sinks}
}

func (f *fanout) Record(ctx context.Context, e Event) {
	for _, s := range f.sinks {
		s.Record(ctx, e)
	}
}

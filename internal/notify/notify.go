// Package notify entrega códigos one-time al canal de contacto del usuario.
package notify

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stepup/internal/observability/logger"
)

// Notifier entrega {code, action} al dueño. El core solo conoce esta
// interfaz; el código nunca vuelve al caller HTTP.
type Notifier interface {
	SendCode(ctx context.Context, userID uuid.UUID, action, code string) error
}

// logNotifier escribe el código al log. Solo dev: equivalente al
// debug_echo_links del flujo de emails.
type logNotifier struct {
	log *zap.Logger
}

// NewLogNotifier crea un notifier de desarrollo que hace echo del código.
func NewLogNotifier() Notifier {
	return &logNotifier{log: logger.Named("notify")}
}

func (n *logNotifier) SendCode(ctx context.Context, userID uuid.UUID, action, code string) error {
	n.log.Info("step-up code (dev echo)",
		zap.String("user_id", userID.String()),
		zap.String("action", action),
		zap.String("code", code),
	)
	return nil
}

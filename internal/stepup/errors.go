package stepup

import (
	"fmt"
	"time"

	"github.com/dropDatabas3/stepup/internal/domain/repository"
)

// BlockedError indica que el usuario tiene un bloqueo vigente. Lleva el
// bloqueo completo para que el caller pueda mostrar blocked_until.
type BlockedError struct {
	Block *repository.Block
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("stepup: user %s blocked until %s",
		e.Block.UserID, e.Block.BlockedUntil.UTC().Format(time.RFC3339))
}

// RetryAfter retorna cuánto falta para que el bloqueo expire.
func (e *BlockedError) RetryAfter(now time.Time) time.Duration {
	d := e.Block.BlockedUntil.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

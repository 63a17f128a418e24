package stepup

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stepup/internal/cache"
)

// Tracker cuenta verificaciones fallidas por (usuario, acción) contra una
// ventana deslizante: cada fallo reancla el TTL del contador.
type Tracker struct {
	cache  cache.Client
	prefix string
	window time.Duration
}

// NewTracker crea un tracker de intentos fallidos.
func NewTracker(c cache.Client, prefix string, window time.Duration) *Tracker {
	return &Tracker{cache: c, prefix: prefix, window: window}
}

func (t *Tracker) key(userID uuid.UUID, action string) string {
	return fmt.Sprintf("%s_%s_%s", t.prefix, userID, action)
}

// Increment suma un fallo y retorna el conteo acumulado. Atómico: N fallos
// concurrentes producen N incrementos visibles.
func (t *Tracker) Increment(ctx context.Context, userID uuid.UUID, action string) (int64, error) {
	return t.cache.Increment(ctx, t.key(userID, action), t.window)
}

// Reset borra el contador (éxito de verificación o creación de bloqueo).
func (t *Tracker) Reset(ctx context.Context, userID uuid.UUID, action string) error {
	return t.cache.Delete(ctx, t.key(userID, action))
}

// Count retorna el conteo actual (0 si no hay entrada).
func (t *Tracker) Count(ctx context.Context, userID uuid.UUID, action string) (int64, error) {
	v, err := t.cache.Get(ctx, t.key(userID, action))
	if err != nil {
		if cache.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("stepup: corrupt attempt counter %q: %w", v, err)
	}
	return n, nil
}

// Remaining calcula max(0, maxAttempts - conteo). Solo para mensajería: la
// decisión de bloqueo compara el conteo post-incremento en el punto del fallo.
func (t *Tracker) Remaining(ctx context.Context, userID uuid.UUID, action string, maxAttempts int) (int, error) {
	n, err := t.Count(ctx, userID, action)
	if err != nil {
		return 0, err
	}
	return clampRemaining(maxAttempts, n), nil
}

func clampRemaining(maxAttempts int, count int64) int {
	r := maxAttempts - int(count)
	if r < 0 {
		return 0
	}
	if r > maxAttempts {
		return maxAttempts
	}
	return r
}

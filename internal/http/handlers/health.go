package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/stepup/internal/cache"
	httpx "github.com/dropDatabas3/stepup/internal/http"
)

// HealthHandler responde healthz/readyz.
type HealthHandler struct {
	DB    *pgxpool.Pool
	Cache cache.Client
}

// Healthz: vivo. No toca dependencias.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz: listo para servir. Verifica cache y base de datos.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.Cache != nil {
		if err := h.Cache.Ping(ctx); err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "cache_unavailable", err.Error())
			return
		}
	}
	if h.DB != nil {
		if err := h.DB.Ping(ctx); err != nil {
			httpx.WriteError(w, http.StatusServiceUnavailable, "db_unavailable", err.Error())
			return
		}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

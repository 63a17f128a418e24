package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stepup/internal/domain/repository"
	httpx "github.com/dropDatabas3/stepup/internal/http"
)

// AdminBlocksHandler expone los bloqueos vigentes para operación/soporte.
type AdminBlocksHandler struct {
	Blocks repository.BlockRepository
}

type blockDTO struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	SessionID    *string `json:"session_id,omitempty"`
	IPAddress    *string `json:"ip_address,omitempty"`
	UserAgent    *string `json:"user_agent,omitempty"`
	Action       string  `json:"action"`
	BlockedUntil string  `json:"blocked_until"`
	CreatedAt    string  `json:"created_at"`
}

// List maneja GET /v1/admin/blocks?user_id=&limit=.
func (h *AdminBlocksHandler) List(w http.ResponseWriter, r *http.Request) {
	var userID uuid.UUID
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_user_id", "user_id must be a UUID")
			return
		}
		userID = id
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	blocks, err := h.Blocks.ListActive(r.Context(), userID, limit)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "block listing failed")
		return
	}

	out := make([]blockDTO, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, blockDTO{
			ID:           b.ID.String(),
			UserID:       b.UserID.String(),
			SessionID:    b.SessionID,
			IPAddress:    b.IPAddress,
			UserAgent:    b.UserAgent,
			Action:       b.Action,
			BlockedUntil: b.BlockedUntil.UTC().Format(time.RFC3339),
			CreatedAt:    b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"blocks": out})
}

// Package handlers expone el flujo de step-up sobre HTTP.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	httpx "github.com/dropDatabas3/stepup/internal/http"
	"github.com/dropDatabas3/stepup/internal/otp"
	"github.com/dropDatabas3/stepup/internal/stepup"
)

// StepUpHandler agrupa los endpoints send-code / verify-code / status.
type StepUpHandler struct {
	Svc        *stepup.Service
	CodeLength int
}

type sendCodeRequest struct {
	Action string `json:"action"`
}

type verifyCodeRequest struct {
	Action string `json:"action"`
	Code   string `json:"code"`
}

func validAction(a string) bool {
	a = strings.TrimSpace(a)
	return a != "" && len(a) <= 128
}

// SendCode maneja POST /v1/step-up/send-code.
func (h *StepUpHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserID(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}

	var req sendCodeRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if !validAction(req.Action) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_action", "action is required")
		return
	}

	err := h.Svc.SendCode(r.Context(), userID, strings.TrimSpace(req.Action), httpx.RequestMeta(r))
	if err != nil {
		var be *stepup.BlockedError
		switch {
		case errors.As(err, &be):
			httpx.WriteBlocked(w, be)
		case errors.Is(err, otp.ErrRandomnessUnavailable):
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not generate code")
		default:
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "could not send code")
		}
		return
	}

	httpx.IncCodeSent()
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "A verification code has been sent to your registered contact channel.",
	})
}

// VerifyCode maneja POST /v1/step-up/verify-code.
func (h *StepUpHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserID(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}

	var req verifyCodeRequest
	if !httpx.ReadJSON(w, r, &req) {
		return
	}
	if !validAction(req.Action) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_action", "action is required")
		return
	}
	code := strings.TrimSpace(req.Code)
	if len(code) != h.CodeLength {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_code_format", "code has wrong length")
		return
	}

	res, err := h.Svc.VerifyCode(r.Context(), userID, strings.TrimSpace(req.Action), code, httpx.RequestMeta(r))
	if err != nil {
		var be *stepup.BlockedError
		if errors.As(err, &be) {
			httpx.IncVerify("blocked")
			httpx.IncBlockCreated()
			httpx.WriteBlocked(w, be)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "verification failed")
		return
	}

	if !res.Valid {
		httpx.IncVerify("invalid")
		// 422: resultado esperado, el mensaje lleva los intentos restantes
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, stepup.FormatAttempts(res.RemainingAttempts))
		return
	}

	httpx.IncVerify("success")
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Verification successful.",
	})
}

// Status maneja GET /v1/step-up/status?action=x: pre-flight para operaciones
// gateadas (¿hay ventana verificada? ¿hay bloqueo?).
func (h *StepUpHandler) Status(w http.ResponseWriter, r *http.Request) {
	userID, ok := httpx.UserID(r)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "missing_token", "authentication required")
		return
	}
	action := strings.TrimSpace(r.URL.Query().Get("action"))
	if !validAction(action) {
		httpx.WriteError(w, http.StatusUnprocessableEntity, "invalid_action", "action query param is required")
		return
	}

	if err := h.Svc.CheckBlocked(r.Context(), userID, action, httpx.RequestMeta(r)); err != nil {
		var be *stepup.BlockedError
		if errors.As(err, &be) {
			httpx.WriteBlocked(w, be)
			return
		}
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "block lookup failed")
		return
	}

	verified, err := h.Svc.IsVerified(r.Context(), userID, action)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "status lookup failed")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"action":   action,
		"verified": verified,
	})
}

package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dropDatabas3/stepup/internal/security/token"
	"github.com/dropDatabas3/stepup/internal/stepup"
)

type ctxKey int

const (
	ctxUserID ctxKey = iota
)

// UserID extrae el usuario autenticado del contexto del request.
func UserID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	return id, ok
}

// RequestMeta arma el contexto de auditoría desde el request.
func RequestMeta(r *http.Request) stepup.Meta {
	return stepup.Meta{
		SessionID: r.Header.Get("X-Session-ID"),
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		if i := strings.IndexByte(xf, ','); i > 0 {
			return strings.TrimSpace(xf[:i])
		}
		return strings.TrimSpace(xf)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ─────────────── Request ID ───────────────

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			var b [8]byte
			if _, err := rand.Read(b[:]); err == nil {
				rid = hex.EncodeToString(b[:])
			}
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

// ─────────────── CORS ───────────────

func WithCORS(next http.Handler, allowed []string) http.Handler {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

	alist := make([]string, len(allowed))
	for i, v := range allowed {
		alist[i] = trim(v)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := trim(r.Header.Get("Origin"))
		allowedOrigin := ""
		for _, a := range alist {
			if a == "*" || (origin != "" && strings.EqualFold(origin, a)) {
				allowedOrigin = origin
				break
			}
		}

		w.Header().Add("Vary", "Origin")
		if allowedOrigin != "" {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", allowedOrigin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Session-ID")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ─────────────── Auth ───────────────

// WithAuth valida el bearer token, resuelve el usuario y aplica el gate de
// login: cualquier bloqueo vigente del usuario (sobre cualquier acción)
// rechaza el request con 403 antes de llegar al handler.
func WithAuth(verifier *token.Verifier, svc *stepup.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "missing_token", "Authorization bearer token required")
				return
			}
			userID, err := verifier.UserID(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
				return
			}

			if err := svc.CheckUserBlocked(r.Context(), userID, RequestMeta(r)); err != nil {
				var be *stepup.BlockedError
				if errors.As(err, &be) {
					WriteBlocked(w, be)
					return
				}
				WriteError(w, http.StatusInternalServerError, "server_error", "block lookup failed")
				return
			}

			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithAdminKey protege el API admin con X-Admin-API-Key.
func WithAdminKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				WriteError(w, http.StatusNotFound, "not_found", "admin api disabled")
				return
			}
			got := r.Header.Get("X-Admin-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				WriteError(w, http.StatusUnauthorized, "invalid_api_key", "bad or missing X-Admin-API-Key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

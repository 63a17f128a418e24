package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/stepup/internal/audit"
	"github.com/dropDatabas3/stepup/internal/cache"
	"github.com/dropDatabas3/stepup/internal/domain/repository"
	httpx "github.com/dropDatabas3/stepup/internal/http"
	"github.com/dropDatabas3/stepup/internal/http/handlers"
	"github.com/dropDatabas3/stepup/internal/security/token"
	"github.com/dropDatabas3/stepup/internal/stepup"
)

// ─────────────── fakes ───────────────

type memBlocks struct {
	mu     sync.Mutex
	blocks []*repository.Block
}

func (f *memBlocks) Create(ctx context.Context, b *repository.Block) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now()
	f.blocks = append(f.blocks, b)
	return nil
}

func (f *memBlocks) ActiveBlock(ctx context.Context, userID uuid.UUID, action string) (*repository.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.blocks) - 1; i >= 0; i-- {
		b := f.blocks[i]
		if b.UserID == userID && b.Action == action && b.BlockedUntil.After(time.Now()) {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *memBlocks) ActiveBlockForUser(ctx context.Context, userID uuid.UUID) (*repository.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.blocks) - 1; i >= 0; i-- {
		b := f.blocks[i]
		if b.UserID == userID && b.BlockedUntil.After(time.Now()) {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *memBlocks) ListActive(ctx context.Context, userID uuid.UUID, limit int) ([]*repository.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*repository.Block
	for _, b := range f.blocks {
		if b.BlockedUntil.After(time.Now()) && (userID == uuid.Nil || b.UserID == userID) {
			out = append(out, b)
		}
	}
	return out, nil
}

type memTokens struct{}

func (memTokens) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 1, nil
}

type memNotifier struct {
	mu   sync.Mutex
	code string
}

func (n *memNotifier) SendCode(ctx context.Context, userID uuid.UUID, action, code string) error {
	n.mu.Lock()
	n.code = code
	n.mu.Unlock()
	return nil
}

func (n *memNotifier) LastCode() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.code
}

type nopSink struct{}

func (nopSink) Record(ctx context.Context, e audit.Event) {}

// ─────────────── harness ───────────────

const (
	testSecret   = "handler-test-secret"
	testAdminKey = "admin-key"
)

type env struct {
	router   http.Handler
	notifier *memNotifier
	blocks   *memBlocks
}

func newEnv(t *testing.T) *env {
	t.Helper()
	cfg := stepup.Config{
		CodeLength:         6,
		CodeTTL:            time.Minute,
		CodePrefix:         "stepup_code",
		VerificationTTL:    time.Minute,
		VerificationPrefix: "stepup_verified",
		AttemptWindow:      time.Minute,
		MaxAttempts:        3,
		AttemptsPrefix:     "stepup_attempts",
		BlockDuration:      time.Hour,
	}
	blocks := &memBlocks{}
	notifier := &memNotifier{}
	svc := stepup.New(cfg, cache.NewMemory("", time.Minute), blocks, memTokens{}, notifier, nopSink{})

	router := httpx.NewRouter(httpx.RouterDeps{
		Verifier:    &token.Verifier{Secret: []byte(testSecret)},
		Svc:         svc,
		AdminAPIKey: testAdminKey,
		StepUp:      &handlers.StepUpHandler{Svc: svc, CodeLength: cfg.CodeLength},
		Admin:       &handlers.AdminBlocksHandler{Blocks: blocks},
		Health:      &handlers.HealthHandler{},
	})
	return &env{router: router, notifier: notifier, blocks: blocks}
}

func bearer(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (e *env) request(t *testing.T, method, path, body, auth string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// ─────────────── tests ───────────────

func TestSendCodeRequiresAuth(t *testing.T) {
	e := newEnv(t)
	rec := e.request(t, http.MethodPost, "/v1/step-up/send-code", `{"action":"process.update"}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSendCodeValidatesAction(t *testing.T) {
	e := newEnv(t)
	tok := bearer(t, uuid.New())
	rec := e.request(t, http.MethodPost, "/v1/step-up/send-code", `{}`, tok)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "invalid_action", decode(t, rec)["error"])
}

func TestVerifyFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	user := uuid.New()
	tok := bearer(t, user)

	rec := e.request(t, http.MethodPost, "/v1/step-up/send-code", `{"action":"process.update"}`, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, e.notifier.LastCode())

	// Código equivocado: 422 con intentos restantes.
	rec = e.request(t, http.MethodPost, "/v1/step-up/verify-code",
		`{"action":"process.update","code":"000000"}`, tok)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	require.EqualValues(t, 2, body["remaining_attempts"])

	// Código correcto: 200 y ventana verificada abierta.
	rec = e.request(t, http.MethodPost, "/v1/step-up/verify-code",
		`{"action":"process.update","code":"`+e.notifier.LastCode()+`"}`, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.request(t, http.MethodGet, "/v1/step-up/status?action=process.update", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, true, decode(t, rec)["verified"])
}

func TestVerifyWrongLengthRejectedBeforeCore(t *testing.T) {
	e := newEnv(t)
	tok := bearer(t, uuid.New())
	rec := e.request(t, http.MethodPost, "/v1/step-up/verify-code",
		`{"action":"process.update","code":"123"}`, tok)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "invalid_code_format", decode(t, rec)["error"])
}

func TestThresholdEscalatesTo403AndGatesEverything(t *testing.T) {
	e := newEnv(t)
	user := uuid.New()
	tok := bearer(t, user)

	rec := e.request(t, http.MethodPost, "/v1/step-up/send-code", `{"action":"process.update"}`, tok)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, wrong := range []string{"000000", "111111"} {
		rec = e.request(t, http.MethodPost, "/v1/step-up/verify-code",
			`{"action":"process.update","code":"`+wrong+`"}`, tok)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	}

	// Tercer fallo: 403 con blocked_until y Retry-After.
	rec = e.request(t, http.MethodPost, "/v1/step-up/verify-code",
		`{"action":"process.update","code":"222222"}`, tok)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "user_blocked", body["error"])
	require.NotEmpty(t, body["blocked_until"])
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// El gate de login del middleware corta todo lo siguiente.
	rec = e.request(t, http.MethodPost, "/v1/step-up/send-code", `{"action":"process.update"}`, tok)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminBlocksRequiresAPIKey(t *testing.T) {
	e := newEnv(t)
	rec := e.request(t, http.MethodGet, "/v1/admin/blocks", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminBlocksListsActive(t *testing.T) {
	e := newEnv(t)
	user := uuid.New()
	until := time.Now().Add(time.Hour)
	require.NoError(t, e.blocks.Create(context.Background(), &repository.Block{
		UserID:       user,
		Action:       "process.update",
		BlockedUntil: until,
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/admin/blocks?user_id="+user.String(), nil)
	req.Header.Set("X-Admin-API-Key", testAdminKey)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	blocks, ok := body["blocks"].([]any)
	require.True(t, ok)
	require.Len(t, blocks, 1)
}

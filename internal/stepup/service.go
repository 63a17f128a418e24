// Package stepup implementa la máquina de estados de re-autenticación:
// emisión de código one-time, verificación con contador de intentos,
// escalamiento a bloqueo temporal con revocación de sesiones, y ventana de
// verificación para la operación gateada.
//
// El estado por (usuario, acción) es implícito en la presencia de keys de
// cache: código vigente => CodeSent, ventana vigente => Verified. El bloqueo
// es durable (tabla session_block) y es autoritativo: su presencia corta
// cualquier transición hasta blocked_until.
package stepup

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/stepup/internal/audit"
	"github.com/dropDatabas3/stepup/internal/cache"
	"github.com/dropDatabas3/stepup/internal/config"
	"github.com/dropDatabas3/stepup/internal/domain/repository"
	"github.com/dropDatabas3/stepup/internal/notify"
	"github.com/dropDatabas3/stepup/internal/observability/logger"
	"github.com/dropDatabas3/stepup/internal/otp"
)

// Config agrupa los límites del flujo. Todos provienen de configuración
// externa; acá no hay defaults.
type Config struct {
	CodeLength         int
	CodeTTL            time.Duration
	CodePrefix         string
	VerificationTTL    time.Duration
	VerificationPrefix string
	AttemptWindow      time.Duration
	MaxAttempts        int
	AttemptsPrefix     string
	BlockDuration      time.Duration
}

// ConfigFrom traduce la configuración de la aplicación (minutos) a la del
// orquestador (durations).
func ConfigFrom(c *config.Config) Config {
	return Config{
		CodeLength:         c.StepUp.Code.Length,
		CodeTTL:            time.Duration(c.StepUp.Code.ValidityMinutes) * time.Minute,
		CodePrefix:         c.StepUp.Code.CacheKeyPrefix,
		VerificationTTL:    time.Duration(c.StepUp.Verification.ValidityMinutes) * time.Minute,
		VerificationPrefix: c.StepUp.Verification.CacheKeyPrefix,
		AttemptWindow:      time.Duration(c.StepUp.Attempts.DurationMinutes) * time.Minute,
		MaxAttempts:        c.StepUp.Attempts.MaxAttempts,
		AttemptsPrefix:     c.StepUp.Attempts.CacheKeyPrefix,
		BlockDuration:      time.Duration(c.StepUp.Block.DurationMinutes) * time.Minute,
	}
}

// Meta es el contexto del request que acompaña auditoría y bloqueos.
type Meta struct {
	SessionID string
	IPAddress string
	UserAgent string
}

// Result es el resultado de una verificación que no escaló a bloqueo.
// Un código inválido es un resultado esperado y frecuente: se retorna como
// dato, no como error.
type Result struct {
	Valid             bool
	RemainingAttempts *int
}

// Service es el orquestador de step-up.
type Service struct {
	cfg      Config
	cache    cache.Client
	gen      *otp.Generator
	attempts *Tracker
	blocks   repository.BlockRepository
	tokens   repository.TokenRepository
	notifier notify.Notifier
	sink     audit.Sink

	// locks serializa increment-then-compare por (usuario, acción).
	locks *keyLock

	// now es inyectable en tests.
	now func() time.Time

	log *zap.Logger
}

// New construye el orquestador con sus colaboradores.
func New(cfg Config, c cache.Client, blocks repository.BlockRepository, tokens repository.TokenRepository, notifier notify.Notifier, sink audit.Sink) *Service {
	return &Service{
		cfg:      cfg,
		cache:    c,
		gen:      &otp.Generator{},
		attempts: NewTracker(c, cfg.AttemptsPrefix, cfg.AttemptWindow),
		blocks:   blocks,
		tokens:   tokens,
		notifier: notifier,
		sink:     sink,
		locks:    newKeyLock(),
		now:      time.Now,
		log:      logger.Named("stepup"),
	}
}

func (s *Service) codeKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("%s_%s_%s", s.cfg.CodePrefix, userID, action)
}

func (s *Service) verifiedKey(userID uuid.UUID, action string) string {
	return fmt.Sprintf("%s_%s_%s", s.cfg.VerificationPrefix, userID, action)
}

func pairKey(userID uuid.UUID, action string) string {
	return userID.String() + "|" + action
}

// hashCode: el código nunca se guarda en claro en el cache.
func hashCode(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}

// SendCode genera un código nuevo para (usuario, acción), lo guarda con TTL y
// lo entrega via notifier. Un código previo vigente queda superseded (se
// sobreescribe la key). El código no se retorna al caller.
func (s *Service) SendCode(ctx context.Context, userID uuid.UUID, action string, meta Meta) error {
	unlock := s.locks.Lock(pairKey(userID, action))
	defer unlock()

	if err := s.checkBlocked(ctx, userID, action, meta); err != nil {
		return err
	}

	code, err := s.gen.Generate(s.cfg.CodeLength)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, s.codeKey(userID, action), hashCode(code), s.cfg.CodeTTL); err != nil {
		return fmt.Errorf("stepup: store code: %w", err)
	}
	if err := s.notifier.SendCode(ctx, userID, action, code); err != nil {
		return err
	}

	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Event:     audit.EventCodeSent,
		Action:    action,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// VerifyCode compara el código enviado contra el almacenado.
//
// Camino de fallo en dos niveles:
//   - por debajo del umbral: Result{Valid:false, RemainingAttempts:N}, sin error
//   - al alcanzar el umbral: crea el bloqueo, revoca tokens y retorna
//     *BlockedError — el caller debe distinguir ambos
//
// Un código ausente (nunca enviado, o expirado) se trata igual que uno
// incorrecto.
func (s *Service) VerifyCode(ctx context.Context, userID uuid.UUID, action, submitted string, meta Meta) (Result, error) {
	unlock := s.locks.Lock(pairKey(userID, action))
	defer unlock()

	if err := s.checkBlocked(ctx, userID, action, meta); err != nil {
		return Result{}, err
	}

	stored, err := s.cache.Get(ctx, s.codeKey(userID, action))
	if err != nil && !cache.IsNotFound(err) {
		return Result{}, fmt.Errorf("stepup: read code: %w", err)
	}
	match := err == nil &&
		subtle.ConstantTimeCompare([]byte(stored), []byte(hashCode(submitted))) == 1

	if !match {
		return s.recordFailure(ctx, userID, action, meta)
	}

	// Éxito: consumir el código, resetear intentos, abrir ventana verificada.
	if err := s.cache.Delete(ctx, s.codeKey(userID, action)); err != nil {
		return Result{}, fmt.Errorf("stepup: consume code: %w", err)
	}
	if err := s.attempts.Reset(ctx, userID, action); err != nil {
		return Result{}, fmt.Errorf("stepup: reset attempts: %w", err)
	}
	if err := s.cache.Set(ctx, s.verifiedKey(userID, action), "1", s.cfg.VerificationTTL); err != nil {
		return Result{}, fmt.Errorf("stepup: open verified window: %w", err)
	}

	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Event:     audit.EventVerifySuccess,
		Action:    action,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return Result{Valid: true}, nil
}

func (s *Service) recordFailure(ctx context.Context, userID uuid.UUID, action string, meta Meta) (Result, error) {
	n, err := s.attempts.Increment(ctx, userID, action)
	if err != nil {
		return Result{}, fmt.Errorf("stepup: count attempt: %w", err)
	}

	if n >= int64(s.cfg.MaxAttempts) {
		block, err := s.createBlock(ctx, userID, action, meta)
		if err != nil {
			return Result{}, err
		}
		return Result{}, &BlockedError{Block: block}
	}

	remaining := clampRemaining(s.cfg.MaxAttempts, n)
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Event:     audit.EventVerifyFailed,
		Action:    action,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Data:      map[string]any{"remaining_attempts": remaining},
	})
	return Result{Valid: false, RemainingAttempts: &remaining}, nil
}

// createBlock persiste el bloqueo, revoca todas las sesiones del usuario y
// limpia el estado de cache para que un ciclo futuro arranque de cero.
// Corre bajo el lock de (usuario, acción): un solo bloqueo por episodio.
func (s *Service) createBlock(ctx context.Context, userID uuid.UUID, action string, meta Meta) (*repository.Block, error) {
	b := &repository.Block{
		UserID:       userID,
		SessionID:    optStr(meta.SessionID),
		IPAddress:    optStr(meta.IPAddress),
		UserAgent:    optStr(meta.UserAgent),
		Action:       action,
		BlockedUntil: s.now().Add(s.cfg.BlockDuration),
	}
	if err := s.blocks.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("stepup: create block: %w", err)
	}

	revoked, err := s.tokens.RevokeAllForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("stepup: revoke tokens: %w", err)
	}

	if err := s.cache.Delete(ctx, s.codeKey(userID, action)); err != nil {
		return nil, fmt.Errorf("stepup: drop code on block: %w", err)
	}
	if err := s.attempts.Reset(ctx, userID, action); err != nil {
		return nil, fmt.Errorf("stepup: reset attempts on block: %w", err)
	}

	s.log.Warn("user blocked",
		zap.String("user_id", userID.String()),
		zap.String("action", action),
		zap.Time("blocked_until", b.BlockedUntil),
		zap.Int64("tokens_revoked", revoked),
	)
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Event:     audit.EventUserBlocked,
		Action:    action,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Data: map[string]any{
			"blocked_until":  b.BlockedUntil.UTC().Format(time.RFC3339),
			"tokens_revoked": revoked,
		},
	})
	return b, nil
}

// CheckBlocked falla con *BlockedError si (usuario, acción) tiene un bloqueo
// vigente. Expuesto para pre-flight de operaciones gateadas.
func (s *Service) CheckBlocked(ctx context.Context, userID uuid.UUID, action string, meta Meta) error {
	return s.checkBlocked(ctx, userID, action, meta)
}

func (s *Service) checkBlocked(ctx context.Context, userID uuid.UUID, action string, meta Meta) error {
	b, err := s.blocks.ActiveBlock(ctx, userID, action)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("stepup: lookup block: %w", err)
	}
	if !b.Active(s.now()) {
		return nil
	}
	s.auditBlockedAccess(ctx, userID, action, meta, b)
	return &BlockedError{Block: b}
}

// CheckUserBlocked es la variante de login: cualquier bloqueo vigente del
// usuario, sin importar la acción, impide autenticarse.
func (s *Service) CheckUserBlocked(ctx context.Context, userID uuid.UUID, meta Meta) error {
	b, err := s.blocks.ActiveBlockForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("stepup: lookup block: %w", err)
	}
	if !b.Active(s.now()) {
		return nil
	}
	s.auditBlockedAccess(ctx, userID, "login", meta, b)
	return &BlockedError{Block: b}
}

func (s *Service) auditBlockedAccess(ctx context.Context, userID uuid.UUID, action string, meta Meta, b *repository.Block) {
	s.sink.Record(ctx, audit.Event{
		UserID:    userID,
		Event:     audit.EventBlockedAccess,
		Action:    action,
		SessionID: meta.SessionID,
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Data: map[string]any{
			"blocked_until": b.BlockedUntil.UTC().Format(time.RFC3339),
		},
	})
}

// IsVerified reporta si la ventana verificada de (usuario, acción) sigue
// abierta. La consulta no consume la ventana.
func (s *Service) IsVerified(ctx context.Context, userID uuid.UUID, action string) (bool, error) {
	return s.cache.Exists(ctx, s.verifiedKey(userID, action))
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/stepup/internal/audit"
	"github.com/dropDatabas3/stepup/internal/cache"
	"github.com/dropDatabas3/stepup/internal/config"
	httpx "github.com/dropDatabas3/stepup/internal/http"
	"github.com/dropDatabas3/stepup/internal/http/handlers"
	"github.com/dropDatabas3/stepup/internal/notify"
	"github.com/dropDatabas3/stepup/internal/observability/logger"
	"github.com/dropDatabas3/stepup/internal/security/token"
	"github.com/dropDatabas3/stepup/internal/stepup"
	"github.com/dropDatabas3/stepup/internal/store"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", os.Getenv("STEPUP_CONFIG"), "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		// logger aún no inicializado
		panic(err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "stepup",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── storage ───
	pool, err := store.Connect(ctx, cfg.Storage.DSN)
	if err != nil {
		log.Fatal("storage connect failed", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Flags.Migrate {
		if err := store.Migrate(ctx, pool); err != nil {
			log.Fatal("migrations failed", zap.Error(err))
		}
	}

	// ─── cache ───
	cacheClient, err := cache.New(cache.Config{
		Kind:       cfg.Cache.Kind,
		Addr:       cfg.Cache.Redis.Addr,
		Password:   cfg.Cache.Redis.Password,
		DB:         cfg.Cache.Redis.DB,
		Prefix:     cfg.Cache.Redis.Prefix,
		DefaultTTL: cfg.MemoryDefaultTTL(),
	})
	if err != nil {
		log.Fatal("cache init failed", zap.Error(err))
	}
	defer func() { _ = cacheClient.Close() }()

	// ─── collaborators ───
	blocks := store.NewBlockStore(pool)
	tokens := store.NewTokenStore(pool)
	users := store.NewUserStore(pool)

	var notifier notify.Notifier
	switch cfg.Notify.Kind {
	case "smtp":
		notifier = notify.NewEmailNotifier(&notify.SMTPSender{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.Username,
			Pass:               cfg.SMTP.Password,
			TLSMode:            cfg.SMTP.TLS,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}, users)
	default:
		notifier = notify.NewLogNotifier()
	}

	sink := audit.Fanout(audit.NewLogSink(), store.NewAuditStore(pool))

	svc := stepup.New(stepup.ConfigFrom(cfg), cacheClient, blocks, tokens, notifier, sink)

	// ─── http ───
	metricsHandler := httpx.RegisterMetrics(nil)
	router := httpx.NewRouter(httpx.RouterDeps{
		Verifier:    &token.Verifier{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer},
		Svc:         svc,
		AdminAPIKey: cfg.Auth.AdminAPIKey,
		CORSOrigins: cfg.Server.CORSAllowedOrigins,
		StepUp:      &handlers.StepUpHandler{Svc: svc, CodeLength: cfg.StepUp.Code.Length},
		Admin:       &handlers.AdminBlocksHandler{Blocks: blocks},
		Health:      &handlers.HealthHandler{DB: pool, Cache: cacheClient},
		Metrics:     metricsHandler,
	})

	srv := httpx.NewServer(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
	log.Info("bye")
}

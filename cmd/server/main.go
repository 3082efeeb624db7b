package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/user-account-service/internal/config"
	"github.com/iliyamo/user-account-service/internal/database"
	"github.com/iliyamo/user-account-service/internal/handler"
	"github.com/iliyamo/user-account-service/internal/logging"
	"github.com/iliyamo/user-account-service/internal/metrics"
	"github.com/iliyamo/user-account-service/internal/middleware"
	"github.com/iliyamo/user-account-service/internal/queue"
	"github.com/iliyamo/user-account-service/internal/repository"
	"github.com/iliyamo/user-account-service/internal/router"
	"github.com/iliyamo/user-account-service/internal/service"
	"github.com/iliyamo/user-account-service/internal/utils"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.New(os.Stderr, "text", "error").Error(context.Background(), "startup aborted", "err", err)
		os.Exit(1)
	}
	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("env", cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error(context.Background(), "server stopped with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Signing secret problems are configuration errors: refuse to start.
	issuer, err := utils.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	verifier, err := utils.NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		return err
	}

	users, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn(ctx, "redis unavailable; rate limiting and profile cache disabled", "addr", cfg.Redis.Addr)
	} else {
		defer rdb.Close()
	}

	var events service.EventPublisher
	if cfg.Events.Enabled {
		publisher := queue.NewPublisher(cfg.Events.URL, cfg.Events.Queue)
		defer publisher.Close()
		async := queue.NewAsyncPublisher(publisher, 256, log.With("component", "event-publisher"))
		go async.Run(ctx)
		events = async
		consumer := &queue.AuditConsumer{
			URL:    cfg.Events.URL,
			Queue:  cfg.Events.Queue,
			LogDir: cfg.Events.AuditLogDir,
			Log:    log.With("component", "audit-consumer"),
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error(ctx, "audit consumer stopped", "err", err)
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col := metrics.NewCollector(reg)

	accounts := service.NewAccountService(users, utils.NewPasswordHasher(cfg.BcryptCost), issuer, events, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(log)
	// metrics sit outside Recover so recovered panics are counted as 500s
	e.Use(middleware.HTTPMetrics(col))
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e, metrics.Handler(reg))
	router.RegisterAuth(e, router.AuthDeps{
		Handler:   handler.NewAuthHandler(accounts, col),
		Verifier:  verifier,
		Outcomes:  col,
		RateLimit: middleware.NewTokenBucket(cfg.RateLimit, rdb, log),
		Cache:     middleware.NewProfileCache(cfg.Cache, rdb, log),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", addr, "store", cfg.Store, "token_ttl", issuer.TTL().String())
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// openStore returns the configured account store and a close function.
func openStore(ctx context.Context, cfg config.Config, log logging.Logger) (service.UserStore, func(), error) {
	if cfg.Store == "memory" {
		log.Warn(ctx, "using in-memory account store; accounts are lost on restart")
		return repository.NewMemoryUserRepo(), func() {}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewUserRepo(db), func() { _ = db.Close() }, nil
}

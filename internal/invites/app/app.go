package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/magicontap/tapdash/internal/invites/http"
	"github.com/magicontap/tapdash/internal/invites/metrics"
	"github.com/magicontap/tapdash/internal/invites/provider"
	"github.com/magicontap/tapdash/internal/invites/service"
	"github.com/magicontap/tapdash/internal/invites/store"
	"github.com/magicontap/tapdash/internal/invites/store/drivers/sqlite"
	"github.com/magicontap/tapdash/pkg/jwtx"
	"github.com/magicontap/tapdash/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

const serviceName = "invites"

// Application wires the invitation service together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	metrics *metrics.Metrics

	keys     *jwtx.KeySet
	fetcher  *jwtx.Fetcher
	verifier jwtx.Verifier
	sender   provider.Sender

	issuer       *service.Issuer
	dispatcher   *service.Dispatcher
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from the shared settings.
func NewLogger(cfg BaseConfig) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg:     cfg,
		logger:  NewLogger(cfg.BaseConfig),
		metrics: metrics.New(),
	}

	db, err := OpenStore(cfg.BaseConfig)
	if err != nil {
		return nil, err
	}
	app.db = db
	app.logger.Info("database migrations applied successfully", slog.String("file", cfg.DatabaseFile))

	app.initAuth()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// OpenStore opens the sqlite database and brings the schema up to date.
func OpenStore(cfg BaseConfig) (*sqlite.Store, error) {
	db, err := sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}
	return db, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.fetcher.Start()
	app.dispatcher.Start()
	app.housekeeping.Start()

	app.logger.Info("invitation service starting",
		slog.Int("port", app.cfg.Port),
		slog.String("version", BuildVersion),
		slog.String("sender", app.cfg.InviteSender),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.stopWorkers()
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down invitation service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slog.Any("error", err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slog.Any("error", err))
		}
	}

	// After the server, so in-flight issues don't race the outbox.
	app.stopWorkers()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slog.Any("error", err))
		return err
	}

	app.logger.Info("invitation service stopped")
	return nil
}

func (app *Application) stopWorkers() {
	app.housekeeping.Stop()
	app.dispatcher.Stop()
	app.fetcher.Stop()
}

func (app *Application) initAuth() {
	app.keys = jwtx.NewKeySet()
	app.fetcher = jwtx.NewFetcher(jwtx.FetcherOptions{
		URL:      app.cfg.JWKSURL(),
		Interval: app.cfg.JWKSRefresh,
		Timeout:  app.cfg.SupabaseTimeout,
		Headers:  map[string]string{"apikey": app.cfg.ServiceRoleKey},
		Logger:   app.logger,
	}, app.keys)

	var secret []byte
	if app.cfg.JWTSecret != "" {
		secret = []byte(app.cfg.JWTSecret)
	}
	app.verifier = jwtx.NewVerifier(jwtx.VerifyOptions{
		Issuer:   app.cfg.JWTIssuer,
		Audience: app.cfg.JWTAudience,
		Leeway:   30 * time.Second,
	}, app.keys, secret)
}

func (app *Application) initServices() {
	if app.cfg.InviteSender == "log" {
		app.sender = provider.NewLogSender(app.logger)
		app.logger.Warn("invite emails are only logged, INVITE_SENDER=log")
	} else {
		app.sender = provider.NewGoTrueClient(provider.GoTrueConfig{
			BaseURL:    app.cfg.SupabaseURL,
			ServiceKey: app.cfg.ServiceRoleKey,
			Timeout:    app.cfg.SupabaseTimeout,
		})
	}

	app.issuer = service.NewIssuer(app.db, app.sender, app.metrics, service.IssuerConfig{
		DefaultRedirectURL: app.cfg.DefaultRedirectURL,
		InviteTTL:          app.cfg.InviteTTL,
		OutboxLease:        app.cfg.OutboxLease,
	})

	app.dispatcher = service.NewDispatcher(app.db, app.sender, app.metrics, app.logger, service.DispatcherConfig{
		Interval:    app.cfg.OutboxInterval,
		Lease:       app.cfg.OutboxLease,
		BatchSize:   app.cfg.OutboxBatchSize,
		MaxAttempts: app.cfg.OutboxMaxAttempts,
	})

	app.housekeeping = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.metrics,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.verifier,
		BuildVersion,
		app.db,
		app.metrics,
		app.logger,
	)

	router.Issuer = app.issuer
	router.Keys = app.keys
	router.SharedSecret = app.cfg.JWTSecret != ""
	router.AllowedOrigins = app.cfg.AllowedOrigins
	router.IssueLimit = app.cfg.IssueLimit
	router.ReadLimit = app.cfg.ReadLimit
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Sweep runs one housekeeping pass against the configured database.
func Sweep(ctx context.Context, cfg BaseConfig, logger *slog.Logger) (service.SweepResult, error) {
	db, err := OpenStore(cfg)
	if err != nil {
		return service.SweepResult{}, err
	}
	defer db.Close()

	return service.NewHousekeepingService(db, logger, nil, cfg.HousekeepingInterval).Sweep(ctx)
}

// Migrate applies pending migrations and reports the resulting version.
func Migrate(cfg BaseConfig) (uint, error) {
	db, err := OpenStore(cfg)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	version, dirty, err := db.MigrationVersion()
	if err != nil {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}

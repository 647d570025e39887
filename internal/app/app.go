// Package app wires configuration, storage, services, and the HTTP server
// into a runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carlajeanne/plantpal-backend/internal/auth"
	"github.com/carlajeanne/plantpal-backend/internal/config"
	handlerhttp "github.com/carlajeanne/plantpal-backend/internal/handler/http"
	"github.com/carlajeanne/plantpal-backend/internal/mailer"
	"github.com/carlajeanne/plantpal-backend/internal/repository/postgres"
	"github.com/carlajeanne/plantpal-backend/internal/service"
	"github.com/carlajeanne/plantpal-backend/migrations"
	"github.com/carlajeanne/plantpal-backend/pkg/database"
	"github.com/carlajeanne/plantpal-backend/pkg/health"
)

const serviceName = "plantpal-backend"

// App holds the assembled application and its long-lived resources.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	server *http.Server
}

// New connects to the database, runs migrations, and builds the full HTTP
// stack. The returned App owns the pool and server; call Shutdown to release
// them.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbCfg := &database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, dbCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	database.RegisterPoolMetrics(pool, serviceName)

	accessExpiry, err := parseExpiry("JWT_ACCESS_TOKEN_EXPIRY", cfg.JWTAccessExpiry)
	if err != nil {
		pool.Close()
		return nil, err
	}
	refreshExpiry, err := parseExpiry("JWT_REFRESH_TOKEN_EXPIRY", cfg.JWTRefreshExpiry)
	if err != nil {
		pool.Close()
		return nil, err
	}
	resetExpiry, err := parseExpiry("JWT_RESET_TOKEN_EXPIRY", cfg.JWTResetExpiry)
	if err != nil {
		pool.Close()
		return nil, err
	}

	tokens := auth.NewJWTManager(
		cfg.JWTSecret, cfg.JWTRefreshSecret,
		accessExpiry, refreshExpiry, resetExpiry,
	)

	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		mail = mailer.NewNoopMailer(logger)
	}

	userRepo := postgres.NewUserRepository(pool)
	readingRepo := postgres.NewReadingRepository(pool)

	authSvc := service.NewAuthService(userRepo, tokens, mail, cfg.ClientURL, logger)
	readingSvc := service.NewReadingService(readingRepo, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})

	router := handlerhttp.NewRouter(handlerhttp.RouterConfig{
		ServiceName:        serviceName,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		DeviceAPIKey:       cfg.DeviceAPIKey,
	}, authSvc, readingSvc, healthHandler, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		server: server,
	}, nil
}

// Run serves HTTP until the context is canceled, then drains in-flight
// requests and closes the pool.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("http server listening",
			slog.String("addr", a.server.Addr),
			slog.String("environment", a.cfg.Environment),
		)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	}
}

// Shutdown gracefully stops the HTTP server and releases the database pool.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := a.server.Shutdown(ctx)

	a.pool.Close()
	a.logger.Info("shutdown complete")

	if err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

func parseExpiry(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}

package config

import (
	"fmt"

	pkgconfig "github.com/carlajeanne/plantpal-backend/pkg/config"
)

const devSecretPlaceholder = "change-this-to-a-secure-secret"

// Config holds all configuration for the PlantPal backend.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"plantpal"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"plantpal_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"plantpal"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"25"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"5"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINS" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINS" envDefault:"30"`

	// JWT. Access and reset tokens share SECRET_KEY; refresh tokens are
	// signed with their own secret so the two cannot be swapped.
	JWTSecret        string `env:"SECRET_KEY" envDefault:"change-this-to-a-secure-secret"`
	JWTRefreshSecret string `env:"REFRESH_SECRET_KEY" envDefault:"change-this-to-a-secure-secret"`
	JWTAccessExpiry  string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"24h"`
	JWTRefreshExpiry string `env:"JWT_REFRESH_TOKEN_EXPIRY" envDefault:"720h"`
	JWTResetExpiry   string `env:"JWT_RESET_TOKEN_EXPIRY" envDefault:"1h"`

	// Mail (password reset). SMTP is disabled when the host is empty; reset
	// links are then only logged.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"MAIL_USERNAME"`
	SMTPPassword string `env:"MAIL_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@plantpal.local"`

	// Base URL embedded in password-reset links.
	ClientURL string `env:"CLIENT_URL" envDefault:"http://localhost:5173"`

	// Optional shared key required from sensor devices on ingestion.
	// Empty (default) leaves the ingestion endpoint open.
	DeviceAPIKey string `env:"DEVICE_API_KEY"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// In non-development environments, require explicitly set, strong secrets.
	if cfg.Environment != "development" {
		for name, secret := range map[string]string{
			"SECRET_KEY":         cfg.JWTSecret,
			"REFRESH_SECRET_KEY": cfg.JWTRefreshSecret,
		} {
			if secret == devSecretPlaceholder {
				return nil, fmt.Errorf("%s must be explicitly set via environment variable in %q mode", name, cfg.Environment)
			}
			if len(secret) < 32 {
				return nil, fmt.Errorf("%s must be at least 32 characters long, got %d", name, len(secret))
			}
		}
	}

	return cfg, nil
}

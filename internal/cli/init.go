// Package cli holds the start-up steps shared by cmd/boutique,
// cmd/boutique-worker and cmd/boutiquectl.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"boutique/internal/auth"
	"boutique/internal/backend"
	"boutique/internal/config"
	"boutique/internal/log"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// installs it as the slog default.
func SetupLogger(cfg *config.Config, component string) *log.Logger {
	lc := log.DefaultConfig()
	lc.Level = log.ParseLevel(cfg.LogLevel)
	lc.Format = cfg.LogFormat
	lc.Output = os.Stderr
	lc.Component = component
	logger := log.New(lc).WithComponent(component)
	log.SetDefault(logger)
	return logger
}

// LoadConfig reads the environment and validates it.
func LoadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// OpenBackend opens the repository selected by DATA_BACKEND.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *log.Logger) (*backend.BackendResult, error) {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", bc.Type, err)
	}
	return res, nil
}

// NewAuthService builds the session service from the configured accounts.
func NewAuthService(cfg *config.Config, logger *log.Logger) (*auth.Service, error) {
	creds, err := cfg.Accounts()
	if err != nil {
		return nil, err
	}
	accounts := make([]auth.Account, len(creds))
	for i, c := range creds {
		accounts[i] = auth.Account{Email: c.Email, PasswordHash: c.PasswordHash}
	}
	set, err := auth.NewAccounts(cfg.OwnerEmail, accounts)
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("no sign-in accounts configured: set OWNER_PASSWORD_HASH")
	}
	return auth.NewService(set, cfg.JWTSecret, cfg.SessionTTL, logger), nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

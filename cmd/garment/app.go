package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dlo137/garment-tracker/internal/config"
	"github.com/dlo137/garment-tracker/internal/identity"
	"github.com/dlo137/garment-tracker/internal/migrate"
	"github.com/dlo137/garment-tracker/internal/repository"
	"github.com/dlo137/garment-tracker/internal/repository/postgres"
	"github.com/dlo137/garment-tracker/internal/service"
)

// app is the wired client for one command run. The caller must defer Close.
type app struct {
	cfg *config.Config
	log *zap.Logger
	db  *postgres.DB
	inv *service.Inventory
}

// loadConfig reads the effective config and checks what a store connection needs.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// readConfig layers the root persistent flags over config.Load.
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	envFiles, _ := cmd.Flags().GetStringSlice("env")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path, envFiles...)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if dsn, _ := cmd.Flags().GetString("database-url"); dsn != "" {
		cfg.DatabaseURL = dsn
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}
	return cfg, nil
}

// commandContext is cancelled on SIGINT/SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// identityFor picks the owner source: a fixed owner id wins over the session file.
func identityFor(cfg *config.Config) (repository.IdentityProvider, error) {
	if cfg.OwnerID != "" {
		id, err := uuid.FromString(cfg.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("owner id: %w", err)
		}
		return identity.Static(id), nil
	}
	return identity.NewSession(cfg.SessionPath, []byte(cfg.JWTSecret)), nil
}

// newApp connects to the store and loads the mirror.
func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		n, err := migrate.Up(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Debug("migrations applied", zap.Int("count", n))
	}

	id, err := identityFor(cfg)
	if err != nil {
		return nil, err
	}
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
	}
	gw := repository.WithLogging(repository.Compose(id,
		postgres.NewFolderRepo(db),
		postgres.NewItemRepo(db),
	), log)

	a := &app{cfg: cfg, log: log, db: db, inv: service.NewInventory(gw, log)}
	lctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.inv.Load(lctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// withTimeout bounds one remote operation by the configured timeout.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Timeout)
}

func (a *app) Close() {
	a.db.Close()
	_ = a.log.Sync()
}

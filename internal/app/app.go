// Package app wires configuration, storage, middleware and the built-in
// commands into a runner shared by the Discord bot and the CLI.
package app

import (
	"fmt"

	"github.com/keshon/domme-dispatch/internal/command"
	"github.com/keshon/domme-dispatch/internal/config"
	"github.com/keshon/domme-dispatch/internal/middleware"
	"github.com/keshon/domme-dispatch/internal/storage"
	"github.com/keshon/domme-dispatch/pkg/cmd"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type App struct {
	Registry *cmd.Registry
	Runner   *cmd.Runner
	Storage  *storage.Storage
}

// New opens the storage and registers the built-in commands. Close releases
// the storage.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := storage.Open(cfg.StoragePath, cfg.HistoryLimit, logger.With().Str("component", "datastore").Logger())
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	reg := cmd.NewRegistry()
	if err := command.RegisterBuiltins(reg, command.Deps{History: store}); err != nil {
		store.Close()
		return nil, fmt.Errorf("register commands: %w", err)
	}

	runner := cmd.NewRunner(reg,
		cmd.WithLogger(logger),
		cmd.WithConcurrency(cfg.MaxConcurrency),
		cmd.WithMiddleware(
			middleware.WithCommandLogger(logger),
			middleware.WithUserRateLimit(rate.Limit(cfg.UserRate), cfg.UserBurst),
			middleware.WithPermissionCheck(cfg.DeveloperID),
			middleware.WithHistory(store, logger),
		),
	)
	return &App{Registry: reg, Runner: runner, Storage: store}, nil
}

func (a *App) Close() error {
	return a.Storage.Close()
}

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/app"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/pkg/logger"
)

// storageOpener connects a named backend; tests swap it for a memory store.
type storageOpener func(ctx context.Context, cfg *config.Config, backend string, migrate bool, logger *slog.Logger) (*app.Storage, error)

type cli struct {
	cfg     *config.Config
	logger  *slog.Logger
	open    storageOpener
	backend string
	level   string
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Storefront catalog maintenance tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg == nil {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				c.cfg = cfg
			}
			if c.backend == "" {
				c.backend = c.cfg.StorageBackend
			}
			if c.open == nil {
				c.open = app.OpenStorage
			}
			if c.logger == nil {
				c.logger = logger.NewWithWriter("catalogctl", c.level, cmd.ErrOrStderr())
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.backend, "backend", "", "storage backend: memory|postgres|elasticsearch (default CATALOG_STORAGE_BACKEND)")
	root.PersistentFlags().StringVar(&c.level, "log-level", "warn", "log level")

	root.AddCommand(
		newBrowseCmd(c),
		newMigrateCmd(c),
		newSeedCmd(c),
		newReindexCmd(c),
	)
	return root
}

// openBackend connects backend and returns a release function.
func (c *cli) openBackend(ctx context.Context, backend string, migrate bool) (*app.Storage, error) {
	s, err := c.open(ctx, c.cfg, backend, migrate, c.logger)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", backend, err)
	}
	return s, nil
}

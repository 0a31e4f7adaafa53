package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dryRun {
				files, err := database.PendingMigrations(migrations.FS)
				if err != nil {
					return err
				}
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			}

			if c.backend != config.BackendPostgres {
				return fmt.Errorf("migrate needs the postgres backend, got %q", c.backend)
			}
			storage, err := c.openBackend(cmd.Context(), config.BackendPostgres, true)
			if err != nil {
				return err
			}
			storage.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list migration files without connecting")
	return cmd
}

package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
)

func newReindexCmd(c *cli) *cobra.Command {
	var (
		batch    int
		recreate bool
	)

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Copy every product from PostgreSQL into Elasticsearch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batch < 1 {
				return fmt.Errorf("--batch must be positive, got %d", batch)
			}

			ctx := cmd.Context()
			src, err := c.openBackend(ctx, config.BackendPostgres, false)
			if err != nil {
				return err
			}
			defer src.Close()

			dst, err := c.openBackend(ctx, config.BackendElasticsearch, false)
			if err != nil {
				return err
			}
			defer dst.Close()

			if src.Postgres == nil || dst.Elastic == nil {
				return fmt.Errorf("reindex needs postgres and elasticsearch backends")
			}

			if recreate {
				if err := dst.Elastic.DeleteIndex(ctx); err != nil {
					return err
				}
				if err := dst.Elastic.EnsureIndex(ctx); err != nil {
					return err
				}
			}

			total := 0
			err = src.Postgres.ScanAll(ctx, batch, func(products []domain.Product) error {
				if err := dst.Elastic.BulkUpsert(ctx, products); err != nil {
					return err
				}
				total += len(products)
				c.logger.InfoContext(ctx, "reindexed batch",
					slog.Int("batch_size", len(products)),
					slog.Int("total", total),
				)
				return nil
			})
			if err != nil {
				return fmt.Errorf("reindex after %d products: %w", total, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reindexed %d products\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&batch, "batch", 500, "products per bulk request")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop and recreate the index first")
	return cmd
}

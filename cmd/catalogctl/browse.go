package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/service"
)

func newBrowseCmd(c *cli) *cobra.Command {
	var (
		rawParams []string
		pageSize  int
		demo      int
	)

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Resolve one catalog page and print it as JSON",
		Example: `  catalogctl browse --param sort=price_asc --param on_sale=1 --param page=2
  catalogctl browse --backend memory --param q=linen`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := parseParams(rawParams)
			if err != nil {
				return err
			}
			if pageSize == 0 {
				pageSize = c.cfg.PageSize
			}

			ctx := cmd.Context()
			storage, err := c.openBackend(ctx, c.backend, false)
			if err != nil {
				return err
			}
			defer storage.Close()

			if storage.Backend == config.BackendMemory && demo > 0 {
				for _, p := range newDemoCatalog(demo, time.Now().UTC()).Products {
					if err := storage.Repo.Upsert(ctx, &p); err != nil {
						return err
					}
				}
			}

			page, err := service.NewCatalogService(storage.Repo, c.logger).ResolveCatalogPage(ctx, params, pageSize)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}

	cmd.Flags().StringArrayVar(&rawParams, "param", nil, "raw catalog parameter as key=value (repeatable)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "products per page (default CATALOG_PAGE_SIZE)")
	cmd.Flags().IntVar(&demo, "demo", 48, "demo products to load into the memory backend")
	return cmd
}

// parseParams turns key=value pairs into raw catalog parameters. A repeated
// key keeps its first value, like a query string.
func parseParams(pairs []string) (catalog.Params, error) {
	params := make(catalog.Params, len(pairs))
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --param %q, want key=value", kv)
		}
		if _, seen := params[k]; !seen {
			params[k] = v
		}
	}
	return params, nil
}

package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/pkg/slug"
)

var (
	demoCategories = []string{"Outerwear", "Knitwear", "Footwear", "Accessories", "Home Textiles"}
	demoVendors    = []string{"Nordic Loom", "Atelier Çınar", "Harbor & Pine", "Kestrel Supply"}
	demoMaterials  = []string{"Merino", "Linen", "Waxed", "Quilted", "Organic", "Tweed", "Suede", "Ribbed"}
	demoItems      = []string{"Jacket", "Sweater", "Boots", "Scarf", "Throw", "Cardigan", "Tote", "Blanket", "Beanie", "Loafers"}

	markup = decimal.RequireFromString("1.25")
)

type demoCatalog struct {
	Categories []domain.Category
	Vendors    []domain.Vendor
	Products   []domain.Product
}

// newDemoCatalog builds n products with ids 1..n. The output depends only on
// n and now: every fourth product is on sale and every eleventh is inactive.
func newDemoCatalog(n int, now time.Time) demoCatalog {
	var d demoCatalog
	for i, name := range demoCategories {
		d.Categories = append(d.Categories, domain.Category{ID: int64(i + 1), Name: name, Slug: slug.Generate(name)})
	}
	for i, name := range demoVendors {
		d.Vendors = append(d.Vendors, domain.Vendor{ID: int64(i + 1), Name: name})
	}

	d.Products = make([]domain.Product, 0, n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		cat := d.Categories[i%len(d.Categories)]
		vendor := d.Vendors[i%len(d.Vendors)]
		name := demoMaterials[i%len(demoMaterials)] + " " + demoItems[(i/len(demoMaterials))%len(demoItems)]

		p := domain.Product{
			ID:            id,
			Name:          name,
			Slug:          slug.WithID(name, id),
			Description:   fmt.Sprintf("%s by %s.", name, vendor.Name),
			Price:         decimal.New(int64(1500+(i*7919)%23000), -2),
			StockQuantity: (i * 13) % 60,
			CategoryID:    cat.ID,
			CategoryName:  cat.Name,
			VendorID:      vendor.ID,
			VendorName:    vendor.Name,
			Featured:      i%9 == 0,
			Status:        domain.ProductStatusActive,
			CreatedAt:     now.Add(-time.Duration(i) * time.Hour).Truncate(time.Second),
			UpdatedAt:     now.Truncate(time.Second),
		}
		if i%4 == 0 {
			compareAt := p.Price.Mul(markup).Round(2)
			p.CompareAtPrice = &compareAt
		}
		if i%11 == 0 {
			p.Status = domain.ProductStatusInactive
		}
		d.Products = append(d.Products, p)
	}
	return d
}

func newSeedCmd(c *cli) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo categories, vendors and products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			if c.backend == config.BackendMemory {
				return fmt.Errorf("seed needs a persistent backend; browse --demo loads the memory backend")
			}

			ctx := cmd.Context()
			storage, err := c.openBackend(ctx, c.backend, false)
			if err != nil {
				return err
			}
			defer storage.Close()

			demo := newDemoCatalog(count, time.Now().UTC())

			switch {
			case storage.Pool != nil:
				refs := postgres.NewReferenceRepository(storage.Pool)
				for _, cat := range demo.Categories {
					if err := refs.UpsertCategory(ctx, cat); err != nil {
						return err
					}
				}
				for _, v := range demo.Vendors {
					if err := refs.UpsertVendor(ctx, v); err != nil {
						return err
					}
				}
				for _, p := range demo.Products {
					if err := storage.Repo.Upsert(ctx, &p); err != nil {
						return err
					}
				}
			case storage.Elastic != nil:
				if err := storage.Elastic.BulkUpsert(ctx, demo.Products); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products into %s\n", len(demo.Products), storage.Backend)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 48, "number of products")
	return cmd
}

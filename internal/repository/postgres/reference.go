package postgres

import (
	"context"
	"fmt"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

// ReferenceRepository maintains the category and vendor rows product queries
// join for display names.
type ReferenceRepository struct {
	db database.DBTX
}

// NewReferenceRepository creates a new PostgreSQL-backed reference repository.
func NewReferenceRepository(db database.DBTX) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

const upsertCategory = `
INSERT INTO categories (id, name, slug) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, slug = EXCLUDED.slug`

// UpsertCategory inserts or renames a category.
func (r *ReferenceRepository) UpsertCategory(ctx context.Context, c domain.Category) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertCategory", upsertCategory)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, upsertCategory, c.ID, c.Name, c.Slug); err != nil {
		return fmt.Errorf("upsert category %d: %w", c.ID, err)
	}
	return nil
}

const upsertVendor = `
INSERT INTO vendors (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

// UpsertVendor inserts or renames a vendor.
func (r *ReferenceRepository) UpsertVendor(ctx context.Context, v domain.Vendor) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertVendor", upsertVendor)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, upsertVendor, v.ID, v.Name); err != nil {
		return fmt.Errorf("upsert vendor %d: %w", v.ID, err)
	}
	return nil
}

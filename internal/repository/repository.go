package repository

import (
	"context"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductReader is the read side used to resolve catalog pages. Both calls
// must abort when ctx is done.
type ProductReader interface {
	// Count returns how many products match pred.
	Count(ctx context.Context, pred domain.Predicate) (int, error)

	// Query returns at most limit matching products in sort order, skipping
	// the first offset.
	Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) ([]domain.Product, error)
}

// ProductWriter keeps the read model in sync with the product change feed.
type ProductWriter interface {
	// Upsert inserts or replaces the product with p.ID. A stored product with
	// a later UpdatedAt is kept.
	Upsert(ctx context.Context, p *domain.Product) error

	// Delete hides a product from the catalog as of at. Products are never
	// removed, and a stored product updated after at stays visible.
	Delete(ctx context.Context, id int64, at time.Time) error
}

// ProductRepository is a complete catalog storage backend.
type ProductRepository interface {
	ProductReader
	ProductWriter
}

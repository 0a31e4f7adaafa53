// Package memory is an in-process catalog backend for tests, local runs and
// the catalogctl browse command.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/utafrali/storefront/internal/domain"
)

// ProductRepository keeps products in a map guarded by a RWMutex.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domain.Product
}

// NewProductRepository returns a repository seeded with products.
func NewProductRepository(products ...domain.Product) *ProductRepository {
	r := &ProductRepository{products: make(map[int64]domain.Product, len(products))}
	for _, p := range products {
		r.products[p.ID] = p
	}
	return r
}

func (r *ProductRepository) Count(ctx context.Context, pred domain.Predicate) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.products {
		if pred.Match(&p) {
			n++
		}
	}
	return n, nil
}

func (r *ProductRepository) Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	matched := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		if pred.Match(&p) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(matched, func(a, b domain.Product) int { return sort.Compare(&a, &b) })

	offset = max(offset, 0)
	if offset >= len(matched) || limit <= 0 {
		return []domain.Product{}, nil
	}
	end := min(offset+limit, len(matched))
	return slices.Clone(matched[offset:end]), nil
}

func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.products[p.ID]; ok && cur.UpdatedAt.After(p.UpdatedAt) {
		return nil
	}
	r.products[p.ID] = *p
	return nil
}

// Delete marks the product inactive. Unknown ids and products updated after
// at are left alone.
func (r *ProductRepository) Delete(ctx context.Context, id int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok && !p.UpdatedAt.After(at) {
		p.Status = domain.ProductStatusInactive
		p.UpdatedAt = at
		r.products[id] = p
	}
	return nil
}

// All returns every stored product ordered by id.
func (r *ProductRepository) All() []domain.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

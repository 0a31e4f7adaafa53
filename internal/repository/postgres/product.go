// Package postgres is the relational catalog backend.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/database"
)

const selectProducts = `
SELECT p.id, p.name, p.slug, p.description, p.price::text, p.compare_at_price::text,
       p.stock_quantity, p.category_id, COALESCE(c.name, ''), p.vendor_id, COALESCE(v.name, ''),
       p.featured, p.status, COALESCE(r.avg_rating, 0)::float8 AS rating, p.created_at, p.updated_at
FROM products p
LEFT JOIN categories c ON c.id = p.category_id
LEFT JOIN vendors v ON v.id = p.vendor_id
LEFT JOIN product_ratings r ON r.product_id = p.id`

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a repository over a pool, a transaction or a mock.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Count(ctx context.Context, pred domain.Predicate) (n int, err error) {
	var b whereBuilder
	where, err := b.compile(pred)
	if err != nil {
		return 0, err
	}

	query := "SELECT count(*) FROM products p WHERE " + where
	ctx, end := database.TraceQuery(ctx, "CountProducts", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

func (r *ProductRepository) Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) (products []domain.Product, err error) {
	var b whereBuilder
	where, err := b.compile(pred)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("%s\nWHERE %s\nORDER BY %s\nLIMIT %s OFFSET %s",
		selectProducts, where, orderBy(sort.Key), b.bind(limit), b.bind(max(offset, 0)))

	ctx, end := database.TraceQuery(ctx, "QueryProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = make([]domain.Product, 0, limit)
	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

const upsertProduct = `
INSERT INTO products (id, name, slug, description, price, compare_at_price, stock_quantity,
                      category_id, vendor_id, featured, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
    name = EXCLUDED.name, slug = EXCLUDED.slug, description = EXCLUDED.description,
    price = EXCLUDED.price, compare_at_price = EXCLUDED.compare_at_price,
    stock_quantity = EXCLUDED.stock_quantity, category_id = EXCLUDED.category_id,
    vendor_id = EXCLUDED.vendor_id, featured = EXCLUDED.featured, status = EXCLUDED.status,
    updated_at = EXCLUDED.updated_at
WHERE products.updated_at <= EXCLUDED.updated_at`

// Upsert stores p unless the row already holds a newer version. An older
// version is dropped silently.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpsertProduct", upsertProduct)
	defer func() { end(err) }()

	var compareAt *string
	if p.CompareAtPrice != nil {
		s := p.CompareAtPrice.String()
		compareAt = &s
	}

	_, err = r.db.Exec(ctx, upsertProduct,
		p.ID, p.Name, p.Slug, p.Description, p.Price.String(), compareAt, p.StockQuantity,
		p.CategoryID, p.VendorID, p.Featured, string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert product %d: %w", p.ID, err)
	}
	return nil
}

const deactivateProduct = `
UPDATE products SET status = 'inactive', updated_at = $2
WHERE id = $1 AND updated_at <= $2`

// Delete marks the product inactive so it drops out of every catalog query.
// Rows updated after at keep their status.
func (r *ProductRepository) Delete(ctx context.Context, id int64, at time.Time) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeactivateProduct", deactivateProduct)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, deactivateProduct, id, at); err != nil {
		return fmt.Errorf("deactivate product %d: %w", id, err)
	}
	return nil
}

// ScanAll streams every product ordered by id in batches of batchSize, for
// reindexing into a search backend.
func (r *ProductRepository) ScanAll(ctx context.Context, batchSize int, fn func([]domain.Product) error) error {
	afterID := int64(0)
	for {
		batch, err := r.scanAfter(ctx, afterID, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := fn(batch); err != nil {
			return err
		}
		afterID = batch[len(batch)-1].ID
	}
}

func (r *ProductRepository) scanAfter(ctx context.Context, afterID int64, limit int) (products []domain.Product, err error) {
	query := selectProducts + "\nWHERE p.id > $1\nORDER BY p.id ASC\nLIMIT $2"
	ctx, end := database.TraceQuery(ctx, "ScanProducts", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("scan products after %d: %w", afterID, err)
	}
	defer rows.Close()

	for rows.Next() {
		p, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

func scanProduct(rows pgx.Rows) (domain.Product, error) {
	var (
		p         domain.Product
		price     string
		compareAt *string
		status    string
	)
	if err := rows.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &price, &compareAt,
		&p.StockQuantity, &p.CategoryID, &p.CategoryName, &p.VendorID, &p.VendorName,
		&p.Featured, &status, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return p, fmt.Errorf("scan product row: %w", err)
	}

	var err error
	if p.Price, err = decimal.NewFromString(price); err != nil {
		return p, fmt.Errorf("parse price of product %d: %w", p.ID, err)
	}
	if compareAt != nil {
		d, err := decimal.NewFromString(*compareAt)
		if err != nil {
			return p, fmt.Errorf("parse compare_at_price of product %d: %w", p.ID, err)
		}
		p.CompareAtPrice = &d
	}
	p.Status = domain.ProductStatus(status)
	return p, nil
}

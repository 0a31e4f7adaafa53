package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidProduct is wrapped by every Product.Validate failure.
var ErrInvalidProduct = errors.New("invalid product")

// ProductStatus controls catalog visibility.
type ProductStatus string

// Product status constants. Only active products are browsable.
const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	return s == ProductStatusActive || s == ProductStatusInactive
}

// Product is a sellable item as seen by the catalog read model. Category and
// vendor names are display data joined in by the storage backend.
type Product struct {
	ID             int64            `json:"id"`
	Name           string           `json:"name"`
	Slug           string           `json:"slug"`
	Description    string           `json:"description,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	StockQuantity  int              `json:"stock_quantity"`
	CategoryID     int64            `json:"category_id"`
	CategoryName   string           `json:"category_name,omitempty"`
	VendorID       int64            `json:"vendor_id"`
	VendorName     string           `json:"vendor_name,omitempty"`
	Featured       bool             `json:"featured"`
	Status         ProductStatus    `json:"status"`
	Rating         float64          `json:"rating"`
	CreatedAt      time.Time        `json:"created_at"`
	// UpdatedAt is when the source system made this version of the product.
	// Writers keep the newest version.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// OnSale reports whether the product has a compare-at price above its price.
func (p *Product) OnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

// Validate checks the invariants a product must hold before it is stored.
func (p *Product) Validate() error {
	if err := CheckPrice(p.Price); err != nil {
		return fmt.Errorf("%w: price: %w", ErrInvalidProduct, err)
	}
	if p.CompareAtPrice != nil {
		if err := CheckPrice(*p.CompareAtPrice); err != nil {
			return fmt.Errorf("%w: compare_at_price: %w", ErrInvalidProduct, err)
		}
	}
	switch {
	case p.ID <= 0:
		return fmt.Errorf("%w: id must be positive", ErrInvalidProduct)
	case p.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidProduct)
	case p.StockQuantity < 0:
		return fmt.Errorf("%w: stock_quantity must not be negative", ErrInvalidProduct)
	case !p.Status.Valid():
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, p.Status)
	}
	return nil
}

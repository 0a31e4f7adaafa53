package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func validProduct() *Product {
	return &Product{
		ID:            42,
		Name:          "Wireless Mouse",
		Slug:          "wireless-mouse-42",
		Price:         dec("19.99"),
		StockQuantity: 10,
		CategoryID:    3,
		VendorID:      7,
		Status:        ProductStatusActive,
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

// ============================================================================
// Validate
// ============================================================================

func TestProduct_Validate_OK(t *testing.T) {
	assert.NoError(t, validProduct().Validate())
}

func TestProduct_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Product)
		reason string
	}{
		{"zero id", func(p *Product) { p.ID = 0 }, "id must be positive"},
		{"empty name", func(p *Product) { p.Name = "" }, "name is required"},
		{"negative price", func(p *Product) { p.Price = dec("-0.01") }, "price: invalid price: must not be negative"},
		{"negative compare at", func(p *Product) { p.CompareAtPrice = decPtr("-1") }, "compare_at_price: invalid price: must not be negative"},
		{"price above column range", func(p *Product) { p.Price = dec("10000000000") }, "price: invalid price: above 9999999999.99"},
		{"price with fractions of a cent", func(p *Product) { p.Price = dec("1.999") }, "more than two decimal places"},
		{"price with huge exponent", func(p *Product) { p.Price = dec("1e100000000") }, "price: invalid price: too many digits"},
		{"compare at with huge exponent", func(p *Product) { p.CompareAtPrice = decPtr("5e-100000000") }, "compare_at_price: invalid price: too many digits"},
		{"negative stock", func(p *Product) { p.StockQuantity = -1 }, "stock_quantity must not be negative"},
		{"unknown status", func(p *Product) { p.Status = "draft" }, `unknown status "draft"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			tt.mutate(p)

			err := p.Validate()
			require.ErrorIs(t, err, ErrInvalidProduct)
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

// ============================================================================
// OnSale
// ============================================================================

func TestProduct_OnSale(t *testing.T) {
	tests := []struct {
		name      string
		compareAt *decimal.Decimal
		want      bool
	}{
		{"no compare at price", nil, false},
		{"compare at above price", decPtr("29.99"), true},
		{"compare at equal to price", decPtr("19.99"), false},
		{"compare at below price", decPtr("9.99"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProduct()
			p.CompareAtPrice = tt.compareAt
			assert.Equal(t, tt.want, p.OnSale())
		})
	}
}

func TestProduct_JSONKeepsDecimalPrecision(t *testing.T) {
	p := validProduct()
	p.CompareAtPrice = decPtr("24.50")

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":"19.99"`)
	assert.Contains(t, string(raw), `"compare_at_price":"24.5"`)
}

// ============================================================================
// SortKey
// ============================================================================

func TestParseSortKey(t *testing.T) {
	for _, k := range SortKeys() {
		got, ok := ParseSortKey(string(k))
		assert.True(t, ok, "expected %q to parse", k)
		assert.Equal(t, k, got)
	}

	for _, bogus := range []string{"", "bogus", "NAME", "price"} {
		got, ok := ParseSortKey(bogus)
		assert.False(t, ok, "expected %q to be rejected", bogus)
		assert.Equal(t, SortByName, got)
	}
}

package postgres

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestWhereBuilder_Compile(t *testing.T) {
	tests := []struct {
		name     string
		pred     domain.Predicate
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty and",
			pred:    domain.And{},
			wantSQL: "TRUE",
		},
		{
			name:    "empty or",
			pred:    domain.Or{},
			wantSQL: "FALSE",
		},
		{
			name:     "status equality binds plain string",
			pred:     domain.Eq{Field: domain.FieldStatus, Value: domain.ProductStatusActive},
			wantSQL:  "p.status = $1",
			wantArgs: []any{"active"},
		},
		{
			name:     "closed range",
			pred:     domain.Range{Field: domain.FieldPrice, Min: dec("10.50"), Max: dec("99")},
			wantSQL:  "p.price >= $1::numeric AND p.price <= $2::numeric",
			wantArgs: []any{"10.5", "99"},
		},
		{
			name:     "open lower bound",
			pred:     domain.Range{Field: domain.FieldPrice, Max: dec("5")},
			wantSQL:  "p.price <= $1::numeric",
			wantArgs: []any{"5"},
		},
		{
			name:    "unbounded range",
			pred:    domain.Range{Field: domain.FieldCompareAtPrice},
			wantSQL: "p.compare_at_price IS NOT NULL",
		},
		{
			name:     "contains escapes like wildcards",
			pred:     domain.Contains{Field: domain.FieldName, Term: `50%_off\`},
			wantSQL:  `p.name ILIKE $1 ESCAPE '\'`,
			wantArgs: []any{`%50\%\_off\\%`},
		},
		{
			name:    "on sale",
			pred:    domain.GreaterThanField{Field: domain.FieldCompareAtPrice, Than: domain.FieldPrice},
			wantSQL: "(p.compare_at_price IS NOT NULL AND p.price IS NOT NULL AND p.compare_at_price > p.price)",
		},
		{
			name: "nested and/or numbers placeholders in order",
			pred: domain.And{
				domain.Eq{Field: domain.FieldStatus, Value: domain.ProductStatusActive},
				domain.Eq{Field: domain.FieldCategoryID, Value: int64(4)},
				domain.Or{
					domain.Contains{Field: domain.FieldName, Term: "lamp"},
					domain.Contains{Field: domain.FieldDescription, Term: "lamp"},
				},
			},
			wantSQL: `(p.status = $1 AND p.category_id = $2 AND ` +
				`(p.name ILIKE $3 ESCAPE '\' OR p.description ILIKE $4 ESCAPE '\'))`,
			wantArgs: []any{"active", int64(4), "%lamp%", "%lamp%"},
		},
		{
			name:     "single child is not parenthesised",
			pred:     domain.And{domain.Eq{Field: domain.FieldFeatured, Value: true}},
			wantSQL:  "p.featured = $1",
			wantArgs: []any{true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b whereBuilder
			sql, err := b.compile(tt.pred)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, b.args)
		})
	}
}

type unknownPredicate struct{}

func (unknownPredicate) Match(*domain.Product) bool { return true }
func (unknownPredicate) String() string             { return "unknown" }

func TestWhereBuilder_Unsupported(t *testing.T) {
	t.Run("node type", func(t *testing.T) {
		var b whereBuilder
		_, err := b.compile(domain.And{unknownPredicate{}})
		assert.ErrorContains(t, err, "unsupported predicate")
	})

	t.Run("field", func(t *testing.T) {
		var b whereBuilder
		_, err := b.compile(domain.Eq{Field: "weight", Value: int64(1)})
		assert.ErrorContains(t, err, `unsupported field "weight"`)
	})
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, `lower(p.name) COLLATE "C" ASC, p.id ASC`, orderBy(domain.SortByName))
	assert.Equal(t, "p.price ASC, p.id ASC", orderBy(domain.SortByPriceAsc))
	assert.Equal(t, "p.price DESC, p.id ASC", orderBy(domain.SortByPriceDesc))
	assert.Equal(t, "p.created_at DESC, p.id DESC", orderBy(domain.SortByNewest))
	assert.Equal(t, "rating DESC, p.id ASC", orderBy(domain.SortByRating))
	assert.Equal(t, orderBy(domain.SortByName), orderBy("bogus"))
}

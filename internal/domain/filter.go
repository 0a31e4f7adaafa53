package domain

import "github.com/shopspring/decimal"

// SortKey names one of the catalog orderings.
type SortKey string

// Supported sort keys.
const (
	SortByName      SortKey = "name"
	SortByPriceAsc  SortKey = "price_asc"
	SortByPriceDesc SortKey = "price_desc"
	SortByNewest    SortKey = "newest"
	SortByRating    SortKey = "rating"
)

// DefaultSortKey is used whenever the requested key is unknown.
const DefaultSortKey = SortByName

// SortKeys returns every supported key.
func SortKeys() []SortKey {
	return []SortKey{SortByName, SortByPriceAsc, SortByPriceDesc, SortByNewest, SortByRating}
}

// Valid reports whether k is a supported key.
func (k SortKey) Valid() bool {
	switch k {
	case SortByName, SortByPriceAsc, SortByPriceDesc, SortByNewest, SortByRating:
		return true
	}
	return false
}

// ParseSortKey maps s to a SortKey. ok is false for unknown values.
func ParseSortKey(s string) (key SortKey, ok bool) {
	k := SortKey(s)
	if !k.Valid() {
		return DefaultSortKey, false
	}
	return k, true
}

// CatalogFilter is a normalized catalog request.
//
// MinPrice is always >= 0 and zero means no lower bound. A nil MaxPrice means
// no upper bound; when set it is never below MinPrice.
type CatalogFilter struct {
	CategoryID *int64           `json:"category_id,omitempty"`
	MinPrice   decimal.Decimal  `json:"min_price"`
	MaxPrice   *decimal.Decimal `json:"max_price,omitempty"`
	OnSale     bool             `json:"on_sale"`
	SearchTerm string           `json:"q,omitempty"`
	SortKey    SortKey          `json:"sort"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
}

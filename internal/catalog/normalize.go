package catalog

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

const (
	// DefaultPageSize applies when the deployment passes a non-positive size.
	DefaultPageSize = 12

	// MaxSearchTermLength caps the search term in runes.
	MaxSearchTermLength = 100
)

// NormalizeFilter builds a CatalogFilter from raw parameters. It is total:
// malformed values fall back to their defaults instead of failing.
func NormalizeFilter(raw Params, pageSize int) domain.CatalogFilter {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	f := domain.CatalogFilter{
		SortKey:  domain.DefaultSortKey,
		Page:     1,
		PageSize: pageSize,
	}

	if v, ok := raw.lookup(keysCategory); ok {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && id > 0 {
			f.CategoryID = &id
		}
	}

	if minPrice, ok := parsePrice(raw, keysMinPrice); ok {
		f.MinPrice = minPrice
	}
	if maxPrice, ok := parsePrice(raw, keysMaxPrice); ok {
		f.MaxPrice = &maxPrice
	}
	if f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		swapped := f.MinPrice
		f.MinPrice = *f.MaxPrice
		f.MaxPrice = &swapped
	}

	if v, ok := raw.lookup(keysOnSale); ok {
		f.OnSale = truthy(v)
	}

	if v, ok := raw.lookup(keysSearch); ok {
		f.SearchTerm = truncateRunes(strings.TrimSpace(v), MaxSearchTermLength)
	}

	if v, ok := raw.lookup(keysSort); ok {
		f.SortKey, _ = domain.ParseSortKey(strings.TrimSpace(v))
	}

	if v, ok := raw.lookup(keysPage); ok {
		if page, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && page >= 1 {
			f.Page = page
		}
	}

	return f
}

// parsePrice reads a plain decimal, clamping negatives to zero and large
// values to domain.MaxPrice, rounded to cents. Malformed, exponent or overlong
// input reports ok=false so the bound is discarded.
func parsePrice(raw Params, keys []string) (decimal.Decimal, bool) {
	v, ok := raw.lookup(keys)
	if !ok {
		return decimal.Zero, false
	}
	d, err := domain.ParsePrice(v)
	if err != nil {
		return decimal.Zero, false
	}
	switch {
	case d.IsNegative():
		return decimal.Zero, true
	case d.GreaterThan(domain.MaxPrice):
		return domain.MaxPrice, true
	}
	return d.Round(2), true
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}

package domain

import (
	"cmp"
	"strings"
)

// SortStrategy orders products for one SortKey. Compare is a strict total
// order: it returns 0 only for products with the same ID.
type SortStrategy struct {
	Key     SortKey
	Compare func(a, b *Product) int
}

// SelectSort returns the strategy for key, falling back to DefaultSortKey.
//
//	name        lower(name) asc, id asc
//	price_asc   price asc, id asc
//	price_desc  price desc, id asc
//	newest      created_at desc, id desc
//	rating      rating desc, id asc
func SelectSort(key SortKey) SortStrategy {
	switch key {
	case SortByPriceAsc:
		return SortStrategy{Key: key, Compare: func(a, b *Product) int {
			return thenByID(a.Price.Cmp(b.Price), a, b)
		}}
	case SortByPriceDesc:
		return SortStrategy{Key: key, Compare: func(a, b *Product) int {
			return thenByID(b.Price.Cmp(a.Price), a, b)
		}}
	case SortByNewest:
		return SortStrategy{Key: key, Compare: func(a, b *Product) int {
			if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
				return c
			}
			return cmp.Compare(b.ID, a.ID)
		}}
	case SortByRating:
		return SortStrategy{Key: key, Compare: func(a, b *Product) int {
			return thenByID(cmp.Compare(b.Rating, a.Rating), a, b)
		}}
	default:
		return SortStrategy{Key: SortByName, Compare: func(a, b *Product) int {
			return thenByID(strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), a, b)
		}}
	}
}

func thenByID(c int, a, b *Product) int {
	if c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

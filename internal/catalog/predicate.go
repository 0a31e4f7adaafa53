package catalog

import "github.com/utafrali/storefront/internal/domain"

// BuildPredicate translates a normalized filter into the conjunction storage
// backends evaluate. Only active products are ever matched.
func BuildPredicate(f domain.CatalogFilter) domain.Predicate {
	pred := domain.And{domain.Eq{Field: domain.FieldStatus, Value: domain.ProductStatusActive}}

	if f.CategoryID != nil {
		pred = append(pred, domain.Eq{Field: domain.FieldCategoryID, Value: *f.CategoryID})
	}

	if f.OnSale {
		pred = append(pred, domain.GreaterThanField{Field: domain.FieldCompareAtPrice, Than: domain.FieldPrice})
	}

	if f.MinPrice.IsPositive() || f.MaxPrice != nil {
		r := domain.Range{Field: domain.FieldPrice, Max: f.MaxPrice}
		if f.MinPrice.IsPositive() {
			minPrice := f.MinPrice
			r.Min = &minPrice
		}
		pred = append(pred, r)
	}

	if f.SearchTerm != "" {
		pred = append(pred, domain.Or{
			domain.Contains{Field: domain.FieldName, Term: f.SearchTerm},
			domain.Contains{Field: domain.FieldDescription, Term: f.SearchTerm},
		})
	}

	return pred
}

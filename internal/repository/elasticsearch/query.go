package elasticsearch

import (
	"fmt"
	"strings"

	"github.com/utafrali/storefront/internal/domain"
)

type object = map[string]any

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// compileQuery turns a predicate into query DSL. Everything runs in filter
// context since catalog pages are never ranked by score.
func compileQuery(pred domain.Predicate) (object, error) {
	switch p := pred.(type) {
	case domain.And:
		if len(p) == 0 {
			return object{"match_all": object{}}, nil
		}
		clauses, err := compileAll(p)
		if err != nil {
			return nil, err
		}
		return object{"bool": object{"filter": clauses}}, nil
	case domain.Or:
		if len(p) == 0 {
			return object{"match_none": object{}}, nil
		}
		clauses, err := compileAll(p)
		if err != nil {
			return nil, err
		}
		return object{"bool": object{"should": clauses, "minimum_should_match": 1}}, nil
	case domain.Eq:
		switch p.Field {
		case domain.FieldStatus, domain.FieldCategoryID, domain.FieldVendorID, domain.FieldFeatured:
		default:
			return nil, fmt.Errorf("elasticsearch: unsupported equality field %q", p.Field)
		}
		v := p.Value
		if s, ok := v.(domain.ProductStatus); ok {
			v = string(s)
		}
		return object{"term": object{string(p.Field): v}}, nil
	case domain.Range:
		if p.Field != domain.FieldPrice && p.Field != domain.FieldCompareAtPrice {
			return nil, fmt.Errorf("elasticsearch: unsupported range field %q", p.Field)
		}
		bounds := object{}
		if p.Min != nil {
			bounds["gte"] = p.Min.String()
		}
		if p.Max != nil {
			bounds["lte"] = p.Max.String()
		}
		if len(bounds) == 0 {
			return object{"exists": object{"field": string(p.Field)}}, nil
		}
		return object{"range": object{string(p.Field): bounds}}, nil
	case domain.Contains:
		if p.Field != domain.FieldName && p.Field != domain.FieldDescription {
			return nil, fmt.Errorf("elasticsearch: unsupported text field %q", p.Field)
		}
		return object{"wildcard": object{
			string(p.Field) + ".wildcard": object{
				"value":            "*" + wildcardEscaper.Replace(p.Term) + "*",
				"case_insensitive": true,
			},
		}}, nil
	case domain.GreaterThanField:
		if p.Field == domain.FieldCompareAtPrice && p.Than == domain.FieldPrice {
			return object{"term": object{"on_sale": true}}, nil
		}
		return nil, fmt.Errorf("elasticsearch: unsupported comparison %s", p)
	}
	return nil, fmt.Errorf("elasticsearch: unsupported predicate %T", pred)
}

func compileAll(ps []domain.Predicate) ([]any, error) {
	out := make([]any, len(ps))
	for i, c := range ps {
		q, err := compileQuery(c)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

func sortClause(key domain.SortKey) []any {
	switch key {
	case domain.SortByPriceAsc:
		return []any{object{"price": "asc"}, object{"id": "asc"}}
	case domain.SortByPriceDesc:
		return []any{object{"price": "desc"}, object{"id": "asc"}}
	case domain.SortByNewest:
		return []any{object{"created_at": "desc"}, object{"id": "desc"}}
	case domain.SortByRating:
		return []any{object{"rating": object{"order": "desc", "missing": 0}}, object{"id": "asc"}}
	default:
		return []any{object{"name.keyword": "asc"}, object{"id": "asc"}}
	}
}

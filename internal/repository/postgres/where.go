package postgres

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
)

var columns = map[domain.Field]string{
	domain.FieldStatus:         "p.status",
	domain.FieldCategoryID:     "p.category_id",
	domain.FieldVendorID:       "p.vendor_id",
	domain.FieldFeatured:       "p.featured",
	domain.FieldPrice:          "p.price",
	domain.FieldCompareAtPrice: "p.compare_at_price",
	domain.FieldName:           "p.name",
	domain.FieldDescription:    "p.description",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereBuilder compiles a predicate into SQL with $n placeholders. Arguments
// are appended in placeholder order.
type whereBuilder struct {
	args []any
}

func (b *whereBuilder) bind(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *whereBuilder) compile(pred domain.Predicate) (string, error) {
	switch p := pred.(type) {
	case domain.And:
		return b.join(p, " AND ", "TRUE")
	case domain.Or:
		return b.join(p, " OR ", "FALSE")
	case domain.Eq:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		v := p.Value
		if s, ok := v.(domain.ProductStatus); ok {
			v = string(s)
		}
		return col + " = " + b.bind(v), nil
	case domain.Range:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		var conds []string
		if p.Min != nil {
			conds = append(conds, col+" >= "+b.bindDecimal(*p.Min))
		}
		if p.Max != nil {
			conds = append(conds, col+" <= "+b.bindDecimal(*p.Max))
		}
		if len(conds) == 0 {
			return col + " IS NOT NULL", nil
		}
		return strings.Join(conds, " AND "), nil
	case domain.Contains:
		col, err := column(p.Field)
		if err != nil {
			return "", err
		}
		return col + " ILIKE " + b.bind("%"+likeEscaper.Replace(p.Term)+"%") + ` ESCAPE '\'`, nil
	case domain.GreaterThanField:
		left, err := column(p.Field)
		if err != nil {
			return "", err
		}
		right, err := column(p.Than)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s IS NOT NULL AND %s IS NOT NULL AND %s > %s)", left, right, left, right), nil
	}
	return "", fmt.Errorf("postgres: unsupported predicate %T", pred)
}

func (b *whereBuilder) join(children []domain.Predicate, op, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, len(children))
	for i, c := range children {
		sql, err := b.compile(c)
		if err != nil {
			return "", err
		}
		parts[i] = sql
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, op) + ")", nil
}

// bindDecimal passes money as text so no float conversion can round it.
func (b *whereBuilder) bindDecimal(d decimal.Decimal) string {
	return b.bind(d.String()) + "::numeric"
}

func column(f domain.Field) (string, error) {
	col, ok := columns[f]
	if !ok {
		return "", fmt.Errorf("postgres: unsupported field %q", f)
	}
	return col, nil
}

// orderBy mirrors domain.SelectSort so SQL pages line up with the in-memory
// comparator. COLLATE "C" makes lower(name) compare bytewise.
func orderBy(key domain.SortKey) string {
	switch key {
	case domain.SortByPriceAsc:
		return "p.price ASC, p.id ASC"
	case domain.SortByPriceDesc:
		return "p.price DESC, p.id ASC"
	case domain.SortByNewest:
		return "p.created_at DESC, p.id DESC"
	case domain.SortByRating:
		return "rating DESC, p.id ASC"
	default:
		return `lower(p.name) COLLATE "C" ASC, p.id ASC`
	}
}

package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Field names a product attribute a predicate can test. The names match the
// storage column and document field names.
type Field string

const (
	FieldStatus         Field = "status"
	FieldCategoryID     Field = "category_id"
	FieldVendorID       Field = "vendor_id"
	FieldFeatured       Field = "featured"
	FieldPrice          Field = "price"
	FieldCompareAtPrice Field = "compare_at_price"
	FieldName           Field = "name"
	FieldDescription    Field = "description"
)

// Predicate is a boolean condition over a Product. Storage backends compile
// the concrete node types into native queries; Match evaluates in memory.
// String is canonical: equal predicates render identically.
type Predicate interface {
	Match(p *Product) bool
	String() string
}

// Eq tests equality of a scalar field. Value must have the field's Go type:
// ProductStatus, int64 or bool.
type Eq struct {
	Field Field
	Value any
}

func (e Eq) Match(p *Product) bool {
	switch e.Field {
	case FieldStatus:
		v, ok := e.Value.(ProductStatus)
		return ok && p.Status == v
	case FieldCategoryID:
		v, ok := e.Value.(int64)
		return ok && p.CategoryID == v
	case FieldVendorID:
		v, ok := e.Value.(int64)
		return ok && p.VendorID == v
	case FieldFeatured:
		v, ok := e.Value.(bool)
		return ok && p.Featured == v
	}
	return false
}

func (e Eq) String() string {
	return fmt.Sprintf("%s=%v", e.Field, e.Value)
}

// Range is an inclusive bound on a money field. A nil bound is open. A null
// field never matches.
type Range struct {
	Field Field
	Min   *decimal.Decimal
	Max   *decimal.Decimal
}

func (r Range) Match(p *Product) bool {
	v := moneyField(p, r.Field)
	if v == nil {
		return false
	}
	if r.Min != nil && v.LessThan(*r.Min) {
		return false
	}
	if r.Max != nil && v.GreaterThan(*r.Max) {
		return false
	}
	return true
}

func (r Range) String() string {
	return fmt.Sprintf("%s in [%s,%s]", r.Field, boundString(r.Min), boundString(r.Max))
}

// Contains is a case-insensitive substring match on a text field.
type Contains struct {
	Field Field
	Term  string
}

func (c Contains) Match(p *Product) bool {
	var v string
	switch c.Field {
	case FieldName:
		v = p.Name
	case FieldDescription:
		v = p.Description
	default:
		return false
	}
	return strings.Contains(strings.ToLower(v), strings.ToLower(c.Term))
}

func (c Contains) String() string {
	return fmt.Sprintf("%s~%s", c.Field, strconv.Quote(c.Term))
}

// GreaterThanField compares two money fields. It is false when either is null.
type GreaterThanField struct {
	Field Field
	Than  Field
}

func (g GreaterThanField) Match(p *Product) bool {
	a, b := moneyField(p, g.Field), moneyField(p, g.Than)
	return a != nil && b != nil && a.GreaterThan(*b)
}

func (g GreaterThanField) String() string {
	return fmt.Sprintf("%s>%s", g.Field, g.Than)
}

// And matches when every child matches. An empty And matches everything.
type And []Predicate

func (a And) Match(p *Product) bool {
	for _, c := range a {
		if !c.Match(p) {
			return false
		}
	}
	return true
}

func (a And) String() string { return joinPredicates("and", a) }

// Or matches when any child matches. An empty Or matches nothing.
type Or []Predicate

func (o Or) Match(p *Product) bool {
	for _, c := range o {
		if c.Match(p) {
			return true
		}
	}
	return false
}

func (o Or) String() string { return joinPredicates("or", o) }

func joinPredicates(op string, ps []Predicate) string {
	parts := make([]string, len(ps))
	for i, c := range ps {
		parts[i] = c.String()
	}
	return op + "(" + strings.Join(parts, ",") + ")"
}

func moneyField(p *Product, f Field) *decimal.Decimal {
	switch f {
	case FieldPrice:
		return &p.Price
	case FieldCompareAtPrice:
		return p.CompareAtPrice
	}
	return nil
}

func boundString(d *decimal.Decimal) string {
	if d == nil {
		return "*"
	}
	return d.String()
}

// Package catalog turns untrusted catalog query parameters into a normalized
// filter and the predicate storage backends evaluate.
package catalog

import "net/url"

// Params is the raw, untrusted request parameter mapping.
type Params map[string]string

// Parameter keys and their accepted aliases. The first non-empty value wins.
var (
	keysCategory = []string{"category_id", "category"}
	keysMinPrice = []string{"min_price"}
	keysMaxPrice = []string{"max_price"}
	keysOnSale   = []string{"on_sale", "sale"}
	keysSearch   = []string{"q", "search"}
	keysSort     = []string{"sort", "sort_by"}
	keysPage     = []string{"page"}
)

// ParamsFromQuery keeps the first value of every query key.
func ParamsFromQuery(q url.Values) Params {
	p := make(Params, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			p[k] = vs[0]
		}
	}
	return p
}

func (p Params) lookup(keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

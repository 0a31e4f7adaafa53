package elasticsearch

import (
	"encoding/json"
	"strings"
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

func compileJSON(t *testing.T, pred domain.Predicate) string {
	t.Helper()
	q, err := compileQuery(pred)
	require.NoError(t, err)
	b, err := json.Marshal(q)
	require.NoError(t, err)
	return string(b)
}

func TestCompileQuery(t *testing.T) {
	tests := []struct {
		name string
		pred domain.Predicate
		want string
	}{
		{"empty and", domain.And{}, `{"match_all":{}}`},
		{"empty or", domain.Or{}, `{"match_none":{}}`},
		{
			"status term",
			domain.Eq{Field: domain.FieldStatus, Value: domain.ProductStatusActive},
			`{"term":{"status":"active"}}`,
		},
		{
			"category term",
			domain.Eq{Field: domain.FieldCategoryID, Value: int64(3)},
			`{"term":{"category_id":3}}`,
		},
		{
			"price range",
			domain.Range{Field: domain.FieldPrice, Min: dec("5.50"), Max: dec("20")},
			`{"range":{"price":{"gte":"5.5","lte":"20"}}}`,
		},
		{
			"unbounded range",
			domain.Range{Field: domain.FieldPrice},
			`{"exists":{"field":"price"}}`,
		},
		{
			"contains escapes wildcards",
			domain.Contains{Field: domain.FieldName, Term: "a*b?"},
			`{"wildcard":{"name.wildcard":{"case_insensitive":true,"value":"*a\\*b\\?*"}}}`,
		},
		{
			"on sale uses indexed flag",
			domain.GreaterThanField{Field: domain.FieldCompareAtPrice, Than: domain.FieldPrice},
			`{"term":{"on_sale":true}}`,
		},
		{
			"nested",
			domain.And{
				domain.Eq{Field: domain.FieldFeatured, Value: true},
				domain.Or{domain.Contains{Field: domain.FieldDescription, Term: "oak"}},
			},
			`{"bool":{"filter":[{"term":{"featured":true}},` +
				`{"bool":{"minimum_should_match":1,"should":[{"wildcard":{"description.wildcard":{"case_insensitive":true,"value":"*oak*"}}}]}}]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.want, compileJSON(t, tt.pred))
		})
	}
}

func TestCompileQuery_Unsupported(t *testing.T) {
	for _, pred := range []domain.Predicate{
		domain.Eq{Field: domain.FieldPrice, Value: int64(1)},
		domain.Range{Field: domain.FieldName},
		domain.Contains{Field: domain.FieldStatus, Term: "x"},
		domain.GreaterThanField{Field: domain.FieldPrice, Than: domain.FieldCompareAtPrice},
		domain.And{domain.Or{domain.Eq{Field: "color", Value: "red"}}},
	} {
		_, err := compileQuery(pred)
		assert.Error(t, err, pred.String())
	}
}

func TestSortClause_AlwaysEndsWithID(t *testing.T) {
	for _, key := range domain.SortKeys() {
		clause := sortClause(key)
		require.Len(t, clause, 2, key)
		last := clause[1].(object)
		_, ok := last["id"]
		assert.True(t, ok, "sort %s must tie-break on id", key)
	}
	assert.Equal(t, sortClause(domain.SortByName), sortClause("unknown"))
}

// TestCompileQuery_ContainsTargetsWildcardFields checks the substring query
// against the index mapping: every searched subfield is a wildcard field,
// which has no length cutoff.
func TestCompileQuery_ContainsTargetsWildcardFields(t *testing.T) {
	var mapping struct {
		Mappings struct {
			Properties map[string]struct {
				Fields map[string]map[string]any `json:"fields"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	require.NoError(t, json.Unmarshal([]byte(indexMapping), &mapping))

	longTerm := strings.Repeat("oak ", 1250)
	for _, field := range []domain.Field{domain.FieldName, domain.FieldDescription} {
		q, err := compileQuery(domain.Contains{Field: field, Term: longTerm})
		require.NoError(t, err)

		wildcard := q["wildcard"].(object)
		require.Len(t, wildcard, 1)
		for path := range wildcard {
			parent, sub, ok := strings.Cut(path, ".")
			require.True(t, ok, path)
			require.Equal(t, string(field), parent)

			subfield := mapping.Mappings.Properties[parent].Fields[sub]
			require.NotNil(t, subfield, "mapping has no %s", path)
			assert.Equal(t, "wildcard", subfield["type"], path)
			assert.NotContains(t, subfield, "ignore_above", path)
		}
	}
}

func TestIndexMapping_ResultWindowMatchesDefault(t *testing.T) {
	var mapping struct {
		Settings map[string]any `json:"settings"`
	}
	require.NoError(t, json.Unmarshal([]byte(indexMapping), &mapping))
	assert.EqualValues(t, DefaultMaxResultWindow, mapping.Settings["max_result_window"])
}

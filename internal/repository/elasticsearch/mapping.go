package elasticsearch

// DefaultIndexName is the index used when none is configured.
const DefaultIndexName = "storefront_catalog"

// DefaultMaxResultWindow is the max_result_window set by indexMapping.
const DefaultMaxResultWindow = 10000

// indexMapping keeps a lowercase keyword subfield of name for sorting so
// ordering matches lower(name) in the relational backend. Its ignore_above is
// Lucene's term limit for four-byte characters. Substring search runs on
// wildcard subfields, which index values of any length.
const indexMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "max_result_window": 10000,
    "analysis": {
      "normalizer": {
        "lowercase_keyword": { "type": "custom", "filter": ["lowercase"] }
      }
    }
  },
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "id":               { "type": "long" },
      "name":             { "type": "text", "fields": {
                              "keyword":  { "type": "keyword", "normalizer": "lowercase_keyword", "ignore_above": 8191 },
                              "wildcard": { "type": "wildcard" } } },
      "slug":             { "type": "keyword" },
      "description":      { "type": "text", "fields": { "wildcard": { "type": "wildcard" } } },
      "price":            { "type": "scaled_float", "scaling_factor": 100 },
      "compare_at_price": { "type": "scaled_float", "scaling_factor": 100 },
      "stock_quantity":   { "type": "integer" },
      "category_id":      { "type": "long" },
      "category_name":    { "type": "keyword" },
      "vendor_id":        { "type": "long" },
      "vendor_name":      { "type": "keyword" },
      "featured":         { "type": "boolean" },
      "status":           { "type": "keyword" },
      "rating":           { "type": "float" },
      "on_sale":          { "type": "boolean" },
      "created_at":       { "type": "date" },
      "updated_at":       { "type": "date" },
      "revision":         { "type": "long" }
    }
  }
}`

// Package elasticsearch is the search-engine catalog backend.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/utafrali/storefront/internal/domain"
)

// document is the indexed form of a product. on_sale is derived at write time
// because a query cannot compare two fields of the same document cheaply.
// revision is UpdatedAt in Unix nanoseconds, compared by the update scripts.
type document struct {
	domain.Product
	OnSale   bool  `json:"on_sale"`
	Revision int64 `json:"revision"`
}

func newDocument(p *domain.Product) document {
	d := document{Product: *p, OnSale: p.OnSale()}
	if !p.UpdatedAt.IsZero() {
		d.Revision = p.UpdatedAt.UnixNano()
	}
	return d
}

// Update scripts skip documents that already hold a newer revision. The
// upsert script replaces every field except rating, which only a reindex
// from the relational store writes.
const (
	upsertScript = `if (ctx._source.revision != null && ctx._source.revision > params.doc.revision) { ctx.op = 'noop'; return; }
def rating = ctx._source.rating;
ctx._source.clear();
ctx._source.putAll(params.doc);
if (rating != null) { ctx._source.rating = rating; }`

	deactivateScript = `if (ctx._source.revision != null && ctx._source.revision > params.revision) { ctx.op = 'noop'; return; }
ctx._source.status = params.status;
ctx._source.revision = params.revision;
ctx._source.updated_at = params.updated_at;`
)

type searchHit struct {
	Source document          `json:"_source"`
	Sort   []json.RawMessage `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

type countResponse struct {
	Count int `json:"count"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type errorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// Config selects the cluster and index.
type Config struct {
	Addresses []string
	Index     string
	// MaxResultWindow must match index.max_result_window. Deeper pages are
	// reached with search_after. Defaults to DefaultMaxResultWindow.
	MaxResultWindow int
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// ProductRepository implements repository.ProductRepository on Elasticsearch.
type ProductRepository struct {
	client    *elasticsearch.Client
	index     string
	maxWindow int
	logger    *slog.Logger
}

// New creates a repository. It does not contact the cluster; call EnsureIndex
// before serving traffic.
func New(cfg Config, logger *slog.Logger) (*ProductRepository, error) {
	if cfg.Index == "" {
		cfg.Index = DefaultIndexName
	}
	if cfg.MaxResultWindow <= 0 {
		cfg.MaxResultWindow = DefaultMaxResultWindow
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: create client: %w", err)
	}
	return &ProductRepository{client: client, index: cfg.Index, maxWindow: cfg.MaxResultWindow, logger: logger}, nil
}

// Ping checks whether the cluster is reachable.
func (r *ProductRepository) Ping(ctx context.Context) error {
	res, err := r.client.Ping(r.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the catalog index with its mapping if it is missing.
func (r *ProductRepository) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: check index: %w", err)
	}
	closeBody(res)

	if res.StatusCode == http.StatusOK {
		r.logger.DebugContext(ctx, "elasticsearch index exists", slog.String("index", r.index))
		return nil
	}

	res, err = r.client.Indices.Create(r.index,
		r.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		r.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch: create index: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("create index", res)
	}
	r.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", r.index))
	return nil
}

// DeleteIndex drops the catalog index. A missing index is not an error.
func (r *ProductRepository) DeleteIndex(ctx context.Context) error {
	res, err := r.client.Indices.Delete([]string{r.index}, r.client.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch: delete index: %w", err)
	}
	defer closeBody(res)

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete index", res)
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context, pred domain.Predicate) (int, error) {
	q, err := compileQuery(pred)
	if err != nil {
		return 0, err
	}
	body, err := json.Marshal(object{"query": q})
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: marshal query: %w", err)
	}

	res, err := r.client.Count(
		r.client.Count.WithIndex(r.index),
		r.client.Count.WithBody(bytes.NewReader(body)),
		r.client.Count.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("elasticsearch count: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return 0, responseError("count", res)
	}

	var out countResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("elasticsearch count: decode response: %w", err)
	}
	return out.Count, nil
}

// Query pages with from/size inside the result window. Past it, the hit just
// before offset is located with search_after on the sort tuple, which always
// ends with the id so it is unique.
func (r *ProductRepository) Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) ([]domain.Product, error) {
	q, err := compileQuery(pred)
	if err != nil {
		return nil, err
	}
	offset = max(offset, 0)

	req := object{
		"query":            q,
		"sort":             sortClause(sort.Key),
		"size":             limit,
		"track_total_hits": false,
	}
	if offset+limit <= r.maxWindow {
		req["from"] = offset
	} else {
		after, err := r.seek(ctx, q, sort.Key, offset)
		if err != nil {
			return nil, err
		}
		if after == nil {
			return []domain.Product{}, nil
		}
		req["search_after"] = after
	}

	out, err := r.search(ctx, req)
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(out.Hits.Hits))
	for _, hit := range out.Hits.Hits {
		products = append(products, hit.Source.Product)
	}
	return products, nil
}

// seek skips offset hits in window-sized steps without fetching sources. It
// returns the sort values of the last skipped hit, or nil when fewer than
// offset documents match.
func (r *ProductRepository) seek(ctx context.Context, q object, key domain.SortKey, offset int) ([]json.RawMessage, error) {
	var after []json.RawMessage
	for remaining := offset; remaining > 0; {
		step := min(remaining, r.maxWindow)
		req := object{
			"query":            q,
			"sort":             sortClause(key),
			"size":             step,
			"_source":          false,
			"track_total_hits": false,
		}
		if after != nil {
			req["search_after"] = after
		}

		out, err := r.search(ctx, req)
		if err != nil {
			return nil, err
		}
		hits := out.Hits.Hits
		if len(hits) < step {
			return nil, nil
		}
		after = hits[len(hits)-1].Sort
		remaining -= step
	}
	return after, nil
}

func (r *ProductRepository) search(ctx context.Context, req object) (*searchResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
		r.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError("search", res)
	}

	var out searchResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	return &out, nil
}

// Upsert writes every field of p except the rating through a scripted
// update. A stored document with a newer revision is left unchanged. New
// documents are created from the full product.
func (r *ProductRepository) Upsert(ctx context.Context, p *domain.Product) error {
	doc := newDocument(p)
	partial, err := withoutRating(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch update: marshal product: %w", err)
	}
	body, err := json.Marshal(object{
		"script": object{"lang": "painless", "source": upsertScript, "params": object{"doc": partial}},
		"upsert": doc,
	})
	if err != nil {
		return fmt.Errorf("elasticsearch update: marshal product: %w", err)
	}

	res, err := r.client.Update(r.index, strconv.FormatInt(p.ID, 10), bytes.NewReader(body),
		r.client.Update.WithRefresh("wait_for"),
		r.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch update: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("update", res)
	}
	return nil
}

func withoutRating(doc document) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "rating")
	return fields, nil
}

// Delete marks the document inactive as of at. Unknown ids and documents with
// a newer revision are ignored.
func (r *ProductRepository) Delete(ctx context.Context, id int64, at time.Time) error {
	body, err := json.Marshal(object{
		"script": object{
			"lang":   "painless",
			"source": deactivateScript,
			"params": object{
				"status":     domain.ProductStatusInactive,
				"revision":   at.UnixNano(),
				"updated_at": at.UTC().Format(time.RFC3339Nano),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("elasticsearch update: marshal script: %w", err)
	}

	res, err := r.client.Update(r.index, strconv.FormatInt(id, 10), bytes.NewReader(body),
		r.client.Update.WithRefresh("wait_for"),
		r.client.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch update: %w", err)
	}
	defer closeBody(res)

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("update", res)
	}
	return nil
}

// BulkUpsert indexes products through the bulk NDJSON API.
func (r *ProductRepository) BulkUpsert(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		action := object{"index": object{"_index": r.index, "_id": strconv.FormatInt(products[i].ID, 10)}}
		if err := enc.Encode(action); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}
		if err := enc.Encode(newDocument(&products[i])); err != nil {
			return fmt.Errorf("elasticsearch bulk: encode document: %w", err)
		}
	}

	res, err := r.client.Bulk(bytes.NewReader(buf.Bytes()),
		r.client.Bulk.WithIndex(r.index),
		r.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("bulk", res)
	}

	var out bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}
	if out.Errors {
		var msgs []string
		for _, item := range out.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("elasticsearch bulk: partial errors: %s", strings.Join(msgs, "; "))
	}

	r.logger.InfoContext(ctx, "bulk indexed products", slog.Int("count", len(products)))
	return nil
}

func responseError(op string, res *esapi.Response) error {
	var e errorResponse
	if err := json.NewDecoder(res.Body).Decode(&e); err == nil && e.Error.Type != "" {
		return fmt.Errorf("elasticsearch %s: %s: %s", op, e.Error.Type, e.Error.Reason)
	}
	return fmt.Errorf("elasticsearch %s: unexpected status %s", op, res.Status())
}

func closeBody(res *esapi.Response) {
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}

// Package cache keeps recent catalog counts in Redis. Counts are the expensive
// half of a page resolution and change only when the change feed writes.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// KeyPrefix namespaces every count key.
const KeyPrefix = "catalog:count:"

// GenerationKey is bumped by every purge. It sits outside KeyPrefix so a
// purge never deletes it.
const GenerationKey = "catalog:count-generation"

// DefaultTTL bounds how stale a cached count may be.
const DefaultTTL = 30 * time.Second

const scanBatch = 200

// Cached values are "<generation>:<count>" and only count as hits under the
// current generation. storeIfCurrent writes a count only while the generation
// it was computed under is still current, so a purge racing a repository
// count wins.
var storeIfCurrent = redis.NewScript(`
if (redis.call('GET', KEYS[1]) or '0') ~= ARGV[1] then
  return false
end
return redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
`)

var countLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "catalog_count_cache_lookups_total",
	Help: "Count cache lookups by result (hit, miss, error).",
}, []string{"result"})

// Repository caches Count results of the wrapped repository. Query results are
// never cached.
type Repository struct {
	inner  repository.ProductRepository
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// New wraps inner. A non-positive ttl uses DefaultTTL.
func New(inner repository.ProductRepository, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *Repository {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Repository{inner: inner, client: client, ttl: ttl, logger: logger}
}

// Key returns the cache key for pred. Equal predicates render identically, so
// they share a key.
func Key(pred domain.Predicate) string {
	sum := sha256.Sum256([]byte(pred.String()))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

func (r *Repository) Count(ctx context.Context, pred domain.Predicate) (int, error) {
	key := Key(pred)

	gen, cached, err := r.lookup(ctx, key)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		countLookups.WithLabelValues("error").Inc()
		r.logger.WarnContext(ctx, "count cache read failed, using repository",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	case cached != nil:
		storedGen, count, ok := strings.Cut(*cached, ":")
		n, convErr := strconv.Atoi(count)
		if !ok || convErr != nil {
			r.logger.WarnContext(ctx, "discarding malformed cached count", slog.String("key", key))
			countLookups.WithLabelValues("error").Inc()
			break
		}
		if storedGen == gen {
			countLookups.WithLabelValues("hit").Inc()
			return n, nil
		}
		countLookups.WithLabelValues("miss").Inc()
	default:
		countLookups.WithLabelValues("miss").Inc()
	}

	n, err := r.inner.Count(ctx, pred)
	if err != nil {
		return 0, err
	}
	if gen != "" {
		r.store(ctx, gen, key, n)
	}
	return n, nil
}

// lookup reads the current generation and the cached count in one round
// trip. cached is nil on a miss.
func (r *Repository) lookup(ctx context.Context, key string) (gen string, cached *string, err error) {
	vals, err := r.client.MGet(ctx, GenerationKey, key).Result()
	if err != nil {
		return "", nil, err
	}
	gen = "0"
	if s, ok := vals[0].(string); ok {
		gen = s
	}
	if s, ok := vals[1].(string); ok {
		cached = &s
	}
	return gen, cached, nil
}

func (r *Repository) store(ctx context.Context, gen, key string, n int) {
	ttl := max(r.ttl.Milliseconds(), 1)
	value := gen + ":" + strconv.Itoa(n)
	err := storeIfCurrent.Run(ctx, r.client, []string{GenerationKey, key}, gen, value, ttl).Err()
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		r.logger.DebugContext(ctx, "count cache write skipped, catalog changed meanwhile", slog.String("key", key))
	default:
		r.logger.WarnContext(ctx, "count cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (r *Repository) Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) ([]domain.Product, error) {
	return r.inner.Query(ctx, pred, sort, offset, limit)
}

func (r *Repository) Upsert(ctx context.Context, p *domain.Product) error {
	if err := r.inner.Upsert(ctx, p); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *Repository) Delete(ctx context.Context, id int64, at time.Time) error {
	if err := r.inner.Delete(ctx, id, at); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// invalidate drops every count key. Any write can change any count, and the
// TTL caps staleness if this fails.
func (r *Repository) invalidate(ctx context.Context) {
	if err := r.Purge(ctx); err != nil {
		r.logger.WarnContext(ctx, "count cache invalidation failed", slog.String("error", err.Error()))
	}
}

// Purge bumps the generation, which stops in-flight counts from being
// stored, then deletes all cached counts.
func (r *Repository) Purge(ctx context.Context) error {
	if err := r.client.Incr(ctx, GenerationKey).Err(); err != nil {
		return fmt.Errorf("bump count generation: %w", err)
	}

	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, KeyPrefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan count keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete count keys: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

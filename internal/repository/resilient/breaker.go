// Package resilient guards a catalog backend with a circuit breaker so a
// failing store is shed quickly instead of tying up request goroutines.
package resilient

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
)

// ErrCircuitOpen is returned while the breaker rejects reads.
var ErrCircuitOpen = gobreaker.ErrOpenState

// Config holds breaker settings.
type Config struct {
	// Name identifies the breaker in metrics and logs.
	Name string

	// MaxRequests is how many trial requests are let through while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts. Zero never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration

	// FailureRatio trips the breaker once at least MinRequests were seen.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig trips at 60% failures over at least five reads.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  5,
	}
}

var circuitState = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "catalog_repository_circuit_state",
		Help: "State of the catalog repository circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

func init() {
	prometheus.MustRegister(circuitState)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// Repository wraps a ProductRepository. Count and Query share one breaker;
// writes go straight to the inner repository.
type Repository struct {
	inner   repository.ProductRepository
	breaker *gobreaker.CircuitBreaker[any]
}

// New wraps inner with a breaker configured by cfg.
func New(inner repository.ProductRepository, cfg Config, logger *slog.Logger) *Repository {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		// A caller giving up says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			circuitState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}
	circuitState.WithLabelValues(cfg.Name).Set(0)

	return &Repository{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (r *Repository) Count(ctx context.Context, pred domain.Predicate) (int, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		return r.inner.Count(ctx, pred)
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

func (r *Repository) Query(ctx context.Context, pred domain.Predicate, sort domain.SortStrategy, offset, limit int) ([]domain.Product, error) {
	v, err := r.breaker.Execute(func() (any, error) {
		return r.inner.Query(ctx, pred, sort, offset, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

func (r *Repository) Upsert(ctx context.Context, p *domain.Product) error {
	return r.inner.Upsert(ctx, p)
}

func (r *Repository) Delete(ctx context.Context, id int64, at time.Time) error {
	return r.inner.Delete(ctx, id, at)
}

// State reports the breaker state.
func (r *Repository) State() gobreaker.State {
	return r.breaker.State()
}

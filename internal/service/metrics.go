package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_resolve_duration_seconds",
		Help:    "Duration of catalog page resolution by sort key.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"sort"})

	pageClamps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_page_clamped_total",
		Help: "Requests whose page number was past the last page.",
	})

	repositoryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_repository_failures_total",
		Help: "Failed repository calls by operation.",
	}, []string{"operation"})

	projectedProducts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_projected_products_total",
		Help: "Product changes applied to the catalog read model by action.",
	}, []string{"action"})
)

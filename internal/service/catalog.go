// Package service resolves catalog pages and applies product changes to the
// read model.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	"github.com/utafrali/storefront/pkg/pagination"
	"github.com/utafrali/storefront/pkg/tracing"
)

// CatalogService implements the catalog use cases.
type CatalogService struct {
	repo   repository.ProductRepository
	logger *slog.Logger
	tracer trace.Tracer
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(repo repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger,
		tracer: tracing.Tracer("internal/service"),
	}
}

// ResolveCatalogPage turns raw request parameters into one page of products.
// Malformed parameters fall back to defaults; the only error is a failing
// repository, reported as REPOSITORY_UNAVAILABLE.
//
// The repository is counted once and queried at most once. No query is made
// when nothing matches.
func (s *CatalogService) ResolveCatalogPage(ctx context.Context, raw catalog.Params, pageSize int) (_ *domain.PageResult, err error) {
	start := time.Now()

	filter := catalog.NormalizeFilter(raw, pageSize)
	pred := catalog.BuildPredicate(filter)
	sort := domain.SelectSort(filter.SortKey)

	ctx, span := s.tracer.Start(ctx, "CatalogService.ResolveCatalogPage", trace.WithAttributes(
		attribute.String("catalog.sort", string(sort.Key)),
		attribute.Int("catalog.page", filter.Page),
		attribute.Int("catalog.page_size", filter.PageSize),
		attribute.String("catalog.predicate", pred.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		resolveDuration.WithLabelValues(string(sort.Key)).Observe(time.Since(start).Seconds())
	}()

	total, err := s.repo.Count(ctx, pred)
	if err != nil {
		repositoryFailures.WithLabelValues("count").Inc()
		return nil, apperrors.RepositoryUnavailable(fmt.Errorf("count products: %w", err))
	}

	window := pagination.Compute(total, filter.PageSize, filter.Page)
	if total > 0 && window.Clamped(filter.Page) {
		pageClamps.Inc()
	}

	items := []domain.Product{}
	if total > 0 {
		items, err = s.repo.Query(ctx, pred, sort, window.Offset, window.PageSize)
		if err != nil {
			repositoryFailures.WithLabelValues("query").Inc()
			return nil, apperrors.RepositoryUnavailable(fmt.Errorf("query products: %w", err))
		}
		if items == nil {
			items = []domain.Product{}
		}
		if len(items) > window.PageSize {
			items = items[:window.PageSize]
		}
	}

	filter.Page = window.CurrentPage
	span.SetAttributes(attribute.Int("catalog.total_count", total), attribute.Int("catalog.items", len(items)))

	s.logger.DebugContext(ctx, "catalog page resolved",
		slog.String("predicate", pred.String()),
		slog.String("sort", string(sort.Key)),
		slog.Int("page", window.CurrentPage),
		slog.Int("total_count", total),
		slog.Int("items", len(items)),
	)

	return &domain.PageResult{
		Items:       items,
		TotalCount:  window.TotalCount,
		TotalPages:  window.TotalPages,
		CurrentPage: window.CurrentPage,
		PageSize:    window.PageSize,
		PageLinks:   window.Links,
		HasNext:     window.HasNext,
		HasPrev:     window.HasPrev,
		Filter:      filter,
	}, nil
}

// UpsertProduct validates p and stores it in the read model. A zero
// UpdatedAt is stamped with the current time. The repository keeps whichever
// version is newest, so an out-of-order write may be a no-op.
func (s *CatalogService) UpsertProduct(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %d: %w", p.ID, err)
	}
	projectedProducts.WithLabelValues("upsert").Inc()

	s.logger.InfoContext(ctx, "product projected",
		slog.Int64("product_id", p.ID),
		slog.String("status", string(p.Status)),
	)
	return nil
}

// DeactivateProduct hides a product from every catalog page as of at, unless
// it was updated after at. A zero at means now.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id int64, at time.Time) error {
	if id <= 0 {
		return apperrors.InvalidInput("product id must be positive")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := s.repo.Delete(ctx, id, at); err != nil {
		return fmt.Errorf("deactivate product %d: %w", id, err)
	}
	projectedProducts.WithLabelValues("deactivate").Inc()

	s.logger.InfoContext(ctx, "product deactivated", slog.Int64("product_id", id))
	return nil
}

// Package event applies the product change feed to the catalog read model.
package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/domain"
	apperrors "github.com/utafrali/storefront/pkg/errors"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/slug"
	"github.com/utafrali/storefront/pkg/validator"
)

// Topics consumed by the projector.
var (
	TopicProductUpserted = pkgkafka.Topic("product", "upserted")
	TopicProductDeleted  = pkgkafka.Topic("product", "deleted")
)

// ProductPayload is the data of a product.upserted event.
type ProductPayload struct {
	ID             int64            `json:"id" validate:"required,gt=0"`
	Name           string           `json:"name" validate:"required,max=255"`
	Slug           string           `json:"slug" validate:"max=255"`
	Description    string           `json:"description"`
	Price          decimal.Decimal  `json:"price"`
	CompareAtPrice *decimal.Decimal `json:"compare_at_price,omitempty"`
	StockQuantity  int              `json:"stock_quantity" validate:"gte=0"`
	CategoryID     int64            `json:"category_id" validate:"required,gt=0"`
	CategoryName   string           `json:"category_name"`
	VendorID       int64            `json:"vendor_id" validate:"required,gt=0"`
	VendorName     string           `json:"vendor_name"`
	Featured       bool             `json:"featured"`
	Status         string           `json:"status" validate:"required,oneof=active inactive"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ProductDeletedPayload is the data of a product.deleted event.
type ProductDeletedPayload struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// ProductWriter is the part of the catalog service the projector drives.
// Upserts and deletes arrive on separate topics with no ordering between
// them; both carry the event time so the newest change wins.
type ProductWriter interface {
	UpsertProduct(ctx context.Context, p *domain.Product) error
	DeactivateProduct(ctx context.Context, id int64, at time.Time) error
}

// Projector routes product events to the catalog service.
type Projector struct {
	products ProductWriter
	logger   *slog.Logger
}

// NewProjector creates a projector writing through products.
func NewProjector(products ProductWriter, logger *slog.Logger) *Projector {
	return &Projector{products: products, logger: logger}
}

// Topics lists the topics Handle understands.
func (p *Projector) Topics() []string {
	return []string{TopicProductUpserted, TopicProductDeleted}
}

// Handle processes one event. Malformed payloads are permanent failures; they
// would fail the same way on every retry.
func (p *Projector) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductUpserted:
		return p.handleUpserted(ctx, event)
	case TopicProductDeleted:
		return p.handleDeleted(ctx, event)
	default:
		p.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

func (p *Projector) handleUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductPayload
	if err := validator.DecodeAndValidate(event.Data, &data); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("product.upserted %s: %w", event.EventID, err))
	}
	if err := data.checkPrices(); err != nil {
		return pkgkafka.Permanent(fmt.Errorf("product.upserted %s: %w", event.EventID, err))
	}

	product := data.toDomain(event.Timestamp)
	if err := p.products.UpsertProduct(ctx, product); err != nil {
		return classify(fmt.Errorf("project product %d: %w", data.ID, err))
	}
	return nil
}

func (p *Projector) handleDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedPayload
	if err := validator.DecodeAndValidate(event.Data, &data); err != nil {
		if id, convErr := strconv.ParseInt(event.AggregateID, 10, 64); convErr == nil && id > 0 {
			data.ID = id
		} else {
			return pkgkafka.Permanent(fmt.Errorf("product.deleted %s: %w", event.EventID, err))
		}
	}

	if err := p.products.DeactivateProduct(ctx, data.ID, event.Timestamp); err != nil {
		return classify(fmt.Errorf("deactivate product %d: %w", data.ID, err))
	}
	return nil
}

// checkPrices runs before anything compares or prints the amounts.
func (d *ProductPayload) checkPrices() error {
	if err := domain.CheckPrice(d.Price); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	if d.CompareAtPrice != nil {
		if err := domain.CheckPrice(*d.CompareAtPrice); err != nil {
			return fmt.Errorf("compare_at_price: %w", err)
		}
	}
	return nil
}

func (d *ProductPayload) toDomain(eventTime time.Time) *domain.Product {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = eventTime
	}
	s := d.Slug
	if s == "" {
		s = slug.WithID(d.Name, d.ID)
	}
	return &domain.Product{
		ID:             d.ID,
		Name:           d.Name,
		Slug:           s,
		Description:    d.Description,
		Price:          d.Price,
		CompareAtPrice: d.CompareAtPrice,
		StockQuantity:  d.StockQuantity,
		CategoryID:     d.CategoryID,
		CategoryName:   d.CategoryName,
		VendorID:       d.VendorID,
		VendorName:     d.VendorName,
		Featured:       d.Featured,
		Status:         domain.ProductStatus(d.Status),
		CreatedAt:      createdAt.UTC(),
		UpdatedAt:      eventTime.UTC(),
	}
}

// classify marks domain rejections permanent so they skip retries.
func classify(err error) error {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return pkgkafka.Permanent(err)
	}
	return err
}

package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/storefront/internal/catalog"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/pkg/httputil"
)

// PageResolver resolves one catalog page from raw parameters.
type PageResolver interface {
	ResolveCatalogPage(ctx context.Context, raw catalog.Params, pageSize int) (*domain.PageResult, error)
}

// CatalogHandler handles HTTP requests for catalog endpoints.
type CatalogHandler struct {
	resolver PageResolver
	pageSize int
	logger   *slog.Logger
}

// NewCatalogHandler creates a catalog handler serving pages of pageSize items.
func NewCatalogHandler(resolver PageResolver, pageSize int, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{resolver: resolver, pageSize: pageSize, logger: logger}
}

// ListProducts handles GET /api/v1/catalog/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, catalog.ParamsFromQuery(r.URL.Query()))
}

// CategoryProducts handles GET /api/v1/catalog/categories/{categoryID}/products
func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "categoryID"))
	if !ok {
		return
	}

	params := catalog.ParamsFromQuery(r.URL.Query())
	delete(params, "category")
	params["category_id"] = strconv.FormatInt(id, 10)
	h.resolve(w, r, params)
}

// Search handles GET /api/v1/catalog/search
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	params := catalog.ParamsFromQuery(r.URL.Query())

	q := strings.TrimSpace(params["q"])
	if q == "" {
		q = strings.TrimSpace(params["search"])
	}
	if q == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "q is required"},
		})
		return
	}

	params["q"] = q
	h.resolve(w, r, params)
}

func (h *CatalogHandler) resolve(w http.ResponseWriter, r *http.Request, params catalog.Params) {
	page, err := h.resolver.ResolveCatalogPage(r.Context(), params, h.pageSize)
	if err != nil {
		// Either the client is gone or the Timeout middleware answers 504
		// once this returns. Writing here would double the status line.
		if ctxErr := r.Context().Err(); ctxErr != nil {
			h.logger.DebugContext(r.Context(), "catalog request abandoned",
				slog.String("reason", ctxErr.Error()),
				slog.String("error", err.Error()),
			)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}

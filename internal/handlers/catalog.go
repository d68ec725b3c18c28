package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/warehouse-manage/api/internal/platform/httpx"
	"github.com/warehouse-manage/api/internal/services"
)

// CatalogHandlers exposes read-only product and package reference data.
type CatalogHandlers struct {
	catalog services.CatalogService
}

// NewCatalogHandlers constructs a new CatalogHandlers instance.
func NewCatalogHandlers(catalog services.CatalogService) *CatalogHandlers {
	return &CatalogHandlers{catalog: catalog}
}

// Routes registers the /catalog endpoints.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/products", h.listProducts)
	r.Get("/packages", h.listPackages)
}

type productResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type packageResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProductID       string `json:"productId"`
	Quantity        int64  `json:"quantity"`
	QuantityProduct int64  `json:"quantityProduct"`
}

func (h *CatalogHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	catalog, err := h.catalog.LoadCatalog(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("upstream_failed", err.Error(), http.StatusBadGateway))
		return
	}

	items := make([]productResponse, len(catalog.Products))
	for i, p := range catalog.Products {
		items[i] = productResponse(p)
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CatalogHandlers) listPackages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.catalog == nil {
		httpx.WriteError(ctx, w, httpx.NewError("catalog_unavailable", "catalog service unavailable", http.StatusServiceUnavailable))
		return
	}

	catalog, err := h.catalog.LoadCatalog(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("upstream_failed", err.Error(), http.StatusBadGateway))
		return
	}

	items := make([]packageResponse, len(catalog.Packages))
	for i, p := range catalog.Packages {
		items[i] = packageResponse{
			ID:              p.ID,
			Name:            p.Name,
			ProductID:       p.ProductID,
			Quantity:        p.Quantity,
			QuantityProduct: p.QuantityProduct,
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"items": items})
}

package httpapi

import (
	"context"
	"net/http"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

type catalogRepository struct {
	client *Client
}

// NewCatalogRepository constructs the catalog reader backed by the business API.
func NewCatalogRepository(client *Client) repositories.CatalogRepository {
	return &catalogRepository{client: client}
}

type productPayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity"`
}

type packagePayload struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProductID       string `json:"productId"`
	Quantity        int64  `json:"quantity"`
	QuantityProduct int64  `json:"quantityProduct"`
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var payload struct {
		Items []productPayload `json:"items"`
	}
	if err := r.client.doJSON(ctx, "catalog.listProducts", http.MethodGet, "/products", nil, &payload); err != nil {
		return nil, err
	}

	products := make([]domain.Product, len(payload.Items))
	for i, item := range payload.Items {
		products[i] = domain.Product{
			ID:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return products, nil
}

func (r *catalogRepository) ListPackages(ctx context.Context) ([]domain.Package, error) {
	var payload struct {
		Items []packagePayload `json:"items"`
	}
	if err := r.client.doJSON(ctx, "catalog.listPackages", http.MethodGet, "/packages", nil, &payload); err != nil {
		return nil, err
	}

	packages := make([]domain.Package, len(payload.Items))
	for i, item := range payload.Items {
		packages[i] = domain.Package{
			ID:              item.ID,
			Name:            item.Name,
			ProductID:       item.ProductID,
			Quantity:        item.Quantity,
			QuantityProduct: item.QuantityProduct,
		}
	}
	return packages, nil
}

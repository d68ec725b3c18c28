package httpapi

import (
	"context"

	"github.com/warehouse-manage/api/internal/repositories"
)

type registry struct {
	catalog  repositories.CatalogRepository
	forecast repositories.ForecastRepository
	orders   repositories.OrderRepository
	receipts repositories.ReceiptRepository
}

// NewRegistry bundles the business-API backed repositories behind the shared
// client.
func NewRegistry(client *Client) repositories.Registry {
	return &registry{
		catalog:  NewCatalogRepository(client),
		forecast: NewForecastRepository(client),
		orders:   NewOrderRepository(client),
		receipts: NewReceiptRepository(client),
	}
}

func (r *registry) Close(context.Context) error { return nil }

func (r *registry) Catalog() repositories.CatalogRepository   { return r.catalog }
func (r *registry) Forecast() repositories.ForecastRepository { return r.forecast }
func (r *registry) Orders() repositories.OrderRepository      { return r.orders }
func (r *registry) Receipts() repositories.ReceiptRepository  { return r.receipts }

package repositories

import (
	"context"

	domain "github.com/warehouse-manage/api/internal/domain"
)

// Registry exposes typed accessors for the upstream business-API
// collaborators and lifecycle hooks for dependency injection. The upstream
// service owns all persistence; this process only composes and forwards.
type Registry interface {
	Close(ctx context.Context) error

	Catalog() CatalogRepository
	Forecast() ForecastRepository
	Orders() OrderRepository
	Receipts() ReceiptRepository
}

// CatalogRepository reads the current product and package catalogs.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ListPackages(ctx context.Context) ([]domain.Package, error)
}

// ForecastRepository asks the upstream stock projection source for estimated
// availability of the requested items at a future delivery date.
type ForecastRepository interface {
	ProjectStock(ctx context.Context, req domain.ForecastRequest) (ForecastProjection, error)
}

// ForecastProjection is the raw upstream projection. Shortage figures are
// re-derived service side so a disagreeing upstream cannot understate a gap.
type ForecastProjection struct {
	Lines          []domain.ForecastLine
	HasAnyShortage bool
}

// OrderRepository hands finished order payloads to the upstream order store.
type OrderRepository interface {
	CreateOrder(ctx context.Context, req OrderCreateRequest) (domain.CreatedOrder, error)
}

// OrderCreateRequest is the normalized payload accepted by the order store.
// Lines carry the resolved product id (and package product id when the line
// selects a package), the requested amount, the total line price, and the
// per-line sale.
type OrderCreateRequest struct {
	CustomerID            string
	DeliverID             string
	Sale                  int64
	AmountCustomerPayment int64
	ShipCost              int64
	DeliveryDate          *domain.Date
	CreatedBy             string
	Lines                 []OrderCreateLine
}

// OrderCreateLine is one normalized order line in the creation payload.
type OrderCreateLine struct {
	ProductID        string
	PackageProductID *string
	Amount           int64
	Price            int64
	Sale             int64
}

// ReceiptRepository renders printable markup for a created order. Failures
// here never fail the order itself.
type ReceiptRepository interface {
	RenderReceipt(ctx context.Context, req ReceiptRequest) (Receipt, error)
}

// ReceiptRequest keys the rendered document to a created order.
type ReceiptRequest struct {
	OrderID string
}

// Receipt carries the printable markup returned by the upstream renderer.
type Receipt struct {
	OrderID string
	HTML    string
}

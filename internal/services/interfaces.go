package services

import (
	"context"

	domain "github.com/warehouse-manage/api/internal/domain"
)

// Catalog is the loaded reference data a draft order is composed against.
// Snapshots are fetched once per interaction and treated as read-only.
type Catalog struct {
	Products []domain.Product
	Packages []domain.Package
}

// CatalogService loads product and package reference data.
type CatalogService interface {
	LoadCatalog(ctx context.Context) (Catalog, error)
}

// UnitResolver resolves a line selection against loaded catalogs, deriving
// the underlying product identity and package-to-unit price conversions.
type UnitResolver interface {
	Resolve(ref domain.SelectionRef, catalog Catalog) (ResolvedUnit, error)
}

// OrderPricingEngine derives line and order totals for a draft order.
type OrderPricingEngine interface {
	LineTotal(line domain.LineSelection) (int64, bool)
	Quote(order domain.Order) domain.OrderBreakdown
}

// ForecastEngine checks projected inventory coverage for a draft order at a
// future delivery date.
type ForecastEngine interface {
	Forecast(ctx context.Context, deliveryDate domain.Date, lines []domain.LineSelection) (domain.ForecastReport, error)
}

// SubmissionWorkflow validates, prices, optionally forecasts, and commits a
// draft order. When a forecast reports shortages the attempt parks until the
// caller confirms or cancels it.
type SubmissionWorkflow interface {
	Submit(ctx context.Context, cmd SubmitOrderCommand) (SubmissionResult, error)
	Confirm(ctx context.Context, cmd ConfirmSubmissionCommand) (SubmissionResult, error)
	Cancel(ctx context.Context, cmd CancelSubmissionCommand) error
}

// SubmitOrderCommand carries a draft order into the submission workflow.
type SubmitOrderCommand struct {
	Order domain.Order
	// PlaceOrder marks a future-dated place order: the delivery date becomes
	// mandatory and the inventory forecast gates the commit.
	PlaceOrder bool
	// Force skips the shortage gate even when a delivery date is present.
	Force bool
}

// ConfirmSubmissionCommand resumes a parked attempt, committing the exact
// payload that was forecast.
type ConfirmSubmissionCommand struct {
	AttemptID string
}

// CancelSubmissionCommand discards a parked attempt.
type CancelSubmissionCommand struct {
	AttemptID string
}

// SubmissionStatus reports where an attempt ended up after a workflow call.
type SubmissionStatus string

const (
	// SubmissionCommitted means the order was accepted by the order store.
	SubmissionCommitted SubmissionStatus = "committed"
	// SubmissionAwaitingConfirmation means shortages were found and the
	// attempt is parked until confirmed or cancelled.
	SubmissionAwaitingConfirmation SubmissionStatus = "awaiting_confirmation"
)

// SubmissionResult is the outcome of Submit or Confirm.
type SubmissionResult struct {
	Status    SubmissionStatus
	AttemptID string
	Order     domain.CreatedOrder
	Breakdown domain.OrderBreakdown
	Report    *domain.ForecastReport
}

// ResolvedUnit is the output of resolving a line selection.
type ResolvedUnit struct {
	ProductID        string
	PackageProductID *string
	// QuantityProduct is 1 for bare products, the package multiple otherwise.
	QuantityProduct int64
	// LineSeedPrice is the default total price for one selected unit: the
	// product price for bare products, product price x QuantityProduct for
	// packages (no markup assumed).
	LineSeedPrice int64
}

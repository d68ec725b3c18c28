package domain

import (
	"time"
)

// Product is a catalog item sold by the single base unit. Reference data
// fetched from the upstream business API; never mutated by this service.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Quantity int64
}

// Package is a sellable bundle wrapping a fixed multiple of a base product.
// QuantityProduct is the number of product units contained in one package;
// Quantity is the standalone stock count of packages.
type Package struct {
	ID              string
	Name            string
	ProductID       string
	Quantity        int64
	QuantityProduct int64
}

// LineSelection is one order line while an order is being composed.
// Amount and Price are pointers so "not yet entered" is distinguishable from
// zero; a line missing selection, amount, or price is incomplete and excluded
// from totals rather than treated as an error.
type LineSelection struct {
	Selection SelectionRef
	// ProductID is the underlying product id, resolved even for package
	// selections; downstream stock and receipt systems key on it.
	ProductID string
	// PackageProductID is set only when the selection is a package.
	PackageProductID *string
	// Amount is the requested quantity of the selected unit (packages or bare
	// product units, never intermixed).
	Amount *int64
	// Price is the total price for the whole line quantity, not per unit.
	Price *int64
	// Sale is a flat per-line discount amount.
	Sale int64
}

// Complete reports whether the line carries everything required to count it
// in aggregates: a selection, an amount, and a price.
func (l LineSelection) Complete() bool {
	return !l.Selection.IsZero() && l.Amount != nil && l.Price != nil
}

// Order is a draft order under composition. DeliveryDate is set for place
// orders only and triggers the inventory forecast before submission.
type Order struct {
	CustomerID            string
	DeliverID             string
	Lines                 []LineSelection
	Sale                  int64
	AmountCustomerPayment int64
	ShipCost              int64
	DeliveryDate          *Date
	CreatedBy             string
}

// CreatedOrder identifies an order accepted by the upstream order store.
type CreatedOrder struct {
	ID    string
	Total int64
}

// ForecastItem is one requirement row sent to the stock projection source.
type ForecastItem struct {
	ProductID        string
	PackageProductID *string
	RequiredQuantity int64
}

// ForecastRequest asks the projection source for estimated availability of
// each item at the delivery date.
type ForecastRequest struct {
	DeliveryDate Date
	Items        []ForecastItem
}

// ForecastLine is the per-item projection verdict. EstimatedQuantity and
// CurrentQuantity come from the projection source; Shortage is the positive
// gap between required and estimated quantity.
type ForecastLine struct {
	ProductName       string
	ProductID         string
	PackageProductID  *string
	RequiredQuantity  int64
	EstimatedQuantity int64
	CurrentQuantity   int64
	Shortage          int64
	HasShortage       bool
}

// ForecastReport aggregates the projection verdicts for one submission
// attempt. It is computed once per attempt and discarded after the user
// confirms or cancels.
type ForecastReport struct {
	DeliveryDate   Date
	Lines          []ForecastLine
	HasAnyShortage bool
	GeneratedAt    time.Time
}

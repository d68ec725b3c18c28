package services

import (
	domain "github.com/warehouse-manage/api/internal/domain"
)

type orderPricingEngine struct{}

// NewOrderPricingEngine constructs the pure line/order aggregation engine.
// It holds no state: quote results are recomputed from scratch after every
// mutation of the draft order, never patched incrementally.
func NewOrderPricingEngine() OrderPricingEngine {
	return orderPricingEngine{}
}

// LineTotal computes amount*price - sale for a complete line. The second
// return value is false for incomplete lines, which contribute nothing to
// aggregates. The raw total keeps its sign when the sale exceeds the
// subtotal; display clamping is the caller's concern.
func (orderPricingEngine) LineTotal(line domain.LineSelection) (int64, bool) {
	if !line.Complete() {
		return 0, false
	}
	return *line.Amount * *line.Price - line.Sale, true
}

// Quote aggregates a draft order into an OrderBreakdown. GrandTotal sums the
// complete lines; OrderTotal subtracts the order-level sale without clamping;
// RemainingAmount is OrderTotal minus the amount already paid and may go
// negative when the customer overpaid.
func (e orderPricingEngine) Quote(order domain.Order) domain.OrderBreakdown {
	lines := make([]domain.LineBreakdown, 0, len(order.Lines))
	var grandTotal int64

	for _, line := range order.Lines {
		lb := domain.LineBreakdown{
			Selection:        line.Selection,
			ProductID:        line.ProductID,
			PackageProductID: line.PackageProductID,
			Sale:             line.Sale,
		}
		if total, ok := e.LineTotal(line); ok {
			lb.Amount = *line.Amount
			lb.Price = *line.Price
			lb.Subtotal = *line.Amount * *line.Price
			lb.Total = total
			lb.DisplayTotal = clampNonNegative(total)
			lb.Complete = true
			grandTotal += total
		}
		lines = append(lines, lb)
	}

	orderTotal := grandTotal - order.Sale
	return domain.OrderBreakdown{
		GrandTotal:            grandTotal,
		OrderSale:             order.Sale,
		OrderTotal:            orderTotal,
		DisplayTotal:          clampNonNegative(orderTotal),
		ShipCost:              order.ShipCost,
		AmountCustomerPayment: order.AmountCustomerPayment,
		RemainingAmount:       orderTotal - order.AmountCustomerPayment,
		Lines:                 lines,
	}
}

func clampNonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

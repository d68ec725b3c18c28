package domain

// LineBreakdown stores the per-line pricing outputs after running the engine.
// Total keeps its raw sign even when the line sale exceeds the subtotal;
// DisplayTotal is the same figure floored at zero for rendering.
type LineBreakdown struct {
	Selection        SelectionRef
	ProductID        string
	PackageProductID *string
	Amount           int64
	Price            int64
	Sale             int64
	Subtotal         int64
	Total            int64
	DisplayTotal     int64
	Complete         bool
}

// OrderBreakdown captures the aggregated monetary results of pricing a draft
// order. OrderTotal and RemainingAmount are deliberately unclamped: a
// negative remaining amount is a real refund or credit obligation.
type OrderBreakdown struct {
	GrandTotal            int64
	OrderSale             int64
	OrderTotal            int64
	DisplayTotal          int64
	ShipCost              int64
	AmountCustomerPayment int64
	RemainingAmount       int64
	Lines                 []LineBreakdown
}

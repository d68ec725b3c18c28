package httpapi

import (
	"context"
	"net/http"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

type orderRepository struct {
	client *Client
}

// NewOrderRepository constructs the order store writer backed by the business API.
func NewOrderRepository(client *Client) repositories.OrderRepository {
	return &orderRepository{client: client}
}

type orderLinePayload struct {
	ProductID        string  `json:"productId"`
	PackageProductID *string `json:"packageProductId,omitempty"`
	Amount           int64   `json:"amount"`
	Price            int64   `json:"price"`
	Sale             int64   `json:"sale,omitempty"`
}

type orderCreatePayload struct {
	CustomerID            string             `json:"customerId"`
	DeliverID             string             `json:"deliverId"`
	Sale                  int64              `json:"sale"`
	AmountCustomerPayment int64              `json:"amountCustomerPayment"`
	ShipCost              int64              `json:"shipCost"`
	DeliveryDate          string             `json:"deliveryDate,omitempty"`
	CreatedBy             string             `json:"createdBy,omitempty"`
	Lines                 []orderLinePayload `json:"lineItems"`
}

type orderCreatedPayload struct {
	ID    string `json:"id"`
	Total int64  `json:"total"`
}

func (r *orderRepository) CreateOrder(ctx context.Context, req repositories.OrderCreateRequest) (domain.CreatedOrder, error) {
	body := orderCreatePayload{
		CustomerID:            req.CustomerID,
		DeliverID:             req.DeliverID,
		Sale:                  req.Sale,
		AmountCustomerPayment: req.AmountCustomerPayment,
		ShipCost:              req.ShipCost,
		CreatedBy:             req.CreatedBy,
		Lines:                 make([]orderLinePayload, len(req.Lines)),
	}
	path := "/orders"
	if req.DeliveryDate != nil && !req.DeliveryDate.IsZero() {
		body.DeliveryDate = req.DeliveryDate.String()
		path = "/place-orders"
	}
	for i, line := range req.Lines {
		body.Lines[i] = orderLinePayload{
			ProductID:        line.ProductID,
			PackageProductID: line.PackageProductID,
			Amount:           line.Amount,
			Price:            line.Price,
			Sale:             line.Sale,
		}
	}

	var payload orderCreatedPayload
	if err := r.client.doJSON(ctx, "orders.create", http.MethodPost, path, body, &payload); err != nil {
		return domain.CreatedOrder{}, err
	}
	return domain.CreatedOrder{ID: payload.ID, Total: payload.Total}, nil
}

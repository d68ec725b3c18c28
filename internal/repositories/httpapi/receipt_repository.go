package httpapi

import (
	"context"
	"net/http"

	"github.com/warehouse-manage/api/internal/repositories"
)

type receiptRepository struct {
	client *Client
}

// NewReceiptRepository constructs the receipt renderer backed by the business API.
func NewReceiptRepository(client *Client) repositories.ReceiptRepository {
	return &receiptRepository{client: client}
}

type receiptPayload struct {
	OrderID string `json:"orderId"`
	HTML    string `json:"html"`
}

func (r *receiptRepository) RenderReceipt(ctx context.Context, req repositories.ReceiptRequest) (repositories.Receipt, error) {
	var payload receiptPayload
	path := "/orders/" + req.OrderID + "/receipt"
	if err := r.client.doJSON(ctx, "receipts.render", http.MethodGet, path, nil, &payload); err != nil {
		return repositories.Receipt{}, err
	}
	return repositories.Receipt{OrderID: payload.OrderID, HTML: payload.HTML}, nil
}

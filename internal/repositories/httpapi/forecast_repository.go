package httpapi

import (
	"context"
	"net/http"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

type forecastRepository struct {
	client *Client
}

// NewForecastRepository constructs the stock projection source backed by the
// business API.
func NewForecastRepository(client *Client) repositories.ForecastRepository {
	return &forecastRepository{client: client}
}

type forecastItemPayload struct {
	ProductID        string  `json:"productId,omitempty"`
	PackageProductID *string `json:"packageProductId,omitempty"`
	RequiredQuantity int64   `json:"requiredQuantity"`
}

type forecastRequestPayload struct {
	DeliveryDate string                `json:"deliveryDate"`
	Items        []forecastItemPayload `json:"items"`
}

type forecastLinePayload struct {
	ProductName       string  `json:"productName"`
	ProductID         string  `json:"productId"`
	PackageProductID  *string `json:"packageProductId,omitempty"`
	RequiredQuantity  int64   `json:"requiredQuantity"`
	EstimatedQuantity int64   `json:"estimatedQuantity"`
	CurrentQuantity   int64   `json:"currentQuantity"`
	Shortage          int64   `json:"shortage"`
	HasShortage       bool    `json:"hasShortage"`
}

type forecastResponsePayload struct {
	Items          []forecastLinePayload `json:"items"`
	HasAnyShortage bool                  `json:"hasAnyShortage"`
}

func (r *forecastRepository) ProjectStock(ctx context.Context, req domain.ForecastRequest) (repositories.ForecastProjection, error) {
	body := forecastRequestPayload{
		DeliveryDate: req.DeliveryDate.String(),
		Items:        make([]forecastItemPayload, len(req.Items)),
	}
	for i, item := range req.Items {
		body.Items[i] = forecastItemPayload{
			ProductID:        item.ProductID,
			PackageProductID: item.PackageProductID,
			RequiredQuantity: item.RequiredQuantity,
		}
	}

	var payload forecastResponsePayload
	if err := r.client.doJSON(ctx, "forecast.projectStock", http.MethodPost, "/stock/forecast", body, &payload); err != nil {
		return repositories.ForecastProjection{}, err
	}

	projection := repositories.ForecastProjection{
		Lines:          make([]domain.ForecastLine, len(payload.Items)),
		HasAnyShortage: payload.HasAnyShortage,
	}
	for i, item := range payload.Items {
		projection.Lines[i] = domain.ForecastLine{
			ProductName:       item.ProductName,
			ProductID:         item.ProductID,
			PackageProductID:  item.PackageProductID,
			RequiredQuantity:  item.RequiredQuantity,
			EstimatedQuantity: item.EstimatedQuantity,
			CurrentQuantity:   item.CurrentQuantity,
			Shortage:          item.Shortage,
			HasShortage:       item.HasShortage,
		}
	}
	return projection, nil
}

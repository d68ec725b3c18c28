package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/warehouse-manage/api/internal/domain"
	"github.com/warehouse-manage/api/internal/repositories"
)

var (
	// ErrForecastInvalidInput signals the caller provided invalid arguments.
	ErrForecastInvalidInput = errors.New("forecast: invalid input")
	// ErrForecastUnavailable indicates the stock projection source failed.
	ErrForecastUnavailable = errors.New("forecast: projection unavailable")
)

// ForecastEngineDeps bundles the collaborators required to construct a
// forecast engine.
type ForecastEngineDeps struct {
	Projections repositories.ForecastRepository
	Clock       func() time.Time
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type forecastEngine struct {
	projections repositories.ForecastRepository
	now         func() time.Time
	logger      func(context.Context, string, map[string]any)
}

// NewForecastEngine wires dependencies into a concrete ForecastEngine.
func NewForecastEngine(deps ForecastEngineDeps) (ForecastEngine, error) {
	if deps.Projections == nil {
		return nil, errors.New("forecast engine: forecast repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &forecastEngine{
		projections: deps.Projections,
		now: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// Forecast builds one requirement row per complete line and asks the
// projection source for estimated availability at the delivery date.
// Shortage figures are re-derived from the returned quantities so an upstream
// that disagrees with its own numbers cannot understate a gap.
func (e *forecastEngine) Forecast(ctx context.Context, deliveryDate domain.Date, lines []domain.LineSelection) (domain.ForecastReport, error) {
	if deliveryDate.IsZero() {
		return domain.ForecastReport{}, fmt.Errorf("%w: delivery date is required", ErrForecastInvalidInput)
	}

	items := BuildForecastItems(lines)
	if len(items) == 0 {
		return domain.ForecastReport{}, fmt.Errorf("%w: no complete lines to forecast", ErrForecastInvalidInput)
	}

	projection, err := e.projections.ProjectStock(ctx, domain.ForecastRequest{
		DeliveryDate: deliveryDate,
		Items:        items,
	})
	if err != nil {
		e.logger(ctx, "forecast.projection_failed", map[string]any{
			"deliveryDate": deliveryDate.String(),
			"items":        len(items),
			"error":        err.Error(),
		})
		return domain.ForecastReport{}, fmt.Errorf("%w: %s", ErrForecastUnavailable, err.Error())
	}

	report := domain.ForecastReport{
		DeliveryDate: deliveryDate,
		Lines:        make([]domain.ForecastLine, len(projection.Lines)),
		GeneratedAt:  e.now(),
	}
	for i, line := range projection.Lines {
		shortage := line.RequiredQuantity - line.EstimatedQuantity
		if shortage < 0 {
			shortage = 0
		}
		line.Shortage = shortage
		line.HasShortage = shortage > 0
		report.Lines[i] = line
		if line.HasShortage {
			report.HasAnyShortage = true
		}
	}

	return report, nil
}

// BuildForecastItems maps complete lines to requirement rows, carrying the
// resolved product id, the package product id for package lines, and the
// requested amount as the required quantity. Incomplete lines are skipped.
func BuildForecastItems(lines []domain.LineSelection) []domain.ForecastItem {
	items := make([]domain.ForecastItem, 0, len(lines))
	for _, line := range lines {
		if !line.Complete() {
			continue
		}
		items = append(items, domain.ForecastItem{
			ProductID:        line.ProductID,
			PackageProductID: line.PackageProductID,
			RequiredQuantity: *line.Amount,
		})
	}
	return items
}

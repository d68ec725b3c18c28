package di

import (
	"context"
	"errors"
	"fmt"

	"github.com/warehouse-manage/api/internal/platform/config"
	"github.com/warehouse-manage/api/internal/repositories"
	"github.com/warehouse-manage/api/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
// Concrete implementations are assembled via dependency injection in
// NewContainer.
type Services struct {
	Catalog  services.CatalogService
	Resolver services.UnitResolver
	Pricing  services.OrderPricingEngine
	Forecast services.ForecastEngine
	Workflow services.SubmissionWorkflow
}

// ContainerDeps carries the cross-cutting hooks threaded into every service.
type ContainerDeps struct {
	Logger func(ctx context.Context, event string, fields map[string]any)
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// NewContainer constructs the runtime dependencies. Production wiring
// provides the business-API backed registry, while tests can supply stubs.
func NewContainer(cfg config.Config, reg repositories.Registry, deps ContainerDeps) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}

	svc, err := buildServices(cfg, reg, deps)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases repository clients and any background resources.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(cfg config.Config, reg repositories.Registry, deps ContainerDeps) (Services, error) {
	var svc Services

	catalog, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: reg.Catalog(),
		Logger:  deps.Logger,
	})
	if err != nil {
		return svc, fmt.Errorf("build catalog service: %w", err)
	}

	forecast, err := services.NewForecastEngine(services.ForecastEngineDeps{
		Projections: reg.Forecast(),
		Logger:      deps.Logger,
	})
	if err != nil {
		return svc, fmt.Errorf("build forecast engine: %w", err)
	}

	resolver := services.NewUnitResolver()
	pricing := services.NewOrderPricingEngine()

	workflow, err := services.NewSubmissionWorkflow(services.SubmissionWorkflowDeps{
		Catalog:        catalog,
		Resolver:       resolver,
		Pricing:        pricing,
		Forecast:       forecast,
		Orders:         reg.Orders(),
		Receipts:       reg.Receipts(),
		Logger:         deps.Logger,
		AttemptTTL:     cfg.Workflow.AttemptTTL,
		ReceiptTimeout: cfg.Workflow.ReceiptTimeout,
	})
	if err != nil {
		return svc, fmt.Errorf("build submission workflow: %w", err)
	}

	svc.Catalog = catalog
	svc.Resolver = resolver
	svc.Pricing = pricing
	svc.Forecast = forecast
	svc.Workflow = workflow
	return svc, nil
}

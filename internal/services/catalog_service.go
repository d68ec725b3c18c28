package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/warehouse-manage/api/internal/repositories"
)

var (
	// ErrCatalogUnavailable indicates the upstream catalog source failed.
	ErrCatalogUnavailable = errors.New("catalog: source unavailable")
)

// CatalogServiceDeps bundles the collaborators for the catalog service.
type CatalogServiceDeps struct {
	Catalog repositories.CatalogRepository
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger func(context.Context, string, map[string]any)
}

// NewCatalogService wires dependencies into a concrete CatalogService.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("catalog service: catalog repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &catalogService{repo: deps.Catalog, logger: logger}, nil
}

// LoadCatalog fetches the current product and package reference data in one
// snapshot. Both lists come from the same upstream, so a failure of either
// call fails the whole load.
func (s *catalogService) LoadCatalog(ctx context.Context) (Catalog, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		s.logger(ctx, "catalog.products_failed", map[string]any{"error": err.Error()})
		return Catalog{}, fmt.Errorf("%w: %s", ErrCatalogUnavailable, err.Error())
	}
	packages, err := s.repo.ListPackages(ctx)
	if err != nil {
		s.logger(ctx, "catalog.packages_failed", map[string]any{"error": err.Error()})
		return Catalog{}, fmt.Errorf("%w: %s", ErrCatalogUnavailable, err.Error())
	}
	return Catalog{Products: products, Packages: packages}, nil
}

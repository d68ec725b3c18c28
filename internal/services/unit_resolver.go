package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	domain "github.com/warehouse-manage/api/internal/domain"
)

var (
	// ErrSelectionEmpty indicates the line has no product or package selected.
	ErrSelectionEmpty = errors.New("unit resolver: empty selection")
	// ErrSelectionUnknownProduct indicates the selected product is not in the loaded catalog.
	ErrSelectionUnknownProduct = errors.New("unit resolver: unknown product")
	// ErrSelectionUnknownPackage indicates the selected package is not in the loaded catalog.
	ErrSelectionUnknownPackage = errors.New("unit resolver: unknown package")
	// ErrSelectionInvalidPackage indicates the package record itself is unusable.
	ErrSelectionInvalidPackage = errors.New("unit resolver: invalid package")
)

type unitResolver struct{}

// NewUnitResolver constructs the catalog-backed unit resolver.
func NewUnitResolver() UnitResolver {
	return unitResolver{}
}

func (unitResolver) Resolve(ref domain.SelectionRef, catalog Catalog) (ResolvedUnit, error) {
	if ref.IsZero() {
		return ResolvedUnit{}, ErrSelectionEmpty
	}

	switch ref.Kind {
	case domain.SelectionProduct:
		product, ok := findProduct(catalog.Products, ref.ID)
		if !ok {
			return ResolvedUnit{}, fmt.Errorf("%w: %s", ErrSelectionUnknownProduct, ref.ID)
		}
		return ResolvedUnit{
			ProductID:       product.ID,
			QuantityProduct: 1,
			LineSeedPrice:   product.Price,
		}, nil

	case domain.SelectionPackage:
		pkg, ok := findPackage(catalog.Packages, ref.ID)
		if !ok {
			return ResolvedUnit{}, fmt.Errorf("%w: %s", ErrSelectionUnknownPackage, ref.ID)
		}
		if pkg.QuantityProduct <= 0 {
			return ResolvedUnit{}, fmt.Errorf("%w: package %s has non-positive quantityProduct", ErrSelectionInvalidPackage, pkg.ID)
		}
		product, ok := findProduct(catalog.Products, pkg.ProductID)
		if !ok {
			return ResolvedUnit{}, fmt.Errorf("%w: package %s references product %s", ErrSelectionUnknownProduct, pkg.ID, pkg.ProductID)
		}
		packageID := pkg.ID
		return ResolvedUnit{
			ProductID:        product.ID,
			PackageProductID: &packageID,
			QuantityProduct:  pkg.QuantityProduct,
			LineSeedPrice:    product.Price * pkg.QuantityProduct,
		}, nil

	default:
		return ResolvedUnit{}, fmt.Errorf("%w: kind %q", ErrSelectionEmpty, ref.Kind)
	}
}

// UnitPrice derives the displayed per-unit price from a total line price.
// Exact for integer ratios; fractional ratios keep full decimal precision so
// display rounding never feeds back into stored totals.
func (u ResolvedUnit) UnitPrice(totalPrice int64) decimal.Decimal {
	qty := u.QuantityProduct
	if qty <= 0 {
		qty = 1
	}
	return decimal.NewFromInt(totalPrice).Div(decimal.NewFromInt(qty))
}

// TotalFromUnitPrice converts an edited per-unit price back into the stored
// total line price. The total is always recomputed from the catalog's current
// package multiple, never from a previously derived unit price, so repeated
// edits cannot compound rounding drift.
func (u ResolvedUnit) TotalFromUnitPrice(unitPrice decimal.Decimal) int64 {
	qty := u.QuantityProduct
	if qty <= 0 {
		qty = 1
	}
	return unitPrice.Mul(decimal.NewFromInt(qty)).Round(0).IntPart()
}

func findProduct(products []domain.Product, id string) (domain.Product, bool) {
	want := strings.TrimSpace(id)
	for _, p := range products {
		if p.ID == want {
			return p, true
		}
	}
	return domain.Product{}, false
}

func findPackage(packages []domain.Package, id string) (domain.Package, bool) {
	want := strings.TrimSpace(id)
	for _, p := range packages {
		if p.ID == want {
			return p, true
		}
	}
	return domain.Package{}, false
}

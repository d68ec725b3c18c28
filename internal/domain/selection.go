package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SelectionKind discriminates what a line selection points at.
type SelectionKind string

const (
	// SelectionProduct selects a bare product sold by the single unit.
	SelectionProduct SelectionKind = "product"
	// SelectionPackage selects a package bundling multiple product units.
	SelectionPackage SelectionKind = "package"
)

// ErrInvalidSelectionRef is returned when a wire-form selection key cannot be
// parsed into a SelectionRef.
var ErrInvalidSelectionRef = errors.New("domain: invalid selection ref")

// SelectionRef is a tagged reference to either a product or a package. The
// zero value means "nothing selected yet".
type SelectionRef struct {
	Kind SelectionKind
	ID   string
}

// ProductRef builds a selection pointing at a bare product.
func ProductRef(id string) SelectionRef {
	return SelectionRef{Kind: SelectionProduct, ID: id}
}

// PackageRef builds a selection pointing at a package.
func PackageRef(id string) SelectionRef {
	return SelectionRef{Kind: SelectionPackage, ID: id}
}

// IsZero reports whether the reference is empty.
func (r SelectionRef) IsZero() bool {
	return r.Kind == "" || strings.TrimSpace(r.ID) == ""
}

// IsPackage reports whether the reference points at a package.
func (r SelectionRef) IsPackage() bool {
	return r.Kind == SelectionPackage
}

// String renders the wire form "product:ID" / "package:ID", or "" when empty.
func (r SelectionRef) String() string {
	if r.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s:%s", r.Kind, r.ID)
}

// ParseSelectionRef parses the wire form "product:ID" / "package:ID". An
// empty string parses to the zero reference so callers can round-trip blank
// form fields.
func ParseSelectionRef(raw string) (SelectionRef, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return SelectionRef{}, nil
	}

	kind, id, found := strings.Cut(trimmed, ":")
	if !found {
		return SelectionRef{}, fmt.Errorf("%w: missing kind separator in %q", ErrInvalidSelectionRef, raw)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return SelectionRef{}, fmt.Errorf("%w: missing id in %q", ErrInvalidSelectionRef, raw)
	}

	switch SelectionKind(strings.TrimSpace(kind)) {
	case SelectionProduct:
		return ProductRef(id), nil
	case SelectionPackage:
		return PackageRef(id), nil
	default:
		return SelectionRef{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidSelectionRef, kind)
	}
}

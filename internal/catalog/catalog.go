// Package catalog talks to the remote product catalog service.
//
// The catalog is an external collaborator: this service only ever asks it
// whether a product exists and what its basic attributes are. Lookup failures
// are split into a closed set of error kinds so callers can tell "the product
// does not exist" apart from "the catalog could not be consulted".
package catalog

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a catalog item as returned by the product service.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
}

// Client provides product lookups by id.
type Client interface {
	Product(ctx context.Context, id string) (*Product, error)
}

// ProductNotFoundError indicates the catalog answered cleanly that the
// requested product does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// UnavailableError indicates the catalog could not be consulted: network
// failure, malformed response, or a non-404 error status. The product is not
// known to be invalid, only unverified.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return "product catalog unavailable: " + e.Err.Error()
}

func (e *UnavailableError) Unwrap() error { return e.Err }

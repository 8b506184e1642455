// Package cart defines the per-user cart aggregate and its validation rules.
package cart

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
)

// PurchaseOption selects how a line item is acquired.
type PurchaseOption string

const (
	PurchaseBuy  PurchaseOption = "buy"
	PurchaseRent PurchaseOption = "rent"
)

// Valid reports whether the option is one of the known values.
func (p PurchaseOption) Valid() bool {
	return p == PurchaseBuy || p == PurchaseRent
}

var (
	// ErrNotFound is returned when a user has no cart.
	ErrNotFound = errors.New("cart not found for the user")
	// ErrItemNotFound is returned when no line item matches the product id.
	ErrItemNotFound = errors.New("product not found in the cart")
)

// LineItem is a single purchase intent inside a cart. Customization is an
// opaque JSON object owned by the client; it is stored and returned untouched.
// StartDate and EndDate are only meaningful for rentals.
type LineItem struct {
	ProductID      string          `json:"productId"`
	Quantity       int             `json:"quantity"`
	PurchaseOption PurchaseOption  `json:"purchaseOption"`
	StartDate      *time.Time      `json:"startDate,omitempty"`
	EndDate        *time.Time      `json:"endDate,omitempty"`
	Customization  json.RawMessage `json:"customization,omitempty"`
}

// Cart holds a user's pending purchase intents. Items keep insertion order:
// adds append, removals splice in place. CreatedAt is set once, on first
// creation, and never updated by later mutations.
type Cart struct {
	UserEmail string     `json:"userEmail"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Repository persists carts keyed by user email. Implementations must
// serialize concurrent mutations for the same user so that two in-flight
// add/remove/update calls cannot lose each other's writes.
type Repository interface {
	// AddItems appends validated items to the user's cart, creating the cart
	// (and setting CreatedAt) when none exists. Returns the resulting cart.
	AddItems(ctx context.Context, userEmail string, items []LineItem) (*Cart, error)
	// Get returns the user's cart or ErrNotFound.
	Get(ctx context.Context, userEmail string) (*Cart, error)
	// RemoveItem removes the first line item matching productID.
	// Returns ErrNotFound or ErrItemNotFound accordingly.
	RemoveItem(ctx context.Context, userEmail, productID string) (*Cart, error)
	// SetQuantity overwrites the quantity of the matching line item in place.
	SetQuantity(ctx context.Context, userEmail, productID string, quantity int) (*Cart, error)
	// Delete removes the user's cart document entirely.
	Delete(ctx context.Context, userEmail string) error
}

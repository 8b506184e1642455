// Package order defines immutable order records and the cart-to-order
// conversion.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/hazalmir/cartsvc/internal/domain/cart"
)

var (
	// ErrEmptyCart is returned when order placement is attempted with an
	// absent or empty cart.
	ErrEmptyCart = errors.New("no items in the cart to place an order")
	// ErrNoOrders is returned when a user has no order history.
	ErrNoOrders = errors.New("no orders found for the user")
)

// Order is the immutable record produced by converting a cart at checkout.
// It is never mutated after creation.
type Order struct {
	ID        string          `json:"id"`
	UserEmail string          `json:"userEmail"`
	Items     []cart.LineItem `json:"items"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Repository is the order-history collaborator boundary.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// ListByUser returns the user's orders, newest first. An empty slice is
	// not an error at this level.
	ListByUser(ctx context.Context, userEmail string) ([]Order, error)
}

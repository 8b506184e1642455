package order

import (
	"context"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/hazalmir/cartsvc/internal/domain/cart"
)

// CartStore is the slice of the cart store the converter needs: deleting the
// source cart once its order is durable.
type CartStore interface {
	Delete(ctx context.Context, userEmail string) error
}

// Converter turns a non-empty cart into an immutable order and clears the
// source cart. This is the one place where the cart/order consistency
// invariant is enforced.
type Converter struct {
	orders Repository
	carts  CartStore
	now    func() time.Time
}

// NewConverter creates a Converter writing orders to the given repository.
func NewConverter(orders Repository, carts CartStore) *Converter {
	return &Converter{orders: orders, carts: carts, now: time.Now}
}

// Convert builds an order from the cart's current items and persists it, then
// deletes the source cart. The order write must be confirmed before the cart
// is touched: on write failure the cart is left intact. A cart-delete failure
// after a durable order write is surfaced to the caller; no compensating
// delete of the order is attempted.
func (c *Converter) Convert(ctx context.Context, crt *cart.Cart) (*Order, error) {
	if crt == nil || len(crt.Items) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		ID:        uuid.New().String(),
		UserEmail: crt.UserEmail,
		Items:     slices.Clone(crt.Items),
		CreatedAt: c.now().UTC(),
	}
	if err := c.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := c.carts.Delete(ctx, crt.UserEmail); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}
	return o, nil
}

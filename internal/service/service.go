// Package service composes the cart store, item validator, coupon ledger,
// and order converter behind the externally visible cart operations.
package service

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/hazalmir/cartsvc/internal/domain/cart"
	"github.com/hazalmir/cartsvc/internal/domain/order"
)

// ItemValidator validates proposed line items against the product catalog.
type ItemValidator interface {
	ValidateItems(ctx context.Context, inputs []cart.ItemInput) ([]cart.LineItem, error)
}

// Converter turns a loaded cart into a persisted order and clears the cart.
type Converter interface {
	Convert(ctx context.Context, crt *cart.Cart) (*order.Order, error)
}

// Ledger decides coupon validity and discount amounts.
type Ledger interface {
	Redeem(ctx context.Context, userEmail, code string) (decimal.Decimal, error)
}

// Service is the orchestrator for all cart operations. Every method is keyed
// by an externally supplied, pre-authenticated user email. No business logic
// lives here beyond parameter threading and error translation.
type Service struct {
	validator ItemValidator
	carts     cart.Repository
	converter Converter
	ledger    Ledger
	orders    order.Repository
}

// New creates a Service from its collaborators.
func New(
	validator ItemValidator,
	carts cart.Repository,
	converter Converter,
	ledger Ledger,
	orders order.Repository,
) *Service {
	return &Service{
		validator: validator,
		carts:     carts,
		converter: converter,
		ledger:    ledger,
		orders:    orders,
	}
}

// AddToCart validates every proposed item first and persists only when all
// succeed; a cart is created lazily for users who have none.
func (s *Service) AddToCart(ctx context.Context, userEmail string, inputs []cart.ItemInput) (*cart.Cart, error) {
	items, err := s.validator.ValidateItems(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return s.carts.AddItems(ctx, userEmail, items)
}

// GetCart returns the user's cart or cart.ErrNotFound.
func (s *Service) GetCart(ctx context.Context, userEmail string) (*cart.Cart, error) {
	return s.carts.Get(ctx, userEmail)
}

// DeleteCartItem removes the first line item matching productID and returns
// the updated cart.
func (s *Service) DeleteCartItem(ctx context.Context, userEmail, productID string) (*cart.Cart, error) {
	return s.carts.RemoveItem(ctx, userEmail, productID)
}

// GetOrders returns the user's order history, newest first, or
// order.ErrNoOrders when there is none.
func (s *Service) GetOrders(ctx context.Context, userEmail string) ([]order.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userEmail)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if len(orders) == 0 {
		return nil, order.ErrNoOrders
	}
	return orders, nil
}

// PlaceOrder converts the user's cart into an order. A missing cart is
// reported the same way as an empty one.
func (s *Service) PlaceOrder(ctx context.Context, userEmail string) (*order.Order, error) {
	crt, err := s.carts.Get(ctx, userEmail)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return nil, order.ErrEmptyCart
		}
		return nil, errors.Wrap(err, "load cart")
	}
	return s.converter.Convert(ctx, crt)
}

// ApplyCoupon redeems a promotional code for the user and returns the
// discount amount. It is independent of the cart contents.
func (s *Service) ApplyCoupon(ctx context.Context, userEmail, code string) (decimal.Decimal, error) {
	return s.ledger.Redeem(ctx, userEmail, code)
}

// UpdateQuantity overwrites the quantity of the matching line item.
func (s *Service) UpdateQuantity(ctx context.Context, userEmail, productID string, quantity int) (*cart.Cart, error) {
	return s.carts.SetQuantity(ctx, userEmail, productID, quantity)
}

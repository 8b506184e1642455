package service

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazalmir/cartsvc/internal/catalog"
	"github.com/hazalmir/cartsvc/internal/domain/cart"
	"github.com/hazalmir/cartsvc/internal/domain/coupon"
	"github.com/hazalmir/cartsvc/internal/domain/order"
)

// --- In-memory fakes mirroring the repository contracts ---

type memCartRepo struct {
	carts map[string]*cart.Cart
	now   func() time.Time
}

func newMemCartRepo() *memCartRepo {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return &memCartRepo{
		carts: make(map[string]*cart.Cart),
		now:   func() time.Time { return clock },
	}
}

func (m *memCartRepo) AddItems(_ context.Context, userEmail string, items []cart.LineItem) (*cart.Cart, error) {
	c, ok := m.carts[userEmail]
	if !ok {
		c = &cart.Cart{UserEmail: userEmail, CreatedAt: m.now()}
		m.carts[userEmail] = c
	}
	c.Items = append(c.Items, items...)
	return m.clone(c), nil
}

func (m *memCartRepo) Get(_ context.Context, userEmail string) (*cart.Cart, error) {
	c, ok := m.carts[userEmail]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return m.clone(c), nil
}

func (m *memCartRepo) RemoveItem(_ context.Context, userEmail, productID string) (*cart.Cart, error) {
	c, ok := m.carts[userEmail]
	if !ok {
		return nil, cart.ErrNotFound
	}
	for i, item := range c.Items {
		if item.ProductID == productID {
			c.Items = slices.Delete(c.Items, i, i+1)
			return m.clone(c), nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (m *memCartRepo) SetQuantity(_ context.Context, userEmail, productID string, quantity int) (*cart.Cart, error) {
	c, ok := m.carts[userEmail]
	if !ok {
		return nil, cart.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return m.clone(c), nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (m *memCartRepo) Delete(_ context.Context, userEmail string) error {
	delete(m.carts, userEmail)
	return nil
}

func (m *memCartRepo) clone(c *cart.Cart) *cart.Cart {
	cp := *c
	cp.Items = slices.Clone(c.Items)
	return &cp
}

type memOrderRepo struct {
	orders []order.Order
	err    error
}

func (m *memOrderRepo) Create(_ context.Context, o *order.Order) error {
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, *o)
	return nil
}

func (m *memOrderRepo) ListByUser(_ context.Context, userEmail string) ([]order.Order, error) {
	var out []order.Order
	for i := len(m.orders) - 1; i >= 0; i-- {
		if m.orders[i].UserEmail == userEmail {
			out = append(out, m.orders[i])
		}
	}
	return out, nil
}

type memRedemptions struct {
	used map[[2]string]struct{}
}

func (m *memRedemptions) Redeemed(_ context.Context, userEmail, code string) (bool, error) {
	_, ok := m.used[[2]string{userEmail, code}]
	return ok, nil
}

func (m *memRedemptions) Record(_ context.Context, userEmail, code string, _ decimal.Decimal) (bool, error) {
	key := [2]string{userEmail, code}
	if _, ok := m.used[key]; ok {
		return false, nil
	}
	m.used[key] = struct{}{}
	return true, nil
}

type stubCatalog struct {
	known map[string]bool
}

func (s *stubCatalog) Product(_ context.Context, id string) (*catalog.Product, error) {
	if !s.known[id] {
		return nil, &catalog.ProductNotFoundError{ProductID: id}
	}
	return &catalog.Product{ID: id}, nil
}

// --- Harness ---

type harness struct {
	svc    *Service
	carts  *memCartRepo
	orders *memOrderRepo
}

func newHarness(products ...string) *harness {
	known := make(map[string]bool, len(products))
	for _, p := range products {
		known[p] = true
	}

	carts := newMemCartRepo()
	orders := &memOrderRepo{}
	svc := New(
		cart.NewItemValidator(&stubCatalog{known: known}),
		carts,
		order.NewConverter(orders, carts),
		coupon.NewLedger(&memRedemptions{used: make(map[[2]string]struct{})}),
		orders,
	)
	return &harness{svc: svc, carts: carts, orders: orders}
}

// --- Tests ---

func TestAddToCart_CreatesCartLazily(t *testing.T) {
	h := newHarness("p1", "p2")
	ctx := context.Background()

	got, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", got.UserEmail)
	assert.False(t, got.CreatedAt.IsZero())
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p1", got.Items[0].ProductID)
	assert.Equal(t, "p2", got.Items[1].ProductID)
}

func TestAddToCart_AppendsAfterExistingItems(t *testing.T) {
	h := newHarness("p1", "p2", "p3")
	ctx := context.Background()

	first, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	second, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{
		{ProductID: "p2", Quantity: 1},
		{ProductID: "p3", Quantity: 1},
	})
	require.NoError(t, err)

	// CreatedAt is set once; existing item order never changes.
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	require.Len(t, second.Items, 3)
	assert.Equal(t, "p1", second.Items[0].ProductID)
	assert.Equal(t, "p2", second.Items[1].ProductID)
	assert.Equal(t, "p3", second.Items[2].ProductID)
}

func TestAddToCart_UnknownProductPersistsNothing(t *testing.T) {
	h := newHarness("p1")
	ctx := context.Background()

	_, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{
		{ProductID: "p1", Quantity: 1},
		{ProductID: "ghost", Quantity: 1},
	})

	var nf *catalog.ProductNotFoundError
	require.ErrorAs(t, err, &nf)

	// Validation happens before persistence: no cart was created.
	_, err = h.svc.GetCart(ctx, "a@x.com")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestGetCart_NotFound(t *testing.T) {
	h := newHarness()
	_, err := h.svc.GetCart(context.Background(), "nobody@x.com")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestDeleteCartItem_AbsentItemAlwaysFails(t *testing.T) {
	h := newHarness("p1")
	ctx := context.Background()

	_, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	// ItemNotFound both on the first and any later identical call.
	for i := 0; i < 2; i++ {
		_, err = h.svc.DeleteCartItem(ctx, "a@x.com", "missing")
		require.ErrorIs(t, err, cart.ErrItemNotFound)
	}

	got, err := h.svc.DeleteCartItem(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestPlaceOrder_EmptyOrAbsentCart(t *testing.T) {
	h := newHarness("p1")
	ctx := context.Background()

	// Absent cart.
	_, err := h.svc.PlaceOrder(ctx, "a@x.com")
	require.ErrorIs(t, err, order.ErrEmptyCart)

	// Present but empty cart (add then remove).
	_, err = h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)
	_, err = h.svc.DeleteCartItem(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	_, err = h.svc.PlaceOrder(ctx, "a@x.com")
	require.ErrorIs(t, err, order.ErrEmptyCart)
	assert.Empty(t, h.orders.orders)
}

func TestPlaceOrder_FullLifecycle(t *testing.T) {
	h := newHarness("p1")
	ctx := context.Background()

	_, err := h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{{ProductID: "p1", Quantity: 2}})
	require.NoError(t, err)

	updated, err := h.svc.UpdateQuantity(ctx, "a@x.com", "p1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Items[0].Quantity)

	placed, err := h.svc.PlaceOrder(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, placed.Items, 1)
	assert.Equal(t, "p1", placed.Items[0].ProductID)
	assert.Equal(t, 5, placed.Items[0].Quantity)

	// Exactly one order was recorded and the cart is gone.
	assert.Len(t, h.orders.orders, 1)
	_, err = h.svc.GetCart(ctx, "a@x.com")
	require.ErrorIs(t, err, cart.ErrNotFound)

	// The order shows up in history.
	history, err := h.svc.GetOrders(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, placed.ID, history[0].ID)
}

func TestGetOrders_Empty(t *testing.T) {
	h := newHarness()
	_, err := h.svc.GetOrders(context.Background(), "a@x.com")
	require.ErrorIs(t, err, order.ErrNoOrders)
}

func TestApplyCoupon_SingleUsePerUser(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	amount, err := h.svc.ApplyCoupon(ctx, "a@x.com", "rahma")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(amount))

	_, err = h.svc.ApplyCoupon(ctx, "a@x.com", "rahma")
	require.ErrorIs(t, err, coupon.ErrAlreadyUsed)

	amount, err = h.svc.ApplyCoupon(ctx, "b@x.com", "rahma")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(amount))

	amount, err = h.svc.ApplyCoupon(ctx, "a@x.com", "anything-else")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())
}

func TestUpdateQuantity_NotFoundSemantics(t *testing.T) {
	h := newHarness("p1")
	ctx := context.Background()

	_, err := h.svc.UpdateQuantity(ctx, "a@x.com", "p1", 2)
	require.ErrorIs(t, err, cart.ErrNotFound)

	_, err = h.svc.AddToCart(ctx, "a@x.com", []cart.ItemInput{{ProductID: "p1", Quantity: 1}})
	require.NoError(t, err)

	_, err = h.svc.UpdateQuantity(ctx, "a@x.com", "missing", 2)
	require.ErrorIs(t, err, cart.ErrItemNotFound)
}

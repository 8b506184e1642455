package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hazalmir/cartsvc/internal/domain/cart"
)

const (
	// The upsert both creates the cart (created_at set by the column default,
	// once) and appends to the JSONB items array. A single statement keeps
	// concurrent adds for the same user from losing each other's writes.
	addCartItemsSQL = `INSERT INTO carts (user_email, items) VALUES ($1, $2)
		ON CONFLICT (user_email) DO UPDATE SET items = carts.items || EXCLUDED.items
		RETURNING user_email, items, created_at`

	getCartSQL = `SELECT user_email, items, created_at FROM carts WHERE user_email = $1`

	// FOR UPDATE serializes in-place item edits for the same user.
	getCartForUpdateSQL = getCartSQL + ` FOR UPDATE`

	updateCartItemsSQL = `UPDATE carts SET items = $2 WHERE user_email = $1`

	deleteCartSQL = `DELETE FROM carts WHERE user_email = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Line items
// live in a JSONB array column, so the whole aggregate is one row.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// AddItems appends validated items to the user's cart, creating it when
// absent. Returns the resulting full cart.
func (r *CartRepository) AddItems(ctx context.Context, userEmail string, items []cart.LineItem) (*cart.Cart, error) {
	if items == nil {
		items = []cart.LineItem{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshaling cart items: %w", err)
	}

	rows, err := r.pool.Query(ctx, addCartItemsSQL, userEmail, itemsJSON)
	if err != nil {
		return nil, fmt.Errorf("adding items for %q: %w", userEmail, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		return nil, fmt.Errorf("adding items for %q: %w", userEmail, err)
	}
	return &c, nil
}

// Get returns the user's cart or cart.ErrNotFound.
func (r *CartRepository) Get(ctx context.Context, userEmail string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartSQL, userEmail)
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", userEmail, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart for %q: %w", userEmail, err)
	}
	return &c, nil
}

// RemoveItem deletes the first line item whose product id matches, comparing
// ids as strings.
func (r *CartRepository) RemoveItem(ctx context.Context, userEmail, productID string) (*cart.Cart, error) {
	return r.editItems(ctx, userEmail, func(items []cart.LineItem) ([]cart.LineItem, error) {
		for i, item := range items {
			if item.ProductID == productID {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, cart.ErrItemNotFound
	})
}

// SetQuantity overwrites the quantity of the matching line item in place.
// The value is stored as given; quantity bounds are not enforced here.
func (r *CartRepository) SetQuantity(ctx context.Context, userEmail, productID string, quantity int) (*cart.Cart, error) {
	return r.editItems(ctx, userEmail, func(items []cart.LineItem) ([]cart.LineItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = quantity
				return items, nil
			}
		}
		return nil, cart.ErrItemNotFound
	})
}

// Delete removes the user's cart row. Deleting an absent cart is a no-op.
func (r *CartRepository) Delete(ctx context.Context, userEmail string) error {
	if _, err := r.pool.Exec(ctx, deleteCartSQL, userEmail); err != nil {
		return fmt.Errorf("deleting cart for %q: %w", userEmail, err)
	}
	return nil
}

// editItems runs fn over the user's line items inside a transaction that
// holds the cart row lock, then writes the result back. fn may return
// cart.ErrItemNotFound to abort.
func (r *CartRepository) editItems(
	ctx context.Context,
	userEmail string,
	fn func([]cart.LineItem) ([]cart.LineItem, error),
) (*cart.Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning cart edit for %q: %w", userEmail, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	rows, err := tx.Query(ctx, getCartForUpdateSQL, userEmail)
	if err != nil {
		return nil, fmt.Errorf("locking cart for %q: %w", userEmail, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCart)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("locking cart for %q: %w", userEmail, err)
	}

	c.Items, err = fn(c.Items)
	if err != nil {
		return nil, err
	}

	itemsJSON, err := json.Marshal(c.Items)
	if err != nil {
		return nil, fmt.Errorf("marshaling cart items: %w", err)
	}
	if _, err := tx.Exec(ctx, updateCartItemsSQL, userEmail, itemsJSON); err != nil {
		return nil, fmt.Errorf("updating cart for %q: %w", userEmail, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing cart edit for %q: %w", userEmail, err)
	}
	return &c, nil
}

func scanCart(row pgx.CollectableRow) (cart.Cart, error) {
	var (
		c         cart.Cart
		itemsJSON []byte
	)
	if err := row.Scan(&c.UserEmail, &itemsJSON, &c.CreatedAt); err != nil {
		return cart.Cart{}, err
	}
	if err := json.Unmarshal(itemsJSON, &c.Items); err != nil {
		return cart.Cart{}, fmt.Errorf("unmarshaling cart items: %w", err)
	}
	return c, nil
}

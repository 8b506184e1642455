// Package coupon tracks one-time promotional code redemptions per user.
package coupon

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrAlreadyUsed is returned when a user tries to redeem a code they have
// already consumed.
var ErrAlreadyUsed = errors.New("coupon is not valid anymore")

// Redemptions is durable storage for consumed (user, code) pairs. Entries are
// monotonic: once recorded they are never removed.
type Redemptions interface {
	// Redeemed reports whether the user has already consumed the code.
	Redeemed(ctx context.Context, userEmail, code string) (bool, error)
	// Record inserts the redemption if absent and reports whether it was
	// inserted. The check and the insert must be a single atomic step.
	Record(ctx context.Context, userEmail, code string, amount decimal.Decimal) (bool, error)
}

// discounts is the fixed promotional code table. Codes absent from the table
// are worth zero.
var discounts = map[string]decimal.Decimal{
	"rahma": decimal.NewFromInt(50),
}

// Ledger decides coupon validity and discount amounts. Applying the discount
// to a running total is the caller's responsibility.
type Ledger struct {
	redemptions Redemptions
}

// NewLedger creates a Ledger backed by the given redemption store.
func NewLedger(r Redemptions) *Ledger {
	return &Ledger{redemptions: r}
}

// Redeem returns the discount amount for code, consuming the (user, code)
// pair when the amount is non-zero. Zero-value codes may be "redeemed"
// repeatedly without penalty: only a real discount is single-use. That
// asymmetry is deliberate.
func (l *Ledger) Redeem(ctx context.Context, userEmail, code string) (decimal.Decimal, error) {
	amount, ok := discounts[code]
	if !ok || amount.IsZero() {
		used, err := l.redemptions.Redeemed(ctx, userEmail, code)
		if err != nil {
			return decimal.Zero, errors.Wrap(err, "check redemption")
		}
		if used {
			return decimal.Zero, ErrAlreadyUsed
		}
		return decimal.Zero, nil
	}

	// Non-zero discount: the insert doubles as the already-used check, so two
	// concurrent redemptions of the same code cannot both succeed.
	inserted, err := l.redemptions.Record(ctx, userEmail, code, amount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "record redemption")
	}
	if !inserted {
		return decimal.Zero, ErrAlreadyUsed
	}
	return amount, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/hazalmir/cartsvc/internal/domain/coupon"
)

const (
	// ON CONFLICT DO NOTHING makes the insert the atomic check-and-set on the
	// (user_email, code) primary key.
	recordRedemptionSQL = `INSERT INTO coupon_redemptions (user_email, code, discount)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`

	redeemedSQL = `SELECT EXISTS (
		SELECT 1 FROM coupon_redemptions WHERE user_email = $1 AND code = $2)`
)

var _ coupon.Redemptions = (*RedemptionRepository)(nil)

// RedemptionRepository implements coupon.Redemptions backed by PostgreSQL,
// so redemptions survive restarts and are shared across replicas.
type RedemptionRepository struct {
	pool *pgxpool.Pool
}

// NewRedemptionRepository returns a RedemptionRepository that uses the given pool.
func NewRedemptionRepository(pool *pgxpool.Pool) *RedemptionRepository {
	return &RedemptionRepository{pool: pool}
}

// Redeemed reports whether the user has already consumed the code.
func (r *RedemptionRepository) Redeemed(ctx context.Context, userEmail, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, redeemedSQL, userEmail, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking redemption for %q: %w", userEmail, err)
	}
	return exists, nil
}

// Record inserts the redemption row if absent and reports whether this call
// inserted it. The granted amount is kept for audit.
func (r *RedemptionRepository) Record(ctx context.Context, userEmail, code string, amount decimal.Decimal) (bool, error) {
	tag, err := r.pool.Exec(ctx, recordRedemptionSQL, userEmail, code, amount)
	if err != nil {
		return false, fmt.Errorf("recording redemption for %q: %w", userEmail, err)
	}
	return tag.RowsAffected() == 1, nil
}

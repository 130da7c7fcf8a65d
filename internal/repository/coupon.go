package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/prodev-shop/backend/internal/domain/coupon"
)

const (
	collectCouponSQL = `INSERT INTO user_coupons (user_id, code, discount, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, collected_at`

	listCouponsSQL = `SELECT id, user_id, code, discount, description, collected_at, used, selected
		FROM user_coupons WHERE user_id = $1 ORDER BY collected_at DESC`

	clearSelectionSQL = `UPDATE user_coupons SET selected = FALSE WHERE user_id = $1 AND selected = TRUE`

	selectCouponSQL = `UPDATE user_coupons SET selected = TRUE
		WHERE user_id = $1 AND code = $2`

	selectedCouponSQL = `SELECT id, user_id, code, discount, description, collected_at, used, selected
		FROM user_coupons WHERE user_id = $1 AND selected = TRUE AND used = FALSE`

	// Codes match exactly, the same comparison the UNIQUE (user_id, code)
	// constraint uses, so at most one row can ever satisfy the predicate.
	// The used = FALSE guard makes the false -> true flip happen at most
	// once, even under concurrent checkouts racing for the same grant.
	consumeCouponSQL = `UPDATE user_coupons SET used = TRUE, selected = FALSE
		WHERE user_id = $1 AND code = $2 AND used = FALSE
		RETURNING discount`

	couponExistsSQL = `SELECT used FROM user_coupons
		WHERE user_id = $1 AND code = $2`
)

// unique_violation, raised by the (user_id, code) constraint.
const pgUniqueViolation = "23505"

var _ coupon.Ledger = (*CouponRepository)(nil)

// CouponRepository implements coupon.Ledger backed by PostgreSQL.
type CouponRepository struct {
	q Querier
}

// NewCouponRepository returns a CouponRepository over the given querier.
func NewCouponRepository(q Querier) *CouponRepository {
	return &CouponRepository{q: q}
}

// Collect creates a grant for (user, code). The unique constraint rejects a
// second collection of the same code.
func (r *CouponRepository) Collect(ctx context.Context, g *coupon.Grant) error {
	err := r.q.QueryRow(ctx, collectCouponSQL,
		g.UserID, g.Code, g.Discount, g.Description,
	).Scan(&g.ID, &g.CollectedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return coupon.ErrAlreadyCollected
		}
		return errors.Wrapf(err, "collect coupon %q", g.Code)
	}
	return nil
}

// ListByUser returns the user's grants, most recently collected first.
func (r *CouponRepository) ListByUser(ctx context.Context, userID int64) ([]coupon.Grant, error) {
	rows, err := r.q.Query(ctx, listCouponsSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return pgx.CollectRows(rows, scanGrant)
}

// Select marks the named grant as the user's selected coupon, clearing any
// previous selection first.
func (r *CouponRepository) Select(ctx context.Context, userID int64, code string) error {
	if _, err := r.q.Exec(ctx, clearSelectionSQL, userID); err != nil {
		return errors.Wrap(err, "clear coupon selection")
	}
	tag, err := r.q.Exec(ctx, selectCouponSQL, userID, code)
	if err != nil {
		return errors.Wrapf(err, "select coupon %q", code)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// Selected returns the user's currently selected unused grant, or nil when
// nothing is selected.
func (r *CouponRepository) Selected(ctx context.Context, userID int64) (*coupon.Grant, error) {
	rows, err := r.q.Query(ctx, selectedCouponSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get selected coupon")
	}

	g, err := pgx.CollectExactlyOneRow(rows, scanGrant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get selected coupon")
	}
	return &g, nil
}

// Consume flips the grant's used flag and returns its discount percent.
func (r *CouponRepository) Consume(ctx context.Context, userID int64, code string) (decimal.Decimal, error) {
	var discount decimal.Decimal
	err := r.q.QueryRow(ctx, consumeCouponSQL, userID, code).Scan(&discount)
	if err == nil {
		return discount, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, errors.Wrapf(err, "consume coupon %q", code)
	}

	// No row flipped: either the grant is missing or already used.
	var used bool
	err = r.q.QueryRow(ctx, couponExistsSQL, userID, code).Scan(&used)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, coupon.ErrNotFound
		}
		return decimal.Zero, errors.Wrapf(err, "inspect coupon %q", code)
	}
	if used {
		return decimal.Zero, coupon.ErrAlreadyUsed
	}
	return decimal.Zero, coupon.ErrNotFound
}

func scanGrant(row pgx.CollectableRow) (coupon.Grant, error) {
	var g coupon.Grant
	err := row.Scan(
		&g.ID, &g.UserID, &g.Code, &g.Discount,
		&g.Description, &g.CollectedAt, &g.Used, &g.Selected,
	)
	return g, err
}

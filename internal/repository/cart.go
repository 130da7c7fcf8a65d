package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/prodev-shop/backend/internal/domain/cart"
)

const (
	listCartLinesSQL = `SELECT id, user_id, product_id, quantity
		FROM cart_items WHERE user_id = $1 ORDER BY id`

	getCartLineSQL = `SELECT id, user_id, product_id, quantity
		FROM cart_items WHERE id = $1 AND user_id = $2`

	findCartLineByProductSQL = `SELECT id, user_id, product_id, quantity
		FROM cart_items WHERE user_id = $1 AND product_id = $2`

	upsertCartLineSQL = `INSERT INTO cart_items (user_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity
		RETURNING id`

	deleteCartLineSQL = `DELETE FROM cart_items WHERE id = $1 AND user_id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE user_id = $1`
)

var _ cart.Store = (*CartRepository)(nil)

// CartRepository implements cart.Store backed by PostgreSQL.
type CartRepository struct {
	q Querier
}

// NewCartRepository returns a CartRepository over the given querier.
func NewCartRepository(q Querier) *CartRepository {
	return &CartRepository{q: q}
}

// ListByUser returns the user's cart lines ordered by insertion.
func (r *CartRepository) ListByUser(ctx context.Context, userID int64) ([]cart.Line, error) {
	rows, err := r.q.Query(ctx, listCartLinesSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Get returns one cart line scoped to its owner.
func (r *CartRepository) Get(ctx context.Context, userID, lineID int64) (*cart.Line, error) {
	rows, err := r.q.Query(ctx, getCartLineSQL, lineID, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "get cart line %d", lineID)
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, errors.Wrapf(err, "get cart line %d", lineID)
	}
	return &l, nil
}

// FindByProduct returns the user's line for a product, if any.
func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID int64) (*cart.Line, error) {
	rows, err := r.q.Query(ctx, findCartLineByProductSQL, userID, productID)
	if err != nil {
		return nil, errors.Wrap(err, "find cart line")
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, errors.Wrap(err, "find cart line")
	}
	return &l, nil
}

// Upsert inserts the line or replaces the quantity of the user's existing
// line for the same product.
func (r *CartRepository) Upsert(ctx context.Context, l *cart.Line) error {
	err := r.q.QueryRow(ctx, upsertCartLineSQL, l.UserID, l.ProductID, l.Quantity).Scan(&l.ID)
	if err != nil {
		return errors.Wrap(err, "upsert cart line")
	}
	return nil
}

// Delete removes one line scoped to its owner.
func (r *CartRepository) Delete(ctx context.Context, userID, lineID int64) error {
	tag, err := r.q.Exec(ctx, deleteCartLineSQL, lineID, userID)
	if err != nil {
		return errors.Wrapf(err, "delete cart line %d", lineID)
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear deletes every line in the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	if _, err := r.q.Exec(ctx, clearCartSQL, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(&l.ID, &l.UserID, &l.ProductID, &l.Quantity)
	return l, err
}

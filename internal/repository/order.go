package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/prodev-shop/backend/internal/domain/order"
)

const (
	orderColumns = `id, user_id, COALESCE(product_id, 0), name, category, image,
		quantity, price, status, created_at`

	createOrderSQL = `INSERT INTO orders (user_id, product_id, name, category, image, quantity, price, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	listOrdersByUserSQL = `SELECT ` + orderColumns + ` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`

	// Conditional transitions: the status guard in the WHERE clause makes
	// each lifecycle step a compare-and-swap on the row.
	transitionSQL = `UPDATE orders SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING ` + orderColumns

	transitionOwnedSQL = `UPDATE orders SET status = $4
		WHERE id = $1 AND user_id = $2 AND status = $3
		RETURNING ` + orderColumns

	deleteOwnedSQL = `DELETE FROM orders WHERE id = $1 AND user_id = $2 AND status = $3`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	q Querier
}

// NewOrderRepository returns an OrderRepository over the given querier.
func NewOrderRepository(q Querier) *OrderRepository {
	return &OrderRepository{q: q}
}

// CreateBatch appends the given lines to the ledger, filling in their IDs.
func (r *OrderRepository) CreateBatch(ctx context.Context, lines []*order.Line) error {
	for _, l := range lines {
		err := r.q.QueryRow(ctx, createOrderSQL,
			l.UserID, l.ProductID, l.Name, l.Category, l.Image,
			l.Quantity, l.Price, l.Status, l.CreatedAt,
		).Scan(&l.ID)
		if err != nil {
			return errors.Wrap(err, "insert order line")
		}
	}
	return nil
}

// GetByID returns a single order line.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Line, error) {
	rows, err := r.q.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %d", id)
	}
	return collectOneOrder(rows, id)
}

// ListByUser returns the user's order lines, most recent first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Line, error) {
	rows, err := r.q.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// ListAll returns every order line, most recent first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Line, error) {
	rows, err := r.q.Query(ctx, listAllOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list all orders")
	}
	return pgx.CollectRows(rows, scanOrder)
}

// Transition moves the line from one status to another.
func (r *OrderRepository) Transition(ctx context.Context, id int64, from, to order.Status) (*order.Line, error) {
	rows, err := r.q.Query(ctx, transitionSQL, id, from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "transition order %d", id)
	}
	return collectOneOrder(rows, id)
}

// TransitionOwned is Transition scoped to the owning user.
func (r *OrderRepository) TransitionOwned(ctx context.Context, id, userID int64, from, to order.Status) (*order.Line, error) {
	rows, err := r.q.Query(ctx, transitionOwnedSQL, id, userID, from, to)
	if err != nil {
		return nil, errors.Wrapf(err, "transition order %d", id)
	}
	return collectOneOrder(rows, id)
}

// DeleteOwned archives one of the owner's received lines.
func (r *OrderRepository) DeleteOwned(ctx context.Context, id, userID int64) error {
	tag, err := r.q.Exec(ctx, deleteOwnedSQL, id, userID, order.StatusReceived)
	if err != nil {
		return errors.Wrapf(err, "delete order %d", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func collectOneOrder(rows pgx.Rows, id int64) (*order.Line, error) {
	l, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "scan order %d", id)
	}
	return &l, nil
}

func scanOrder(row pgx.CollectableRow) (order.Line, error) {
	var l order.Line
	err := row.Scan(
		&l.ID, &l.UserID, &l.ProductID, &l.Name, &l.Category, &l.Image,
		&l.Quantity, &l.Price, &l.Status, &l.CreatedAt,
	)
	return l, err
}

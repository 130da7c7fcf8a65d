package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/prodev-shop/backend/internal/domain/product"
)

const (
	productColumns = `id, name, description, category, price, quantity, images, created_at`

	// NULLIF turns a zero limit into LIMIT NULL, i.e. no limit.
	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT NULLIF($3, 0) OFFSET $4`

	countProductsSQL = `SELECT COUNT(*) FROM products
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (name, description, category, price, quantity, images)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, category = $4, price = $5, quantity = $6, images = $7
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	// Atomic check-and-decrement. The row lock taken by UPDATE serializes
	// concurrent reservations for the same product; the quantity guard in
	// the WHERE clause keeps the ledger non-negative.
	reserveStockSQL = `UPDATE products SET quantity = quantity - $2
		WHERE id = $1 AND quantity >= $2
		RETURNING ` + productColumns

	stockSnapshotSQL = `SELECT name, quantity FROM products WHERE id = $1`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	q Querier
}

// NewProductRepository returns a ProductRepository over the given querier.
func NewProductRepository(q Querier) *ProductRepository {
	return &ProductRepository{q: q}
}

// List returns catalog products matching the filter, ordered by ID.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, error) {
	rows, err := r.q.Query(ctx, listProductsSQL, f.Category, f.Query, f.Limit, f.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Count returns the number of products matching the filter.
func (r *ProductRepository) Count(ctx context.Context, f product.Filter) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, countProductsSQL, f.Category, f.Query).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count products")
	}
	return n, nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	rows, err := r.q.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", id)
	}
	return &p, nil
}

// Create inserts a product, filling in its ID and creation time.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	err := r.q.QueryRow(ctx, createProductSQL,
		p.Name, p.Description, p.Category, p.Price, p.Quantity, p.Images,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "create product")
	}
	return nil
}

// Update rewrites a product's mutable fields.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.q.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Category, p.Price, p.Quantity, p.Images,
	)
	if err != nil {
		return errors.Wrapf(err, "update product %d", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product from the catalog.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "delete product %d", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// ReserveStock atomically decrements the available quantity, returning the
// updated product. When the guarded UPDATE matches no row, a follow-up read
// distinguishes a missing product from insufficient stock.
func (r *ProductRepository) ReserveStock(ctx context.Context, id int64, qty int) (*product.Product, error) {
	rows, err := r.q.Query(ctx, reserveStockSQL, id, qty)
	if err != nil {
		return nil, errors.Wrapf(err, "reserve stock for product %d", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(err, "reserve stock for product %d", id)
	}

	var (
		name      string
		available int
	)
	err = r.q.QueryRow(ctx, stockSnapshotSQL, id).Scan(&name, &available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "inspect stock for product %d", id)
	}
	return nil, &product.InsufficientStockError{
		ProductName: name,
		Requested:   qty,
		Available:   available,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category,
		&p.Price, &p.Quantity, &p.Images, &p.CreatedAt,
	)
	return p, err
}

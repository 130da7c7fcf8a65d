package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/prodev-shop/backend/internal/domain/favorite"
)

const (
	listFavoritesSQL = `SELECT id, user_id, product_id, created_at
		FROM saved_products WHERE user_id = $1 ORDER BY created_at DESC`

	findFavoriteSQL = `SELECT id, user_id, product_id, created_at
		FROM saved_products WHERE user_id = $1 AND product_id = $2`

	createFavoriteSQL = `INSERT INTO saved_products (user_id, product_id)
		VALUES ($1, $2)
		RETURNING id, created_at`

	deleteFavoriteSQL = `DELETE FROM saved_products WHERE user_id = $1 AND product_id = $2`
)

var _ favorite.Repository = (*FavoriteRepository)(nil)

// FavoriteRepository implements favorite.Repository backed by PostgreSQL.
type FavoriteRepository struct {
	q Querier
}

// NewFavoriteRepository returns a FavoriteRepository over the given querier.
func NewFavoriteRepository(q Querier) *FavoriteRepository {
	return &FavoriteRepository{q: q}
}

// ListByUser returns the user's saved products, most recent first.
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID int64) ([]favorite.Favorite, error) {
	rows, err := r.q.Query(ctx, listFavoritesSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list favorites")
	}
	return pgx.CollectRows(rows, scanFavorite)
}

// Find returns the user's favorite for a product, if any.
func (r *FavoriteRepository) Find(ctx context.Context, userID, productID int64) (*favorite.Favorite, error) {
	rows, err := r.q.Query(ctx, findFavoriteSQL, userID, productID)
	if err != nil {
		return nil, errors.Wrap(err, "find favorite")
	}
	f, err := pgx.CollectExactlyOneRow(rows, scanFavorite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, favorite.ErrNotFound
		}
		return nil, errors.Wrap(err, "find favorite")
	}
	return &f, nil
}

// Create saves a product for the user.
func (r *FavoriteRepository) Create(ctx context.Context, f *favorite.Favorite) error {
	err := r.q.QueryRow(ctx, createFavoriteSQL, f.UserID, f.ProductID).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "create favorite")
	}
	return nil
}

// Delete removes the user's favorite for a product.
func (r *FavoriteRepository) Delete(ctx context.Context, userID, productID int64) error {
	tag, err := r.q.Exec(ctx, deleteFavoriteSQL, userID, productID)
	if err != nil {
		return errors.Wrap(err, "delete favorite")
	}
	if tag.RowsAffected() == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

func scanFavorite(row pgx.CollectableRow) (favorite.Favorite, error) {
	var f favorite.Favorite
	err := row.Scan(&f.ID, &f.UserID, &f.ProductID, &f.CreatedAt)
	return f, err
}

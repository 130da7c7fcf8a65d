package favorite

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/prodev-shop/backend/internal/domain/product"
)

// ErrNotFound is returned when the user has no favorite for the product.
var ErrNotFound = errors.New("favorite not found")

// Favorite marks a product saved by a user.
type Favorite struct {
	ID        int64
	UserID    int64
	ProductID int64
	CreatedAt time.Time
}

// Repository defines persistence for saved products.
type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]Favorite, error)
	Find(ctx context.Context, userID, productID int64) (*Favorite, error)
	Create(ctx context.Context, f *Favorite) error
	Delete(ctx context.Context, userID, productID int64) error
}

// Service implements favorite listing and toggling.
type Service struct {
	favorites Repository
	products  product.Repository
}

// NewService creates a favorite Service.
func NewService(favorites Repository, products product.Repository) *Service {
	return &Service{favorites: favorites, products: products}
}

// List returns the user's saved products.
func (s *Service) List(ctx context.Context, userID int64) ([]Favorite, error) {
	return s.favorites.ListByUser(ctx, userID)
}

// Toggle saves the product if it is not a favorite yet, and removes it
// otherwise. Reports whether the product is a favorite afterwards.
func (s *Service) Toggle(ctx context.Context, userID, productID int64) (bool, error) {
	existing, err := s.favorites.Find(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return false, errors.Wrap(err, "find favorite")
	}
	if existing != nil {
		if err := s.favorites.Delete(ctx, userID, productID); err != nil {
			return false, errors.Wrap(err, "delete favorite")
		}
		return false, nil
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return false, err
	}
	f := &Favorite{UserID: userID, ProductID: productID}
	if err := s.favorites.Create(ctx, f); err != nil {
		return false, errors.Wrap(err, "create favorite")
	}
	return true, nil
}

// Remove deletes the user's favorite for the product.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	if _, err := s.favorites.Find(ctx, userID, productID); err != nil {
		return err
	}
	return s.favorites.Delete(ctx, userID, productID)
}

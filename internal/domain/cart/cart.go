package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrLineNotFound is returned when a cart line lookup matches no row.
	ErrLineNotFound = errors.New("cart item not found")
	// ErrStockCeiling is returned when an add or update would push a line's
	// quantity above the product's available stock.
	ErrStockCeiling = errors.New("cannot add more than available stock")
	// ErrInvalidQuantity is returned for non-positive add quantities.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
)

// Line is one pending product+quantity entry in a user's cart.
type Line struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}

// Store defines persistence for cart lines. Lines are exclusively owned by
// their user, so no cross-user locking is needed.
type Store interface {
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	Get(ctx context.Context, userID, lineID int64) (*Line, error)
	FindByProduct(ctx context.Context, userID, productID int64) (*Line, error)
	Upsert(ctx context.Context, l *Line) error
	Delete(ctx context.Context, userID, lineID int64) error
	Clear(ctx context.Context, userID int64) error
}

// Entry is a cart line joined with live product data, as returned to callers.
type Entry struct {
	LineID      int64
	ProductID   int64
	Name        string
	Category    string
	Image       string
	Quantity    int
	UnitPrice   decimal.Decimal
	StockOnHand int
	StockStatus string
}

// Snapshot is the cart contents plus the running total.
type Snapshot struct {
	Entries []Entry
	Total   decimal.Decimal
}

package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Stock status labels derived from the available quantity. The label is
// never stored; it is computed from Quantity at read time so it cannot
// drift out of sync with the ledger.
const (
	StatusInStock    = "In stock"
	StatusOutOfStock = "Out of stock"
)

// InsufficientStockError indicates a reservation asked for more units than
// the product has available.
type InsufficientStockError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return "not enough stock for product: " + e.ProductName
}

// Product is a catalog item. Quantity is the single source of truth for
// sellable stock.
type Product struct {
	ID          int64
	Name        string
	Description string
	Category    string
	Price       decimal.Decimal
	Quantity    int
	Images      []string
	CreatedAt   time.Time
}

// StockStatus derives the display label from the available quantity.
func (p Product) StockStatus() string {
	if p.Quantity <= 0 {
		return StatusOutOfStock
	}
	return StatusInStock
}

// FirstImage returns the primary product image, or "" when none is set.
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Filter narrows List results. Zero values match everything; Limit 0
// disables pagination.
type Filter struct {
	Category string
	Query    string // case-insensitive substring match on name
	Limit    int
	Offset   int
}

// Repository defines catalog reads, admin writes, and the inventory ledger
// reservation operation.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	// Count returns how many products match the filter, ignoring Limit
	// and Offset.
	Count(ctx context.Context, f Filter) (int, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error

	// ReserveStock atomically decrements the available quantity by qty and
	// returns the updated product. It fails with ErrNotFound when the product
	// does not exist and with *InsufficientStockError when qty exceeds the
	// available quantity. The read-check-write is a single statement, so
	// concurrent reservations for the same product serialize on the row.
	ReserveStock(ctx context.Context, id int64, qty int) (*Product, error)
}

package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order line.
//
// Transitions: PENDING -> FULFILLED | CANCELLED (admin),
// FULFILLED -> RECEIVED (owner). RECEIVED is terminal and may be archived
// by the owner.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusFulfilled Status = "FULFILLED"
	StatusCancelled Status = "CANCELLED"
	StatusReceived  Status = "RECEIVED"
)

// ParseStatus validates a status string from an API request.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusFulfilled, StatusCancelled, StatusReceived:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown order status %q", s)
}

var (
	// ErrEmptyCart is returned when checkout is invoked on an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrNotFound is returned when an order line lookup matches no row.
	ErrNotFound = errors.New("order not found")
	// ErrProductUnavailable is returned by reorder when the original product
	// reference no longer resolves.
	ErrProductUnavailable = errors.New("product not available for reorder")
	// ErrInvalidTransition is returned for a status change the state machine
	// does not permit.
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Line is an immutable snapshot of one purchased product, created at
// checkout. Name, Category, Image, and Price are copied from the product at
// checkout time and never change afterwards.
type Line struct {
	ID        int64
	UserID    int64
	ProductID int64 // live reference; 0 when the product was deleted
	Name      string
	Category  string
	Image     string
	Quantity  int
	Price     decimal.Decimal
	Status    Status
	CreatedAt time.Time
}

// Repository defines the append-only order ledger plus guarded lifecycle
// transitions. Transitions are single conditional statements so concurrent
// actors cannot race a line through an illegal path.
type Repository interface {
	// CreateBatch appends the given lines, filling in IDs and CreatedAt.
	CreateBatch(ctx context.Context, lines []*Line) error

	GetByID(ctx context.Context, id int64) (*Line, error)
	ListByUser(ctx context.Context, userID int64) ([]Line, error)
	ListAll(ctx context.Context) ([]Line, error)

	// Transition moves a line from one status to another. It fails with
	// ErrNotFound when no line with the given id is currently in the from
	// status.
	Transition(ctx context.Context, id int64, from, to Status) (*Line, error)

	// TransitionOwned is Transition additionally scoped to the owning user.
	TransitionOwned(ctx context.Context, id, userID int64, from, to Status) (*Line, error)

	// DeleteOwned archives a line. Only the owner's RECEIVED lines qualify;
	// anything else fails with ErrNotFound.
	DeleteOwned(ctx context.Context, id, userID int64) error
}

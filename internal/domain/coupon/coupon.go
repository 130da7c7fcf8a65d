package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a user holds no grant for the given code.
	ErrNotFound = errors.New("coupon not found or invalid")
	// ErrAlreadyUsed is returned when the grant for the code has been consumed.
	ErrAlreadyUsed = errors.New("coupon has already been used")
	// ErrAlreadyCollected is returned when the user already holds the code.
	ErrAlreadyCollected = errors.New("coupon already collected")
)

// Grant is a per-user, single-use percentage discount entitlement. Used
// transitions false to true exactly once and never reverts.
type Grant struct {
	ID          int64
	UserID      int64
	Code        string
	Discount    decimal.Decimal // percent, 0..100
	Description string
	CollectedAt time.Time
	Used        bool
	Selected    bool
}

// Ledger defines persistence for coupon grants.
type Ledger interface {
	// Collect creates a grant for (userID, code). A second collection of the
	// same code by the same user fails with ErrAlreadyCollected.
	Collect(ctx context.Context, g *Grant) error

	ListByUser(ctx context.Context, userID int64) ([]Grant, error)

	// Select marks exactly one of the user's grants as selected, clearing
	// any previous selection. Missing grant fails with ErrNotFound.
	Select(ctx context.Context, userID int64, code string) error

	// Selected returns the user's currently selected unused grant, or nil
	// when nothing is selected.
	Selected(ctx context.Context, userID int64) (*Grant, error)

	// Consume flips the grant's used flag and returns its discount percent.
	// The flip is guarded by used = FALSE so a grant can be consumed at most
	// once even under concurrent checkouts. Missing grant fails with
	// ErrNotFound; an exhausted grant fails with ErrAlreadyUsed.
	Consume(ctx context.Context, userID int64, code string) (decimal.Decimal, error)
}

package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/prodev-shop/backend/internal/domain/cart"
	"github.com/prodev-shop/backend/internal/domain/product"
	"github.com/prodev-shop/backend/internal/receipt"
)

// Identity is the resolved caller identity supplied by the authentication
// layer. The service trusts it and does not re-authenticate.
type Identity struct {
	UserID   int64
	Username string
}

// Result is the composite outcome of a successful checkout. It is transient
// and never persisted.
type Result struct {
	OrderLines      []Line
	UpdatedProducts []product.Product
	ReceiptPDF      []byte
}

// CartAdder is the slice of the cart service checkout needs for reorder.
type CartAdder interface {
	Add(ctx context.Context, userID, productID int64, qty int) (*cart.Snapshot, error)
}

// RenderFunc renders a receipt document. Injected so orchestration tests
// run without the PDF dependency.
type RenderFunc func(receipt.Receipt) ([]byte, error)

// Service coordinates the checkout transaction and order lifecycle.
type Service struct {
	uow    TxRunner
	orders Repository
	carts  CartAdder
	render RenderFunc
	now    func() time.Time
}

// NewService creates an order Service. All collaborators are injected
// explicitly; there is no global registry.
func NewService(uow TxRunner, orders Repository, carts CartAdder, render RenderFunc) *Service {
	return &Service{
		uow:    uow,
		orders: orders,
		carts:  carts,
		render: render,
		now:    time.Now,
	}
}

// Checkout converts the user's cart into committed order lines as one atomic
// unit: it reserves stock for every line, consumes at most one coupon,
// appends the order ledger rows, renders the receipt, and clears the cart.
// Any failure rolls the whole transaction back; a failed checkout leaves
// stock, coupons, orders, and the cart exactly as they were.
func (s *Service) Checkout(ctx context.Context, who Identity, couponCode string) (*Result, error) {
	var result *Result

	err := s.uow.InTx(ctx, func(tx Tx) error {
		lines, err := tx.Carts().ListByUser(ctx, who.UserID)
		if err != nil {
			return errors.Wrap(err, "load cart")
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		// Reserve stock per line. Each reservation is an atomic
		// check-and-decrement on the product row; a failure on any line
		// unwinds the decrements already made in this transaction.
		updated := make([]product.Product, 0, len(lines))
		receiptLines := make([]receipt.Line, 0, len(lines))
		for _, l := range lines {
			p, err := tx.Products().ReserveStock(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			updated = append(updated, *p)
			receiptLines = append(receiptLines, receipt.Line{
				Name:      p.Name,
				Quantity:  l.Quantity,
				UnitPrice: p.Price,
			})
		}

		// An explicit code wins; otherwise the user's selected grant is
		// consumed, so selecting a coupon before checkout applies it.
		if couponCode == "" {
			g, err := tx.Coupons().Selected(ctx, who.UserID)
			if err != nil {
				return errors.Wrap(err, "load selected coupon")
			}
			if g != nil {
				couponCode = g.Code
			}
		}

		discount := decimal.Zero
		if couponCode != "" {
			discount, err = tx.Coupons().Consume(ctx, who.UserID, couponCode)
			if err != nil {
				return err
			}
		}

		now := s.now()
		orderLines := make([]*Line, len(lines))
		for i, l := range lines {
			p := updated[i]
			orderLines[i] = &Line{
				UserID:    who.UserID,
				ProductID: l.ProductID,
				Name:      p.Name,
				Category:  p.Category,
				Image:     p.FirstImage(),
				Quantity:  l.Quantity,
				Price:     p.Price,
				Status:    StatusPending,
				CreatedAt: now,
			}
		}
		if err := tx.Orders().CreateBatch(ctx, orderLines); err != nil {
			return errors.Wrap(err, "append order lines")
		}

		// The receipt is the user's proof of the transaction: if it cannot
		// be produced, nothing commits.
		pdf, err := s.render(receipt.Receipt{
			Username:   who.Username,
			Lines:      receiptLines,
			CouponCode: couponCode,
			Discount:   discount,
			CreatedAt:  now,
		})
		if err != nil {
			return errors.Wrap(err, "render receipt")
		}

		if err := tx.Carts().Clear(ctx, who.UserID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		committed := make([]Line, len(orderLines))
		for i, ol := range orderLines {
			committed[i] = *ol
		}
		result = &Result{
			OrderLines:      committed,
			UpdatedProducts: updated,
			ReceiptPDF:      pdf,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Reorder re-adds a past order line's product and quantity to the cart by
// live reference, subject to the normal add-to-cart stock ceiling.
func (s *Service) Reorder(ctx context.Context, userID, orderID int64) (*cart.Snapshot, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, ErrNotFound
	}
	if o.ProductID == 0 {
		return nil, ErrProductUnavailable
	}

	snap, err := s.carts.Add(ctx, userID, o.ProductID, o.Quantity)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductUnavailable
		}
		return nil, err
	}
	return snap, nil
}

// History returns the user's order lines, most recent first.
func (s *Service) History(ctx context.Context, userID int64) ([]Line, error) {
	return s.orders.ListByUser(ctx, userID)
}

// ListAll returns every order line. Administrative.
func (s *Service) ListAll(ctx context.Context) ([]Line, error) {
	return s.orders.ListAll(ctx)
}

// UpdateStatus performs the administrative PENDING -> FULFILLED | CANCELLED
// transition.
func (s *Service) UpdateStatus(ctx context.Context, orderID int64, to Status) (*Line, error) {
	if to != StatusFulfilled && to != StatusCancelled {
		return nil, ErrInvalidTransition
	}
	return s.orders.Transition(ctx, orderID, StatusPending, to)
}

// Receive performs the owner's FULFILLED -> RECEIVED transition. A line
// that is not the caller's, or not fulfilled, reads as not found rather
// than forbidden, to avoid leaking existence.
func (s *Service) Receive(ctx context.Context, userID, orderID int64) (*Line, error) {
	return s.orders.TransitionOwned(ctx, orderID, userID, StatusFulfilled, StatusReceived)
}

// Archive deletes one of the caller's RECEIVED lines.
func (s *Service) Archive(ctx context.Context, userID, orderID int64) error {
	return s.orders.DeleteOwned(ctx, orderID, userID)
}

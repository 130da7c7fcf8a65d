package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/prodev-shop/backend/internal/domain/product"
)

// Service implements cart reads and mutations. All quantity changes are
// bounded by the referenced product's available stock (the ceiling rule).
type Service struct {
	lines    Store
	products product.Repository
}

// NewService creates a cart Service.
func NewService(lines Store, products product.Repository) *Service {
	return &Service{lines: lines, products: products}
}

// Get returns the user's cart joined with live product data.
func (s *Service) Get(ctx context.Context, userID int64) (*Snapshot, error) {
	lines, err := s.lines.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart lines")
	}

	snap := &Snapshot{
		Entries: make([]Entry, 0, len(lines)),
		Total:   decimal.Zero,
	}
	for _, l := range lines {
		p, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				// Product removed from the catalog after it was carted;
				// skip the stale line rather than failing the whole read.
				continue
			}
			return nil, errors.Wrapf(err, "get product %d", l.ProductID)
		}

		snap.Entries = append(snap.Entries, Entry{
			LineID:      l.ID,
			ProductID:   p.ID,
			Name:        p.Name,
			Category:    p.Category,
			Image:       p.FirstImage(),
			Quantity:    l.Quantity,
			UnitPrice:   p.Price,
			StockOnHand: p.Quantity,
			StockStatus: p.StockStatus(),
		})
		line := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		snap.Total = snap.Total.Add(line)
	}
	return snap, nil
}

// Add puts qty units of a product into the user's cart, merging with an
// existing line for the same product. The merged quantity must not exceed
// the product's available stock.
func (s *Service) Add(ctx context.Context, userID, productID int64, qty int) (*Snapshot, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.lines.FindByProduct(ctx, userID, productID)
	if err != nil && !errors.Is(err, ErrLineNotFound) {
		return nil, errors.Wrap(err, "find cart line")
	}

	merged := qty
	if existing != nil {
		merged += existing.Quantity
	}
	if merged > p.Quantity {
		return nil, ErrStockCeiling
	}

	l := &Line{UserID: userID, ProductID: productID, Quantity: merged}
	if existing != nil {
		l.ID = existing.ID
	}
	if err := s.lines.Upsert(ctx, l); err != nil {
		return nil, errors.Wrap(err, "upsert cart line")
	}

	return s.Get(ctx, userID)
}

// UpdateQuantity sets a line's quantity. A quantity of zero or less removes
// the line. Positive quantities are bounded by the product's stock.
func (s *Service) UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) (*Snapshot, error) {
	l, err := s.lines.Get(ctx, userID, lineID)
	if err != nil {
		return nil, err
	}

	if qty <= 0 {
		if err := s.lines.Delete(ctx, userID, lineID); err != nil {
			return nil, errors.Wrap(err, "delete cart line")
		}
		return s.Get(ctx, userID)
	}

	p, err := s.products.GetByID(ctx, l.ProductID)
	if err != nil {
		return nil, err
	}
	if qty > p.Quantity {
		return nil, ErrStockCeiling
	}

	l.Quantity = qty
	if err := s.lines.Upsert(ctx, l); err != nil {
		return nil, errors.Wrap(err, "update cart line")
	}
	return s.Get(ctx, userID)
}

// Remove deletes a single line from the user's cart.
func (s *Service) Remove(ctx context.Context, userID, lineID int64) (*Snapshot, error) {
	if _, err := s.lines.Get(ctx, userID, lineID); err != nil {
		return nil, err
	}
	if err := s.lines.Delete(ctx, userID, lineID); err != nil {
		return nil, errors.Wrap(err, "delete cart line")
	}
	return s.Get(ctx, userID)
}

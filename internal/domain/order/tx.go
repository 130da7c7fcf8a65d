package order

import (
	"context"

	"github.com/prodev-shop/backend/internal/domain/cart"
	"github.com/prodev-shop/backend/internal/domain/coupon"
	"github.com/prodev-shop/backend/internal/domain/product"
)

// Tx bundles the repositories bound to one atomic unit of work. Every
// mutation performed through a Tx commits or rolls back together.
type Tx interface {
	Products() product.Repository
	Coupons() coupon.Ledger
	Carts() cart.Store
	Orders() Repository
}

// TxRunner executes fn inside a transaction. When fn returns an error the
// transaction is rolled back and the error is returned verbatim; otherwise
// the transaction commits.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
}

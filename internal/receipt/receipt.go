// Package receipt renders the order summary document returned from a
// successful checkout. Summarize and Render are pure functions of their
// input so the checkout orchestration can be tested without a PDF library
// and the output is reproducible byte for byte.
package receipt

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Line is one purchased product as it appeared in the cart at checkout time.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Receipt is the full input to Render. CreatedAt stamps the document's
// creation date; passing it explicitly keeps Render free of hidden state.
type Receipt struct {
	Username   string
	Lines      []Line
	CouponCode string          // empty when no coupon was applied
	Discount   decimal.Decimal // percent, 0..100
	CreatedAt  time.Time
}

// Summary holds the computed money amounts for a receipt.
type Summary struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Summarize computes subtotal, discount amount, and total for the given
// lines and percentage discount. Amounts are rounded to two decimal places
// and the total is floored at zero.
func Summarize(lines []Line, discountPercent decimal.Decimal) Summary {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	subtotal = subtotal.Round(2)

	discount := subtotal.Mul(discountPercent).Div(hundred).Round(2)

	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          total.Round(2),
	}
}

package receipt

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(name string, qty int, price string) Line {
	return Line{Name: name, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func TestSummarize_NoDiscount(t *testing.T) {
	s := Summarize([]Line{
		line("Keyboard", 2, "89.99"),
		line("Skillet", 1, "34.90"),
	}, decimal.Zero)

	assert.Equal(t, "214.88", s.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", s.DiscountAmount.StringFixed(2))
	assert.Equal(t, "214.88", s.Total.StringFixed(2))
}

func TestSummarize_PercentageDiscount(t *testing.T) {
	s := Summarize([]Line{
		line("Widget", 2, "100.00"),
	}, decimal.NewFromInt(10))

	assert.Equal(t, "200.00", s.Subtotal.StringFixed(2))
	assert.Equal(t, "20.00", s.DiscountAmount.StringFixed(2))
	assert.Equal(t, "180.00", s.Total.StringFixed(2))
}

func TestSummarize_RoundsToCents(t *testing.T) {
	s := Summarize([]Line{
		line("Widget", 3, "33.333"),
	}, decimal.NewFromInt(15))

	// 99.999 rounds to 100.00 before the discount applies.
	assert.Equal(t, "100.00", s.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", s.DiscountAmount.StringFixed(2))
	assert.Equal(t, "85.00", s.Total.StringFixed(2))
}

func TestSummarize_TotalFlooredAtZero(t *testing.T) {
	s := Summarize([]Line{
		line("Widget", 1, "10.00"),
	}, decimal.NewFromInt(150))

	assert.Equal(t, "10.00", s.Subtotal.StringFixed(2))
	assert.False(t, s.Total.IsNegative())
	assert.Equal(t, "0.00", s.Total.StringFixed(2))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, decimal.NewFromInt(20))

	assert.True(t, s.Subtotal.IsZero())
	assert.True(t, s.Total.IsZero())
}

func testReceipt() Receipt {
	return Receipt{
		Username: "alice",
		Lines: []Line{
			line("Keyboard", 2, "89.99"),
			line("Skillet", 1, "34.90"),
		},
		CouponCode: "WELCOME10",
		Discount:   decimal.NewFromInt(10),
		CreatedAt:  time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
	}
}

func TestRender_ProducesPDF(t *testing.T) {
	out, err := Render(testReceipt())
	require.NoError(t, err)

	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestRender_Deterministic(t *testing.T) {
	first, err := Render(testReceipt())
	require.NoError(t, err)

	// Repeated renders shake out any map-order dependence in the
	// generated resource catalogs.
	for i := 0; i < 10; i++ {
		next, err := Render(testReceipt())
		require.NoError(t, err)
		assert.Equal(t, first, next, "same input must render identical bytes")
	}
}

func TestRender_NoCoupon(t *testing.T) {
	r := testReceipt()
	r.CouponCode = ""
	r.Discount = decimal.Zero

	out, err := Render(r)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

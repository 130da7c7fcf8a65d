package receipt

import (
	"bytes"

	"github.com/go-faster/errors"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// Table layout: product, quantity, unit price, line total.
var colWidths = [4]float64{70, 25, 35, 40}

// Render produces the A4 receipt PDF for the given input. The document is a
// deterministic function of r: the creation date is taken from r.CreatedAt,
// not the wall clock.
func Render(r Receipt) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Resource catalogs are held in maps internally; without a stable sort
	// the font dictionary order, and with it every byte offset after it,
	// varies between runs of the same input.
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(r.CreatedAt)
	pdf.SetModificationDate(r.CreatedAt)
	pdf.SetMargins(13, 19, 13)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 128, 0)
	pdf.CellFormat(0, 12, "Order Summary", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, "Username: "+r.Username, "", 1, "L", false, 0, "")
	pdf.Ln(3)

	// Header row.
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFillColor(0, 128, 0)
	headers := [4]string{"Product", "Quantity", "Price", "Total"}
	for i, h := range headers {
		pdf.CellFormat(colWidths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for _, l := range r.Lines {
		lineTotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		pdf.CellFormat(colWidths[0], 8, l.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(colWidths[1], 8, decimal.NewFromInt(int64(l.Quantity)).String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colWidths[2], 8, l.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[3], 8, lineTotal.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	sum := Summarize(r.Lines, r.Discount)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Total (before discount): "+sum.Subtotal.StringFixed(2), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	if r.CouponCode != "" && sum.DiscountAmount.IsPositive() {
		pdf.CellFormat(0, 7, "Coupon ("+r.CouponCode+")", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 12)
		pdf.SetTextColor(200, 0, 0)
		pdf.CellFormat(0, 7, "Discount: "+sum.DiscountAmount.StringFixed(2), "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	} else {
		pdf.CellFormat(0, 7, "Coupon: -", "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 7, "Discount: -", "", 1, "L", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Total after discount: "+sum.Total.StringFixed(2), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}
	return buf.Bytes(), nil
}

package pricing

import "github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"

// DefaultTaxRatePercent is the flat tax applied to every subtotal.
const DefaultTaxRatePercent = 10

const (
	MessageVoucherApplied = "Voucher applied successfully"
	MessageVoucherInvalid = "Invalid voucher code"
	MessageVoucherMissing = "No voucher code provided"
)

// Line is a cart line resolved against the catalog.
type Line struct {
	MenuID     string
	PriceMinor int64
	Quantity   int64
}

// Breakdown is the full price computation for a set of lines.
type Breakdown struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

// Calculator prices resolved cart lines.
type Calculator struct {
	TaxRatePercent int64
}

// NewCalculator creates a Calculator, falling back to the default rate for a non-positive one.
func NewCalculator(taxRatePercent int64) Calculator {
	if taxRatePercent <= 0 {
		taxRatePercent = DefaultTaxRatePercent
	}

	return Calculator{TaxRatePercent: taxRatePercent}
}

// Subtotal sums price times quantity over lines.
func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.PriceMinor * l.Quantity
	}

	return subtotal
}

// Tax truncates toward zero.
func (c Calculator) Tax(subtotal int64) int64 {
	return subtotal * c.TaxRatePercent / 100
}

// DiscountFor returns the voucher discount, or 0 for a missing or invalid voucher.
func DiscountFor(v *voucher.Voucher) int64 {
	if v == nil || !v.IsValid {
		return 0
	}

	return v.DiscountMinor
}

// Price computes the breakdown for lines with an optional voucher.
func (c Calculator) Price(lines []Line, v *voucher.Voucher) Breakdown {
	subtotal := Subtotal(lines)
	discount := DiscountFor(v)
	tax := c.Tax(subtotal)

	return Breakdown{
		Subtotal: subtotal,
		Discount: discount,
		Tax:      tax,
		Total:    subtotal - discount + tax,
	}
}

// VoucherPreview is the outcome of applying a voucher code to a cart.
type VoucherPreview struct {
	Breakdown
	Applied bool
	Message string
}

// Preview prices lines with the voucher looked up for code. v is nil when
// no voucher with that code exists.
func (c Calculator) Preview(lines []Line, code string, v *voucher.Voucher) VoucherPreview {
	breakdown := c.Price(lines, v)
	preview := VoucherPreview{
		Breakdown: breakdown,
		Applied:   breakdown.Discount > 0,
	}

	switch {
	case code == "":
		preview.Message = MessageVoucherMissing
	case preview.Applied:
		preview.Message = MessageVoucherApplied
	default:
		preview.Message = MessageVoucherInvalid
	}

	return preview
}

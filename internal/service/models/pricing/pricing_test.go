package pricing

import (
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/voucher"
	"github.com/stretchr/testify/assert"
)

func TestPrice(t *testing.T) {
	calc := NewCalculator(0)
	lines := []Line{{MenuID: "C01", PriceMinor: 5000, Quantity: 2}}

	tests := []struct {
		name    string
		voucher *voucher.Voucher
		want    Breakdown
	}{
		{
			name:    "valid voucher",
			voucher: &voucher.Voucher{Code: "HEMAT", DiscountMinor: 1000, IsValid: true},
			want:    Breakdown{Subtotal: 10000, Discount: 1000, Tax: 1000, Total: 10000},
		},
		{
			name:    "invalid voucher",
			voucher: &voucher.Voucher{Code: "OLD", DiscountMinor: 1000, IsValid: false},
			want:    Breakdown{Subtotal: 10000, Tax: 1000, Total: 11000},
		},
		{
			name: "no voucher",
			want: Breakdown{Subtotal: 10000, Tax: 1000, Total: 11000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Price(lines, tt.voucher))
		})
	}
}

func TestTaxTruncates(t *testing.T) {
	calc := NewCalculator(10)
	assert.Equal(t, int64(1234), calc.Tax(12345))
	assert.Equal(t, int64(0), calc.Tax(9))
}

func TestPreview(t *testing.T) {
	calc := NewCalculator(10)
	lines := []Line{{PriceMinor: 10000, Quantity: 1}}

	applied := calc.Preview(lines, "HEMAT", &voucher.Voucher{DiscountMinor: 2000, IsValid: true})
	assert.True(t, applied.Applied)
	assert.Equal(t, MessageVoucherApplied, applied.Message)
	assert.Equal(t, int64(9000), applied.Total)

	unknown := calc.Preview(lines, "NOPE", nil)
	assert.False(t, unknown.Applied)
	assert.Equal(t, MessageVoucherInvalid, unknown.Message)
	assert.Equal(t, int64(11000), unknown.Total)

	zeroValue := calc.Preview(lines, "ZERO", &voucher.Voucher{DiscountMinor: 0, IsValid: true})
	assert.False(t, zeroValue.Applied)
	assert.Equal(t, MessageVoucherInvalid, zeroValue.Message)

	missing := calc.Preview(lines, "", nil)
	assert.False(t, missing.Applied)
	assert.Equal(t, MessageVoucherMissing, missing.Message)
}

package order

import (
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"NEW", "IN-PROGRESS", "COMPLETED"} {
		got, err := ParseStatus(s)
		assert.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("SHIPPED")
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestTotalOf(t *testing.T) {
	lines := []LineSnapshot{
		{PriceMinor: 15000, Quantity: 2},
		{PriceMinor: 5000, Quantity: 1},
	}
	assert.Equal(t, int64(35000), TotalOf(lines))
	assert.Equal(t, int64(0), TotalOf(nil))
}

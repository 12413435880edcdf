package request

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRequest struct {
	OrderID int64  `json:"orderId" validate:"required"`
	Status  string `json:"status"  validate:"required"`
	Rating  int    `json:"rating"  validate:"omitempty,gte=1,lte=5"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "valid", body: `{"orderId":3,"status":"COMPLETED"}`},
		{name: "malformed", body: `{"orderId":`, message: "Invalid request body"},
		{name: "missing status", body: `{"orderId":3}`, message: "Missing Status"},
		{name: "rating too high", body: `{"orderId":3,"status":"NEW","rating":6}`, message: "Rating must be at most 5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var dst statusRequest
			err := DecodeJSON(r, &dst)

			if tt.message == "" {
				require.NoError(t, err)
				assert.Equal(t, int64(3), dst.OrderID)
				return
			}
			require.ErrorIs(t, err, errs.ErrValidation)
			assert.Equal(t, tt.message, errs.Message(err, ""))
		})
	}
}

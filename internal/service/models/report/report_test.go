package report

import (
	"testing"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows(t *testing.T) {
	now := time.Date(2024, time.March, 1, 15, 30, 0, 0, time.UTC)
	month, today, yesterday := Windows(now)

	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), month.From)
	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), month.To)
	assert.Equal(t, month.From, today.From)
	assert.Equal(t, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), today.To)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC), yesterday.From)
	assert.Equal(t, today.From, yesterday.To)
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(500, 0))
	assert.Equal(t, 100.0, PercentChange(200, 100))
	assert.Equal(t, -50.0, PercentChange(50, 100))
}

func TestNewOrderRow(t *testing.T) {
	hot := "hot"
	o := order.Order{
		ID: 7,
		Lines: []order.LineSnapshot{
			{Name: "Latte", PriceMinor: 15000, Quantity: 2, Option1: &hot, Option2: []string{"oat", "ice"}},
			{Name: "Croissant", PriceMinor: 5000, Quantity: 1},
		},
		Status:    order.StatusNew,
		CreatedAt: time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC),
	}

	row := NewOrderRow(o, "budi")

	assert.Equal(t, int64(7), row.OrderID)
	assert.Equal(t, "budi", row.Name)
	assert.Equal(t, "Latte | hot , oat, ice x2<br>Croissant |  ,  x1", row.Menu)
	assert.Equal(t, int64(35000), row.Value)
	assert.Equal(t, "05/01/2024", row.Date)
	assert.Equal(t, "NEW", row.Status)
}

func TestSortRows(t *testing.T) {
	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id int64, status order.Status, hours int) OrderRow {
		return NewOrderRow(order.Order{ID: id, Status: status, CreatedAt: base.Add(time.Duration(hours) * time.Hour)}, "")
	}

	rows := []OrderRow{
		mk(1, order.StatusCompleted, 5),
		mk(2, order.Status("CANCELLED"), 9),
		mk(3, order.StatusNew, 1),
		mk(4, order.StatusInProgress, 2),
		mk(5, order.StatusNew, 3),
	}
	SortRows(rows)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.OrderID)
	}
	require.Equal(t, []int64{5, 3, 4, 1, 2}, ids)
}

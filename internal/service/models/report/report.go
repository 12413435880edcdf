package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
)

// UnknownCustomer names orders whose owner no longer exists.
const UnknownCustomer = "Unknown User"

const (
	dateLayout    = "02/01/2006"
	menuSeparator = "<br>"
)

// Overview is the admin dashboard summary.
type Overview struct {
	TurnoverMonth int64   `json:"turnover_month"`
	Profit        int64   `json:"profit"`
	ProfitChange  float64 `json:"profit_change"`
	Customers     int64   `json:"customers"`
}

// Window is a half-open time range [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

// Windows returns the current month, today and yesterday in now's location.
func Windows(now time.Time) (month, today, yesterday Window) {
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	month = Window{From: startOfMonth, To: startOfMonth.AddDate(0, 1, 0)}
	today = Window{From: startOfToday, To: startOfToday.AddDate(0, 0, 1)}
	yesterday = Window{From: startOfToday.AddDate(0, 0, -1), To: startOfToday}

	return month, today, yesterday
}

// PercentChange returns the change from previous to current in percent, or 0 when previous is 0.
func PercentChange(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}

	return float64(current-previous) / float64(previous) * 100
}

// OrderRow is one line of the admin order report.
type OrderRow struct {
	OrderID int64  `json:"order_id"`
	Name    string `json:"name"`
	Menu    string `json:"menu"`
	Value   int64  `json:"value"`
	Date    string `json:"date"`
	Status  string `json:"status"`

	createdAt time.Time
}

// NewOrderRow denormalizes an order for the report. userName is the owner's display name.
func NewOrderRow(o order.Order, userName string) OrderRow {
	items := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		option1 := ""
		if l.Option1 != nil {
			option1 = *l.Option1
		}
		items = append(items, fmt.Sprintf(
			"%s | %s , %s x%d",
			l.Name, option1, strings.Join(l.Option2, ", "), l.Quantity,
		))
	}

	return OrderRow{
		OrderID:   o.ID,
		Name:      userName,
		Menu:      strings.Join(items, menuSeparator),
		Value:     order.TotalOf(o.Lines),
		Date:      o.CreatedAt.Format(dateLayout),
		Status:    o.Status.String(),
		createdAt: o.CreatedAt,
	}
}

// SortRows orders rows by status rank, then newest first.
func SortRows(rows []OrderRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := order.Status(rows[i].Status).Rank(), order.Status(rows[j].Status).Rank()
		if ri != rj {
			return ri < rj
		}

		return rows[i].createdAt.After(rows[j].createdAt)
	})
}

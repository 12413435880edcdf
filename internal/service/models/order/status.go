package order

import (
	"database/sql/driver"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN-PROGRESS"
	StatusCompleted  Status = "COMPLETED"
)

var ErrInvalidStatus = errs.NewValidation("Invalid order status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// ParseStatus accepts only the known statuses.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusCompleted:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// Rank orders statuses for reporting: NEW < IN-PROGRESS < COMPLETED < anything else.
func (s Status) Rank() int {
	switch s {
	case StatusNew:
		return 0
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 3
	}
}

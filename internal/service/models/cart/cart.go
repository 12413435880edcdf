package cart

import (
	"slices"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

// ErrInvalidQuantity is returned for a quantity below one.
var ErrInvalidQuantity = errs.NewValidation("Quantity must be at least 1")

// Line is a single entry of a user's cart.
type Line struct {
	ItemID   string   `json:"itemId"`
	MenuID   string   `json:"menuId"`
	Quantity int64    `json:"quantity"`
	Option1  *string  `json:"option1"`
	Option2  []string `json:"option2"`
}

// sameIdentity reports whether l matches the (menuId, option1, option2-as-set) triple.
func (l Line) sameIdentity(menuID string, option1 *string, option2 []string) bool {
	if l.MenuID != menuID {
		return false
	}
	if (l.Option1 == nil) != (option1 == nil) {
		return false
	}
	if l.Option1 != nil && *l.Option1 != *option1 {
		return false
	}

	return sameSet(l.Option2, option2)
}

func sameSet(a, b []string) bool {
	left := make(map[string]struct{}, len(a))
	for _, v := range a {
		left[v] = struct{}{}
	}
	right := make(map[string]struct{}, len(b))
	for _, v := range b {
		right[v] = struct{}{}
	}
	if len(left) != len(right) {
		return false
	}
	for v := range left {
		if _, ok := right[v]; !ok {
			return false
		}
	}

	return true
}

// Cart is the versioned set of lines owned by one user.
type Cart struct {
	UserEmail string `json:"userEmail"`
	Version   int64  `json:"version"`
	Lines     []Line `json:"lines"`
}

// Add merges quantity into the line with the same identity triple, or
// appends a new line whose id is produced by newID.
func (c *Cart) Add(
	menuID string,
	quantity int64,
	option1 *string,
	option2 []string,
	newID func() string,
) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}

	for i := range c.Lines {
		if c.Lines[i].sameIdentity(menuID, option1, option2) {
			c.Lines[i].Quantity += quantity
			return c.Lines[i], nil
		}
	}

	line := Line{
		ItemID:   newID(),
		MenuID:   menuID,
		Quantity: quantity,
		Option1:  option1,
		Option2:  slices.Clone(option2),
	}
	if line.Option2 == nil {
		line.Option2 = []string{}
	}
	c.Lines = append(c.Lines, line)

	return line, nil
}

// SetQuantity updates the first line for menuID, ignoring options.
// It reports whether a line was found.
func (c *Cart) SetQuantity(menuID string, quantity int64) (bool, error) {
	if quantity < 1 {
		return false, ErrInvalidQuantity
	}

	for i := range c.Lines {
		if c.Lines[i].MenuID == menuID {
			c.Lines[i].Quantity = quantity
			return true, nil
		}
	}

	return false, nil
}

// Remove deletes the line with itemID. It reports whether a line was removed.
func (c *Cart) Remove(itemID string) bool {
	before := len(c.Lines)
	c.Lines = slices.DeleteFunc(c.Lines, func(l Line) bool {
		return l.ItemID == itemID
	})

	return len(c.Lines) != before
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.Lines = []Line{}
}

// MenuIDs returns the distinct menu ids referenced by the cart, in line order.
func (c *Cart) MenuIDs() []string {
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		if !slices.Contains(ids, l.MenuID) {
			ids = append(ids, l.MenuID)
		}
	}

	return ids
}

package cart

import (
	"strings"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/menu"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/pricing"
)

// ViewLine is a cart line resolved against the catalog. Error is set, and the
// price fields are zero, when the referenced menu item no longer exists.
type ViewLine struct {
	Line
	Name          string `json:"name,omitempty"`
	ImageRef      string `json:"image,omitempty"`
	PriceMinor    int64  `json:"price"`
	LineTotal     int64  `json:"line_total"`
	Option2Joined string `json:"option2_display"`
	Error         string `json:"error,omitempty"`
}

// View is the priced content of a cart.
type View struct {
	Lines []ViewLine `json:"lines"`
	pricing.Breakdown
}

// Resolve joins lines with the catalog items keyed by menu id. Lines whose
// item is missing are kept with a stale-reference error and left out of
// the returned pricing lines.
func Resolve(lines []Line, items map[string]menu.MenuItem) ([]ViewLine, []pricing.Line) {
	view := make([]ViewLine, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))

	for _, l := range lines {
		vl := ViewLine{
			Line:          l,
			Option2Joined: strings.Join(l.Option2, ", "),
		}

		item, ok := items[l.MenuID]
		if !ok {
			vl.Error = (&errs.StaleReferenceError{MenuID: l.MenuID}).Error()
			view = append(view, vl)
			continue
		}

		vl.Name = item.Name
		vl.ImageRef = item.ImageRef
		vl.PriceMinor = item.PriceMinor
		vl.LineTotal = item.PriceMinor * l.Quantity
		view = append(view, vl)

		priced = append(priced, pricing.Line{
			MenuID:     l.MenuID,
			PriceMinor: item.PriceMinor,
			Quantity:   l.Quantity,
		})
	}

	return view, priced
}

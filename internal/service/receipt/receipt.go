package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/currency"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/order"
	"github.com/corray333/backend-labs/coffeeshop/internal/service/models/user"
)

const timestampLayout = "2006-01-02 15:04:05"

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"idr":  currency.Format,
	"join": strings.Join,
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"lineTotal": func(l order.LineSnapshot) int64 {
		return l.PriceMinor * l.Quantity
	},
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt #{{.Order.ID}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 4px; border-bottom: 1px solid #ddd; text-align: left; }
td.num { text-align: right; }
</style>
</head>
<body>
<h1>Receipt #{{.Order.ID}}</h1>
<p>{{.User.UserName}} &lt;{{.User.Email}}&gt;</p>
<p>{{.Timestamp}} &middot; {{.Order.Status}}</p>
<table>
<tr><th>Item</th><th>Options</th><th>Qty</th><th>Price</th><th>Total</th></tr>
{{range .Order.Lines}}<tr>
<td>{{.Name}}</td>
<td>{{deref .Option1}}{{if .Option2}}, {{join .Option2 ", "}}{{end}}</td>
<td class="num">{{.Quantity}}</td>
<td class="num">{{idr .PriceMinor}}</td>
<td class="num">{{idr (lineTotal .)}}</td>
</tr>
{{end}}<tr><th colspan="4">Total</th><td class="num">{{idr .Order.TotalPriceMinor}}</td></tr>
</table>
</body>
</html>
`))

type receiptData struct {
	Order     order.Order
	User      user.User
	Timestamp string
}

// Render produces the HTML receipt of o for its owner u.
func Render(o order.Order, u user.User) (string, error) {
	var buf bytes.Buffer
	err := receiptTemplate.Execute(&buf, receiptData{
		Order:     o,
		User:      u,
		Timestamp: o.CreatedAt.Format(timestampLayout),
	})
	if err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}

	return buf.String(), nil
}

package currency

import (
	"strconv"
	"strings"
)

// Format renders an IDR amount with dot thousand separators: 15000 -> "Rp 15.000".
func Format(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	return sign + "Rp " + b.String()
}

package menu

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/corray333/backend-labs/coffeeshop/internal/service/errs"
)

// menuIDSeqWidth is the minimum number of digits in a generated menu id.
const menuIDSeqWidth = 2

// Prefix builds the menu id namespace from the uppercased first character
// of every category, in order: ["coffee", "snack"] -> "CS".
func Prefix(categories []string) (string, error) {
	if len(categories) == 0 {
		return "", errs.NewValidation("At least one category is required")
	}

	var b strings.Builder
	for _, category := range categories {
		first, size := utf8.DecodeRuneInString(category)
		if size == 0 {
			return "", errs.NewValidation("Category names must not be empty")
		}
		b.WriteString(strings.ToUpper(string(first)))
	}

	return b.String(), nil
}

// NextMenuID returns prefix followed by one more than the highest numeric
// suffix among existing ids of the exact form prefix+digits. The sequence is
// zero-padded to two digits but never truncated.
func NextMenuID(prefix string, existing []string) string {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `(\d+)$`)

	var maxSeq int
	for _, id := range existing {
		match := pattern.FindStringSubmatch(id)
		if match == nil {
			continue
		}
		seq, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}

	return fmt.Sprintf("%s%0*d", prefix, menuIDSeqWidth, maxSeq+1)
}

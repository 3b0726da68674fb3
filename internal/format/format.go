// Package format holds pure display helpers for catalog values.
package format

import (
	"strconv"
	"strings"

	"shopsearch/internal/domain"
)

// PriceUnavailable is shown when a product has no usable price.
const PriceUnavailable = "Price not available"

// Price renders a fixed two-decimal dollar amount, or PriceUnavailable.
func Price(a domain.Amount) string {
	if !a.Usable() {
		return PriceUnavailable
	}
	return "$" + strconv.FormatFloat(a.Value, 'f', 2, 64)
}

// Tags splits a '|'-separated tag list, trimming entries and dropping empty ones.
func Tags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, "|") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Ingredients splits a ';'-separated ingredient list and trims each entry.
// Interior empty entries are kept; a blank list yields nil.
func Ingredients(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Sources renders the compact source badge line: "Sources: 1 2 3 +2 more".
// shown caps how many numbers are listed.
func Sources(n, shown int) string {
	if n <= 0 {
		return ""
	}
	if shown <= 0 || shown > n {
		shown = n
	}
	var b strings.Builder
	b.WriteString("Sources:")
	for i := 1; i <= shown; i++ {
		b.WriteString(" ")
		b.WriteString(strconv.Itoa(i))
	}
	if n > shown {
		b.WriteString(" +")
		b.WriteString(strconv.Itoa(n - shown))
		b.WriteString(" more")
	}
	return b.String()
}

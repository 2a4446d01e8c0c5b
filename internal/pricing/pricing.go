// Package pricing holds the default price conversion used to turn provider
// minor-unit amounts into display values, and the sort key the grouping
// engine extracts from those display values.
package pricing

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Func converts a provider amount in minor units to a display amount.
// The engine treats the output as opaque apart from SortKey.
type Func func(minorUnits int64, providerCurrency string) string

// Markup is a display converter applying a percentage markup.
type Markup struct {
	// DisplayCurrency overrides the provider currency tag when set.
	DisplayCurrency string
	Percent         float64
	printer         *message.Printer
}

func NewMarkup(displayCurrency string, percent float64) *Markup {
	return &Markup{
		DisplayCurrency: displayCurrency,
		Percent:         percent,
		printer:         message.NewPrinter(language.English),
	}
}

// Convert renders e.g. 123450 ZAR at 0% as "ZAR1,234.50".
func (m *Markup) Convert(minorUnits int64, providerCurrency string) string {
	cur := providerCurrency
	if m.DisplayCurrency != "" {
		cur = m.DisplayCurrency
	}
	v := float64(minorUnits) / 100 * (1 + m.Percent/100)
	return strings.ToUpper(cur) + m.printer.Sprintf("%.2f", v)
}

// Func adapts Convert to the Func signature.
func (m *Markup) Func() Func { return m.Convert }

// SortKey strips every non-digit from a display amount. Values with no
// digits, or too many to fit, sort as zero.
func SortKey(display string) int64 {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, display)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

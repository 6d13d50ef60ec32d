// Package locale parses and formats numbers the way the Brazilian extracts
// write them: "." groups thousands and "," separates decimals.
package locale

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing is rendered for absent values.
const Missing = "—"

var printer = message.NewPrinter(language.BrazilianPortuguese)

// ParseNumber parses a display-formatted number such as "1.234,56", "5%" or
// " 12 ". It returns nil for blank or unparseable input (a currency symbol
// makes the input unparseable) and never panics.
//
// Every "." is dropped and every "," becomes the decimal point, so the same
// convention applies to amounts, quantities and unit values.
func ParseNumber(s string) *decimal.Decimal {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '%', r == '.', unicode.IsSpace(r):
		case r == ',':
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if cleaned == "" {
		return nil
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}

// ParseNumberPtr is ParseNumber for an optional cell.
func ParseNumberPtr(s *string) *decimal.Decimal {
	if s == nil {
		return nil
	}
	return ParseNumber(*s)
}

// FormatNumber renders d with pt-BR grouping: whole values without decimals,
// anything else with two. Nil renders as Missing.
func FormatNumber(d *decimal.Decimal) string {
	if d == nil {
		return Missing
	}
	if d.Equal(d.Truncate(0)) {
		return printer.Sprintf("%d", d.IntPart())
	}
	f, _ := d.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

// FormatMoney renders d as Brazilian currency ("R$ 1.234,56"), or Missing
// when d is nil.
func FormatMoney(d *decimal.Decimal) string {
	if d == nil {
		return Missing
	}
	f, _ := d.Round(2).Float64()
	return "R$ " + printer.Sprintf("%.2f", f)
}

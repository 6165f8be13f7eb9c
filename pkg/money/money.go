// Package money converts between the currency strings shown on the dashboard
// and the decimal amounts stored on payments.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is rendered when an option carries no usable price.
const NotAvailable = "N/A"

var usPrinter = message.NewPrinter(language.AmericanEnglish)

// ParsePrice strips the currency symbol and thousands separators from a
// display price and parses the remainder.
func ParsePrice(display string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(display)
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("price %q has no numeric value", display)
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number: %w", display, err)
	}
	return amount, nil
}

// FormatUSD renders amount the way en-US locale formatting does: grouped
// thousands and at most three fraction digits, prefixed with "$".
func FormatUSD(amount decimal.Decimal) string {
	f, _ := amount.Float64()
	return "$" + usPrinter.Sprint(number.Decimal(f, number.MaxFractionDigits(3)))
}

// FormatFixed renders amount with exactly two decimals and no grouping.
func FormatFixed(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

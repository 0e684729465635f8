package catalog

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IST is the zone dates are rendered in.
var IST = time.FixedZone("IST", 5*60*60+30*60)

// FormatINR formats an amount in Indian Rupee notation with exactly two
// decimal places, e.g. ₹1,23,45,678.90.
func FormatINR(amount decimal.Decimal) string {
	return formatRupees(amount.StringFixed(2))
}

// FormatINRShort formats an amount the way the dashboard displays prices:
// Indian grouping with at most two decimal places and no trailing zeros,
// e.g. ₹15,000 or ₹1,250.5.
func FormatINRShort(amount decimal.Decimal) string {
	return formatRupees(amount.Round(2).String())
}

func formatRupees(raw string) string {
	negative := strings.HasPrefix(raw, "-")
	raw = strings.TrimPrefix(raw, "-")

	intPart, decPart, hasDec := strings.Cut(raw, ".")
	result := "₹" + applyIndianGrouping(intPart)
	if hasDec {
		result += "." + decPart
	}
	if negative {
		result = "-" + result
	}
	return result
}

// applyIndianGrouping inserts commas into an integer string using the
// Indian numbering system: the rightmost 3 digits form the first group,
// then every 2 digits form subsequent groups.
func applyIndianGrouping(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	remaining := s[:n-3]
	for len(remaining) > 2 {
		result = remaining[len(remaining)-2:] + "," + result
		remaining = remaining[:len(remaining)-2]
	}
	if len(remaining) > 0 {
		result = remaining + "," + result
	}
	return result
}

// FormatDate renders t as an en-IN short date (d/m/yyyy) in IST.
func FormatDate(t time.Time) string {
	return t.In(IST).Format("2/1/2006")
}

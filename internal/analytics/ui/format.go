package ui

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/threshold"
)

// NotAvailable is rendered for undefined values.
const NotAvailable = "N/A"

var printer = message.NewPrinter(language.English)

// Money formats a whole-dollar amount with grouping, e.g. "$1,234,567".
func Money(v float64) string {
	if v < 0 {
		return "-" + Money(-v)
	}
	return printer.Sprintf("$%.0f", math.Round(v))
}

// MoneyPtr formats an optional amount.
func MoneyPtr(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return Money(*v)
}

// Compact abbreviates large amounts, e.g. "$1.2M".
func Compact(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1_000_000_000:
		return printer.Sprintf("%s$%.1fB", sign, abs/1_000_000_000)
	case abs >= 1_000_000:
		return printer.Sprintf("%s$%.1fM", sign, abs/1_000_000)
	case abs >= 1_000:
		return printer.Sprintf("%s$%.0fK", sign, abs/1_000)
	default:
		return printer.Sprintf("%s$%.0f", sign, abs)
	}
}

// Percent formats a percentage with one decimal.
func Percent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return printer.Sprintf("%.1f%%", *v)
}

// SignedPercent formats a change in percent with an explicit sign.
func SignedPercent(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return printer.Sprintf("%+.1f%%", *v)
}

// SignedPoints formats a change in percentage points.
func SignedPoints(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return printer.Sprintf("%+.1f pts", *v)
}

// Days formats a day-count ratio.
func Days(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return printer.Sprintf("%.1f days", *v)
}

// Count formats an integer with grouping.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// StatusClass maps a threshold status to its CSS class.
func StatusClass(s threshold.Status) string {
	switch s {
	case threshold.Good:
		return "status-good"
	case threshold.Warning:
		return "status-warning"
	case threshold.Poor:
		return "status-poor"
	default:
		return "status-unknown"
	}
}

// StatusLabel is the badge text for s.
func StatusLabel(s threshold.Status) string {
	switch s {
	case threshold.Good:
		return "Good"
	case threshold.Warning:
		return "Watch"
	case threshold.Poor:
		return "Action"
	default:
		return NotAvailable
	}
}

// TrendClass maps a customer trend to its CSS class.
func TrendClass(d customers.Direction) string {
	switch d {
	case customers.Growing:
		return "trend-up"
	case customers.Declining:
		return "trend-down"
	case customers.Stable:
		return "trend-flat"
	default:
		return "trend-unknown"
	}
}

// StandingClass maps a margin standing to its CSS class.
func StandingClass(s customers.Standing) string {
	switch s {
	case customers.Above:
		return "margin-above"
	case customers.Near:
		return "margin-near"
	case customers.Below:
		return "margin-below"
	default:
		return "margin-unknown"
	}
}

// SignClass is "up", "down" or "flat" for a signed change.
func SignClass(v *float64) string {
	switch {
	case v == nil || *v == 0:
		return "flat"
	case *v > 0:
		return "up"
	default:
		return "down"
	}
}

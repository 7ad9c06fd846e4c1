// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatUSD formats a dollar amount with magnitude suffixes.
// e.g., 1_234_000 -> "$1.2M", 45_700_000_000 -> "$45.7bn"
func FormatUSD(v float64) string {
	abs := math.Abs(v)

	switch {
	case abs >= 1_000_000_000:
		return fmt.Sprintf("$%.2fbn", v/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("$%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.0f", v)
	}
}

// FormatUSDFull formats a dollar amount with comma separators and no
// magnitude suffix, for table cells where exact figures matter.
func FormatUSDFull(v float64) string {
	return "$" + FormatNumber(int64(math.Round(v)))
}

// FormatPercent formats a percentage that is already on the 0-100 scale.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.1f%%", pct)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDuration formats a duration in whole seconds or milliseconds.
func FormatDuration(ms int64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%dms", ms)
}

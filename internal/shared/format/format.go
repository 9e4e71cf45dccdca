// Package format renders token base units and payment intervals for display.
package format

import (
	"fmt"
	"math"
	"strings"
)

// DefaultDecimals is used when a plan does not name its token decimals.
const DefaultDecimals = 18

// Price converts a base-unit integer string into a decimal string with
// trailing zeros removed, e.g. Price("1500000", 6) == "1.5".
func Price(baseUnits string, decimals int) string {
	if baseUnits == "" || baseUnits == "0" {
		return "0"
	}
	if decimals <= 0 {
		return baseUnits
	}

	padded := baseUnits
	if len(padded) < decimals+1 {
		padded = strings.Repeat("0", decimals+1-len(padded)) + padded
	}

	whole := padded[:len(padded)-decimals]
	frac := strings.TrimRight(padded[len(padded)-decimals:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// Interval renders a number of seconds as the largest whole unit, rounded.
func Interval(seconds int64) string {
	switch {
	case seconds <= 0:
		return "—"
	case seconds >= 86400:
		return plural(roundDiv(seconds, 86400), "day")
	case seconds >= 3600:
		return plural(roundDiv(seconds, 3600), "hour")
	case seconds >= 60:
		return plural(roundDiv(seconds, 60), "minute")
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

func roundDiv(n, d int64) int64 {
	return int64(math.Round(float64(n) / float64(d)))
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Package format renders trace values for terminal and JSON surfaces.
package format

import (
	"math"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	// DateLayout is the layout used for request and response times.
	DateLayout = "2006-01-02 15:04:05"

	// Placeholder stands in for a missing date.
	Placeholder = "---"

	// Unknown stands in for a missing number.
	Unknown = "unknown"
)

// Date formats t in DateLayout, or Placeholder when t is zero.
func Date(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Format(DateLayout)
}

// Duration formats a millisecond duration as "12.50 ms" below one second and
// "1.25 s" otherwise.
func Duration(ms *float64) string {
	if ms == nil || math.IsNaN(*ms) {
		return Unknown
	}
	if *ms < 1000 {
		return strconv.FormatFloat(*ms, 'f', 2, 64) + " ms"
	}
	return strconv.FormatFloat(*ms/1000, 'f', 2, 64) + " s"
}

// Tokens formats a token count with digit grouping.
func Tokens(n *int64) string {
	if n == nil {
		return Unknown
	}
	return humanize.Comma(*n)
}

// Compact formats v in short form rounded half away from zero to one
// decimal: 950, 1.2K, 3.5M, 5B. A value that rounds up to 1000 of one unit
// carries into the next, so 999,950 is "1M".
func Compact(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	if math.Abs(v) < 1000 {
		if r := roundTenth(v); math.Abs(r) < 1000 {
			return humanize.FtoaWithDigits(r, 1)
		}
	}
	value, prefix := humanize.ComputeSI(v)
	value = roundTenth(value)
	if math.Abs(value) >= 1000 {
		if next, ok := siCarry[prefix]; ok {
			value, prefix = value/1000, next
		}
	}
	switch prefix {
	case "k":
		prefix = "K"
	case "G":
		prefix = "B"
	}
	return humanize.FtoaWithDigits(value, 1) + prefix
}

// siCarry maps an SI prefix to the next larger one.
var siCarry = map[string]string{"": "k", "k": "M", "M": "G", "G": "T", "T": "P", "P": "E"}

// roundTenth rounds to one decimal. The small epsilon absorbs binary error
// from ComputeSI, which yields 3.4499999 for 3,450,000.
func roundTenth(v float64) float64 {
	if v < 0 {
		return -roundTenth(-v)
	}
	return math.Round(v*10+1e-9) / 10
}

// Count formats an integer count with digit grouping.
func Count(n int64) string {
	return humanize.Comma(n)
}

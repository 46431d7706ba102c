package countup

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Format renders t as the final text a display settles on.
//
// Numbers are grouped in thousands and rendered with opts.Decimals fixed
// places, ties rounding up (2.5 shows as 3); negative and non-finite numbers
// render as zero. Strings are
// returned unchanged, which makes Format idempotent on its own output.
// Prefix and suffix are wrapped around the result.
func Format(t Target, opts Options) string {
	return opts.Prefix + formatBody(t, opts) + opts.Suffix
}

func formatBody(t Target, opts Options) string {
	if t.isText {
		return t.text
	}
	if opts.IsDate {
		// Date tokens are shown verbatim; pass them as Text to keep a
		// trailing zero month such as "2024.10".
		return t.String()
	}
	return formatNumber(t.number, opts.Decimals, opts.separator())
}

func formatNumber(v float64, decimals int, sep string) string {
	if decimals < 0 {
		decimals = 0
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}

	fixed := decimal.NewFromFloat(v).StringFixed(int32(decimals))
	intPart, fracPart, _ := strings.Cut(fixed, ".")
	grouped := groupThousands(intPart, sep)
	if fracPart == "" {
		return grouped
	}
	return grouped + "." + fracPart
}

// groupThousands inserts sep every three digits from the right.
func groupThousands(digits, sep string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3*len(sep))
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// splitDate splits a date token such as "2024.09" into its two digit groups.
func splitDate(s string) ([]string, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return nil, false
	}
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
		for _, r := range p {
			if !isDigit(r) {
				return nil, false
			}
		}
	}
	return parts, true
}

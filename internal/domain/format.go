package domain

import (
	"fmt"
	"math"
	"strings"
)

// NullPlaceholder renders absent metrics in human-facing strings.
const NullPlaceholder = "—"

// LikeRatio derives upvote share, nil when there are no votes at all.
// The value is rounded to 6 decimal places and always lands in [0,1].
func LikeRatio(up, down *int64) *float64 {
	if up == nil || down == nil {
		return nil
	}
	total := *up + *down
	if total == 0 {
		return nil
	}
	r := math.Round(float64(*up)/float64(total)*1e6) / 1e6
	return &r
}

// CompactCount formats a metric for display: 1234 -> "1.2K", nil -> "—".
func CompactCount(v *int64) string {
	if v == nil {
		return NullPlaceholder
	}
	n := float64(*v)
	neg := ""
	if n < 0 {
		neg = "-"
		n = -n
	}
	switch {
	case n >= 1e9:
		return neg + trimCompact(n/1e9) + "B"
	case n >= 1e6:
		return neg + trimCompact(n/1e6) + "M"
	case n >= 1e3:
		return neg + trimCompact(n/1e3) + "K"
	default:
		return fmt.Sprintf("%s%d", neg, int64(n))
	}
}

func trimCompact(n float64) string {
	s := fmt.Sprintf("%.1f", n)
	return strings.TrimSuffix(s, ".0")
}

// RatioPercent renders a like ratio as "87%", or the placeholder when nil.
func RatioPercent(r *float64) string {
	if r == nil {
		return NullPlaceholder
	}
	return fmt.Sprintf("%.0f%%", *r*100)
}

// TruncateRunes cuts s to at most n runes, appending an ellipsis when
// anything was dropped. Safe for multi-byte text.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

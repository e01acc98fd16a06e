package script

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const pyeongPerSqm = 1.0 / 3.3058

// FormatWonSimple renders a won amount in spoken Korean units, e.g.
// 850000000 -> "8억 5천만원", 123450000 -> "1억 2천3백4십5만원".
func FormatWonSimple(amount int64) string {
	if amount <= 0 {
		return "0원"
	}
	eok := amount / 100_000_000
	man := (amount % 100_000_000) / 10_000

	var parts []string
	if eok > 0 {
		parts = append(parts, fmt.Sprintf("%d억", eok))
	}
	if man > 0 {
		parts = append(parts, formatManUnits(man)+"만")
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d원", amount)
	}
	return strings.Join(parts, " ") + "원"
}

// formatManUnits renders a value below 10000 digit by digit with the
// 천/백/십 unit suffixes, e.g. 2345 -> "2천3백4십5".
func formatManUnits(n int64) string {
	var b strings.Builder
	if d := n / 1000; d > 0 {
		fmt.Fprintf(&b, "%d천", d)
	}
	if d := (n % 1000) / 100; d > 0 {
		fmt.Fprintf(&b, "%d백", d)
	}
	if d := (n % 100) / 10; d > 0 {
		fmt.Fprintf(&b, "%d십", d)
	}
	if d := n % 10; d > 0 {
		fmt.Fprintf(&b, "%d", d)
	}
	return b.String()
}

// FormatArea renders square meters with the conventional pyeong
// equivalent, e.g. 84.92 -> "84.92㎡(약 25.7평)".
func FormatArea(sqm float64) string {
	if sqm <= 0 {
		return ""
	}
	pyeong := sqm * pyeongPerSqm
	return fmt.Sprintf("%.2f㎡(약 %.1f평)", sqm, pyeong)
}

// FormatAreaPyeong renders an area already measured in pyeong,
// e.g. 85.5 -> "85.5평".
func FormatAreaPyeong(pyeong float64) string {
	if pyeong <= 0 {
		return ""
	}
	return fmt.Sprintf("%.1f평", pyeong)
}

// FormatPercent renders a ratio as a truncated integer percentage.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%d%%", int(ratio*100))
}

// FormatDateKorean renders an ISO date as "2025년 3월 14일". Inputs that
// do not parse are returned unchanged so narration never drops a date.
func FormatDateKorean(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d년 %d월 %d일", t.Year(), int(t.Month()), t.Day())
}

// SyllableCount counts the non-whitespace runes of a narration text.
// Korean speech pacing is estimated per syllable, and for hangul one
// rune is one syllable.
func SyllableCount(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Package text provides chat output helpers: sentence-aware clamping,
// display-name sanitizing, and fixed-width column layout.
package text

import (
	"strings"
)

// colWidth is the cell width used by ThreeColumns.
const colWidth = 16

// CleanName strips formatting markers from a display name and falls back
// to "Unknown" when nothing printable remains.
func CleanName(name string) string {
	n := strings.TrimSpace(strings.ReplaceAll(name, "*", ""))
	if n == "" {
		return "Unknown"
	}
	return n
}

// OneLine collapses newlines and runs of whitespace into single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// EndClean ensures a non-empty string ends with terminal punctuation.
func EndClean(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return t
	}
	switch t[len(t)-1] {
	case '.', '!', '?':
		return t
	}
	return t + "."
}

// Clamp flattens s to one line and truncates it to at most max runes,
// preferring to cut at the end of a sentence when one lands far enough in.
func Clamp(s string, max int) string {
	out := OneLine(s)
	runes := []rune(out)
	if len(runes) <= max {
		return EndClean(out)
	}
	cut := string(runes[:max])
	last := strings.LastIndex(cut, ". ")
	if i := strings.LastIndex(cut, "! "); i > last {
		last = i
	}
	if i := strings.LastIndex(cut, "? "); i > last {
		last = i
	}
	if i := strings.LastIndex(cut, "."); i > last {
		last = i
	}
	if last > 40 {
		cut = cut[:last+1]
	}
	return EndClean(cut)
}

// Pad right-pads s with spaces to n characters.
func Pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

// ThreeColumns lays out cells in rows of three fixed-width columns,
// used for the /commands card.
func ThreeColumns(cells []string) string {
	var rows []string
	for i := 0; i < len(cells); i += 3 {
		var row strings.Builder
		for j := i; j < i+3 && j < len(cells); j++ {
			row.WriteString(Pad(cells[j], colWidth))
		}
		rows = append(rows, strings.TrimRight(row.String(), " "))
	}
	return strings.Join(rows, "\n")
}

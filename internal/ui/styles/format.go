package styles

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/truncate"
)

// TruncateString truncates a string to fit within maxWidth cells, adding an
// ellipsis if needed.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return truncate.StringWithTail(s, uint(maxWidth), "...") //nolint:gosec // maxWidth > 3
}

// Cell truncates s and pads it with spaces to exactly width cells.
func Cell(s string, width int) string {
	return runewidth.FillRight(TruncateString(s, width), width)
}

// Stars renders a hotel rating, e.g. "★★★★☆" for 4 of 5.
func Stars(n int) string {
	n = max(0, min(n, 5))
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

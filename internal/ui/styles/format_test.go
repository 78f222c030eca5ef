package styles

import (
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/require"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		width    int
		expected string
	}{
		{"fits", "Lviv", 10, "Lviv"},
		{"exact", "Lviv", 4, "Lviv"},
		{"truncated", "Black Sea Pearl", 10, "Black S..."},
		{"tiny width", "Black Sea Pearl", 2, ".."},
		{"zero width", "Black Sea Pearl", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, TruncateString(tt.in, tt.width))
		})
	}
}

func TestCell(t *testing.T) {
	require.Equal(t, "Odesa     ", Cell("Odesa", 10))
	require.Equal(t, "Sharm ...", Cell("Sharm El Sheikh", 9))
	require.Equal(t, 8, runewidth.StringWidth(Cell("★★★", 8)))
}

func TestStars(t *testing.T) {
	require.Equal(t, "★★★★☆", Stars(4))
	require.Equal(t, "☆☆☆☆☆", Stars(-1))
	require.Equal(t, "★★★★★", Stars(9))
}

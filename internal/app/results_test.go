package app

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
)

func tourAt(id, hotel string, amount float64) search.TourRecord {
	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	return search.TourRecord{
		ID:        id,
		HotelID:   hotel,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 7),
		Amount:    amount,
		Currency:  "uah",
	}
}

func TestResultsTable_Rows(t *testing.T) {
	table := resultsTable{
		tours: []search.TourRecord{tourAt("a", "1001", 12500), tourAt("b", "9999", 30000)},
		hotels: map[string]backend.Hotel{
			"1001": {ID: "1001", Name: "Black Sea Pearl", CityName: "Odesa", Stars: 4},
		},
		cursor: 1,
		width:  100,
	}

	lines := strings.Split(ansi.Strip(table.View()), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Hotel")
	require.Contains(t, lines[0], "Price")
	require.Contains(t, lines[1], "Black Sea Pearl")
	require.Contains(t, lines[1], "Odesa")
	require.Contains(t, lines[1], "12 500 UAH")
	require.Contains(t, lines[1], "2026-11-02 → 2026-11-09")
	require.True(t, strings.HasPrefix(lines[2], "> "), "cursor row is marked")
	// Unknown hotels fall back to their id.
	require.Contains(t, lines[2], "9999")
}

func TestResultsTable_WindowFollowsCursor(t *testing.T) {
	var tours []search.TourRecord
	for i := range 5 {
		tours = append(tours, tourAt(string(rune('a'+i)), "1001", float64(1000*(i+1))))
	}

	table := resultsTable{tours: tours, limit: 2, width: 80}
	start, end := table.window()
	require.Equal(t, 0, start)
	require.Equal(t, 2, end)

	table.cursor = 4
	start, end = table.window()
	require.Equal(t, 3, start)
	require.Equal(t, 5, end)
	require.Contains(t, ansi.Strip(table.View()), "showing 4-5 of 5")

	table.limit = 0
	start, end = table.window()
	require.Equal(t, 0, start)
	require.Equal(t, 5, end)
}

func TestResultsTable_Empty(t *testing.T) {
	require.Empty(t, resultsTable{width: 80}.View())
}

func TestHotelMarkdown(t *testing.T) {
	h, err := backend.NewDirectory().Hotel(t.Context(), "1002")
	require.NoError(t, err)

	md := hotelMarkdown(h, tourAt("x", "1002", 42000))
	require.Contains(t, md, "# Opera Boutique")
	require.Contains(t, md, "Odesa, Ukraine")
	require.Contains(t, md, "42 000 UAH")
	require.Contains(t, md, "| Wi-Fi | yes |")
	require.Contains(t, md, "| Parking | no |")
	// Services the hotel does not list at all are left out.
	require.NotContains(t, md, "Aqua park")
}

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

const (
	colMarker = 2
	colCity   = 16
	colStars  = 6
	colDates  = 24
	colNights = 7
	colPrice  = 14
	minHotel  = 12
)

// resultsTable renders tours as rows: hotel, city, stars, dates, nights
// and price. At most limit rows are shown, scrolled so the cursor stays
// visible.
type resultsTable struct {
	tours  []search.TourRecord
	hotels map[string]backend.Hotel
	cursor int
	limit  int
	width  int
}

func (t resultsTable) hotelWidth() int {
	fixed := colMarker + colCity + colStars + colDates + colNights + colPrice
	return max(minHotel, t.width-fixed)
}

// window returns the [start, end) slice of rows to draw.
func (t resultsTable) window() (int, int) {
	n := len(t.tours)
	if t.limit <= 0 || n <= t.limit {
		return 0, n
	}
	start := 0
	if t.cursor >= t.limit {
		start = t.cursor - t.limit + 1
	}
	return start, start + t.limit
}

func (t resultsTable) View() string {
	if len(t.tours) == 0 {
		return ""
	}
	hw := t.hotelWidth()

	var b strings.Builder
	header := strings.Repeat(" ", colMarker) +
		styles.Cell("Hotel", hw) +
		styles.Cell("City", colCity) +
		styles.Cell("Stars", colStars) +
		styles.Cell("Dates", colDates) +
		styles.Cell("Nights", colNights) +
		lipgloss.PlaceHorizontal(colPrice, lipgloss.Right, "Price")
	b.WriteString(styles.HeaderStyle.Render(header))
	b.WriteString("\n")

	start, end := t.window()
	for i := start; i < end; i++ {
		b.WriteString(t.row(i, hw))
		b.WriteString("\n")
	}
	if start > 0 || end < len(t.tours) {
		b.WriteString(styles.MutedStyle.Render(fmt.Sprintf("showing %d-%d of %d", start+1, end, len(t.tours))))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (t resultsTable) row(i, hotelWidth int) string {
	tour := t.tours[i]
	name, city, stars := tour.HotelID, "", 0
	if h, ok := t.hotels[tour.HotelID]; ok {
		name, city, stars = h.Name, h.CityName, h.Stars
	}

	marker := strings.Repeat(" ", colMarker)
	rowStyle := styles.RowStyle
	if i == t.cursor {
		marker = styles.SelectionIndicatorStyle.Render(">") + " "
		rowStyle = styles.SelectedRowStyle
	}

	starCell := ""
	if stars > 0 {
		starCell = styles.StarStyle.Render(styles.Cell(styles.Stars(stars), colStars))
	} else {
		starCell = styles.Cell("", colStars)
	}

	return marker +
		rowStyle.Render(styles.Cell(name, hotelWidth)+styles.Cell(city, colCity)) +
		starCell +
		rowStyle.Render(styles.Cell(formatDates(tour), colDates)+styles.Cell(fmt.Sprintf("%d", tour.Nights()), colNights)) +
		styles.PriceStyle.Render(lipgloss.PlaceHorizontal(colPrice, lipgloss.Right, tour.FormatPrice()))
}

func formatDates(t search.TourRecord) string {
	return t.StartDate.Format("2006-01-02") + " → " + t.EndDate.Format("2006-01-02")
}

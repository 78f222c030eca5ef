package app

import (
	"fmt"
	"math"
	"strings"

	"github.com/zjrosen/tourscout/internal/keys"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

const emptyResults = "No tours found for your query."

// View implements tea.Model.
func (m Model) View() string {
	if m.showHelp {
		return m.render(helpMarkdown(keys.Search.FullHelp()))
	}
	if m.showLogs {
		return m.logs.view()
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("tourscout"))
	b.WriteString(styles.MutedStyle.Render("  tours by country, city or hotel"))
	b.WriteString("\n")

	inputStyle := styles.InputStyle
	if m.focus == focusInput {
		inputStyle = styles.InputFocusedStyle
	}
	b.WriteString(inputStyle.Width(max(20, m.width-4)).Render(m.input.View()))
	b.WriteString("\n")
	if m.inputErr != "" {
		b.WriteString(styles.ErrorStyle.Render(m.inputErr))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if body := m.resultsView(); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.View(keys.Search))
	return b.String()
}

func (m Model) statusLine() string {
	s := m.snap
	switch s.Phase {
	case search.PhaseLoading:
		line := m.spinner.View() + " Searching " + s.Criteria.String()
		if wait := s.WaitUntil.Sub(m.now()); !s.WaitUntil.IsZero() && wait > 0 {
			line += fmt.Sprintf(", results expected in %ds", int(math.Ceil(wait.Seconds())))
		}
		return line
	case search.PhaseCancelling:
		return m.spinner.View() + " Cancelling search…"
	case search.PhaseError:
		return styles.ErrorStyle.Render(s.Error)
	case search.PhaseSuccess:
		if len(s.Results) == 0 {
			return styles.MutedStyle.Render(emptyResults)
		}
		return styles.SuccessStyle.Render(fmt.Sprintf("%d tours found for %s", len(s.Results), s.Criteria))
	default:
		return styles.MutedStyle.Render("Type a country code, optionally a city and hotel id, and press enter.")
	}
}

func (m Model) resultsView() string {
	tours := m.visibleTours()
	if len(tours) == 0 {
		return ""
	}

	if m.showDetail && m.cursor < len(tours) {
		return m.detailView(tours[m.cursor])
	}

	var b strings.Builder
	if m.snap.Phase != search.PhaseSuccess {
		b.WriteString(styles.BannerStyle.Render("Showing previous results for " + m.resultsFor.String()))
		b.WriteString("\n")
	}
	b.WriteString(resultsTable{
		tours:  tours,
		hotels: m.hotels,
		cursor: m.cursor,
		limit:  m.ui.ResultLimit,
		width:  m.width,
	}.View())
	return b.String()
}

func (m Model) detailView(tour search.TourRecord) string {
	h, ok := m.hotels[tour.HotelID]
	if !ok {
		if err := m.hotelErrs[tour.HotelID]; err != nil {
			return styles.ErrorStyle.Render("No details for hotel " + tour.HotelID + ": " + err.Error())
		}
		return styles.MutedStyle.Render("Loading hotel " + tour.HotelID + "…")
	}
	return styles.DetailStyle.Render(m.render(hotelMarkdown(h, tour)))
}

// render falls back to the raw markdown when glamour is unavailable.
func (m Model) render(md string) string {
	if m.md == nil {
		return md
	}
	out, err := m.md.Render(md)
	if err != nil {
		log.WarnErr(log.CatUI, "Markdown render failed", err)
		return md
	}
	return strings.TrimRight(out, "\n")
}

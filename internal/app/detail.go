package app

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

var serviceLabels = map[string]string{
	"wifi":     "Wi-Fi",
	"aquapark": "Aqua park",
	"parking":  "Parking",
	"laundry":  "Laundry",
}

// hotelMarkdown describes the hotel of a selected tour.
func hotelMarkdown(h backend.Hotel, tour search.TourRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", h.Name)
	fmt.Fprintf(&b, "%s · %s, %s\n\n", styles.Stars(h.Stars), h.CityName, h.CountryName)
	if h.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", h.Description)
	}
	fmt.Fprintf(&b, "**%s** for %d nights, %s\n\n", tour.FormatPrice(), tour.Nights(), formatDates(tour))

	names := make([]string, 0, len(h.Services))
	for name, v := range h.Services {
		if v == backend.ServiceNone {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return b.String()
	}
	slices.Sort(names)

	b.WriteString("| Service | Available |\n|---|---|\n")
	for _, name := range names {
		label := serviceLabels[name]
		if label == "" {
			label = name
		}
		fmt.Fprintf(&b, "| %s | %s |\n", label, h.Services[name])
	}
	return b.String()
}

// helpMarkdown lists every key binding.
func helpMarkdown(groups [][]key.Binding) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n| Key | Action |\n|---|---|\n")
	for _, g := range groups {
		for _, kb := range g {
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
	}
	return b.String()
}

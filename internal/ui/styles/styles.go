// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"}
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"}
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#696969"} // Hints, help text, footers
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"}

	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"}
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	SelectionIndicatorColor = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#FFFFFF"}
	PriceColor              = lipgloss.AdaptiveColor{Light: "#1A5276", Dark: "#54A0FF"}
	StarColor               = lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#FECA57"}

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}

	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	MutedStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Selection indicator style (">" prefix in the results table)
	SelectionIndicatorStyle = lipgloss.NewStyle().Bold(true).Foreground(SelectionIndicatorColor)

	SelectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(TextPrimaryColor)

	RowStyle = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(TextMutedColor)

	PriceStyle = lipgloss.NewStyle().Bold(true).Foreground(PriceColor)

	StarStyle = lipgloss.NewStyle().Foreground(StarColor)

	InputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDefaultColor).
			Padding(0, 1)

	InputFocusedStyle = InputStyle.BorderForeground(BorderFocusColor)

	// Banner above previous results while a new search runs or after an error.
	BannerStyle = lipgloss.NewStyle().
			Foreground(StatusWarningColor).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().Foreground(StatusSuccessColor)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderFocusColor).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)
)

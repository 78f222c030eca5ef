package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

const (
	logPaneLimit     = 500
	logPaneMinHeight = 5
	logPaneMaxHeight = 25
)

// logPane keeps the most recent log entries and renders them in a
// scrollable box. Entries arrive even while the pane is hidden.
type logPane struct {
	lines    []string
	minLevel log.Level
	width    int
	height   int
	viewport viewport.Model
}

func newLogPane() logPane {
	return logPane{minLevel: log.LevelInfo}
}

func (p *logPane) add(entry string) {
	p.lines = append(p.lines, strings.TrimSuffix(entry, "\n"))
	if over := len(p.lines) - logPaneLimit; over > 0 {
		p.lines = append(p.lines[:0], p.lines[over:]...)
	}
}

func (p *logPane) setSize(width, height int) {
	p.width = width
	p.height = height
	p.refresh()
}

// refresh rebuilds the viewport and follows the newest entry.
func (p *logPane) refresh() {
	if p.width == 0 || p.height == 0 {
		return
	}
	h := max(min(logPaneMaxHeight, p.height-6), logPaneMinHeight)
	p.viewport = viewport.New(p.contentWidth(), h)
	p.viewport.SetContent(p.content())
	p.viewport.GotoBottom()
}

// sync updates the content in place, keeping the scroll position unless
// the view was following the newest entry.
func (p *logPane) sync() {
	following := p.viewport.AtBottom()
	p.viewport.SetContent(p.content())
	if following {
		p.viewport.GotoBottom()
	}
}

func (p *logPane) handleKey(msg tea.KeyMsg) {
	switch msg.String() {
	case "c":
		p.lines = nil
		p.refresh()
	case "d":
		p.setLevel(log.LevelDebug)
	case "i":
		p.setLevel(log.LevelInfo)
	case "w":
		p.setLevel(log.LevelWarn)
	case "e":
		p.setLevel(log.LevelError)
	case "j", "down":
		p.viewport.ScrollDown(1)
	case "k", "up":
		p.viewport.ScrollUp(1)
	case "g":
		p.viewport.GotoTop()
	case "G":
		p.viewport.GotoBottom()
	}
}

func (p *logPane) setLevel(l log.Level) {
	p.minLevel = l
	p.refresh()
}

func (p logPane) contentWidth() int {
	return max(p.width-6, 20)
}

func (p logPane) visible() []string {
	var out []string
	for _, line := range p.lines {
		if l, ok := levelOf(line); !ok || l >= p.minLevel {
			out = append(out, line)
		}
	}
	return out
}

func (p logPane) content() string {
	lines := p.visible()
	if len(lines) == 0 {
		return styles.MutedStyle.Italic(true).Render("No logs to display")
	}
	width := p.contentWidth()
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if ansi.StringWidth(line) > width {
			line = ansi.Truncate(line, width-1, "…")
		}
		out = append(out, levelStyle(line).Render(line))
	}
	return strings.Join(out, "\n")
}

func (p logPane) view() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Logs"))
	b.WriteString(styles.MutedStyle.Render("  ≥ " + p.minLevel.String()))
	b.WriteString("\n")
	b.WriteString(p.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.MutedStyle.Render("[c] clear  [d/i/w/e] level  [j/k] scroll  [esc] close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(styles.BorderDefaultColor).
		Padding(0, 1).
		Render(b.String())
}

// levelOf reads the level tag written by the log package.
func levelOf(line string) (log.Level, bool) {
	for _, l := range []log.Level{log.LevelError, log.LevelWarn, log.LevelInfo, log.LevelDebug} {
		if strings.Contains(line, "["+l.String()+"]") {
			return l, true
		}
	}
	return log.LevelDebug, false
}

func levelStyle(line string) lipgloss.Style {
	l, ok := levelOf(line)
	if !ok {
		return styles.RowStyle
	}
	switch l {
	case log.LevelError:
		return lipgloss.NewStyle().Foreground(styles.StatusErrorColor)
	case log.LevelWarn:
		return lipgloss.NewStyle().Foreground(styles.StatusWarningColor)
	case log.LevelInfo:
		return styles.RowStyle
	default:
		return styles.MutedStyle
	}
}

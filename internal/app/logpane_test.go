package app

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/pubsub"
)

func logLine(level, msg string) string {
	return "2026-10-19T12:00:00 [" + level + "] [search] " + msg + "\n"
}

func logEvent(line string) pubsub.Event[string] {
	return pubsub.Event[string]{Type: pubsub.CreatedEvent, Payload: line}
}

func TestLogPane_FiltersByLevel(t *testing.T) {
	p := newLogPane()
	p.setSize(100, 40)
	p.add(logLine("DEBUG", "timer armed"))
	p.add(logLine("INFO", "search launched"))
	p.add(logLine("WARN", "poll failed, retrying"))
	p.add("continuation without a level")

	require.Equal(t, []string{
		"2026-10-19T12:00:00 [INFO] [search] search launched",
		"2026-10-19T12:00:00 [WARN] [search] poll failed, retrying",
		"continuation without a level",
	}, p.visible())

	p.handleKey(typeText("d"))
	require.Len(t, p.visible(), 4)

	p.handleKey(typeText("e"))
	require.Equal(t, []string{"continuation without a level"}, p.visible())
	require.Equal(t, log.LevelError, p.minLevel)

	p.handleKey(typeText("c"))
	require.Empty(t, p.lines)
	require.Contains(t, ansi.Strip(p.content()), "No logs to display")
}

func TestLogPane_KeepsNewestEntries(t *testing.T) {
	p := newLogPane()
	for i := 0; i < logPaneLimit+10; i++ {
		p.add(logLine("INFO", fmt.Sprintf("entry %d", i)))
	}
	require.Len(t, p.lines, logPaneLimit)
	require.Contains(t, p.lines[0], "entry 10")
	require.Contains(t, p.lines[logPaneLimit-1], fmt.Sprintf("entry %d", logPaneLimit+9))
}

func TestKeys_ToggleLogs(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m,
		logEvent(logLine("INFO", "search launched")),
		logEvent(logLine("DEBUG", "snapshot applied")),
	)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	require.True(t, m.showLogs)
	view := ansi.Strip(m.View())
	require.Contains(t, view, "search launched")
	require.NotContains(t, view, "snapshot applied")

	// Entries arriving while open show up immediately.
	m = update(t, m, logEvent(logLine("ERROR", "start search failed")))
	require.Contains(t, ansi.Strip(m.View()), "start search failed")

	// Keys go to the pane, not the search box.
	m = update(t, m, typeText("w"))
	require.Equal(t, log.LevelWarn, m.logs.minLevel)
	require.Empty(t, m.input.Value())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.showLogs)
	require.NotContains(t, ansi.Strip(m.View()), "start search failed")
}

package app

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/config"
	"github.com/zjrosen/tourscout/internal/flags"
	"github.com/zjrosen/tourscout/internal/pubsub"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/search/searchtest"
)

// fakeController records commands and never publishes on its own.
type fakeController struct {
	mu      sync.Mutex
	started []search.Criteria
	cancels int
	resets  int
	snap    search.Snapshot
	broker  *pubsub.Broker[search.Snapshot]
}

func newFakeController() *fakeController {
	return &fakeController{broker: pubsub.NewBroker[search.Snapshot]()}
}

func (f *fakeController) Subscribe(ctx context.Context) <-chan pubsub.Event[search.Snapshot] {
	return f.broker.Subscribe(ctx)
}

func (f *fakeController) StartSearch(c search.Criteria) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, c)
	return nil
}

func (f *fakeController) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancels++
	return nil
}

func (f *fakeController) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

func (f *fakeController) Snapshot() search.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, ctrl Controller, fl map[string]bool) Model {
	t.Helper()
	m := New(ctrl, backend.NewDirectory(), flags.New(fl), config.UIConfig{MarkdownStyle: "dark", ResultLimit: 20},
		WithNow(func() time.Time { return testNow }))
	t.Cleanup(m.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, cmd := m.Update(msg)
		m = next.(Model)
		// Hotel loads run synchronously so the index is populated.
		for _, loaded := range hotelLoads(cmd) {
			next, _ = m.Update(loaded)
			m = next.(Model)
		}
	}
	return m
}

// hotelLoads runs cmd and returns the hotel loads it produced. Commands
// that block, such as the snapshot listener, are abandoned after a short
// wait.
func hotelLoads(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return nil
	}

	switch msg := msg.(type) {
	case hotelsLoadedMsg, hotelLoadedMsg:
		return []tea.Msg{msg}
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, hotelLoads(c)...)
		}
		return out
	}
	return nil
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func snapshot(s search.Snapshot) pubsub.Event[search.Snapshot] {
	return pubsub.Event[search.Snapshot]{Type: pubsub.UpdatedEvent, Payload: s}
}

func sampleResults() search.ResultSet {
	return search.ResultSet{
		"a": tourAt("a", "1001", 12500),
		"b": tourAt("b", "1002", 30000),
	}
}

func TestSubmit_StartsSearch(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl, nil)

	m = update(t, m, typeText("ua 101"), tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, []search.Criteria{{CountryID: "UA", CityID: "101"}}, ctrl.started)
	require.Equal(t, focusResults, m.focus)
	require.Empty(t, m.inputErr)
}

func TestSubmit_InvalidInputShowsError(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl, nil)

	m = update(t, m, typeText("XX"), tea.KeyMsg{Type: tea.KeyEnter})

	require.Empty(t, ctrl.started)
	require.Equal(t, focusInput, m.focus)
	require.Contains(t, ansi.Strip(m.View()), "unknown country")
}

func TestView_LoadingCountdown(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:   1,
		Phase:     search.PhaseLoading,
		Criteria:  search.Criteria{CountryID: "UA"},
		WaitUntil: testNow.Add(2500 * time.Millisecond),
	}))

	require.Contains(t, ansi.Strip(m.View()), "Searching UA, results expected in 3s")
}

func TestView_SuccessShowsTable(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:  2,
		Phase:    search.PhaseSuccess,
		Criteria: search.Criteria{CountryID: "UA"},
		Results:  sampleResults(),
	}))

	out := ansi.Strip(m.View())
	require.Contains(t, out, "2 tours found for UA")
	require.Contains(t, out, "Black Sea Pearl")
	require.Contains(t, out, "Opera Boutique")
	require.NotContains(t, out, "previous results")
}

func TestView_EmptyResults(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:  1,
		Phase:    search.PhaseSuccess,
		Criteria: search.Criteria{CountryID: "IS"},
		Results:  search.ResultSet{},
	}))

	require.Contains(t, ansi.Strip(m.View()), emptyResults)
}

func TestView_PreviousResultsFlag(t *testing.T) {
	done := search.Snapshot{Version: 2, Phase: search.PhaseSuccess, Criteria: search.Criteria{CountryID: "UA"}, Results: sampleResults()}
	failed := search.Snapshot{Version: 4, Phase: search.PhaseError, Criteria: search.Criteria{CountryID: "TR"}, Results: sampleResults(), Error: "search failed"}

	t.Run("enabled", func(t *testing.T) {
		m := newTestModel(t, newFakeController(), map[string]bool{flags.FlagKeepPreviousResults: true})
		m = update(t, m, snapshot(done), snapshot(failed))

		out := ansi.Strip(m.View())
		require.Contains(t, out, "search failed")
		require.Contains(t, out, "Showing previous results for UA")
		require.Contains(t, out, "Black Sea Pearl")
	})

	t.Run("disabled", func(t *testing.T) {
		m := newTestModel(t, newFakeController(), map[string]bool{flags.FlagKeepPreviousResults: false})
		m = update(t, m, snapshot(done), snapshot(failed))

		out := ansi.Strip(m.View())
		require.Contains(t, out, "search failed")
		require.NotContains(t, out, "Black Sea Pearl")
	})
}

func TestKeys_CancelAndReset(t *testing.T) {
	ctrl := newFakeController()
	m := newTestModel(t, ctrl, nil)

	m = update(t, m, snapshot(search.Snapshot{Version: 1, Phase: search.PhaseLoading, Criteria: search.Criteria{CountryID: "UA"}}))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	require.Equal(t, 1, ctrl.cancels)

	// Esc in the input cancels a busy search instead of leaving the box.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, 2, ctrl.cancels)
	require.Equal(t, focusInput, m.focus)

	m = update(t, m, typeText("UA"), tea.KeyMsg{Type: tea.KeyCtrlR})
	require.Equal(t, 1, ctrl.resets)
	require.Empty(t, m.input.Value())
}

func TestKeys_NavigateAndDetails(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:  2,
		Phase:    search.PhaseSuccess,
		Criteria: search.Criteria{CountryID: "UA"},
		Results:  sampleResults(),
	}))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, focusResults, m.focus)

	m = update(t, m, typeText("j"))
	require.Equal(t, 1, m.cursor)
	m = update(t, m, typeText("j"))
	require.Equal(t, 1, m.cursor, "cursor stops at the last row")

	m = update(t, m, typeText("d"))
	require.True(t, m.showDetail)
	require.Contains(t, ansi.Strip(m.View()), "Opera Boutique")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.False(t, m.showDetail)

	m = update(t, m, typeText("?"))
	require.True(t, m.showHelp)
	require.Contains(t, ansi.Strip(m.View()), "cancel search")
}

func TestKeys_DetailsLooksUpHotelMissingFromIndex(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:  2,
		Phase:    search.PhaseSuccess,
		Criteria: search.Criteria{CountryID: "UA"},
		Results:  search.ResultSet{"g": tourAt("g", "6001", 41000)},
	}))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc}, typeText("d"))

	require.True(t, m.showDetail)
	require.Contains(t, m.hotels, "6001")
	require.Contains(t, ansi.Strip(m.View()), "Greece")
}

func TestKeys_DetailsUnknownHotel(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{
		Version:  2,
		Phase:    search.PhaseSuccess,
		Criteria: search.Criteria{CountryID: "UA"},
		Results:  search.ResultSet{"x": tourAt("x", "9999", 1000)},
	}))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc}, typeText("d"))

	require.ErrorIs(t, m.hotelErrs["9999"], backend.ErrHotelNotFound)
	view := ansi.Strip(m.View())
	require.Contains(t, view, "No details for hotel 9999")
	require.NotContains(t, view, "Loading hotel")

	// A failed lookup is not repeated.
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	_, cmd := m.Update(typeText("d"))
	require.Nil(t, cmd)
}

func TestSnapshot_ResetClearsCursor(t *testing.T) {
	m := newTestModel(t, newFakeController(), nil)
	m = update(t, m, snapshot(search.Snapshot{Version: 2, Phase: search.PhaseSuccess, Criteria: search.Criteria{CountryID: "UA"}, Results: sampleResults()}))
	m.cursor = 1
	m.showDetail = true

	m = update(t, m, snapshot(search.Snapshot{Version: 3, Phase: search.PhaseIdle}))
	require.Zero(t, m.cursor)
	require.False(t, m.showDetail)
	require.Empty(t, m.visibleTours())
}

func TestProgram_SearchToResults(t *testing.T) {
	api := searchtest.NewScriptedAPI()
	api.QueueStart(searchtest.StartResult{Response: search.StartResponse{Token: "t1", ReadyAt: time.Now()}})
	api.QueuePolls("t1",
		searchtest.PollResult{Err: search.ErrNotReady},
		searchtest.PollResult{Results: search.ResultSet{"t1-1001-0": tourAt("t1-1001-0", "1001", 18000)}},
	)

	ctrl := search.New(api, search.WithPolicy(search.Policy{PollInterval: 10 * time.Millisecond, MaxRetries: 2}))
	t.Cleanup(ctrl.Close)

	m := New(ctrl, backend.NewDirectory(), flags.New(nil), config.UIConfig{MarkdownStyle: "dark", ResultLimit: 20})
	t.Cleanup(m.Close)

	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))
	tm.Type("UA")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(out []byte) bool {
		return bytes.Contains(out, []byte("Black Sea Pearl")) && bytes.Contains(out, []byte("1 tours found"))
	}, teatest.WithDuration(5*time.Second))

	require.NoError(t, tm.Quit())
	require.Equal(t, 1, api.Count("start", ""))
}

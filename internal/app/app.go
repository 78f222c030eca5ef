// Package app contains the root application model: a search box, the
// lifecycle status of the current search and the tours it found.
package app

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/config"
	"github.com/zjrosen/tourscout/internal/flags"
	"github.com/zjrosen/tourscout/internal/keys"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/pubsub"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/ui/markdown"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

// Controller is the part of *search.Controller the view needs.
type Controller interface {
	pubsub.Subscriber[search.Snapshot]
	StartSearch(criteria search.Criteria) error
	Cancel() error
	Reset() error
	Snapshot() search.Snapshot
}

type focus int

const (
	focusInput focus = iota
	focusResults
)

const defaultWidth = 80

type hotelsLoadedMsg struct {
	country string
	hotels  map[string]backend.Hotel
	err     error
}

// hotelLoadedMsg answers a single lookup for a hotel missing from the
// country index.
type hotelLoadedMsg struct {
	id    string
	hotel backend.Hotel
	err   error
}

// Model is the root application state.
type Model struct {
	ctrl  Controller
	dir   *backend.Directory
	flags *flags.Registry
	ui    config.UIConfig
	now   func() time.Time

	ctx      context.Context
	cancel   context.CancelFunc
	listener *pubsub.ContinuousListener[search.Snapshot]
	logFeed  *pubsub.ContinuousListener[string]

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	md      *markdown.Renderer

	snap search.Snapshot
	// resultsFor is the criteria of the search that produced snap.Results.
	resultsFor search.Criteria
	hotels     map[string]backend.Hotel
	hotelErrs  map[string]error
	loaded     map[string]bool

	focus      focus
	cursor     int
	showDetail bool
	showHelp   bool
	showLogs   bool
	inputErr   string
	logs       logPane

	width  int
	height int
}

// Option configures a Model.
type Option func(*Model)

// WithNow replaces the clock used for the "results expected in" countdown.
func WithNow(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// New creates the model and subscribes to ctrl. Call Close when done.
func New(ctrl Controller, dir *backend.Directory, fl *flags.Registry, ui config.UIConfig, opts ...Option) Model {
	ctx, cancel := context.WithCancel(context.Background())

	input := textinput.New()
	input.Placeholder = "UA 101 1002  (country, city, hotel)"
	input.Prompt = "search › "
	input.CharLimit = 64
	input.Width = defaultWidth - 14
	input.Focus()

	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(styles.SpinnerColor)),
	)

	m := Model{
		ctrl:      ctrl,
		dir:       dir,
		flags:     fl,
		ui:        ui,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
		listener:  pubsub.NewContinuousListener[search.Snapshot](ctx, ctrl),
		logFeed:   pubsub.NewContinuousListener[string](ctx, log.Entries),
		input:     input,
		spinner:   sp,
		help:      help.New(),
		snap:      ctrl.Snapshot(),
		hotels:    make(map[string]backend.Hotel),
		hotelErrs: make(map[string]error),
		loaded:    make(map[string]bool),
		focus:     focusInput,
		logs:      newLogPane(),
		width:     defaultWidth,
	}
	m.md = m.newRenderer()
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.listener.Listen(), m.logFeed.Listen())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-14)
		m.help.Width = msg.Width
		m.md = m.newRenderer()
		m.logs.setSize(msg.Width, msg.Height)
		return m, nil

	case pubsub.Event[string]:
		m.logs.add(msg.Payload)
		if m.showLogs {
			m.logs.sync()
		}
		return m, m.logFeed.Listen()

	case pubsub.Event[search.Snapshot]:
		cmd := m.applySnapshot(msg.Payload)
		return m, tea.Batch(cmd, m.listener.Listen())

	case hotelsLoadedMsg:
		if msg.err != nil {
			log.WarnErr(log.CatUI, "Failed to load hotels", msg.err, "country", msg.country)
			return m, nil
		}
		for id, h := range msg.hotels {
			m.hotels[id] = h
		}
		m.loaded[msg.country] = true
		return m, nil

	case hotelLoadedMsg:
		if msg.err != nil {
			log.WarnErr(log.CatUI, "Hotel lookup failed", msg.err, "hotel", msg.id)
			m.hotelErrs[msg.id] = msg.err
			return m, nil
		}
		m.hotels[msg.id] = msg.hotel
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applySnapshot records a controller snapshot and loads the hotel names
// of its country when they are not known yet.
func (m *Model) applySnapshot(s search.Snapshot) tea.Cmd {
	prev := m.snap
	m.snap = s

	if s.Phase == search.PhaseSuccess && prev.Phase != search.PhaseSuccess {
		m.resultsFor = s.Criteria
		m.cursor = 0
		m.showDetail = false
	}
	if s.Results == nil {
		m.resultsFor = search.Criteria{}
		m.cursor = 0
		m.showDetail = false
	}
	if n := len(s.Results); m.cursor >= n {
		m.cursor = max(0, n-1)
	}

	log.Debug(log.CatUI, "Snapshot applied", "version", s.Version, "phase", s.Phase, "results", len(s.Results))
	return m.loadHotels(s.Criteria.CountryID)
}

func (m *Model) loadHotels(country string) tea.Cmd {
	if country == "" || m.loaded[country] || m.dir == nil {
		return nil
	}
	dir := m.dir
	ctx := m.ctx
	return func() tea.Msg {
		idx, err := dir.HotelIndex(ctx, country)
		return hotelsLoadedMsg{country: country, hotels: idx, err: err}
	}
}

// loadHotel looks up one hotel the country index did not provide.
func (m *Model) loadHotel(id string) tea.Cmd {
	if _, ok := m.hotels[id]; ok || m.dir == nil {
		return nil
	}
	if _, failed := m.hotelErrs[id]; failed {
		return nil
	}
	dir := m.dir
	ctx := m.ctx
	return func() tea.Msg {
		h, err := dir.Hotel(ctx, id)
		return hotelLoadedMsg{id: id, hotel: h, err: err}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if key.Matches(msg, keys.Search.Logs) {
		m.showLogs = !m.showLogs
		if m.showLogs {
			m.logs.refresh()
		}
		return m, nil
	}
	if m.showLogs {
		if key.Matches(msg, keys.Search.Escape) {
			m.showLogs = false
		} else {
			m.logs.handleKey(msg)
		}
		return m, nil
	}

	if m.showHelp {
		if key.Matches(msg, keys.Search.Help, keys.Search.Escape) {
			m.showHelp = false
		}
		return m, nil
	}
	if m.showDetail {
		if key.Matches(msg, keys.Search.Escape, keys.Search.Details) {
			m.showDetail = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Search.Cancel):
		m.cancelSearch()
		return m, nil
	case key.Matches(msg, keys.Search.Reset):
		m.reset()
		return m, nil
	}

	if m.focus == focusInput {
		switch {
		case key.Matches(msg, keys.Search.Submit):
			return m.submit()
		case key.Matches(msg, keys.Search.Escape):
			if m.snap.Phase.Busy() {
				m.cancelSearch()
				return m, nil
			}
			m.focus = focusResults
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.inputErr = ""
		return m, cmd
	}

	switch {
	case key.Matches(msg, keys.Search.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Search.Help):
		m.showHelp = true
	case key.Matches(msg, keys.Search.FocusInput):
		m.focus = focusInput
		return m, m.input.Focus()
	case key.Matches(msg, keys.Search.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Search.Down):
		if m.cursor < len(m.visibleTours())-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Search.Details):
		if tours := m.visibleTours(); len(tours) > 0 {
			m.showDetail = true
			return m, m.loadHotel(tours[m.cursor].HotelID)
		}
	case key.Matches(msg, keys.Search.Escape):
		if m.snap.Phase.Busy() {
			m.cancelSearch()
		}
	}
	return m, nil
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	criteria, err := ParseCriteria(m.input.Value())
	if err != nil {
		m.inputErr = err.Error()
		return m, nil
	}
	m.inputErr = ""
	if err := m.ctrl.StartSearch(criteria); err != nil {
		m.inputErr = err.Error()
		return m, nil
	}
	log.Info(log.CatUI, "Search submitted", "criteria", criteria)
	m.focus = focusResults
	m.input.Blur()
	return m, nil
}

func (m *Model) cancelSearch() {
	if err := m.ctrl.Cancel(); err != nil && !errors.Is(err, search.ErrClosed) {
		log.WarnErr(log.CatUI, "Cancel failed", err)
	}
}

func (m *Model) reset() {
	if err := m.ctrl.Reset(); err != nil && !errors.Is(err, search.ErrClosed) {
		log.WarnErr(log.CatUI, "Reset failed", err)
	}
	m.input.SetValue("")
	m.inputErr = ""
	m.cursor = 0
	m.showDetail = false
	m.focus = focusInput
	m.input.Focus()
}

// visibleTours returns the tours the table shows for the current snapshot.
func (m Model) visibleTours() []search.TourRecord {
	if !m.showResults() {
		return nil
	}
	return m.snap.Results.Sorted()
}

// showResults reports whether snap.Results belong on screen. Outside of a
// successful search they are the previous search's results and only shown
// when the keep-previous-results flag is on.
func (m Model) showResults() bool {
	if len(m.snap.Results) == 0 {
		return false
	}
	if m.snap.Phase == search.PhaseSuccess {
		return true
	}
	return m.flags.Enabled(flags.FlagKeepPreviousResults)
}

func (m Model) newRenderer() *markdown.Renderer {
	width := min(max(20, m.width-4), 100)
	r, err := markdown.New(width, m.ui.MarkdownStyle)
	if err != nil {
		log.WarnErr(log.CatUI, "Failed to create markdown renderer", err)
		return nil
	}
	return r
}

// Close releases the snapshot subscription and abandons hotel loads.
func (m *Model) Close() {
	m.listener.Stop()
	m.logFeed.Stop()
	m.cancel()
}

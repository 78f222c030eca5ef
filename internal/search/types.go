// Package search implements the search lifecycle controller: it starts
// price searches against an asynchronous backend, polls for results at
// the right time, retries bounded transient failures, cancels and
// supersedes in-flight searches, and exposes a single snapshot of state
// to the view layer.
//
// All state is owned by one goroutine. Commands and API completions are
// events processed in FIFO order by a pure state machine, and every
// completion is checked against the currently active token before it may
// touch visible state.
package search

import (
	"cmp"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Criteria selects what to search: a country, optionally narrowed to a
// city or a single hotel. Immutable once a search starts.
type Criteria struct {
	CountryID string `json:"country_id" yaml:"country_id"`
	CityID    string `json:"city_id,omitempty" yaml:"city_id,omitempty"`
	HotelID   string `json:"hotel_id,omitempty" yaml:"hotel_id,omitempty"`
}

// Validate reports whether the criteria can be sent to the API.
func (c Criteria) Validate() error {
	if strings.TrimSpace(c.CountryID) == "" {
		return ErrMissingCountry
	}
	return nil
}

// IsZero reports whether no criteria were set.
func (c Criteria) IsZero() bool {
	return c == Criteria{}
}

func (c Criteria) String() string {
	s := c.CountryID
	if c.CityID != "" {
		s += " city=" + c.CityID
	}
	if c.HotelID != "" {
		s += " hotel=" + c.HotelID
	}
	return s
}

// Token identifies one search job on the backend. Never reused.
type Token string

// StartResponse is returned by API.StartSearch.
type StartResponse struct {
	Token Token `json:"token"`
	// ReadyAt is when results may become available. A time in the past
	// means the first poll happens immediately.
	ReadyAt time.Time `json:"ready_at"`
}

// TourRecord is one priced tour offer.
type TourRecord struct {
	ID        string    `json:"id" yaml:"id"`
	HotelID   string    `json:"hotel_id" yaml:"hotel_id"`
	StartDate time.Time `json:"start_date" yaml:"start_date"`
	EndDate   time.Time `json:"end_date" yaml:"end_date"`
	Amount    float64   `json:"amount" yaml:"amount"`
	Currency  string    `json:"currency" yaml:"currency"`
}

// Nights returns the tour length in nights.
func (t TourRecord) Nights() int {
	return int(t.EndDate.Sub(t.StartDate).Hours() / 24)
}

// FormatPrice renders the amount with its currency, e.g. "1 250 UAH".
func (t TourRecord) FormatPrice() string {
	n := int64(math.Round(t.Amount))
	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
		n = -n
	}
	whole := strconv.FormatInt(n, 10)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String() + " " + strings.ToUpper(t.Currency)
}

// ResultSet maps tour id to tour. An empty, non-nil set means the search
// finished and found nothing; nil means nothing has been loaded.
// Result sets handed out by the controller must not be modified.
type ResultSet map[string]TourRecord

// Sorted returns the tours cheapest first, ties broken by id.
func (rs ResultSet) Sorted() []TourRecord {
	tours := make([]TourRecord, 0, len(rs))
	for _, t := range rs {
		tours = append(tours, t)
	}
	slices.SortFunc(tours, func(a, b TourRecord) int {
		if c := cmp.Compare(a.Amount, b.Amount); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tours
}

// Phase is the controller's lifecycle phase.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseCancelling Phase = "cancelling"
	PhaseSuccess    Phase = "success"
	PhaseError      Phase = "error"
)

// Busy reports whether a search is in flight in this phase.
func (p Phase) Busy() bool {
	return p == PhaseLoading || p == PhaseCancelling
}

// Snapshot is the read-only view of controller state.
//
// Phase turns to loading as soon as a search is accepted, before the
// backend has issued a token. Until the start call answers WaitUntil is
// zero, and a Cancel returns straight to idle; the token that arrives
// late is cancelled on the backend and never polled.
type Snapshot struct {
	// Version increases every time visible state changes.
	Version  uint64   `json:"version" yaml:"version"`
	Phase    Phase    `json:"phase" yaml:"phase"`
	Criteria Criteria `json:"criteria" yaml:"criteria"`
	// WaitUntil is the backend's estimated ready time while loading.
	// Zero when unknown or not applicable.
	WaitUntil    time.Time `json:"wait_until,omitzero" yaml:"wait_until,omitempty"`
	Results      ResultSet `json:"results" yaml:"results"`
	Error        string    `json:"error,omitempty" yaml:"error,omitempty"`
	IsCancelling bool      `json:"is_cancelling" yaml:"is_cancelling"`
}

// Settled reports whether no search is in flight.
func (s Snapshot) Settled() bool {
	return !s.Phase.Busy()
}

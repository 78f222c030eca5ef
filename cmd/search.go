package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/log"
	"github.com/zjrosen/tourscout/internal/search"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

var (
	searchCity    string
	searchHotel   string
	searchThen    string
	searchOutput  string
	searchTimeout time.Duration
	searchNoColor bool
	searchVerbose bool
)

var searchCmd = &cobra.Command{
	Use:   "search COUNTRY",
	Short: "Run one search without the TUI and print the result",
	Long: `Run a search through the same controller the TUI uses and print the
settled result.

The command waits until the search succeeds or fails, or until --timeout
elapses, in which case the search is cancelled.

Examples:
  # All tours in Ukraine
  tourscout search UA

  # Narrow to a city and a hotel
  tourscout search UA --city 101 --hotel 1002

  # Start a search and immediately replace it with another
  tourscout search UA --then TR

  # Machine readable output
  tourscout search ES -o json | jq '.tours[].price'`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchCity, "city", "", "city id to search in")
	searchCmd.Flags().StringVar(&searchHotel, "hotel", "", "hotel id to search for")
	searchCmd.Flags().StringVar(&searchThen, "then", "", "country that supersedes the first search right after it starts")
	searchCmd.Flags().StringVarP(&searchOutput, "output", "o", outputTable, "output format: table, json or yaml")
	searchCmd.Flags().DurationVar(&searchTimeout, "timeout", time.Minute, "give up and cancel after this long")
	searchCmd.Flags().BoolVar(&searchNoColor, "no-color", false, "disable colored table output")
	searchCmd.Flags().BoolVarP(&searchVerbose, "verbose", "v", false, "stream log entries to stderr")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	switch searchOutput {
	case outputTable, outputJSON, outputYAML:
	default:
		return fmt.Errorf("unknown output format %q", searchOutput)
	}
	if searchNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(cmd.Context(), searchTimeout)
	defer cancel()

	if searchVerbose {
		streamLogs(ctx, cmd.ErrOrStderr())
	}

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	target := search.Criteria{
		CountryID: strings.ToUpper(args[0]),
		CityID:    searchCity,
		HotelID:   searchHotel,
	}
	if err := rt.ctrl.StartSearch(target); err != nil {
		return err
	}
	if searchThen != "" {
		target = search.Criteria{CountryID: strings.ToUpper(searchThen)}
		if err := rt.ctrl.StartSearch(target); err != nil {
			return err
		}
	}

	snap, err := rt.ctrl.Await(ctx, func(s search.Snapshot) bool {
		return s.Settled() && s.Criteria == target
	})
	if err != nil {
		_ = rt.ctrl.Cancel()
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("search %s did not finish within %s", target, searchTimeout)
		}
		return err
	}

	rep := buildReport(ctx, rt.dir, snap)
	if err := writeReport(cmd.OutOrStdout(), searchOutput, rep); err != nil {
		return err
	}
	if snap.Phase == search.PhaseError {
		return fmt.Errorf("search %s failed: %s", target, snap.Error)
	}
	return nil
}

// streamLogs copies log entries to w until ctx is done. When --debug did
// not open a log file, a discarding logger is installed so entries are
// still published.
func streamLogs(ctx context.Context, w io.Writer) {
	ch := log.Subscribe(ctx)
	if ch == nil {
		restore := log.InitWriter(io.Discard)
		context.AfterFunc(ctx, restore)
		ch = log.Subscribe(ctx)
	}
	go func() {
		for ev := range ch {
			_, _ = io.WriteString(w, ev.Payload)
		}
	}()
}

type report struct {
	Phase    search.Phase    `json:"phase" yaml:"phase"`
	Criteria search.Criteria `json:"criteria" yaml:"criteria"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
	Tours    []reportTour    `json:"tours" yaml:"tours"`
}

type reportTour struct {
	ID     string    `json:"id" yaml:"id"`
	Hotel  string    `json:"hotel" yaml:"hotel"`
	City   string    `json:"city,omitempty" yaml:"city,omitempty"`
	Stars  int       `json:"stars,omitempty" yaml:"stars,omitempty"`
	Start  time.Time `json:"start_date" yaml:"start_date"`
	End    time.Time `json:"end_date" yaml:"end_date"`
	Nights int       `json:"nights" yaml:"nights"`
	Amount float64   `json:"amount" yaml:"amount"`
	Price  string    `json:"price" yaml:"price"`
}

// buildReport decorates the snapshot's tours with hotel names, cheapest
// first. Tours are only reported for a successful search.
func buildReport(ctx context.Context, dir *backend.Directory, snap search.Snapshot) report {
	rep := report{
		Phase:    snap.Phase,
		Criteria: snap.Criteria,
		Error:    snap.Error,
		Tours:    []reportTour{},
	}
	if snap.Phase != search.PhaseSuccess {
		return rep
	}

	hotels, err := dir.HotelIndex(ctx, snap.Criteria.CountryID)
	if err != nil {
		log.WarnErr(log.CatBackend, "Hotel lookup failed", err, "country", snap.Criteria.CountryID)
	}
	for _, t := range snap.Results.Sorted() {
		rt := reportTour{
			ID:     t.ID,
			Hotel:  t.HotelID,
			Start:  t.StartDate,
			End:    t.EndDate,
			Nights: t.Nights(),
			Amount: t.Amount,
			Price:  t.FormatPrice(),
		}
		if h, ok := hotels[t.HotelID]; ok {
			rt.Hotel, rt.City, rt.Stars = h.Name, h.CityName, h.Stars
		}
		rep.Tours = append(rep.Tours, rt)
	}
	return rep
}

func writeReport(w io.Writer, format string, rep report) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeTable(w, rep)
	}
}

func writeTable(w io.Writer, rep report) error {
	var b strings.Builder
	switch {
	case rep.Phase == search.PhaseError:
		b.WriteString(styles.ErrorStyle.Render(rep.Error))
		b.WriteString("\n")
	case len(rep.Tours) == 0:
		b.WriteString(styles.MutedStyle.Render("No tours found for your query."))
		b.WriteString("\n")
	default:
		b.WriteString(styles.HeaderStyle.Render(
			styles.Cell("Hotel", 24) + styles.Cell("City", 16) + styles.Cell("Dates", 24) +
				styles.Cell("Nights", 7) + "Price"))
		b.WriteString("\n")
		for _, t := range rep.Tours {
			dates := t.Start.Format("2006-01-02") + " → " + t.End.Format("2006-01-02")
			b.WriteString(styles.Cell(t.Hotel, 24) + styles.Cell(t.City, 16) + styles.Cell(dates, 24) +
				styles.Cell(fmt.Sprintf("%d", t.Nights), 7) + styles.PriceStyle.Render(t.Price))
			b.WriteString("\n")
		}
		b.WriteString(styles.SuccessStyle.Render(fmt.Sprintf("%d tours found for %s", len(rep.Tours), rep.Criteria)))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/tourscout/internal/backend"
	"github.com/zjrosen/tourscout/internal/ui/styles"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List searchable countries and their city ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return writeCountries(cmd.Context(), cmd.OutOrStdout(), backend.NewDirectory())
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}

func writeCountries(ctx context.Context, w io.Writer, dir *backend.Directory) error {
	var b strings.Builder
	for _, c := range dir.Countries(ctx) {
		b.WriteString(styles.TitleStyle.Render(styles.Cell(c.ID, 4)))
		b.WriteString(c.Name)
		b.WriteString("\n")
		for _, city := range c.Cities {
			fmt.Fprintf(&b, "    %s%s\n", styles.Cell(city.ID, 6), city.Name)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

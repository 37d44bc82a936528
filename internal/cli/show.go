package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ETFScope/internal/config"
	"ETFScope/internal/model"
	"ETFScope/internal/render"
	"ETFScope/internal/widget"
)

// newShowCmd creates the show command
func newShowCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [TICKER]",
		Short: "Chart a ticker in the terminal",
		Long: `Chart a ticker's price over a time range in the terminal.
Ranges: 1m, 6m, 1y, 2y, 3y, 5y, 10y, max (anything else shows max).
Example: etfscope show SPY --range 5y --theme dark`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, _ := cmd.Flags().GetString("range")
			ref, _ := cmd.Flags().GetString("ref")
			themeName, _ := cmd.Flags().GetString("theme")
			source, _ := cmd.Flags().GetString("source")
			fromDB, _ := cmd.Flags().GetBool("db")
			plain, _ := cmd.Flags().GetBool("plain")

			now, err := refClock(ref)
			if err != nil {
				return err
			}
			theme := cfg.Theme()
			if themeName != "" {
				t, err := render.ThemeByName(themeName)
				if err != nil {
					return err
				}
				theme = t
			}

			ds, err := resolveDataset(cmd.Context(), cfg, source, fromDB)
			if err != nil {
				return err
			}

			ctrl := widget.New(ds, widget.Options{
				Policy: cfg.Policy(),
				Now:    now,
				Theme:  theme,
				Width:  cfg.Display.Width,
				Height: cfg.Display.Height,
			})
			if len(args) == 1 {
				ctrl.SelectTicker(strings.ToUpper(args[0]))
			}
			chart := ctrl.SelectRange(model.ParseRangeSelector(rng))

			out := render.Render(chart)
			if plain {
				out = render.Plain(chart)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			if len(chart.Series) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Available tickers: %s\n", strings.Join(ctrl.Tickers(), ", "))
			}
			return nil
		},
	}

	cmd.Flags().String("range", "max", "Time range: 1m, 6m, 1y, 2y, 3y, 5y, 10y, max")
	cmd.Flags().String("ref", "", "Reference date for the range (YYYY-MM-DD, default today)")
	cmd.Flags().String("theme", "", "light or dark (default display.theme)")
	cmd.Flags().String("source", "", "Dataset file or URL (default dataset.url or dataset.json_path)")
	cmd.Flags().Bool("db", false, "Read prices from the SQLite store instead of the JSON dataset")
	cmd.Flags().Bool("plain", false, "Disable colors")

	return cmd
}

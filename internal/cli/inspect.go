package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"ETFScope/internal/config"
	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// newInspectCmd creates the inspect command
func newInspectCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show per-ticker row counts, one ticker's prices, or recent refresh runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ticker, _ := cmd.Flags().GetString("ticker")
			runs, _ := cmd.Flags().GetInt("runs")

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			t := table.New().Border(lipgloss.NormalBorder())

			switch {
			case ticker != "":
				series, err := st.Series(cmd.Context(), ticker)
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no stored prices for %s", ticker)
				}
				if err != nil {
					return err
				}
				t.Headers("DATE", "PRICE")
				for _, p := range series {
					t.Row(model.FormatDate(p.Date), p.Price.String())
				}

			case runs > 0:
				list, err := st.RecentRuns(cmd.Context(), runs)
				if err != nil {
					return err
				}
				t.Headers("ID", "STARTED", "DURATION", "SOURCE", "TICKERS", "PRICES", "FAILED", "NOTE")
				for _, r := range list {
					t.Row(r.ID, r.StartedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).String(),
						r.Source, strconv.Itoa(r.Tickers), strconv.Itoa(r.Points), strconv.Itoa(r.Failures), r.Note)
				}

			default:
				stats, err := st.Inspect(cmd.Context())
				if err != nil {
					return err
				}
				t.Headers("TICKER", "ROWS", "FIRST", "LAST")
				total := 0
				for _, s := range stats {
					t.Row(s.Ticker, strconv.Itoa(s.Rows), model.FormatDate(s.First), model.FormatDate(s.Last))
					total += s.Rows
				}
				t.Row("TOTAL", strconv.Itoa(total), "", "")
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}

	cmd.Flags().String("ticker", "", "List the stored prices of one ticker")
	cmd.Flags().Int("runs", 0, "List the N most recent refresh runs")

	return cmd
}

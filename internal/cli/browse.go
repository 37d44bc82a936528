package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/spf13/cobra"

	"ETFScope/internal/config"
	"ETFScope/internal/model"
	"ETFScope/internal/render"
	"ETFScope/internal/widget"
)

const (
	actionTicker = "Change ticker"
	actionRange  = "Change range"
	actionTheme  = "Toggle theme"
	actionQuit   = "Quit"
)

// askFunc matches survey.AskOne; tests replace it with a scripted version.
type askFunc func(p survey.Prompt, response interface{}) error

func surveyAsk(p survey.Prompt, response interface{}) error {
	return survey.AskOne(p, response)
}

// newBrowseCmd creates the browse command
func newBrowseCmd(cfg *config.Config) *cobra.Command {
	return newBrowseCmdWith(cfg, surveyAsk)
}

func newBrowseCmdWith(cfg *config.Config, ask askFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactively switch tickers, ranges and themes",
		Long: `Open an interactive chart. Each change of ticker, range or theme redraws
the chart with the newly processed series.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, _ := cmd.Flags().GetString("ref")
			source, _ := cmd.Flags().GetString("source")
			fromDB, _ := cmd.Flags().GetBool("db")
			plain, _ := cmd.Flags().GetBool("plain")

			now, err := refClock(ref)
			if err != nil {
				return err
			}
			ds, err := resolveDataset(cmd.Context(), cfg, source, fromDB)
			if err != nil {
				return err
			}
			if len(ds) == 0 {
				return fmt.Errorf("dataset has no tickers")
			}

			ctrl := widget.New(ds, widget.Options{
				Policy: cfg.Policy(),
				Now:    now,
				Theme:  cfg.Theme(),
				Width:  cfg.Display.Width,
				Height: cfg.Display.Height,
			})
			return browse(cmd.OutOrStdout(), ctrl, ask, plain)
		},
	}

	cmd.Flags().String("ref", "", "Reference date for the range (YYYY-MM-DD, default today)")
	cmd.Flags().String("source", "", "Dataset file or URL (default dataset.url or dataset.json_path)")
	cmd.Flags().Bool("db", false, "Read prices from the SQLite store instead of the JSON dataset")
	cmd.Flags().Bool("plain", false, "Disable colors")

	return cmd
}

// browse draws the chart and loops on user actions until quit or Ctrl-C.
func browse(w io.Writer, ctrl *widget.Controller, ask askFunc, plain bool) error {
	draw := func(chart render.ChartState) {
		if plain {
			fmt.Fprintln(w, render.Plain(chart))
			return
		}
		fmt.Fprintln(w, render.Render(chart))
	}
	draw(ctrl.Chart())

	for {
		var action string
		err := ask(&survey.Select{
			Message: "What next?",
			Options: []string{actionTicker, actionRange, actionTheme, actionQuit},
		}, &action)
		if err != nil {
			return promptErr(err)
		}

		switch action {
		case actionTicker:
			ticker := ctrl.State().Ticker
			if err := ask(&survey.Select{
				Message: "Ticker:",
				Options: ctrl.Tickers(),
				Default: ticker,
			}, &ticker); err != nil {
				return promptErr(err)
			}
			draw(ctrl.SelectTicker(strings.ToUpper(ticker)))
		case actionRange:
			rng := string(ctrl.State().Range)
			if err := ask(&survey.Select{
				Message: "Range:",
				Options: rangeOptions(ctrl.Ranges()),
				Default: rng,
			}, &rng); err != nil {
				return promptErr(err)
			}
			draw(ctrl.SelectRange(model.ParseRangeSelector(rng)))
		case actionTheme:
			draw(ctrl.ToggleTheme())
		default:
			return nil
		}
	}
}

func rangeOptions(sels []model.RangeSelector) []string {
	out := make([]string, len(sels))
	for i, s := range sels {
		out[i] = string(s)
	}
	return out
}

// promptErr treats Ctrl-C as a normal exit.
func promptErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return nil
	}
	return fmt.Errorf("prompt: %w", err)
}

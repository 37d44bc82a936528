// Package widget holds the chart's selection state: which ticker and range
// are shown and in which theme. Every change re-runs the range processor and
// returns the chart state to draw.
package widget

import (
	"time"

	"ETFScope/internal/model"
	"ETFScope/internal/render"
	"ETFScope/internal/series"
)

// State is the user's current selection.
type State struct {
	Ticker string
	Range  model.RangeSelector
	Theme  render.Theme
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Policy series.Policy
	Now    func() time.Time
	Theme  render.Theme
	Width  int
	Height int
}

// Controller owns the selection state for one chart.
type Controller struct {
	dataset model.Dataset
	policy  series.Policy
	now     func() time.Time
	width   int
	height  int
	state   State
}

// New creates a controller showing the first ticker (in sorted order) over
// the max range.
func New(ds model.Dataset, opts Options) *Controller {
	if opts.Policy.MaxPoints < 1 {
		opts.Policy = series.DefaultPolicy()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Theme.Name == "" {
		opts.Theme = render.DefaultTheme
	}

	c := &Controller{
		dataset: ds,
		policy:  opts.Policy,
		now:     opts.Now,
		width:   opts.Width,
		height:  opts.Height,
		state:   State{Range: model.Max, Theme: opts.Theme},
	}
	if tickers := ds.Tickers(); len(tickers) > 0 {
		c.state.Ticker = tickers[0]
	}
	return c
}

// Tickers lists the selectable tickers.
func (c *Controller) Tickers() []string { return c.dataset.Tickers() }

// Ranges lists the selectable ranges.
func (c *Controller) Ranges() []model.RangeSelector { return model.RangeSelectors }

func (c *Controller) State() State { return c.state }

// SelectTicker switches ticker. A ticker missing from the dataset is kept and
// charted as an empty series.
func (c *Controller) SelectTicker(ticker string) render.ChartState {
	c.state.Ticker = ticker
	return c.Chart()
}

// SelectRange switches range. Unknown selectors become max.
func (c *Controller) SelectRange(sel model.RangeSelector) render.ChartState {
	if !sel.Valid() {
		sel = model.Max
	}
	c.state.Range = sel
	return c.Chart()
}

// ToggleTheme flips between the light and dark themes.
func (c *Controller) ToggleTheme() render.ChartState {
	c.state.Theme = c.state.Theme.Toggle()
	return c.Chart()
}

// SetDataset replaces the dataset. The selected ticker is kept when it is
// still present, otherwise the first ticker is selected.
func (c *Controller) SetDataset(ds model.Dataset) render.ChartState {
	c.dataset = ds
	if _, ok := ds[c.state.Ticker]; !ok {
		c.state.Ticker = ""
		if tickers := ds.Tickers(); len(tickers) > 0 {
			c.state.Ticker = tickers[0]
		}
	}
	return c.Chart()
}

// Chart processes the current selection against the reference date.
func (c *Controller) Chart() render.ChartState {
	res := series.ProcessTicker(c.dataset, c.state.Ticker, c.state.Range, c.now(), c.policy)
	return render.ChartState{
		Ticker: c.state.Ticker,
		Range:  res.Range,
		Series: res.Series,
		Theme:  c.state.Theme,
		Width:  c.width,
		Height: c.height,
	}
}

// Package render draws a processed price series as a terminal line chart.
//
// All drawing input travels in a ChartState value; the package keeps no chart
// handle or theme between calls.
package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
)

const (
	DefaultWidth  = 60
	DefaultHeight = 15

	minWidth  = 10
	minHeight = 3
)

// ChartState is everything needed to draw one chart.
type ChartState struct {
	Ticker string
	Range  model.RangeSelector
	Series model.TimeSeries
	Theme  Theme
	Width  int // plot columns
	Height int // plot rows
}

// Title returns the chart heading, e.g. "SPY Price (1y)".
func (s ChartState) Title() string {
	title := fmt.Sprintf("%s Price", s.Ticker)
	if s.Range != "" {
		title += fmt.Sprintf(" (%s)", s.Range)
	}
	return title
}

type canvas struct {
	title  string
	labels []string // one per plot row, top first
	rows   []string // plot rows, top first
	axis   string
	dates  string
}

// Render draws the chart styled with the state's theme.
func Render(s ChartState) string {
	c := draw(s)
	theme := s.Theme
	if theme.Name == "" {
		theme = DefaultTheme
	}
	text, line := theme.textStyle(), theme.lineStyle()

	out := make([]string, 0, len(c.rows)+3)
	out = append(out, theme.titleStyle().Render(c.title))
	for i, row := range c.rows {
		out = append(out, text.Render(c.labels[i]+" |")+line.Render(row))
	}
	out = append(out, text.Render(c.axis), text.Render(c.dates))
	return strings.Join(out, "\n")
}

// Plain draws the chart without any styling.
func Plain(s ChartState) string {
	c := draw(s)
	out := make([]string, 0, len(c.rows)+3)
	out = append(out, c.title)
	for i, row := range c.rows {
		out = append(out, c.labels[i]+" |"+row)
	}
	out = append(out, c.axis, c.dates)
	return strings.Join(out, "\n")
}

func draw(s ChartState) canvas {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	w, h = max(w, minWidth), max(h, minHeight)

	c := canvas{title: s.Title()}
	grid := make([][]rune, h)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", w))
	}

	series := s.Series.Sorted()
	var hiLabel, loLabel string
	if len(series) == 0 {
		msg := []rune("no data")
		mid := (h - 1) / 2
		start := max((w-len(msg))/2, 0)
		for i, r := range msg {
			if start+i < w {
				grid[mid][start+i] = r
			}
		}
	} else {
		lo, hi := bounds(series)
		hiLabel, loLabel = hi.StringFixed(2), lo.StringFixed(2)
		plot(grid, series, lo, hi)
	}

	lw := max(len(hiLabel), len(loLabel))
	c.labels = make([]string, h)
	c.rows = make([]string, h)
	for i := 0; i < h; i++ {
		label := ""
		switch i {
		case 0:
			label = hiLabel
		case h - 1:
			label = loLabel
		}
		c.labels[i] = fmt.Sprintf("%*s", lw, label)
		// grid row 0 is the bottom of the plot
		c.rows[i] = string(grid[h-1-i])
	}

	pad := strings.Repeat(" ", lw)
	c.axis = pad + " +" + strings.Repeat("-", w)
	c.dates = pad + "  " + dateAxis(series, w)
	return c
}

func bounds(s model.TimeSeries) (lo, hi decimal.Decimal) {
	lo, hi = s[0].Price, s[0].Price
	for _, p := range s[1:] {
		lo = decimal.Min(lo, p.Price)
		hi = decimal.Max(hi, p.Price)
	}
	return lo, hi
}

// plot marks each point and joins neighbours so the line reads continuously.
func plot(grid [][]rune, s model.TimeSeries, lo, hi decimal.Decimal) {
	h, w := len(grid), len(grid[0])
	n := len(s)

	prevCol, prevRow := -1, 0
	for i, p := range s {
		col := 0
		if n > 1 {
			col = i * (w - 1) / (n - 1)
		}
		row := scale(p.Price, lo, hi, h)

		switch {
		case prevCol < 0:
			grid[row][col] = '*'
		case col == prevCol:
			fill(grid, col, prevRow, row)
		default:
			last := prevRow
			for c := prevCol + 1; c <= col; c++ {
				r := prevRow + (row-prevRow)*(c-prevCol)/(col-prevCol)
				fill(grid, c, last, r)
				last = r
			}
		}
		prevCol, prevRow = col, row
	}
}

func scale(price, lo, hi decimal.Decimal, h int) int {
	span := hi.Sub(lo)
	if span.IsZero() {
		return (h - 1) / 2
	}
	f := price.Sub(lo).Div(span).Mul(decimal.NewFromInt(int64(h - 1)))
	return int(f.Round(0).IntPart())
}

func fill(grid [][]rune, col, a, b int) {
	if a > b {
		a, b = b, a
	}
	for r := a; r <= b; r++ {
		grid[r][col] = '*'
	}
}

func dateAxis(s model.TimeSeries, w int) string {
	if len(s) == 0 {
		return ""
	}
	first := model.FormatDate(s[0].Date)
	if len(s) == 1 {
		return first
	}
	last := model.FormatDate(s[len(s)-1].Date)
	gap := w - len(first) - len(last)
	if gap < 1 {
		gap = 1
	}
	return first + strings.Repeat(" ", gap) + last
}

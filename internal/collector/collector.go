package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// DefaultStartDate is where a ticker with no stored history begins.
var DefaultStartDate = model.NewDate(1900, 1, 1)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Series map[string]model.TimeSeries
	Errors map[string]error

	mu    sync.Mutex
	calls []FetchCall
}

// FetchCall records one request made to a MockFetcher.
type FetchCall struct {
	Ticker     string
	Start, End time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyCloses(_ context.Context, ticker string, start, end time.Time) (model.TimeSeries, error) {
	m.mu.Lock()
	m.calls = append(m.calls, FetchCall{Ticker: ticker, Start: start, End: end})
	m.mu.Unlock()

	if err := m.Errors[ticker]; err != nil {
		return nil, err
	}
	var out model.TimeSeries
	for _, p := range m.Series[ticker].Sorted() {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}
	return out, nil
}

// Calls returns the requests received so far.
func (m *MockFetcher) Calls() []FetchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FetchCall(nil), m.calls...)
}

// TickerResult is the outcome of refreshing one ticker.
type TickerResult struct {
	Ticker string
	From   time.Time
	Points int
	Err    error
}

// RefreshReport summarizes one Refresh pass.
type RefreshReport struct {
	Source  string
	Results []TickerResult
}

// Points returns the number of prices written across all tickers.
func (r *RefreshReport) Points() int {
	n := 0
	for _, res := range r.Results {
		n += res.Points
	}
	return n
}

// Failures returns the tickers whose refresh failed.
func (r *RefreshReport) Failures() []TickerResult {
	var out []TickerResult
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Summary renders failures as "TICKER: error; ...".
func (r *RefreshReport) Summary() string {
	var parts []string
	for _, f := range r.Failures() {
		parts = append(parts, fmt.Sprintf("%s: %v", f.Ticker, f.Err))
	}
	return strings.Join(parts, "; ")
}

// Collector pulls new prices from a Fetcher into a PriceStore.
type Collector struct {
	Fetcher   Fetcher
	Store     store.PriceStore
	StartDate time.Time
}

// NewCollector creates a new Collector. A zero start uses DefaultStartDate.
func NewCollector(fetcher Fetcher, st store.PriceStore, start time.Time) *Collector {
	if start.IsZero() {
		start = DefaultStartDate
	}
	return &Collector{Fetcher: fetcher, Store: st, StartDate: start}
}

// Refresh fetches every ticker from its latest stored date through end and
// upserts the result. The latest stored day is fetched again so a close that
// was still provisional gets corrected. A failing ticker is logged and
// reported without stopping the others.
func (c *Collector) Refresh(ctx context.Context, tickers []string, end time.Time) (*RefreshReport, error) {
	report := &RefreshReport{Source: c.Fetcher.Name()}
	end = model.DateOf(end)

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := c.refreshTicker(ctx, ticker, end)
		report.Results = append(report.Results, res)
		switch {
		case res.Err != nil:
			log.Printf("[WARN] refresh %s failed: %v", ticker, res.Err)
		case res.Points == 0:
			log.Printf("[INFO] %s is up to date (from %s)", ticker, model.FormatDate(res.From))
		default:
			log.Printf("[INFO] %s: stored %d prices from %s", ticker, res.Points, model.FormatDate(res.From))
		}
	}
	return report, nil
}

func (c *Collector) refreshTicker(ctx context.Context, ticker string, end time.Time) TickerResult {
	res := TickerResult{Ticker: ticker, From: c.StartDate}

	last, ok, err := c.Store.LatestDate(ctx, ticker)
	if err != nil {
		res.Err = fmt.Errorf("latest date: %w", err)
		return res
	}
	if ok {
		res.From = last
	}
	if res.From.After(end) {
		return res
	}

	points, err := c.Fetcher.FetchDailyCloses(ctx, ticker, res.From, end)
	if errors.Is(err, ErrNoData) {
		return res
	}
	if err != nil {
		res.Err = fmt.Errorf("fetch: %w", err)
		return res
	}
	if err := c.Store.UpsertPoints(ctx, ticker, points); err != nil {
		res.Err = fmt.Errorf("store: %w", err)
		return res
	}
	res.Points = len(points)
	return res
}

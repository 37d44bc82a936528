// Package store persists daily closing prices and refresh history.
package store

import (
	"context"
	"errors"
	"time"

	"ETFScope/internal/model"
)

// ErrNotFound is returned when a ticker has no stored prices.
var ErrNotFound = errors.New("ticker not found")

// TickerStats summarizes one ticker's stored history.
type TickerStats struct {
	Ticker string
	Rows   int
	First  time.Time
	Last   time.Time
}

// RefreshRun records one collection pass over the configured tickers.
type RefreshRun struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Source     string
	Tickers    int
	Points     int
	Failures   int
	Note       string
}

// PriceStore persists price history keyed by (ticker, date).
type PriceStore interface {
	// UpsertPoints inserts points for ticker, replacing the price of any date
	// already stored.
	UpsertPoints(ctx context.Context, ticker string, points model.TimeSeries) error

	// LatestDate returns the most recent stored date for ticker.
	LatestDate(ctx context.Context, ticker string) (time.Time, bool, error)

	// Series returns ticker's history ordered by date, or ErrNotFound.
	Series(ctx context.Context, ticker string) (model.TimeSeries, error)

	// Dataset returns every stored ticker.
	Dataset(ctx context.Context) (model.Dataset, error)

	// Inspect returns per-ticker row counts ordered by ticker.
	Inspect(ctx context.Context) ([]TickerStats, error)

	// RecordRun appends a refresh run to the history.
	RecordRun(ctx context.Context, run *RefreshRun) error

	Close() error
}

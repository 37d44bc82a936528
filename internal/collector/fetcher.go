package collector

import (
	"context"
	"errors"
	"time"

	"ETFScope/internal/model"
)

// ErrNoData is returned when a source has no prices for the requested window.
var ErrNoData = errors.New("no data returned")

// Fetcher defines the interface for fetching daily closing prices.
type Fetcher interface {
	// FetchDailyCloses returns one adjusted close per trading day in
	// [start, end], ordered by date.
	FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) (model.TimeSeries, error)
	Name() string
}

var (
	_ Fetcher = (*YahooFetcher)(nil)
	_ Fetcher = (*FinanceGoFetcher)(nil)
	_ Fetcher = (*MockFetcher)(nil)
)

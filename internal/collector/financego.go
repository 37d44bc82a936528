package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"

	"ETFScope/internal/model"
)

// FinanceGoFetcher implements Fetcher on top of the piquette/finance-go
// chart client. It talks to the same Yahoo endpoint as YahooFetcher but goes
// through the library's own HTTP backend, so the proxy setting does not apply.
type FinanceGoFetcher struct {
	SymbolMap map[string]string
}

// NewFinanceGoFetcher creates a fetcher backed by finance-go.
func NewFinanceGoFetcher() *FinanceGoFetcher {
	return &FinanceGoFetcher{SymbolMap: map[string]string{"SPX": "^GSPC", "SPX500": "^GSPC"}}
}

func (f *FinanceGoFetcher) Name() string { return "finance-go" }

func (f *FinanceGoFetcher) FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) (model.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol := ticker
	if mapped, ok := f.SymbolMap[ticker]; ok {
		symbol = mapped
	}
	start, end = model.DateOf(start), model.DateOf(end)
	until := end.AddDate(0, 0, 1)

	iter := chart.Get(&chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&until),
		Interval: datetime.OneDay,
	})

	var points model.TimeSeries
	for iter.Next() {
		bar := iter.Bar()
		price := bar.AdjClose
		if price.IsZero() {
			price = bar.Close
		}
		if price.IsZero() || price.IsNegative() {
			continue
		}
		day := model.DateOf(time.Unix(int64(bar.Timestamp), 0).UTC())
		if day.Before(start) || day.After(end) {
			continue
		}
		points = append(points, model.Point{Date: day, Price: price})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("finance-go chart %s: %w", ticker, err)
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points.Sorted(), nil
}

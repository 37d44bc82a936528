package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public chart API.
type YahooFetcher struct {
	Client    *resty.Client
	SymbolMap map[string]string // maps internal ticker to Yahoo symbol
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string) *YahooFetcher {
	return NewYahooFetcherWithBaseURL(yahooBaseURL, proxyURL)
}

// NewYahooFetcherWithBaseURL points the fetcher at another chart API host.
func NewYahooFetcherWithBaseURL(baseURL, proxyURL string) *YahooFetcher {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YahooFetcher{
		Client: client,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

func (f *YahooFetcher) yahooSymbol(ticker string) string {
	if mapped, ok := f.SymbolMap[ticker]; ok {
		return mapped
	}
	return ticker
}

// yahooChart is the response structure from Yahoo Finance chart API.
// Missing sessions come back as null, hence the pointers.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*decimal.Decimal `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*decimal.Decimal `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (f *YahooFetcher) FetchDailyCloses(ctx context.Context, ticker string, start, end time.Time) (model.TimeSeries, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	// period2 is exclusive on Yahoo's side.
	period2 := end.AddDate(0, 0, 1)

	resp, err := f.Client.R().
		SetContext(ctx).
		SetPathParam("symbol", f.yahooSymbol(ticker)).
		SetQueryParams(map[string]string{
			"period1":  strconv.FormatInt(start.Unix(), 10),
			"period2":  strconv.FormatInt(period2.Unix(), 10),
			"interval": "1d",
			"events":   "div,split",
		}).
		Get("/v8/finance/chart/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch %s: %w", ticker, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(resp.Body(), &chart); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("yahoo: status %d, body: %s", resp.StatusCode(), resp.String())
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", chart.Chart.Error.Description)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("yahoo: status %d", resp.StatusCode())
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return nil, ErrNoData
	}

	result := chart.Chart.Result[0]
	var closes, adj []*decimal.Decimal
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	points := make(model.TimeSeries, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		price := pick(adj, i)
		if price == nil {
			price = pick(closes, i)
		}
		if price == nil {
			continue // holiday or halted session
		}
		// Timestamps mark the session open; shift into exchange time before
		// taking the calendar day.
		day := model.DateOf(time.Unix(ts+result.Meta.GMTOffset, 0).UTC())
		if day.Before(start) || day.After(end) {
			continue
		}
		points = append(points, model.Point{Date: day, Price: *price})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}
	return points.Sorted(), nil
}

func pick(vals []*decimal.Decimal, i int) *decimal.Decimal {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

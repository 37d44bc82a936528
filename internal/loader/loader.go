// Package loader materializes a Dataset from the JSON price resource
// (ticker -> date string -> price) or from a Parquet snapshot, either on
// local disk or over HTTP.
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

// ErrEmptyDataset is returned when a resource parses but holds no tickers.
var ErrEmptyDataset = errors.New("dataset is empty")

// Stats summarizes what a decode kept and dropped.
type Stats struct {
	Tickers int
	Points  int
	Skipped int // malformed dates, non-numeric or negative prices
}

// Loader fetches dataset resources from files or URLs.
type Loader struct {
	Client *resty.Client
}

// New creates a Loader with optional proxy support.
func New(proxyURL string) *Loader {
	c := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("Accept", "application/json")
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err == nil {
			c.SetProxy(proxyURL)
		}
	}
	return &Loader{Client: c}
}

// Load reads the dataset from source. http(s) URLs are fetched, paths ending
// in .parquet are read as Parquet snapshots, anything else as a JSON file.
func (l *Loader) Load(ctx context.Context, source string) (model.Dataset, Stats, error) {
	switch {
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return l.LoadURL(ctx, source)
	case strings.HasSuffix(strings.ToLower(source), ".parquet"):
		return LoadParquet(source)
	default:
		return LoadFile(source)
	}
}

// LoadURL fetches the JSON resource over HTTP.
func (l *Loader) LoadURL(ctx context.Context, rawURL string) (model.Dataset, Stats, error) {
	resp, err := l.Client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("fetch dataset: %w", err)
	}
	if resp.IsError() {
		return nil, Stats{}, fmt.Errorf("fetch dataset: status %d, body: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	return Decode(bytes.NewReader(resp.Body()))
}

// LoadFile reads the JSON resource from disk.
func LoadFile(path string) (model.Dataset, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// LoadParquet reads a snapshot written by the exporter.
func LoadParquet(path string) (model.Dataset, Stats, error) {
	ds, err := store.NewParquetArchive(path).Read()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read parquet dataset: %w", err)
	}
	if len(ds) == 0 {
		return nil, Stats{}, ErrEmptyDataset
	}
	return ds, Stats{Tickers: len(ds), Points: ds.Points()}, nil
}

// Decode parses the JSON resource shape. Prices may be numbers or numeric
// strings; dates may carry a trailing time part. Entries with an unparseable
// date or a non-numeric or negative price are skipped without affecting the
// rest of the series.
func Decode(r io.Reader) (model.Dataset, Stats, error) {
	var raw map[string]map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, Stats{}, fmt.Errorf("decode dataset: %w", err)
	}

	ds := make(model.Dataset, len(raw))
	var st Stats
	for ticker, entries := range raw {
		ticker = strings.TrimSpace(ticker)
		if ticker == "" {
			st.Skipped += len(entries)
			continue
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		s := make(model.TimeSeries, 0, len(entries))
		for _, dateStr := range keys {
			rawPrice := entries[dateStr]
			date, err := model.ParseDate(dateStr)
			if err != nil {
				st.Skipped++
				continue
			}
			price, ok := parsePrice(rawPrice)
			if !ok {
				st.Skipped++
				continue
			}
			s = append(s, model.Point{Date: date, Price: price})
		}
		s = s.Sorted()
		ds[ticker] = s
		st.Points += len(s)
	}
	st.Tickers = len(ds)

	if st.Skipped > 0 {
		log.Printf("[WARN] dataset: skipped %d malformed entries", st.Skipped)
	}
	if len(ds) == 0 {
		return nil, st, ErrEmptyDataset
	}
	return ds, st, nil
}

func parsePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || string(b) == "null" {
		return decimal.Decimal{}, false
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return decimal.Decimal{}, false
	}
	if d.IsNegative() {
		return decimal.Decimal{}, false
	}
	return d, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

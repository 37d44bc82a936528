package model

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Point is one daily price observation.
type Point struct {
	Date  time.Time
	Price decimal.Decimal
}

// TimeSeries is a ticker's price history ordered by date ascending.
// Values are treated as read-only once built.
type TimeSeries []Point

// IsSorted reports whether dates are strictly ascending.
func (s TimeSeries) IsSorted() bool {
	for i := 1; i < len(s); i++ {
		if !s[i-1].Date.Before(s[i].Date) {
			return false
		}
	}
	return true
}

// Sorted returns s when it is already strictly ascending, otherwise a sorted
// copy with duplicate dates collapsed to their first occurrence.
func (s TimeSeries) Sorted() TimeSeries {
	if s.IsSorted() {
		return s
	}
	out := make(TimeSeries, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	n := 0
	for i, p := range out {
		if i > 0 && p.Date.Equal(out[n-1].Date) {
			continue
		}
		out[n] = p
		n++
	}
	return out[:n]
}

// First returns the earliest point.
func (s TimeSeries) First() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[0], true
}

// Last returns the most recent point.
func (s TimeSeries) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// MarshalJSON writes the series in the dataset resource shape: an object
// mapping "YYYY-MM-DD" to a numeric price, keys in ascending date order.
func (s TimeSeries) MarshalJSON() ([]byte, error) {
	s = s.Sorted()
	var b bytes.Buffer
	b.WriteByte('{')
	for i, p := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(FormatDate(p.Date))
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.WriteString(p.Price.String())
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Dataset maps ticker symbols to their price history.
type Dataset map[string]TimeSeries

// Lookup returns the series for ticker. An unknown ticker yields an empty
// series rather than an error.
func (d Dataset) Lookup(ticker string) TimeSeries {
	return d[ticker]
}

// Tickers returns the ticker symbols in ascending order.
func (d Dataset) Tickers() []string {
	tickers := make([]string, 0, len(d))
	for t := range d {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// Points returns the total number of observations across all tickers.
func (d Dataset) Points() int {
	n := 0
	for _, s := range d {
		n += len(s)
	}
	return n
}

// Merge returns a new dataset holding d overlaid with other. On a date
// collision the price from other wins.
func (d Dataset) Merge(other Dataset) Dataset {
	out := make(Dataset, len(d)+len(other))
	for ticker, s := range d {
		out[ticker] = s
	}
	for ticker, incoming := range other {
		existing, ok := out[ticker]
		if !ok {
			out[ticker] = incoming.Sorted()
			continue
		}
		byDay := make(map[int64]Point, len(existing)+len(incoming))
		for _, p := range existing {
			byDay[p.Date.Unix()] = p
		}
		for _, p := range incoming {
			byDay[p.Date.Unix()] = p
		}
		merged := make(TimeSeries, 0, len(byDay))
		for _, p := range byDay {
			merged = append(merged, p)
		}
		sort.Slice(merged, func(i, j int) bool { return merged[i].Date.Before(merged[j].Date) })
		out[ticker] = merged
	}
	return out
}

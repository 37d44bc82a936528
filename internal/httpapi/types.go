package httpapi

import (
	"encoding/json"

	"ETFScope/internal/model"
)

// TickersResponse is the JSON response for GET /api/tickers.
type TickersResponse struct {
	Tickers []string `json:"tickers"`
}

// RangesResponse is the JSON response for GET /api/ranges.
type RangesResponse struct {
	Ranges  []model.RangeSelector `json:"ranges"`
	Default model.RangeSelector   `json:"default"`
}

// PointJSON is one chart point. Price is written as a bare JSON number.
type PointJSON struct {
	Date  string      `json:"date"`
	Price json.Number `json:"price"`
}

// SeriesResponse is the JSON response for GET /api/series.
type SeriesResponse struct {
	Ticker   string              `json:"ticker"`
	Range    model.RangeSelector `json:"range"`
	Cutoff   string              `json:"cutoff,omitempty"` // empty for max
	Filtered int                 `json:"filtered"`
	Sampled  bool                `json:"sampled"`
	Points   []PointJSON         `json:"points"`
}

// HealthResponse is the JSON response for GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Tickers  int    `json:"tickers"`
	Points   int    `json:"points"`
	LoadedAt string `json:"loaded_at"`
}

// Package httpapi serves the dataset and processed chart series over HTTP for
// the browser widget.
package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"ETFScope/internal/model"
	"ETFScope/internal/series"
)

// Server is the read-only chart API.
type Server struct {
	dataset atomic.Pointer[model.Dataset]
	loaded  atomic.Int64 // unix seconds of the last SetDataset
	policy  series.Policy
	now     func() time.Time
}

// NewServer creates a server over ds. A nil now uses time.Now.
func NewServer(ds model.Dataset, policy series.Policy, now func() time.Time) *Server {
	if now == nil {
		now = time.Now
	}
	if policy.MaxPoints < 1 {
		policy = series.DefaultPolicy()
	}
	s := &Server{policy: policy, now: now}
	s.SetDataset(ds)
	return s
}

// SetDataset swaps in a new dataset. Requests already running keep the
// snapshot they started with.
func (s *Server) SetDataset(ds model.Dataset) {
	if ds == nil {
		ds = model.Dataset{}
	}
	s.dataset.Store(&ds)
	s.loaded.Store(s.now().Unix())
}

// Dataset returns the current snapshot.
func (s *Server) Dataset() model.Dataset {
	return *s.dataset.Load()
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tickers", s.handleTickers)
	mux.HandleFunc("GET /api/ranges", s.handleRanges)
	mux.HandleFunc("GET /api/series", s.handleSeries)
	mux.HandleFunc("GET /etf-data.json", s.handleDataset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return corsMiddleware(mux)
}

func (s *Server) handleTickers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, TickersResponse{Tickers: s.Dataset().Tickers()})
}

func (s *Server) handleRanges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, RangesResponse{Ranges: model.RangeSelectors, Default: model.Max})
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := strings.ToUpper(strings.TrimSpace(q.Get("ticker")))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "missing ticker")
		return
	}
	sel := model.ParseRangeSelector(q.Get("range"))

	ref := s.now()
	if v := q.Get("ref"); v != "" {
		d, err := model.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ref date: "+v)
			return
		}
		ref = d
	}

	res := series.ProcessTicker(s.Dataset(), ticker, sel, ref, s.policy)
	resp := SeriesResponse{
		Ticker:   ticker,
		Range:    res.Range,
		Filtered: res.Filtered,
		Sampled:  res.Sampled,
		Points:   make([]PointJSON, len(res.Series)),
	}
	if !res.Cutoff.IsZero() {
		resp.Cutoff = model.FormatDate(res.Cutoff)
	}
	for i, p := range res.Series {
		resp.Points[i] = PointJSON{Date: model.FormatDate(p.Date), Price: json.Number(p.Price.String())}
	}
	writeJSON(w, resp)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Dataset())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	writeJSON(w, HealthResponse{
		Status:   "ok",
		Tickers:  len(ds),
		Points:   ds.Points(),
		LoadedAt: time.Unix(s.loaded.Load(), 0).UTC().Format(time.RFC3339),
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

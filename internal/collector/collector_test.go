package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
	"ETFScope/internal/store"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"SPY","gmtoffset":-18000},
	"timestamp":[1704205800,1704292200,1704378600],
	"indicators":{
		"quote":[{"close":[472.65,468.79,null]}],
		"adjclose":[{"adjclose":[470.10,null,null]}]
	}
}],"error":null}}`

func TestYahooFetcher_FetchDailyCloses(t *testing.T) {
	var gotPath, gotP1, gotP2, gotInterval string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		q := r.URL.Query()
		gotP1, gotP2, gotInterval = q.Get("period1"), q.Get("period2"), q.Get("interval")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL, "")
	got, err := f.FetchDailyCloses(context.Background(), "SPY", model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 5))
	if err != nil {
		t.Fatalf("FetchDailyCloses: %v", err)
	}

	if gotPath != "/v8/finance/chart/SPY" {
		t.Errorf("unexpected path %q", gotPath)
	}
	if gotP1 != "1704067200" || gotP2 != "1704499200" || gotInterval != "1d" {
		t.Errorf("unexpected query period1=%s period2=%s interval=%s", gotP1, gotP2, gotInterval)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 points, got %d", len(got))
	}
	if !got[0].Date.Equal(model.NewDate(2024, 1, 2)) || !got[0].Price.Equal(decimal.RequireFromString("470.10")) {
		t.Errorf("expected adjusted close on 2024-01-02, got %s %s", model.FormatDate(got[0].Date), got[0].Price)
	}
	if !got[1].Date.Equal(model.NewDate(2024, 1, 3)) || !got[1].Price.Equal(decimal.RequireFromString("468.79")) {
		t.Errorf("expected close fallback on 2024-01-03, got %s %s", model.FormatDate(got[1].Date), got[1].Price)
	}
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartBody))
	}))
	defer srv.Close()

	f := NewYahooFetcherWithBaseURL(srv.URL, "")
	if _, err := f.FetchDailyCloses(context.Background(), "SPX", model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 5)); err != nil {
		t.Fatalf("FetchDailyCloses: %v", err)
	}
	if gotPath != "/v8/finance/chart/^GSPC" {
		t.Errorf("expected mapped symbol, got path %q", gotPath)
	}
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		noData bool
		substr string
	}{
		{
			name:   "api error",
			status: http.StatusNotFound,
			body:   `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`,
			substr: "delisted",
		},
		{
			name:   "no timestamps",
			status: http.StatusOK,
			body:   `{"chart":{"result":[{"meta":{},"timestamp":[]}],"error":null}}`,
			noData: true,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `bad gateway`,
			substr: "502",
		},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte(tt.body))
		}))
		f := NewYahooFetcherWithBaseURL(srv.URL, "")
		_, err := f.FetchDailyCloses(context.Background(), "ZZZZ", model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 5))
		srv.Close()

		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		if errors.Is(err, ErrNoData) != tt.noData {
			t.Errorf("%s: ErrNoData = %v, want %v (err=%v)", tt.name, errors.Is(err, ErrNoData), tt.noData, err)
		}
		if tt.substr != "" && !strings.Contains(err.Error(), tt.substr) {
			t.Errorf("%s: expected %q in %v", tt.name, tt.substr, err)
		}
	}
}

func day(d int, price string) model.Point {
	return model.Point{Date: model.NewDate(2024, 1, d), Price: decimal.RequireFromString(price)}
}

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "prices.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCollector_RefreshIncremental(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	mock := &MockFetcher{
		Series: map[string]model.TimeSeries{
			"SPY": {day(2, "470.1"), day(3, "472.6"), day(4, "467.3"), day(5, "467.9")},
		},
	}
	c := NewCollector(mock, st, time.Time{})

	report, err := c.Refresh(ctx, []string{"SPY"}, model.NewDate(2024, 1, 3))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if report.Points() != 2 {
		t.Errorf("expected 2 points on first run, got %d", report.Points())
	}
	if calls := mock.Calls(); !calls[0].Start.Equal(DefaultStartDate) {
		t.Errorf("expected first fetch from %s, got %s", model.FormatDate(DefaultStartDate), model.FormatDate(calls[0].Start))
	}

	// Second pass resumes at the latest stored day, inclusive.
	report, err = c.Refresh(ctx, []string{"SPY"}, model.NewDate(2024, 1, 5))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	calls := mock.Calls()
	if !calls[1].Start.Equal(model.NewDate(2024, 1, 3)) {
		t.Errorf("expected resume from 2024-01-03, got %s", model.FormatDate(calls[1].Start))
	}
	if report.Points() != 3 {
		t.Errorf("expected 3 points on second run, got %d", report.Points())
	}

	series, err := st.Series(ctx, "SPY")
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 4 {
		t.Errorf("expected 4 stored points, got %d", len(series))
	}
}

func TestCollector_RefreshFailuresAreIsolated(t *testing.T) {
	ctx := context.Background()
	st := newStore(t)
	mock := &MockFetcher{
		Series: map[string]model.TimeSeries{
			"QQQ": {day(2, "402.34")},
		},
		Errors: map[string]error{"BAD": errors.New("boom")},
	}
	c := NewCollector(mock, st, model.NewDate(2020, 1, 1))

	report, err := c.Refresh(ctx, []string{"BAD", "EMPTY", "QQQ"}, model.NewDate(2024, 1, 5))
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(report.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(report.Results))
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].Ticker != "BAD" {
		t.Errorf("expected only BAD to fail, got %+v", failures)
	}
	if !strings.Contains(report.Summary(), "BAD: fetch: boom") {
		t.Errorf("unexpected summary %q", report.Summary())
	}
	if report.Points() != 1 {
		t.Errorf("expected 1 point stored, got %d", report.Points())
	}
	if report.Source != "mock" {
		t.Errorf("expected source mock, got %q", report.Source)
	}
}

func TestCollector_RefreshCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCollector(&MockFetcher{}, newStore(t), time.Time{})
	if _, err := c.Refresh(ctx, []string{"SPY"}, model.NewDate(2024, 1, 5)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFinanceGoFetcher_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFinanceGoFetcher()
	if f.Name() != "finance-go" {
		t.Errorf("unexpected name %q", f.Name())
	}
	if _, err := f.FetchDailyCloses(ctx, "SPY", model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 5)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

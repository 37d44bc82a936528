package series

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ETFScope/internal/model"
)

// dailySeries builds one point per calendar day from start to end inclusive.
func dailySeries(start, end time.Time) model.TimeSeries {
	var s model.TimeSeries
	for d, i := start, 0; !d.After(end); d, i = d.AddDate(0, 0, 1), i+1 {
		s = append(s, model.Point{Date: d, Price: decimal.NewFromInt(int64(100 + i))})
	}
	return s
}

func countSeries(n int) model.TimeSeries {
	start := model.NewDate(2020, 1, 1)
	return dailySeries(start, start.AddDate(0, 0, n-1))
}

func TestResolveCutoff_Table(t *testing.T) {
	ref := model.NewDate(2024, 6, 15)
	tests := []struct {
		sel  model.RangeSelector
		want time.Time
	}{
		{model.OneMonth, model.NewDate(2024, 5, 15)},
		{model.SixMonths, model.NewDate(2023, 12, 15)},
		{model.OneYear, model.NewDate(2023, 6, 15)},
		{model.TwoYears, model.NewDate(2022, 6, 15)},
		{model.ThreeYears, model.NewDate(2021, 6, 15)},
		{model.FiveYears, model.NewDate(2019, 6, 15)},
		{model.TenYears, model.NewDate(2014, 6, 15)},
	}
	for _, tt := range tests {
		got := ResolveCutoff(tt.sel, ref)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %s, want %s", tt.sel, model.FormatDate(got), model.FormatDate(tt.want))
		}
	}
}

func TestResolveCutoff_MaxAndUnknown(t *testing.T) {
	ref := model.NewDate(2024, 6, 15)
	for _, sel := range []model.RangeSelector{model.Max, "3m", "", "weekly"} {
		if got := ResolveCutoff(sel, ref); !got.IsZero() {
			t.Errorf("%q: expected no cutoff, got %s", sel, model.FormatDate(got))
		}
	}
}

func TestResolveCutoff_LeapYearClamp(t *testing.T) {
	got := ResolveCutoff(model.OneMonth, model.NewDate(2024, 3, 31))
	if !got.Equal(model.NewDate(2024, 2, 29)) {
		t.Errorf("expected 2024-02-29, got %s", model.FormatDate(got))
	}
}

func TestResolveCutoff_IgnoresTimeOfDay(t *testing.T) {
	ref := time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)
	got := ResolveCutoff(model.OneMonth, ref)
	if !got.Equal(model.NewDate(2024, 2, 29)) {
		t.Errorf("expected 2024-02-29, got %s", got)
	}
}

func TestFilter_MaxKeepsEverything(t *testing.T) {
	s := countSeries(50)
	got := Filter(s, time.Time{})
	if len(got) != len(s) {
		t.Fatalf("expected %d points, got %d", len(s), len(got))
	}
	for i := range s {
		if !got[i].Date.Equal(s[i].Date) || !got[i].Price.Equal(s[i].Price) {
			t.Fatalf("point %d differs", i)
		}
	}
}

func TestFilter_InclusiveCutoff(t *testing.T) {
	s := dailySeries(model.NewDate(2024, 1, 1), model.NewDate(2024, 1, 10))
	cutoff := model.NewDate(2024, 1, 5)
	got := Filter(s, cutoff)
	if len(got) != 6 {
		t.Fatalf("expected 6 points, got %d", len(got))
	}
	if !got[0].Date.Equal(cutoff) {
		t.Errorf("expected first date %s, got %s", model.FormatDate(cutoff), model.FormatDate(got[0].Date))
	}
	for _, p := range got {
		if p.Date.Before(cutoff) {
			t.Errorf("date %s is before cutoff", model.FormatDate(p.Date))
		}
	}
}

func TestFilter_NothingQualifies(t *testing.T) {
	s := dailySeries(model.NewDate(2020, 1, 1), model.NewDate(2020, 1, 10))
	if got := Filter(s, model.NewDate(2024, 1, 1)); len(got) != 0 {
		t.Errorf("expected empty result, got %d points", len(got))
	}
}

func TestFilter_SortsUnorderedInput(t *testing.T) {
	s := model.TimeSeries{
		{Date: model.NewDate(2024, 1, 3), Price: decimal.NewFromInt(3)},
		{Date: model.NewDate(2024, 1, 1), Price: decimal.NewFromInt(1)},
		{Date: model.NewDate(2024, 1, 2), Price: decimal.NewFromInt(2)},
	}
	got := Filter(s, model.NewDate(2024, 1, 2))
	if len(got) != 2 || !got[0].Date.Equal(model.NewDate(2024, 1, 2)) || !got[1].Date.Equal(model.NewDate(2024, 1, 3)) {
		t.Errorf("unexpected result %+v", got)
	}
	if !s[0].Date.Equal(model.NewDate(2024, 1, 3)) {
		t.Error("input series was reordered")
	}
}

func TestSample_NoOpWhenWithinBudget(t *testing.T) {
	s := countSeries(120)
	for _, m := range []int{120, 300} {
		got := Sample(s, m)
		if len(got) != len(s) {
			t.Fatalf("M=%d: expected %d points, got %d", m, len(s), len(got))
		}
		for i := range s {
			if !got[i].Date.Equal(s[i].Date) || !got[i].Price.Equal(s[i].Price) {
				t.Fatalf("M=%d: point %d differs", m, i)
			}
		}
	}
}

func TestSample_OutputSize(t *testing.T) {
	tests := []struct {
		count, max, stride, size int
	}{
		{725, 300, 3, 242},
		{1462, 300, 5, 293},
		{366, 300, 2, 183},
		{301, 300, 2, 151},
		{10, 1, 10, 1},
	}
	for _, tt := range tests {
		if got := Stride(tt.count, tt.max); got != tt.stride {
			t.Errorf("Stride(%d, %d) = %d, want %d", tt.count, tt.max, got, tt.stride)
		}
		got := Sample(countSeries(tt.count), tt.max)
		if len(got) != tt.size {
			t.Errorf("Sample(%d, %d) size = %d, want %d", tt.count, tt.max, len(got), tt.size)
		}
		if len(got) > tt.max {
			t.Errorf("Sample(%d, %d) exceeded budget", tt.count, tt.max)
		}
	}
}

func TestSample_EarliestAnchored(t *testing.T) {
	s := countSeries(725)
	got := Sample(s, 300)
	if !got[0].Date.Equal(s[0].Date) {
		t.Error("expected earliest point to be kept")
	}
	// 724 is not a multiple of the stride (3), so the newest point is dropped.
	last, _ := got.Last()
	newest, _ := s.Last()
	if last.Date.Equal(newest.Date) {
		t.Error("expected the most recent point to be dropped")
	}
	if !last.Date.Equal(s[723].Date) {
		t.Errorf("expected last kept index 723, got %s", model.FormatDate(last.Date))
	}
	for i, p := range got {
		if !p.Date.Equal(s[i*3].Date) || !p.Price.Equal(s[i*3].Price) {
			t.Fatalf("sample %d is not input index %d", i, i*3)
		}
	}
}

func TestSample_Empty(t *testing.T) {
	if got := Sample(nil, 300); len(got) != 0 {
		t.Errorf("expected empty, got %d", len(got))
	}
}

func TestProcess_OneYearEndToEnd(t *testing.T) {
	s := dailySeries(model.NewDate(2020, 1, 1), model.NewDate(2024, 1, 1))
	ref := model.NewDate(2024, 1, 1)

	res := Process(s, model.OneYear, ref, DefaultPolicy())
	if !res.Cutoff.Equal(model.NewDate(2023, 1, 1)) {
		t.Fatalf("unexpected cutoff %s", model.FormatDate(res.Cutoff))
	}
	if res.Filtered != 366 {
		t.Errorf("expected 366 filtered points, got %d", res.Filtered)
	}
	if len(res.Series) > 300 {
		t.Errorf("expected at most 300 points, got %d", len(res.Series))
	}
	if !res.Sampled {
		t.Error("expected one-year to be sampled")
	}
	first, _ := res.Series.First()
	if !first.Date.Equal(model.NewDate(2023, 1, 1)) {
		t.Errorf("expected first date 2023-01-01, got %s", model.FormatDate(first.Date))
	}
	if !res.Series.IsSorted() {
		t.Error("expected strictly ascending dates")
	}

	// Every returned point exists unchanged in the input.
	byDay := make(map[int64]decimal.Decimal, len(s))
	for _, p := range s {
		byDay[p.Date.Unix()] = p.Price
	}
	for _, p := range res.Series {
		price, ok := byDay[p.Date.Unix()]
		if !ok || !price.Equal(p.Price) {
			t.Fatalf("point %s not present unchanged in input", model.FormatDate(p.Date))
		}
	}
}

func TestProcess_ShortRangesUnsampled(t *testing.T) {
	// Both short windows hold more points than the budget.
	s := dailySeries(model.NewDate(2023, 1, 1), model.NewDate(2024, 1, 1))
	ref := model.NewDate(2024, 1, 1)
	p := Policy{MaxPoints: 10, Unsampled: DefaultPolicy().Unsampled}

	for _, sel := range []model.RangeSelector{model.OneMonth, model.SixMonths} {
		res := Process(s, sel, ref, p)
		if res.Sampled {
			t.Errorf("%s: expected no sampling", sel)
		}
		if len(res.Series) != res.Filtered {
			t.Errorf("%s: expected %d points, got %d", sel, res.Filtered, len(res.Series))
		}
	}

	res := Process(s, model.OneYear, ref, p)
	if len(res.Series) > 10 {
		t.Errorf("1y: expected at most 10 points, got %d", len(res.Series))
	}
}

func TestProcess_MaxAndUnknownSelector(t *testing.T) {
	s := countSeries(1000)
	ref := model.NewDate(2030, 1, 1)

	res := Process(s, "quarter", ref, DefaultPolicy())
	if res.Range != model.Max {
		t.Errorf("expected unknown selector to become max, got %q", res.Range)
	}
	if res.Filtered != 1000 {
		t.Errorf("expected max to keep all 1000 points before sampling, got %d", res.Filtered)
	}
	if len(res.Series) != 250 {
		t.Errorf("expected 250 sampled points (stride 4), got %d", len(res.Series))
	}
}

func TestProcess_EmptySeries(t *testing.T) {
	for _, sel := range model.RangeSelectors {
		res := Process(model.TimeSeries{}, sel, model.NewDate(2024, 1, 1), DefaultPolicy())
		if len(res.Series) != 0 {
			t.Errorf("%s: expected empty output, got %d", sel, len(res.Series))
		}
	}
}

func TestProcess_Deterministic(t *testing.T) {
	s := countSeries(900)
	ref := model.NewDate(2022, 6, 30)
	a := Process(s, model.TwoYears, ref, DefaultPolicy())
	b := Process(s, model.TwoYears, ref, DefaultPolicy())
	if len(a.Series) != len(b.Series) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Series), len(b.Series))
	}
	for i := range a.Series {
		if !a.Series[i].Date.Equal(b.Series[i].Date) {
			t.Fatalf("point %d differs", i)
		}
	}
}

func TestProcessTicker_Missing(t *testing.T) {
	ds := model.Dataset{"SPY": countSeries(10)}
	res := ProcessTicker(ds, "QQQ", model.OneYear, model.NewDate(2024, 1, 1), DefaultPolicy())
	if len(res.Series) != 0 {
		t.Errorf("expected empty series for unknown ticker, got %d", len(res.Series))
	}
}

package series

import (
	"time"

	"ETFScope/internal/model"
)

// DefaultMaxPoints is the point budget for sampled ranges.
const DefaultMaxPoints = 300

// Policy decides which ranges are down-sampled and to how many points.
//
// The default is: one-month and six-months are shown at full daily
// resolution, every longer range (and max) is sampled to MaxPoints.
type Policy struct {
	MaxPoints int
	Unsampled []model.RangeSelector
}

// DefaultPolicy returns the short-ranges-unsampled policy with a 300 point budget.
func DefaultPolicy() Policy {
	return Policy{
		MaxPoints: DefaultMaxPoints,
		Unsampled: []model.RangeSelector{model.OneMonth, model.SixMonths},
	}
}

// Samples reports whether sel is down-sampled under p.
func (p Policy) Samples(sel model.RangeSelector) bool {
	for _, r := range p.Unsampled {
		if r == sel {
			return false
		}
	}
	return true
}

// Result is a reduced series plus the parameters that produced it.
type Result struct {
	Range    model.RangeSelector
	Cutoff   time.Time // zero for max
	Filtered int       // points left after the cutoff, before sampling
	Sampled  bool
	Series   model.TimeSeries
}

// Process reduces s for display: the cutoff for sel is resolved against ref,
// entries before it are dropped, and the remainder is sampled when the policy
// says so. Unknown selectors are treated as max. Process is pure; calling it
// again with the same arguments yields the same result.
func Process(s model.TimeSeries, sel model.RangeSelector, ref time.Time, p Policy) Result {
	if !sel.Valid() {
		sel = model.Max
	}
	cutoff := ResolveCutoff(sel, ref)
	filtered := Filter(s, cutoff)

	res := Result{
		Range:    sel,
		Cutoff:   cutoff,
		Filtered: len(filtered),
		Series:   filtered,
	}
	if p.Samples(sel) {
		res.Series = Sample(filtered, p.MaxPoints)
		res.Sampled = len(res.Series) < len(filtered)
	}
	return res
}

// ProcessTicker looks ticker up in ds and processes it. A missing ticker
// produces an empty result.
func ProcessTicker(ds model.Dataset, ticker string, sel model.RangeSelector, ref time.Time, p Policy) Result {
	return Process(ds.Lookup(ticker), sel, ref, p)
}

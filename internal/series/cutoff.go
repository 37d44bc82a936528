// Package series turns a ticker's full price history into the reduced series
// a chart displays: a date cutoff per range selector, an inclusive range
// filter, and a stride down-sampler bounded by a point budget.
package series

import (
	"time"

	"ETFScope/internal/model"
)

// offset is how far back a selector reaches from the reference date.
type offset struct {
	months int
	years  int
}

var offsets = map[model.RangeSelector]offset{
	model.OneMonth:   {months: 1},
	model.SixMonths:  {months: 6},
	model.OneYear:    {years: 1},
	model.TwoYears:   {years: 2},
	model.ThreeYears: {years: 3},
	model.FiveYears:  {years: 5},
	model.TenYears:   {years: 10},
}

// ResolveCutoff returns the earliest calendar day to include for sel, counted
// back from ref. The zero time means no cutoff: Max and every unrecognized
// selector include the whole series.
func ResolveCutoff(sel model.RangeSelector, ref time.Time) time.Time {
	off, ok := offsets[sel]
	if !ok {
		return time.Time{}
	}
	day := model.DateOf(ref)
	if off.years != 0 {
		return model.AddYears(day, -off.years)
	}
	return model.AddMonths(day, -off.months)
}

package model

import "strings"

// RangeSelector identifies a requested display window.
type RangeSelector string

const (
	OneMonth   RangeSelector = "1m"
	SixMonths  RangeSelector = "6m"
	OneYear    RangeSelector = "1y"
	TwoYears   RangeSelector = "2y"
	ThreeYears RangeSelector = "3y"
	FiveYears  RangeSelector = "5y"
	TenYears   RangeSelector = "10y"
	Max        RangeSelector = "max"
)

// RangeSelectors lists every valid selector, shortest window first.
var RangeSelectors = []RangeSelector{
	OneMonth, SixMonths, OneYear, TwoYears, ThreeYears, FiveYears, TenYears, Max,
}

var rangeAliases = map[string]RangeSelector{
	"one-month":   OneMonth,
	"1mo":         OneMonth,
	"six-months":  SixMonths,
	"6mo":         SixMonths,
	"one-year":    OneYear,
	"two-year":    TwoYears,
	"two-years":   TwoYears,
	"three-year":  ThreeYears,
	"three-years": ThreeYears,
	"five-year":   FiveYears,
	"five-years":  FiveYears,
	"ten-year":    TenYears,
	"ten-years":   TenYears,
	"all":         Max,
}

// ParseRangeSelector maps user input to a selector. Anything unrecognized,
// including the empty string, resolves to Max.
func ParseRangeSelector(s string) RangeSelector {
	if r, ok := LookupRangeSelector(s); ok {
		return r
	}
	return Max
}

// LookupRangeSelector is the strict form of ParseRangeSelector: it accepts the
// same names and aliases but reports false instead of falling back to Max.
func LookupRangeSelector(s string) (RangeSelector, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if r := RangeSelector(s); r.Valid() {
		return r, true
	}
	r, ok := rangeAliases[s]
	return r, ok
}

// Valid reports whether r is one of RangeSelectors.
func (r RangeSelector) Valid() bool {
	for _, v := range RangeSelectors {
		if r == v {
			return true
		}
	}
	return false
}

func (r RangeSelector) String() string { return string(r) }

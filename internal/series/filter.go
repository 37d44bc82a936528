package series

import (
	"sort"
	"time"

	"ETFScope/internal/model"
)

// Filter returns the entries of s dated on or after cutoff, in ascending date
// order. A zero cutoff keeps everything. Unsorted input is sorted into a copy
// first; s itself is never modified.
func Filter(s model.TimeSeries, cutoff time.Time) model.TimeSeries {
	s = s.Sorted()
	if cutoff.IsZero() {
		return s
	}
	cutoff = model.DateOf(cutoff)
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(cutoff) })
	return s[i:len(s):len(s)]
}

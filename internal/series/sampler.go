package series

import "ETFScope/internal/model"

// Stride is the index step Sample uses to fit count points into maxPoints.
func Stride(count, maxPoints int) int {
	if maxPoints < 1 || count <= maxPoints {
		return 1
	}
	return (count + maxPoints - 1) / maxPoints
}

// Sample keeps every stride-th point starting at index 0, so the earliest
// point is always kept and the most recent one may be dropped. When s already
// fits in maxPoints (or maxPoints < 1) s is returned unchanged.
func Sample(s model.TimeSeries, maxPoints int) model.TimeSeries {
	stride := Stride(len(s), maxPoints)
	if stride == 1 {
		return s
	}
	out := make(model.TimeSeries, 0, (len(s)+stride-1)/stride)
	for i := 0; i < len(s); i += stride {
		out = append(out, s[i])
	}
	return out
}

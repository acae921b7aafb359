package s2_ratios

import (
	"gonum.org/v1/gonum/floats"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/num"
)

// Series is a per-quarter ratio sequence, oldest to newest.
// One value per row of the driving window; absent where inputs are missing.
type Series []num.Num

// Len returns the number of quarters
func (s Series) Len() int {
	return len(s)
}

// Tail returns the last n values (fewer if the series is shorter)
func (s Series) Tail(n int) Series {
	if n <= 0 {
		return Series{}
	}
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Block returns the values between `to` and `from` quarters back, inclusive.
// Block(5, 8) is the second-most-recent group of four quarters.
func (s Series) Block(from, to int) Series {
	end := len(s) - (from - 1)
	start := len(s) - to
	if end <= 0 {
		return Series{}
	}
	if start < 0 {
		start = 0
	}
	return s[start:end]
}

// Present returns the values that are not absent
func (s Series) Present() []float64 {
	out := make([]float64, 0, len(s))
	for _, v := range s {
		if f, ok := v.Value(); ok {
			out = append(out, f)
		}
	}
	return out
}

// Floats returns the series with absent values as NaN
func (s Series) Floats() []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = v.Float()
	}
	return out
}

// Min is the minimum over present values; absent if none
func (s Series) Min() num.Num {
	p := s.Present()
	if len(p) == 0 {
		return num.Absent
	}
	return num.Of(floats.Min(p))
}

// Max is the maximum over present values; absent if none
func (s Series) Max() num.Num {
	p := s.Present()
	if len(p) == 0 {
		return num.Absent
	}
	return num.Of(floats.Max(p))
}

// MinOfRecent returns the minimum of the trailing n quarters
func MinOfRecent(s Series, n int) num.Num {
	return s.Tail(n).Min()
}

// MaxOfBlock returns the maximum of the quarters from..to back
func MaxOfBlock(s Series, from, to int) num.Num {
	return s.Block(from, to).Max()
}

// TTMSum sums the present values among the trailing n quarters.
// The window shortens silently when values are missing; all missing is absent.
func TTMSum(s Series, n int) num.Num {
	p := s.Tail(n).Present()
	if len(p) == 0 {
		return num.Absent
	}
	return num.Of(floats.Sum(p))
}

// FieldSeries extracts one field from a window, oldest to newest
func FieldSeries(w contracts.Window, f contracts.Field) Series {
	rows := w.Chronological()
	out := make(Series, len(rows))
	for i, row := range rows {
		out[i] = row.Get(f)
	}
	return out
}

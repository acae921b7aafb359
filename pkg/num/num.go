package num

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Num is a float64 that may be absent
// ⭐ SSOT: 결측값(NaN) 전파 규칙은 여기서만
//
// Arithmetic with an absent operand yields absent. Comparisons with an
// absent operand are always false.
type Num struct {
	v     float64
	valid bool
}

// Absent is the missing value
var Absent = Num{}

// Of wraps a float64. NaN and ±Inf become absent.
func Of(v float64) Num {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent
	}
	return Num{v: v, valid: true}
}

// Valid reports whether the value is present
func (n Num) Valid() bool {
	return n.valid
}

// Value returns the wrapped value and whether it is present
func (n Num) Value() (float64, bool) {
	return n.v, n.valid
}

// Float returns the value, or NaN if absent
func (n Num) Float() float64 {
	if !n.valid {
		return math.NaN()
	}
	return n.v
}

// Or returns the value, or def if absent
func (n Num) Or(def float64) float64 {
	if !n.valid {
		return def
	}
	return n.v
}

func (n Num) Add(o Num) Num {
	if !n.valid || !o.valid {
		return Absent
	}
	return Of(n.v + o.v)
}

func (n Num) Sub(o Num) Num {
	if !n.valid || !o.valid {
		return Absent
	}
	return Of(n.v - o.v)
}

func (n Num) Mul(o Num) Num {
	if !n.valid || !o.valid {
		return Absent
	}
	return Of(n.v * o.v)
}

// Div returns absent when the denominator is zero
func (n Num) Div(o Num) Num {
	if !n.valid || !o.valid || o.v == 0 {
		return Absent
	}
	return Of(n.v / o.v)
}

// Clamp limits the value to [lo, hi]
func (n Num) Clamp(lo, hi float64) Num {
	if !n.valid {
		return Absent
	}
	return Num{v: math.Max(lo, math.Min(hi, n.v)), valid: true}
}

func (n Num) Gt(o Num) bool {
	return n.valid && o.valid && n.v > o.v
}

func (n Num) Lt(o Num) bool {
	return n.valid && o.valid && n.v < o.v
}

// IsZero reports a present zero
func (n Num) IsZero() bool {
	return n.valid && n.v == 0
}

func (n Num) String() string {
	if !n.valid {
		return "NaN"
	}
	return strconv.FormatFloat(n.v, 'g', -1, 64)
}

// Sum adds all values; absent if any operand is absent
func Sum(values ...Num) Num {
	total := Of(0)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// Parse converts a raw database or file value into a Num.
// Unparsable input is absent, never zero.
func Parse(raw any) Num {
	switch v := raw.(type) {
	case nil:
		return Absent
	case Num:
		return v
	case float64:
		return Of(v)
	case float32:
		return Of(float64(v))
	case int:
		return Of(float64(v))
	case int16:
		return Of(float64(v))
	case int32:
		return Of(float64(v))
	case int64:
		return Of(float64(v))
	case uint32:
		return Of(float64(v))
	case uint64:
		return Of(float64(v))
	case string:
		return parseString(v)
	case []byte:
		return parseString(string(v))
	case fmt.Stringer:
		return parseString(v.String())
	default:
		return Absent
	}
}

func parseString(s string) Num {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return Absent
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Absent
	}
	return Of(f)
}

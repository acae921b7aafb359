package num

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	assert.True(t, Of(1.5).Valid())
	assert.False(t, Of(math.NaN()).Valid())
	assert.False(t, Of(math.Inf(1)).Valid())
	assert.True(t, math.IsNaN(Absent.Float()))
	assert.Equal(t, 2.0, Absent.Or(2.0))
}

func TestArithmeticPropagatesAbsent(t *testing.T) {
	a := Of(10)
	tests := []struct {
		name string
		got  Num
	}{
		{"add", a.Add(Absent)},
		{"sub", Absent.Sub(a)},
		{"mul", a.Mul(Absent)},
		{"div absent", a.Div(Absent)},
		{"div zero", a.Div(Of(0))},
		{"clamp", Absent.Clamp(0, 1)},
		{"sum", Sum(a, a, Absent)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.got.Valid())
		})
	}

	assert.Equal(t, 20.0, a.Add(a).Float())
	assert.Equal(t, 2.5, a.Div(Of(4)).Float())
	assert.Equal(t, 30.0, Sum(a, a, a).Float())
}

func TestComparisonsWithAbsentAreFalse(t *testing.T) {
	a := Of(1)
	assert.False(t, a.Gt(Absent))
	assert.False(t, Absent.Gt(a))
	assert.False(t, a.Lt(Absent))
	assert.False(t, Absent.Lt(Absent))
	assert.True(t, Of(2).Gt(a))
	assert.True(t, a.Lt(Of(2)))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, Of(1.7).Clamp(0, 1).Float())
	assert.Equal(t, 0.0, Of(-0.3).Clamp(0, 1).Float())
	assert.Equal(t, 0.25, Of(0.25).Clamp(0, 1).Float())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		raw   any
		want  float64
		valid bool
	}{
		{"nil", nil, 0, false},
		{"float", 1.25, 1.25, true},
		{"int64", int64(42), 42, true},
		{"int32", int32(7), 7, true},
		{"string", "3.5", 3.5, true},
		{"quoted string", `"12"`, 12, true},
		{"thousands", "1,234.5", 1234.5, true},
		{"empty", "", 0, false},
		{"garbage", "n/a", 0, false},
		{"bytes", []byte("8"), 8, true},
		{"unsupported", struct{}{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw)
			assert.Equal(t, tt.valid, got.Valid())
			if tt.valid {
				assert.Equal(t, tt.want, got.Float())
			}
		})
	}
}

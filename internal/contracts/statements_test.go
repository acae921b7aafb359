package contracts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewStatementRow_Aliases(t *testing.T) {
	tests := []struct {
		name  string
		kind  StatementKind
		raw   map[string]any
		field Field
		want  float64
		valid bool
	}{
		{"descriptive name", StatementIncome, map[string]any{"营业利润": 100.0}, FieldOpProfit, 100, true},
		{"coded name", StatementIncome, map[string]any{"OpProfit": "250"}, FieldOpProfit, 250, true},
		{"coded name lower case", StatementIncome, map[string]any{"ebit": int64(7)}, FieldOpProfit, 7, true},
		{"first alias wins", StatementIncome, map[string]any{"营业利润": 1.0, "EBIT": 2.0}, FieldOpProfit, 1, true},
		{"missing column", StatementIncome, map[string]any{"other": 1.0}, FieldOpProfit, 0, false},
		{"null value", StatementBalance, map[string]any{"存货": nil}, FieldInventory, 0, false},
		{"unparsable", StatementBalance, map[string]any{"InventNet": "--"}, FieldInventory, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewStatementRow(tt.kind, "000001", date(2020, 3, 31), tt.raw)
			got := row.Get(tt.field)
			assert.Equal(t, tt.valid, got.Valid())
			if tt.valid {
				assert.Equal(t, tt.want, got.Float())
			}
		})
	}
}

func TestNewStatementRow_CapexDefaultsToZero(t *testing.T) {
	row := NewStatementRow(StatementCashFlow, "000001", date(2020, 12, 31), map[string]any{
		"NetOpCF": 100.0,
	})
	assert.Equal(t, 0.0, row.Get(FieldCapex).Float())
	assert.True(t, row.Get(FieldCapex).Valid())

	// 다른 필드는 결측 그대로
	row = NewStatementRow(StatementCashFlow, "000001", date(2020, 12, 31), map[string]any{
		"AssetPurchase": nil,
	})
	assert.True(t, row.Get(FieldCapex).IsZero())
	assert.False(t, row.Get(FieldOperatingCF).Valid())

	row = NewStatementRow(StatementCashFlow, "000001", date(2020, 12, 31), map[string]any{
		"AssetPurchase": "  ",
	})
	assert.True(t, row.Get(FieldCapex).IsZero())

	// 잘못된 값은 0이 아니라 결측
	for _, raw := range []any{"n/a", "1,2x", true} {
		row = NewStatementRow(StatementCashFlow, "000001", date(2020, 12, 31), map[string]any{
			"NetOpCF":       100.0,
			"AssetPurchase": raw,
		})
		assert.False(t, row.Get(FieldCapex).Valid(), "capex %v", raw)
		assert.Equal(t, 100.0, row.Get(FieldOperatingCF).Float())
	}
}

func TestNewWindow(t *testing.T) {
	asOf := date(2021, 6, 30)
	var rows []StatementRow
	for _, d := range []time.Time{
		date(2020, 3, 31), date(2021, 3, 31), date(2020, 12, 31),
		date(2021, 3, 31), // duplicate
		date(2021, 9, 30), // after asOf
	} {
		rows = append(rows, StatementRow{Code: "A", PeriodEnd: d})
	}
	rows = append(rows, StatementRow{Code: "B", PeriodEnd: date(2020, 6, 30)})

	w := NewWindow(StatementIncome, "A", asOf, rows, 0)
	require.Equal(t, 3, w.Len())
	assert.Equal(t, date(2021, 3, 31), w.Rows[0].PeriodEnd)
	assert.Equal(t, date(2020, 3, 31), w.Rows[2].PeriodEnd)

	chrono := w.Chronological()
	assert.Equal(t, date(2020, 3, 31), chrono[0].PeriodEnd)
	assert.Equal(t, date(2021, 3, 31), chrono[2].PeriodEnd)

	latest, ok := w.Latest()
	require.True(t, ok)
	assert.Equal(t, date(2021, 3, 31), latest.PeriodEnd)

	limited := NewWindow(StatementIncome, "A", asOf, rows, 2)
	assert.Equal(t, 2, limited.Len())
}

func TestEmptyWindow(t *testing.T) {
	w := NewWindow(StatementBalance, "A", date(2021, 1, 1), nil, 12)
	assert.True(t, w.Empty())
	assert.Empty(t, w.Chronological())
	_, ok := w.Latest()
	assert.False(t, ok)
}

func TestSelectionEvaluation_Passed(t *testing.T) {
	all := SelectionEvaluation{}
	for i := range all.Criteria {
		all.Criteria[i] = true
	}
	assert.True(t, all.Passed())
	assert.Empty(t, all.FailedCriteria())

	for i := range all.Criteria {
		toggled := all
		toggled.Criteria[i] = false
		assert.False(t, toggled.Passed(), "criterion %c", 'A'+i)
		assert.Equal(t, []string{string(rune('A' + i))}, toggled.FailedCriteria())
	}
}

func TestBuyEvaluation_BuyCount(t *testing.T) {
	var e BuyEvaluation
	assert.Equal(t, 0, e.BuyCount())
	prev := 0
	for i := range e.Conditions {
		e.Conditions[i] = true
		assert.GreaterOrEqual(t, e.BuyCount(), prev)
		prev = e.BuyCount()
	}
	assert.Equal(t, 5, prev)
}

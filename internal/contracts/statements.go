package contracts

import (
	"sort"
	"strings"
	"time"

	"github.com/wonny/miller/backend/pkg/num"
)

// StatementKind identifies one of the period-indexed statement tables
type StatementKind string

const (
	StatementIncome   StatementKind = "income"   // 利润表 (profit)
	StatementBalance  StatementKind = "balance"  // 资产负债表
	StatementCashFlow StatementKind = "cashflow" // 现金流量表
)

// DefaultWindowSize is three years of quarters
const DefaultWindowSize = 12

// Table returns the backing table name for the statement kind
func (k StatementKind) Table() string {
	switch k {
	case StatementIncome:
		return "data.profit"
	case StatementBalance:
		return "data.balance"
	case StatementCashFlow:
		return "data.cash_flow"
	default:
		return ""
	}
}

// Valid reports whether k is a known statement kind
func (k StatementKind) Valid() bool {
	return k.Table() != ""
}

// StatementRow is one reporting-period record for one entity
// ⭐ SSOT: 재무제표 행은 생성 시점에 필드 별칭을 한 번만 해석
type StatementRow struct {
	Code      string
	PeriodEnd time.Time
	Values    map[Field]num.Num
}

// NewStatementRow resolves raw source columns into logical fields.
// Column names are matched against FieldAliases case-insensitively, in order.
func NewStatementRow(kind StatementKind, code string, periodEnd time.Time, raw map[string]any) StatementRow {
	lowered := make(map[string]any, len(raw))
	for k, v := range raw {
		lowered[strings.ToLower(k)] = v
	}

	row := StatementRow{
		Code:      code,
		PeriodEnd: periodEnd,
		Values:    make(map[Field]num.Num),
	}

	capexRaw, capexFound := any(nil), false
	for _, field := range FieldsFor(kind) {
		for _, alias := range FieldAliases[field] {
			v, ok := lowered[strings.ToLower(alias)]
			if !ok {
				continue
			}
			row.Values[field] = num.Parse(v)
			if field == FieldCapex {
				capexRaw, capexFound = v, true
			}
			break
		}
	}

	// 资本支出 컬럼 없음, NULL, 빈 값만 0 (업스트림 로더 규약). 잘못된 값은 결측 유지
	if kind == StatementCashFlow && (!capexFound || isBlank(capexRaw)) {
		row.Values[FieldCapex] = num.Of(0)
	}

	return row
}

// Get returns the field value, absent when the row does not carry it
func (r StatementRow) Get(f Field) num.Num {
	if r.Values == nil {
		return num.Absent
	}
	return r.Values[f]
}

// IsFiscalYearEnd reports whether the period ends on December 31
func (r StatementRow) IsFiscalYearEnd() bool {
	return r.PeriodEnd.Month() == time.December && r.PeriodEnd.Day() == 31
}

// Window is up to N statement rows for one entity, bounded by an as-of date.
// Rows are kept most-recent-first, the order storage returns them in.
type Window struct {
	Kind StatementKind
	Code string
	AsOf time.Time
	Rows []StatementRow
}

// NewWindow builds a window whose rows belong to code,
// end on or before asOf, are unique by period end, and are sorted descending.
func NewWindow(kind StatementKind, code string, asOf time.Time, rows []StatementRow, limit int) Window {
	if limit <= 0 {
		limit = DefaultWindowSize
	}

	seen := make(map[string]bool, len(rows))
	kept := make([]StatementRow, 0, len(rows))
	for _, r := range rows {
		if r.Code != code || r.PeriodEnd.After(asOf) {
			continue
		}
		key := r.PeriodEnd.Format("2006-01-02")
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, r)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].PeriodEnd.After(kept[j].PeriodEnd)
	})
	if len(kept) > limit {
		kept = kept[:limit]
	}

	return Window{Kind: kind, Code: code, AsOf: asOf, Rows: kept}
}

// Len returns the number of rows
func (w Window) Len() int {
	return len(w.Rows)
}

// Empty reports whether the window has no rows
func (w Window) Empty() bool {
	return len(w.Rows) == 0
}

// Chronological returns the rows oldest-to-newest
func (w Window) Chronological() []StatementRow {
	out := make([]StatementRow, len(w.Rows))
	for i, r := range w.Rows {
		out[len(w.Rows)-1-i] = r
	}
	return out
}

// Latest returns the most recent row
func (w Window) Latest() (StatementRow, bool) {
	if len(w.Rows) == 0 {
		return StatementRow{}, false
	}
	return w.Rows[0], true
}

// ByPeriod indexes rows by period-end date
func (w Window) ByPeriod() map[string]StatementRow {
	idx := make(map[string]StatementRow, len(w.Rows))
	for _, r := range w.Rows {
		idx[r.PeriodEnd.Format("2006-01-02")] = r
	}
	return idx
}

func isBlank(raw any) bool {
	switch v := raw.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

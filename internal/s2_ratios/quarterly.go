package s2_ratios

import (
	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/num"
)

// Quarterly holds the per-quarter series derived from an income window and
// the balance window aligned to it
type Quarterly struct {
	TaxRate           Series
	ROC               Series
	ROOC              Series
	InventoryTurnover Series

	// 이상치 카운트 (경고 로그용)
	ClampedTaxQuarters int
	ZeroDenominators   int
}

// alignBalance returns the balance row matching each income row by period end,
// oldest to newest. Quarters without a balance row get an empty row.
func alignBalance(income, balance contracts.Window) []contracts.StatementRow {
	byPeriod := balance.ByPeriod()
	rows := income.Chronological()
	out := make([]contracts.StatementRow, len(rows))
	for i, r := range rows {
		out[i] = byPeriod[r.PeriodEnd.Format("2006-01-02")]
	}
	return out
}

func sumFields(row contracts.StatementRow, fields []contracts.Field) num.Num {
	values := make([]num.Num, len(fields))
	for i, f := range fields {
		values[i] = row.Get(f)
	}
	return num.Sum(values...)
}

// taxRate = income tax ÷ pre-tax profit, clamped to [0, 1]
func taxRate(row contracts.StatementRow) (num.Num, bool) {
	raw := row.Get(contracts.FieldIncomeTax).Div(row.Get(contracts.FieldPreTaxProfit))
	clamped := raw.Clamp(0, 1)
	return clamped, raw.Valid() && clamped != raw
}

// TaxRate returns the clamped tax rate per quarter
func TaxRate(income contracts.Window) Series {
	rows := income.Chronological()
	out := make(Series, len(rows))
	for i, r := range rows {
		out[i], _ = taxRate(r)
	}
	return out
}

func nopat(row contracts.StatementRow, tax num.Num) num.Num {
	return row.Get(contracts.FieldOpProfit).Mul(num.Of(1).Sub(tax))
}

// InvestedCapital = equity + short borrowings + current non-current liabilities
// + long borrowings + bonds payable
func InvestedCapital(row contracts.StatementRow) num.Num {
	return sumFields(row, contracts.InvestedCapitalFields)
}

// NetOperatingWorkingCapital = operating current assets − operating current liabilities
func NetOperatingWorkingCapital(row contracts.StatementRow) num.Num {
	return sumFields(row, contracts.WorkingCapitalAssets).
		Sub(sumFields(row, contracts.WorkingCapitalLiabilities))
}

// ComputeQuarterly derives every per-quarter series in one pass.
// All series have the same length as the income window.
func ComputeQuarterly(income, balance contracts.Window) Quarterly {
	rows := income.Chronological()
	bal := alignBalance(income, balance)
	n := len(rows)

	q := Quarterly{
		TaxRate:           make(Series, n),
		ROC:               make(Series, n),
		ROOC:              make(Series, n),
		InventoryTurnover: make(Series, n),
	}

	for i, r := range rows {
		tax, clamped := taxRate(r)
		if clamped {
			q.ClampedTaxQuarters++
		}
		q.TaxRate[i] = tax

		np := nopat(r, tax)

		invested := InvestedCapital(bal[i])
		if invested.IsZero() {
			q.ZeroDenominators++
		}
		q.ROC[i] = np.Div(invested)

		nowc := NetOperatingWorkingCapital(bal[i])
		if nowc.IsZero() {
			q.ZeroDenominators++
		}
		q.ROOC[i] = np.Div(nowc)

		// 첫 분기는 직전 재고 없음
		if i == 0 {
			q.InventoryTurnover[i] = num.Absent
			continue
		}
		avgInv := bal[i].Get(contracts.FieldInventory).
			Add(bal[i-1].Get(contracts.FieldInventory)).
			Div(num.Of(2))
		if avgInv.IsZero() {
			q.ZeroDenominators++
		}
		q.InventoryTurnover[i] = r.Get(contracts.FieldCOGS).Div(avgInv)
	}

	return q
}

// ROC returns the capital-return rate per quarter
func ROC(income, balance contracts.Window) Series {
	return ComputeQuarterly(income, balance).ROC
}

// ROOC returns the operating-capital-return rate per quarter
func ROOC(income, balance contracts.Window) Series {
	return ComputeQuarterly(income, balance).ROOC
}

// InventoryTurnover returns COGS ÷ two-point average inventory per quarter
func InventoryTurnover(income, balance contracts.Window) Series {
	return ComputeQuarterly(income, balance).InventoryTurnover
}

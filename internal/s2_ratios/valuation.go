package s2_ratios

import (
	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/num"
)

// PriceToBook = price ÷ (equity ÷ shares). Zero or missing shares, or a
// book value per share of exactly zero, is absent.
func PriceToBook(price, equity, shares num.Num) num.Num {
	bvps := equity.Div(shares)
	if bvps.IsZero() {
		return num.Absent
	}
	return price.Div(bvps)
}

// TrailingMultiple = market cap ÷ TTM sum; zero or absent TTM is absent
func TrailingMultiple(marketCap num.Num, s Series, n int) num.Num {
	return marketCap.Div(TTMSum(s, n))
}

// TrailingPE = market cap ÷ trailing net profit
func TrailingPE(marketCap num.Num, income contracts.Window, n int) num.Num {
	return TrailingMultiple(marketCap, FieldSeries(income, contracts.FieldNetProfit), n)
}

// FreeCashFlow = operating cash flow − capital expenditure, per quarter
func FreeCashFlow(cash contracts.Window) Series {
	rows := cash.Chronological()
	out := make(Series, len(rows))
	for i, r := range rows {
		out[i] = r.Get(contracts.FieldOperatingCF).Sub(r.Get(contracts.FieldCapex))
	}
	return out
}

// TrailingPFCF = market cap ÷ trailing free cash flow
func TrailingPFCF(marketCap num.Num, cash contracts.Window, n int) num.Num {
	return TrailingMultiple(marketCap, FreeCashFlow(cash), n)
}

// LatestEquity returns owners' equity from the most recent balance row
func LatestEquity(balance contracts.Window) num.Num {
	row, ok := balance.Latest()
	if !ok {
		return num.Absent
	}
	return row.Get(contracts.FieldEquity)
}

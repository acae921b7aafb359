package selection

import (
	"context"
	"time"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/s2_ratios"
	"github.com/wonny/miller/backend/pkg/num"
)

// valuation holds the inputs the buy conditions compare
type valuation struct {
	Price     num.Num
	MarketCap num.Num
	PB        num.Num
	PE        num.Num
	PFCF      num.Num
	AvgPB     num.Num
	Deposit   num.Num
	Inflation num.Num
	FiveYear  num.Num
	DCF       num.Num
}

// EvaluateBuy applies conditions A..E to one selected entity at one date
func (s *Strategy) EvaluateBuy(ctx context.Context, repo contracts.FinancialDataRepository, code string, date time.Time) contracts.BuyEvaluation {
	v := s.valuate(ctx, repo, code, date)

	eval := contracts.BuyEvaluation{
		Code:       code,
		Date:       date,
		Price:      v.Price,
		Conditions: s.conditions(v),
	}

	s.logger.WithStock(code, date).WithFields(map[string]interface{}{
		"price":     v.Price.String(),
		"pb":        v.PB.String(),
		"pe":        v.PE.String(),
		"pfcf":      v.PFCF.String(),
		"dcf":       v.DCF.String(),
		"buy_count": eval.BuyCount(),
	}).Debug("Buy evaluated")

	return eval
}

func (s *Strategy) valuate(ctx context.Context, repo contracts.FinancialDataRepository, code string, date time.Time) valuation {
	n := s.config.Selection.WindowSize
	ttm := s.config.Buy.TTMQuarters

	income := repo.GetStatementWindow(ctx, contracts.StatementIncome, code, date, n)
	balance := repo.GetStatementWindow(ctx, contracts.StatementBalance, code, date, n)
	cash := repo.GetStatementWindow(ctx, contracts.StatementCashFlow, code, date, n)

	v := valuation{
		Price:     repo.GetPointFact(ctx, contracts.FactPrice, code, date),
		MarketCap: repo.GetPointFact(ctx, contracts.FactMarketCap, code, date),
		AvgPB:     repo.GetMarketAggregate(ctx, contracts.AggregateAvgPB, date),
		Deposit:   repo.GetReferenceRate(ctx, contracts.RateDeposit, date),
		Inflation: repo.GetReferenceRate(ctx, contracts.RateInflation, date),
		FiveYear:  repo.GetFiveYearAverageMultiple(ctx, code, date),
		DCF:       num.Absent,
	}
	shares := repo.GetPointFact(ctx, contracts.FactShares, code, date)

	v.PB = s2_ratios.PriceToBook(v.Price, s2_ratios.LatestEquity(balance), shares)
	v.PE = s2_ratios.TrailingPE(v.MarketCap, income, ttm)
	v.PFCF = s2_ratios.TrailingPFCF(v.MarketCap, cash, ttm)

	if discount, ok := repo.GetReferenceRate(ctx, contracts.RateDiscount, date).Value(); ok {
		v.DCF = repo.GetDiscountedCashFlow(ctx, code, date, discount, s.config.Rates.DCFGrowth)
	}

	return v
}

// conditions evaluates A..E. Rates and the DCF must be positive for their
// reciprocal or ratio to mean anything.
func (s *Strategy) conditions(v valuation) [contracts.BuyConditionCount]bool {
	buy := s.config.Buy
	one := num.Of(1)

	return [contracts.BuyConditionCount]bool{
		v.PB.Lt(num.Of(buy.PBMultiplier).Mul(v.AvgPB)),                            // A
		positive(v.Deposit) && v.PE.Lt(one.Div(v.Deposit)),                        // B
		v.PB.Lt(v.FiveYear),                                                       // C
		positive(v.Inflation) && v.PFCF.Lt(one.Div(v.Inflation)),                  // D
		positive(v.DCF) && v.MarketCap.Div(v.DCF).Lt(num.Of(buy.DCFCapThreshold)), // E
	}
}

func positive(v num.Num) bool {
	return v.Gt(num.Of(0))
}

// Action maps a buy count to the persisted action flag.
// Counts between the sell and buy thresholds record nothing.
func (s *Strategy) Action(buyCount int) (string, bool) {
	return decideAction(buyCount, s.config.Buy.BuyThreshold, s.config.Buy.SellThreshold)
}

func decideAction(buyCount, buyThreshold, sellThreshold int) (string, bool) {
	switch {
	case buyCount >= buyThreshold:
		return contracts.ActionBuy, true
	case buyCount <= sellThreshold:
		return contracts.ActionSell, true
	default:
		// 보유: 신호 없음
		return "", false
	}
}

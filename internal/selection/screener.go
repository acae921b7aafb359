package selection

import (
	"context"
	"strings"
	"time"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/s2_ratios"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/logger"
	"github.com/wonny/miller/backend/pkg/num"
)

// Strategy implements the two-stage Miller value screen
// ⭐ SSOT: 선정/매수 판정 로직은 여기서만
type Strategy struct {
	config *strategyconfig.Config
	calc   *s2_ratios.Calculator
	logger *logger.Logger
}

var _ contracts.Strategy = (*Strategy)(nil)

// NewStrategy creates a new strategy; a nil config uses the defaults
func NewStrategy(config *strategyconfig.Config, log *logger.Logger) *Strategy {
	if config == nil {
		config = strategyconfig.Default()
	}
	return &Strategy{
		config: config,
		calc:   s2_ratios.NewCalculator(log),
		logger: log,
	}
}

// Config returns the policy the strategy was built with
func (s *Strategy) Config() *strategyconfig.Config {
	return s.config
}

// EvaluateSelection applies criteria A..G to one entity at one date.
// Every comparison involving an absent value is false.
func (s *Strategy) EvaluateSelection(ctx context.Context, repo contracts.FinancialDataRepository, code string, date time.Time) contracts.SelectionEvaluation {
	sel := s.config.Selection

	income := repo.GetStatementWindow(ctx, contracts.StatementIncome, code, date, sel.WindowSize)
	balance := repo.GetStatementWindow(ctx, contracts.StatementBalance, code, date, sel.WindowSize)
	q := s.calc.Quarterly(code, date, income, balance)

	recent := func(series s2_ratios.Series) num.Num {
		return s2_ratios.MinOfRecent(series, sel.RecentBlock)
	}
	prior := func(series s2_ratios.Series) num.Num {
		return s2_ratios.MaxOfBlock(series, sel.RecentBlock+1, sel.PriorBlock)
	}

	eval := contracts.SelectionEvaluation{
		Code:          code,
		Date:          date,
		ROC4Min:       recent(q.ROC),
		ROC58Max:      prior(q.ROC),
		ROOC4Min:      recent(q.ROOC),
		ROOC58Max:     prior(q.ROOC),
		Turnover4Min:  recent(q.InventoryTurnover),
		Turnover58Max: prior(q.InventoryTurnover),
	}

	avgROC := repo.GetMarketAggregate(ctx, contracts.AggregateAvgROC, date)
	avgROOC := repo.GetMarketAggregate(ctx, contracts.AggregateAvgROOC, date)
	avgTurnover := repo.GetMarketAggregate(ctx, contracts.AggregateAvgInventoryTurnover, date)
	deposit := repo.GetReferenceRate(ctx, contracts.RateDeposit, date)

	eval.Criteria = [contracts.SelectionCriteriaCount]bool{
		eval.ROC4Min.Gt(avgROC),                  // A
		eval.ROC4Min.Gt(deposit),                 // B
		eval.ROC4Min.Gt(eval.ROC58Max),           // C
		eval.ROOC4Min.Gt(avgROOC),                // D
		eval.ROOC4Min.Gt(eval.ROOC58Max),         // E
		eval.Turnover4Min.Gt(avgTurnover),        // F
		eval.Turnover4Min.Gt(eval.Turnover58Max), // G
	}

	s.logger.WithStock(code, date).WithFields(map[string]interface{}{
		"roc_4_min":  eval.ROC4Min.String(),
		"roc_5_8":    eval.ROC58Max.String(),
		"rooc_4_min": eval.ROOC4Min.String(),
		"it_4_min":   eval.Turnover4Min.String(),
		"passed":     eval.Passed(),
		"failed":     strings.Join(eval.FailedCriteria(), ""),
	}).Debug("Selection evaluated")

	return eval
}

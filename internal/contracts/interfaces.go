package contracts

import (
	"context"
	"time"
)

// SelectionEvaluator applies the seven selection criteria (stage 1)
// ⭐ SSOT: 선정 단계 인터페이스
type SelectionEvaluator interface {
	EvaluateSelection(ctx context.Context, repo FinancialDataRepository, code string, date time.Time) SelectionEvaluation
}

// BuyEvaluator applies the five valuation conditions (stage 2)
// ⭐ SSOT: 매수 단계 인터페이스
type BuyEvaluator interface {
	EvaluateBuy(ctx context.Context, repo FinancialDataRepository, code string, date time.Time) BuyEvaluation
}

// Strategy is both stages together
type Strategy interface {
	SelectionEvaluator
	BuyEvaluator
	Action(buyCount int) (string, bool)
}

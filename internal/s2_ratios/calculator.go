package s2_ratios

import (
	"time"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/logger"
)

// Calculator wraps the pure ratio functions and reports data anomalies
// ⭐ SSOT: 재무 비율 계산은 여기서만
type Calculator struct {
	logger *logger.Logger
}

// NewCalculator creates a new ratio calculator
func NewCalculator(log *logger.Logger) *Calculator {
	return &Calculator{logger: log}
}

// Quarterly computes the per-quarter series for one entity and logs
// clamped tax rates and zero denominators at warning level
func (c *Calculator) Quarterly(code string, asOf time.Time, income, balance contracts.Window) Quarterly {
	q := ComputeQuarterly(income, balance)

	if q.ClampedTaxQuarters > 0 || q.ZeroDenominators > 0 {
		c.logger.WithStock(code, asOf).WithFields(map[string]interface{}{
			"clamped_tax_quarters": q.ClampedTaxQuarters,
			"zero_denominators":    q.ZeroDenominators,
		}).Warn("Ratio computation anomalies")
	}

	if income.Len() > 0 && balance.Len() < income.Len() {
		c.logger.WithStock(code, asOf).WithFields(map[string]interface{}{
			"income_rows":  income.Len(),
			"balance_rows": balance.Len(),
		}).Debug("Balance window shorter than income window")
	}

	return q
}

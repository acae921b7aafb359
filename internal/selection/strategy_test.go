package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/logger"
	"github.com/wonny/miller/backend/pkg/num"
)

var evalDate = time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)

// fakeRepo is an in-memory FinancialDataRepository
type fakeRepo struct {
	rows       map[contracts.StatementKind][]contracts.StatementRow
	aggregates map[contracts.Aggregate]num.Num
	rates      map[contracts.RateKind]num.Num
	facts      map[contracts.FactKind]num.Num
	fiveYear   num.Num
	dcf        num.Num

	dcfDiscount float64
	dcfGrowth   float64
}

func (f *fakeRepo) GetStatementWindow(_ context.Context, kind contracts.StatementKind, code string, asOf time.Time, limit int) contracts.Window {
	return contracts.NewWindow(kind, code, asOf, f.rows[kind], limit)
}

func (f *fakeRepo) GetMarketAggregate(_ context.Context, name contracts.Aggregate, _ time.Time) num.Num {
	return f.aggregates[name]
}

func (f *fakeRepo) GetReferenceRate(_ context.Context, kind contracts.RateKind, _ time.Time) num.Num {
	return f.rates[kind]
}

func (f *fakeRepo) GetPointFact(_ context.Context, kind contracts.FactKind, _ string, _ time.Time) num.Num {
	return f.facts[kind]
}

func (f *fakeRepo) GetFiveYearAverageMultiple(context.Context, string, time.Time) num.Num {
	return f.fiveYear
}

func (f *fakeRepo) GetDiscountedCashFlow(_ context.Context, _ string, _ time.Time, discountRate, growthRate float64) num.Num {
	f.dcfDiscount = discountRate
	f.dcfGrowth = growthRate
	return f.dcf
}

// quarterEnd returns the quarter end i quarters before evalDate
func quarterEnd(i int) time.Time {
	return time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -3*i, -1)
}

// improvingRepo builds 12 quarters where the recent four outperform the
// prior eight on every selection ratio, and valuations that meet every
// buy condition
func improvingRepo() *fakeRepo {
	var income, balance, cash []contracts.StatementRow
	for i := 0; i < 12; i++ {
		opProfit, cogs := 500.0, 100.0
		if i < 4 {
			opProfit, cogs = 1000.0, 300.0
		}
		income = append(income, contracts.NewStatementRow(contracts.StatementIncome, "X", quarterEnd(i), map[string]any{
			"OpProfit":     opProfit,
			"IncomeTax":    20.0,
			"ProfitBefTax": 100.0,
			"OpCost":       cogs,
			"ParNetProfit": 250.0,
		}))
		balance = append(balance, contracts.NewStatementRow(contracts.StatementBalance, "X", quarterEnd(i), map[string]any{
			"ParOwnEquity":  10000.0,
			"ShortBorrow":   0.0,
			"NonCurLia1Y":   0.0,
			"LTBorrow":      0.0,
			"BondPay":       0.0,
			"AcctRecNet":    500.0,
			"PrepayNet":     0.0,
			"InventNet":     200.0,
			"NotesRecNet":   0.0,
			"AcctPay":       100.0,
			"AdvFromCust":   0.0,
			"NotesPay":      0.0,
			"EmpBenefitPay": 0.0,
			"TaxPay":        0.0,
		}))
		cash = append(cash, contracts.NewStatementRow(contracts.StatementCashFlow, "X", quarterEnd(i), map[string]any{
			"NetOpCF":       300.0,
			"AssetPurchase": 50.0,
		}))
	}

	return &fakeRepo{
		rows: map[contracts.StatementKind][]contracts.StatementRow{
			contracts.StatementIncome:   income,
			contracts.StatementBalance:  balance,
			contracts.StatementCashFlow: cash,
		},
		aggregates: map[contracts.Aggregate]num.Num{
			contracts.AggregateAvgROC:               num.Of(0.05),
			contracts.AggregateAvgROOC:              num.Of(1.0),
			contracts.AggregateAvgInventoryTurnover: num.Of(1.0),
			contracts.AggregateAvgPB:                num.Of(1.0),
		},
		rates: map[contracts.RateKind]num.Num{
			contracts.RateDeposit:   num.Of(0.015),
			contracts.RateInflation: num.Of(0.02),
			contracts.RateDiscount:  num.Of(0.09),
		},
		facts: map[contracts.FactKind]num.Num{
			contracts.FactPrice:     num.Of(10),
			contracts.FactShares:    num.Of(1000),
			contracts.FactMarketCap: num.Of(10000),
		},
		fiveYear: num.Of(8),
		dcf:      num.Of(20000),
	}
}

func newTestStrategy() *Strategy {
	return NewStrategy(strategyconfig.Default(), logger.Nop())
}

func TestEvaluateSelection_AllCriteriaHold(t *testing.T) {
	s := newTestStrategy()
	eval := s.EvaluateSelection(context.Background(), improvingRepo(), "X", evalDate)

	assert.True(t, eval.Passed(), "failed: %v", eval.FailedCriteria())
	assert.InDelta(t, 0.08, eval.ROC4Min.Float(), 1e-12)
	assert.InDelta(t, 0.04, eval.ROC58Max.Float(), 1e-12)
	assert.InDelta(t, 1.5, eval.Turnover4Min.Float(), 1e-12)
	assert.InDelta(t, 0.5, eval.Turnover58Max.Float(), 1e-12)
}

func TestEvaluateSelection_SingleCriterionFlipsVerdict(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *fakeRepo)
		failed string
	}{
		{"A market ROC above", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgROC] = num.Of(0.09) }, "A"},
		{"B deposit above", func(r *fakeRepo) { r.rates[contracts.RateDeposit] = num.Of(0.085) }, "B"},
		{"D market ROOC above", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgROOC] = num.Of(2.0) }, "D"},
		{"F market turnover above", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgInventoryTurnover] = num.Of(2.0) }, "F"},
		{"F market turnover absent", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgInventoryTurnover] = num.Absent }, "F"},
	}

	s := newTestStrategy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := improvingRepo()
			tt.mutate(repo)

			eval := s.EvaluateSelection(context.Background(), repo, "X", evalDate)
			assert.False(t, eval.Passed())
			assert.Equal(t, []string{tt.failed}, eval.FailedCriteria())
		})
	}
}

func TestEvaluateSelection_FlatHistoryFailsC(t *testing.T) {
	repo := improvingRepo()
	for i, row := range repo.rows[contracts.StatementIncome] {
		row.Values[contracts.FieldOpProfit] = num.Of(1000)
		repo.rows[contracts.StatementIncome][i] = row
	}

	eval := newTestStrategy().EvaluateSelection(context.Background(), repo, "X", evalDate)
	assert.True(t, eval.Criteria[0])  // A: 0.08 > 0.05
	assert.False(t, eval.Criteria[2]) // C: 0.08 > 0.08
	assert.False(t, eval.Passed())
}

func TestEvaluateSelection_NoDataFailsEverything(t *testing.T) {
	repo := improvingRepo()
	repo.rows = nil

	eval := newTestStrategy().EvaluateSelection(context.Background(), repo, "X", evalDate)
	assert.Len(t, eval.FailedCriteria(), contracts.SelectionCriteriaCount)
	assert.False(t, eval.ROC4Min.Valid())
}

func TestEvaluateBuy_AllConditionsHold(t *testing.T) {
	repo := improvingRepo()
	eval := newTestStrategy().EvaluateBuy(context.Background(), repo, "X", evalDate)

	assert.Equal(t, 5, eval.BuyCount())
	assert.Equal(t, 10.0, eval.Price.Float())
	assert.Equal(t, 0.09, repo.dcfDiscount)
	assert.Equal(t, 0.0, repo.dcfGrowth)
}

func TestEvaluateBuy_EachConditionIndependent(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(r *fakeRepo)
		condition int
	}{
		{"A market PB absent", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgPB] = num.Absent }, 0},
		{"A market PB low", func(r *fakeRepo) { r.aggregates[contracts.AggregateAvgPB] = num.Of(0.4) }, 0},
		{"B deposit zero", func(r *fakeRepo) { r.rates[contracts.RateDeposit] = num.Of(0) }, 1},
		{"B deposit high", func(r *fakeRepo) { r.rates[contracts.RateDeposit] = num.Of(0.2) }, 1},
		{"C five-year absent", func(r *fakeRepo) { r.fiveYear = num.Absent }, 2},
		{"D inflation negative", func(r *fakeRepo) { r.rates[contracts.RateInflation] = num.Of(-0.01) }, 3},
		{"D inflation absent", func(r *fakeRepo) { r.rates[contracts.RateInflation] = num.Absent }, 3},
		{"E DCF negative", func(r *fakeRepo) { r.dcf = num.Of(-5000) }, 4},
		{"E DCF below market cap", func(r *fakeRepo) { r.dcf = num.Of(5000) }, 4},
	}

	s := newTestStrategy()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := improvingRepo()
			tt.mutate(repo)

			eval := s.EvaluateBuy(context.Background(), repo, "X", evalDate)
			assert.False(t, eval.Conditions[tt.condition])
			assert.Equal(t, 4, eval.BuyCount())
		})
	}
}

func TestEvaluateBuy_MissingPriceFailsPriceConditions(t *testing.T) {
	repo := improvingRepo()
	repo.facts = map[contracts.FactKind]num.Num{}

	eval := newTestStrategy().EvaluateBuy(context.Background(), repo, "X", evalDate)
	assert.False(t, eval.Price.Valid())
	assert.Equal(t, 0, eval.BuyCount())

	action, ok := newTestStrategy().Action(eval.BuyCount())
	require.True(t, ok)
	assert.Equal(t, contracts.ActionSell, action)
}

func TestAction(t *testing.T) {
	tests := []struct {
		count  int
		action string
		ok     bool
	}{
		{0, contracts.ActionSell, true},
		{1, contracts.ActionSell, true},
		{2, "", false},
		{3, contracts.ActionBuy, true},
		{4, contracts.ActionBuy, true},
		{5, contracts.ActionBuy, true},
	}

	s := newTestStrategy()
	for _, tt := range tests {
		action, ok := s.Action(tt.count)
		assert.Equal(t, tt.ok, ok, "count %d", tt.count)
		assert.Equal(t, tt.action, action, "count %d", tt.count)
	}
}

func TestNewStrategy_NilConfigUsesDefaults(t *testing.T) {
	s := NewStrategy(nil, logger.Nop())
	assert.Equal(t, strategyconfig.Default(), s.Config())
}

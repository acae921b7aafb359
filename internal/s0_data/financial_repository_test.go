package s0_data

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/migrations"
	"github.com/wonny/miller/backend/pkg/config"
	"github.com/wonny/miller/backend/pkg/database"
	"github.com/wonny/miller/backend/pkg/logger"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func cashRow(periodEnd time.Time, ocf, capex float64) contracts.StatementRow {
	return contracts.NewStatementRow(contracts.StatementCashFlow, "X", periodEnd, map[string]any{
		"NetOpCF":       ocf,
		"AssetPurchase": capex,
	})
}

func TestDiscountFreeCashFlows(t *testing.T) {
	t.Run("single row zero rates", func(t *testing.T) {
		rows := []contracts.StatementRow{cashRow(day(2020, 12, 31), 100, 20)}
		v := discountFreeCashFlows(rows, day(2020, 12, 31), 0, 0)
		assert.Equal(t, 80.0, v.Float())
	})

	t.Run("discounted by year offset", func(t *testing.T) {
		rows := []contracts.StatementRow{
			cashRow(day(2020, 12, 31), 110, 0),
			cashRow(day(2019, 12, 31), 110, 0),
		}
		v := discountFreeCashFlows(rows, day(2021, 3, 31), 0.1, 0)
		assert.InDelta(t, 100+110/1.21, v.Float(), 1e-9)
	})

	t.Run("skips non year-end and absent rows", func(t *testing.T) {
		rows := []contracts.StatementRow{
			cashRow(day(2020, 9, 30), 1000, 0),
			contracts.NewStatementRow(contracts.StatementCashFlow, "X", day(2019, 12, 31), map[string]any{}),
			cashRow(day(2018, 12, 31), 50, 10),
		}
		v := discountFreeCashFlows(rows, day(2018, 12, 31), 0, 0)
		assert.Equal(t, 40.0, v.Float())
	})

	t.Run("no rows", func(t *testing.T) {
		assert.False(t, discountFreeCashFlows(nil, day(2020, 12, 31), 0.09, 0).Valid())
	})
}

func TestAnniversary(t *testing.T) {
	tests := []struct {
		asOf time.Time
		n    int
		want time.Time
	}{
		{day(2021, 6, 30), 0, day(2021, 6, 30)},
		{day(2021, 6, 30), 3, day(2018, 6, 30)},
		{day(2020, 2, 29), 1, day(2019, 2, 28)},
		{day(2020, 2, 29), 4, day(2016, 2, 29)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, anniversary(tt.asOf, tt.n))
	}
}

func TestSumPresent(t *testing.T) {
	rows := []contracts.StatementRow{
		contracts.NewStatementRow(contracts.StatementIncome, "X", day(2020, 12, 31), map[string]any{"ParNetProfit": 10.0}),
		contracts.NewStatementRow(contracts.StatementIncome, "X", day(2020, 9, 30), map[string]any{"ParNetProfit": nil}),
		contracts.NewStatementRow(contracts.StatementIncome, "X", day(2020, 6, 30), map[string]any{"净利润": "5"}),
	}
	w := contracts.NewWindow(contracts.StatementIncome, "X", day(2020, 12, 31), rows, 4)
	assert.Equal(t, 15.0, sumPresent(w, contracts.FieldNetProfit).Float())

	empty := contracts.NewWindow(contracts.StatementIncome, "X", day(2020, 12, 31), nil, 4)
	assert.False(t, sumPresent(empty, contracts.FieldNetProfit).Valid())
}

func TestNormalizeValue(t *testing.T) {
	var n pgtype.Numeric
	require.NoError(t, n.Scan("123.5"))
	assert.Equal(t, 123.5, normalizeValue(n))
	assert.Nil(t, normalizeValue(pgtype.Numeric{}))
	assert.Equal(t, "600519", normalizeValue("600519"))
}

// Integration: seeds one synthetic stock and reads it back

const (
	testCode     = "ZZ_MILLER_T"
	testPeerCode = "ZZ_MILLER_T2"
)

func newTestRepository(t *testing.T) (*FinancialRepository, *database.DB) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	_, err = migrations.Apply(ctx, db.Pool)
	require.NoError(t, err)

	cleanup := func() {
		for _, table := range []string{"data.profit", "data.balance", "data.cash_flow", "data.trade", "data.shares"} {
			_, _ = db.Pool.Exec(ctx, "DELETE FROM "+table+" WHERE stkcd IN ($1, $2)", testCode, testPeerCode)
		}
	}
	cleanup()
	t.Cleanup(cleanup)

	repo := NewFinancialRepository(db.Pool, NewAggregateCache(nil, 0), strategyconfig.Default(), logger.Nop())
	return repo, db
}

func TestFinancialRepository_Integration(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	for _, q := range []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO data.profit (stkcd, accper, opprofit, parnetprofit) VALUES ($1, $2, 100, 25)`, []any{testCode, day(2020, 9, 30)}},
		{`INSERT INTO data.profit (stkcd, accper, opprofit, parnetprofit) VALUES ($1, $2, 120, 30)`, []any{testCode, day(2020, 12, 31)}},
		{`INSERT INTO data.profit (stkcd, accper, opprofit, parnetprofit) VALUES ($1, $2, 999, 99)`, []any{testCode, day(2021, 3, 31)}},
		{`INSERT INTO data.cash_flow (stkcd, accper, netopcf, assetpurchase) VALUES ($1, $2, 100, 20)`, []any{testCode, day(2020, 12, 31)}},
		{`INSERT INTO data.cash_flow (stkcd, accper, netopcf, assetpurchase) VALUES ($1, $2, 40, NULL)`, []any{testCode, day(2020, 9, 30)}},
		{`INSERT INTO data.trade (stkcd, trddt, clsprc) VALUES ($1, $2, 10)`, []any{testCode, day(2020, 12, 28)}},
		{`INSERT INTO data.shares (stkcd, reptdt, nshrttl) VALUES ($1, $2, 1000)`, []any{testCode, day(2020, 6, 30)}},
	} {
		_, err := db.Pool.Exec(ctx, q.sql, q.args...)
		require.NoError(t, err)
	}

	asOf := day(2020, 12, 31)

	w := repo.GetStatementWindow(ctx, contracts.StatementIncome, testCode, asOf, 12)
	require.Equal(t, 2, w.Len())
	assert.Equal(t, day(2020, 12, 31), w.Rows[0].PeriodEnd)
	assert.Equal(t, 120.0, w.Rows[0].Get(contracts.FieldOpProfit).Float())
	assert.False(t, w.Rows[0].Get(contracts.FieldIncomeTax).Valid())

	cash := repo.GetStatementWindow(ctx, contracts.StatementCashFlow, testCode, asOf, 12)
	require.Equal(t, 2, cash.Len())
	assert.True(t, cash.Rows[1].Get(contracts.FieldCapex).IsZero())

	assert.Equal(t, 10.0, repo.GetPointFact(ctx, contracts.FactPrice, testCode, asOf).Float())
	assert.Equal(t, 1000.0, repo.GetPointFact(ctx, contracts.FactShares, testCode, asOf).Float())
	assert.Equal(t, 10000.0, repo.GetPointFact(ctx, contracts.FactMarketCap, testCode, asOf).Float())
	assert.False(t, repo.GetPointFact(ctx, contracts.FactPrice, testCode, day(2019, 1, 1)).Valid())

	assert.Equal(t, 80.0, repo.GetDiscountedCashFlow(ctx, testCode, asOf, 0, 0).Float())
	assert.False(t, repo.GetDiscountedCashFlow(ctx, testCode, day(2019, 12, 31), 0.09, 0).Valid())

	// 5년 중 과거 연도 데이터 없음 → 결측
	assert.False(t, repo.GetFiveYearAverageMultiple(ctx, testCode, asOf).Valid())

	assert.Equal(t, 0.015, repo.GetReferenceRate(ctx, contracts.RateDeposit, asOf).Float())
	assert.Equal(t, 0.09, repo.GetReferenceRate(ctx, contracts.RateDiscount, asOf).Float())

	empty := repo.GetStatementWindow(ctx, contracts.StatementBalance, testCode, asOf, 12)
	assert.True(t, empty.Empty())
}

func seed(t *testing.T, db *database.DB, stmts ...[]any) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := db.Pool.Exec(context.Background(), stmt[0].(string), stmt[1:]...)
		require.NoError(t, err)
	}
}

// 시장 평균: 다른 데이터와 겹치지 않는 1902년 분기에 두 종목만 적재
func TestFinancialRepository_MarketAggregates(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()

	const balanceSQL = `INSERT INTO data.balance (stkcd, accper, parownequity, shortborrow, noncurlia1y, ltborrow, bondpay,
		acctrecnet, prepaynet, inventnet, notesrecnet, acctpay, advfromcust, notespay, empbenefitpay, taxpay)
		VALUES ($1, $2, $3, $4, 0, 0, 0, $5, 0, $6, 0, $7, 0, 0, 0, 0)`
	const profitSQL = `INSERT INTO data.profit (stkcd, accper, opprofit, incometax, profitbeftax, opcost) VALUES ($1, $2, $3, $4, $5, $6)`

	prev, latest := day(1902, 9, 30), day(1902, 12, 31)
	seed(t, db,
		// T: capital 1000, nowc 300+200-100 = 400, nopat 100×0.75 = 75
		[]any{balanceSQL, testCode, prev, 1000, 0, 300, 100, 100},
		[]any{balanceSQL, testCode, latest, 1000, 0, 300, 200, 100},
		[]any{profitSQL, testCode, latest, 100, 25, 100, 300},
		[]any{`INSERT INTO data.trade (stkcd, trddt, clsprc) VALUES ($1, $2, 20)`, testCode, day(1902, 12, 30)},
		[]any{`INSERT INTO data.shares (stkcd, reptdt, nshrttl) VALUES ($1, $2, 100)`, testCode, day(1902, 6, 30)},
		// T2: capital 2500, nowc 100+300-500 < 0 (ROOC 제외), nopat 200
		[]any{balanceSQL, testPeerCode, prev, 2000, 500, 100, 300, 500},
		[]any{balanceSQL, testPeerCode, latest, 2000, 500, 100, 300, 500},
		[]any{profitSQL, testPeerCode, latest, 200, 0, 200, 900},
		[]any{`INSERT INTO data.trade (stkcd, trddt, clsprc) VALUES ($1, $2, 30)`, testPeerCode, day(1902, 12, 29)},
		[]any{`INSERT INTO data.shares (stkcd, reptdt, nshrttl) VALUES ($1, $2, 200)`, testPeerCode, day(1902, 6, 30)},
	)

	tests := []struct {
		name contracts.Aggregate
		want float64
	}{
		{contracts.AggregateAvgROC, (75.0/1000 + 200.0/2500) / 2},
		{contracts.AggregateAvgROOC, 75.0 / 400},
		{contracts.AggregateAvgInventoryTurnover, (2*300.0/(200+100) + 2*900.0/(300+300)) / 2},
		{contracts.AggregateAvgPB, (20.0/(1000.0/100) + 30.0/(2000.0/200)) / 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.name), func(t *testing.T) {
			assert.InDelta(t, tt.want, repo.GetMarketAggregate(ctx, tt.name, latest).Float(), 1e-9)
		})
	}

	// 직전 분기: 손익·가격 행 없음 → 빈 조인 → 결측
	for _, tt := range tests {
		assert.False(t, repo.GetMarketAggregate(ctx, tt.name, prev).Valid(), tt.name)
	}

	// 적재 후 데이터 버전 변경
	before, err := repo.DataVersion(ctx, latest)
	require.NoError(t, err)
	seed(t, db, []any{`INSERT INTO data.trade (stkcd, trddt, clsprc) VALUES ($1, $2, 21)`, testCode, latest})
	after, err := repo.DataVersion(ctx, latest)
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestFinancialRepository_FiveYearAverageMultiple(t *testing.T) {
	repo, db := newTestRepository(t)
	ctx := context.Background()
	asOf := day(1960, 6, 30)

	// 분기 순이익 25 → 최근 4분기 합 100, 시가총액 = 가격 × 100주
	quarterEnds := []struct {
		m time.Month
		d int
	}{{3, 31}, {6, 30}, {9, 30}, {12, 31}}
	for y := 1955; y <= 1960; y++ {
		for _, q := range quarterEnds {
			seed(t, db, []any{`INSERT INTO data.profit (stkcd, accper, parnetprofit) VALUES ($1, $2, 25)`, testCode, day(y, q.m, q.d)})
		}
	}
	seed(t, db, []any{`INSERT INTO data.shares (stkcd, reptdt, nshrttl) VALUES ($1, $2, 100)`, testCode, day(1955, 1, 1)})

	prices := map[int]float64{1960: 10, 1959: 12, 1958: 14, 1957: 16, 1956: 18}
	for y, p := range prices {
		seed(t, db, []any{`INSERT INTO data.trade (stkcd, trddt, clsprc) VALUES ($1, $2, $3)`, testCode, day(y, 6, 29), p})
	}

	assert.InDelta(t, 14.0, repo.GetFiveYearAverageMultiple(ctx, testCode, asOf).Float(), 1e-9)

	// 가장 이른 연도 가격 없음 → 결측
	assert.False(t, repo.GetFiveYearAverageMultiple(ctx, testCode, day(1959, 6, 28)).Valid())
}

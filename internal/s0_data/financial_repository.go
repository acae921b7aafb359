package s0_data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/database"
	"github.com/wonny/miller/backend/pkg/logger"
	"github.com/wonny/miller/backend/pkg/num"
)

// FinancialRepository implements contracts.FinancialDataRepository over PostgreSQL.
// Storage errors are logged and surfaced as absent values or empty windows.
// ⭐ SSOT: 재무 데이터 저장소는 여기서만
type FinancialRepository struct {
	db       database.Querier
	cache    *AggregateCache
	rates    strategyconfig.Rates
	dcfYears int
	logger   *logger.Logger
}

// NewFinancialRepository creates a new financial repository
func NewFinancialRepository(db database.Querier, cache *AggregateCache, policy *strategyconfig.Config, log *logger.Logger) *FinancialRepository {
	if cache == nil {
		cache = NewAggregateCache(nil, 0)
	}
	if policy == nil {
		policy = strategyconfig.Default()
	}
	return &FinancialRepository{
		db:       db,
		cache:    cache,
		rates:    policy.Rates,
		dcfYears: policy.Buy.DCFYears,
		logger:   log,
	}
}

// Ping checks backing store connectivity
func (r *FinancialRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// CacheStats exposes aggregate cache usage for run summaries
func (r *FinancialRepository) CacheStats() CacheStats {
	return r.cache.Stats()
}

// GetStatementWindow returns up to limit rows with period end <= asOf, newest first
func (r *FinancialRepository) GetStatementWindow(ctx context.Context, kind contracts.StatementKind, code string, asOf time.Time, limit int) contracts.Window {
	if limit <= 0 {
		limit = contracts.DefaultWindowSize
	}
	if !kind.Valid() {
		r.logger.WithField("kind", kind).Error("Unknown statement kind")
		return contracts.NewWindow(kind, code, asOf, nil, limit)
	}

	query := fmt.Sprintf(`
		SELECT * FROM %s
		WHERE stkcd = $1 AND accper <= $2
		ORDER BY accper DESC
		LIMIT $3
	`, kind.Table())

	rows, err := r.queryStatementRows(ctx, kind, query, code, asOf, limit)
	if err != nil {
		r.logger.WithStock(code, asOf).WithError(err).
			WithField("kind", kind).
			Error("Failed to fetch statement window")
		return contracts.NewWindow(kind, code, asOf, nil, limit)
	}

	return contracts.NewWindow(kind, code, asOf, rows, limit)
}

// queryStatementRows runs a SELECT * and resolves column aliases per row
func (r *FinancialRepository) queryStatementRows(ctx context.Context, kind contracts.StatementKind, query string, args ...any) ([]contracts.StatementRow, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []contracts.StatementRow
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}

		var (
			code      string
			periodEnd time.Time
			raw       = make(map[string]any, len(values))
		)
		for i, fd := range fields {
			v := normalizeValue(values[i])
			switch strings.ToLower(fd.Name) {
			case "stkcd":
				code, _ = v.(string)
			case "accper":
				periodEnd, _ = v.(time.Time)
			default:
				raw[fd.Name] = v
			}
		}
		out = append(out, contracts.NewStatementRow(kind, code, periodEnd, raw))
	}

	return out, rows.Err()
}

// normalizeValue converts pgx decoded values into types num.Parse accepts
func normalizeValue(v any) any {
	switch t := v.(type) {
	case pgtype.Numeric:
		f, err := t.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case pgtype.Float8:
		if !t.Valid {
			return nil
		}
		return t.Float64
	default:
		return v
	}
}

// GetMarketAggregate returns a cross-sectional market average, memoized per (name, asOf)
func (r *FinancialRepository) GetMarketAggregate(ctx context.Context, name contracts.Aggregate, asOf time.Time) num.Num {
	query, ok := aggregateQueries[name]
	if !ok {
		r.logger.WithField("aggregate", name).Error("Unknown market aggregate")
		return num.Absent
	}

	v, err := r.cache.GetOrCompute(ctx, name, asOf, func(ctx context.Context) (num.Num, error) {
		var avg *float64
		if err := r.db.QueryRow(ctx, query, asOf).Scan(&avg); err != nil {
			return num.Absent, err
		}
		if avg == nil {
			// 빈 결과도 캐시 (같은 배치에서 재조회 안 함)
			r.logger.WithFields(map[string]interface{}{
				"aggregate": name,
				"date":      asOf.Format("2006-01-02"),
			}).Warn("Market aggregate join returned no rows")
			return num.Absent, nil
		}
		return num.Of(*avg), nil
	})
	if err != nil {
		r.logger.WithError(err).WithFields(map[string]interface{}{
			"aggregate": name,
			"date":      asOf.Format("2006-01-02"),
		}).Error("Failed to compute market aggregate")
		return num.Absent
	}
	return v
}

// 시장 평균이 읽는 테이블의 as-of 이전 행 수와 최신일
const dataVersionQuery = `
	SELECT
		(SELECT COUNT(*) FROM data.balance WHERE accper <= $1),
		(SELECT COUNT(*) FROM data.profit WHERE accper <= $1),
		(SELECT COUNT(*) FROM data.trade WHERE trddt <= $1),
		(SELECT COUNT(*) FROM data.shares WHERE reptdt <= $1),
		(SELECT COALESCE(MAX(trddt)::text, '') FROM data.trade WHERE trddt <= $1)
`

// DataVersion fingerprints the rows market aggregates read as of asOf.
// It scopes shared cache keys so a reload yields a new key.
func (r *FinancialRepository) DataVersion(ctx context.Context, asOf time.Time) (string, error) {
	var balance, profit, trade, shares int64
	var lastTrade string
	if err := r.db.QueryRow(ctx, dataVersionQuery, asOf).Scan(&balance, &profit, &trade, &shares, &lastTrade); err != nil {
		return "", fmt.Errorf("data version %s: %w", asOf.Format("2006-01-02"), err)
	}
	return fmt.Sprintf("b%d.p%d.t%d.s%d.%s", balance, profit, trade, shares, lastTrade), nil
}

// GetReferenceRate returns the deposit, inflation or discount rate as of a date
func (r *FinancialRepository) GetReferenceRate(ctx context.Context, kind contracts.RateKind, asOf time.Time) num.Num {
	switch kind {
	case contracts.RateDeposit:
		return num.Of(r.rates.Deposit)
	case contracts.RateDiscount:
		return num.Of(r.rates.Discount)
	case contracts.RateInflation:
		var rate *float64
		err := r.db.QueryRow(ctx,
			`SELECT rate::float8 FROM data.inflation WHERE year = $1`,
			asOf.Year(),
		).Scan(&rate)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && rate == nil) {
			r.logger.WithField("year", asOf.Year()).Warn("Inflation rate not found")
			return num.Absent
		}
		if err != nil {
			r.logger.WithError(err).WithField("year", asOf.Year()).Error("Failed to fetch inflation rate")
			return num.Absent
		}
		return num.Of(*rate)
	default:
		r.logger.WithField("kind", kind).Error("Unknown reference rate")
		return num.Absent
	}
}

// GetPointFact returns price, share count or market cap as of a date.
// Price and share count each use their own latest date on or before asOf.
func (r *FinancialRepository) GetPointFact(ctx context.Context, kind contracts.FactKind, code string, asOf time.Time) num.Num {
	switch kind {
	case contracts.FactPrice:
		return r.latestScalar(ctx, code, asOf, "price",
			`SELECT clsprc::float8 FROM data.trade WHERE stkcd = $1 AND trddt <= $2 ORDER BY trddt DESC LIMIT 1`)
	case contracts.FactShares:
		return r.latestScalar(ctx, code, asOf, "shares",
			`SELECT nshrttl::float8 FROM data.shares WHERE stkcd = $1 AND reptdt <= $2 ORDER BY reptdt DESC LIMIT 1`)
	case contracts.FactMarketCap:
		price := r.GetPointFact(ctx, contracts.FactPrice, code, asOf)
		shares := r.GetPointFact(ctx, contracts.FactShares, code, asOf)
		return price.Mul(shares)
	default:
		r.logger.WithField("kind", kind).Error("Unknown point fact")
		return num.Absent
	}
}

func (r *FinancialRepository) latestScalar(ctx context.Context, code string, asOf time.Time, what, query string) num.Num {
	var v *float64
	err := r.db.QueryRow(ctx, query, code, asOf).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && v == nil) {
		r.logger.WithStock(code, asOf).WithField("fact", what).Warn("No data on or before date")
		return num.Absent
	}
	if err != nil {
		r.logger.WithStock(code, asOf).WithError(err).WithField("fact", what).Error("Failed to fetch point fact")
		return num.Absent
	}
	return num.Of(*v)
}

// GetFiveYearAverageMultiple averages market cap ÷ trailing-4-quarter net profit
// over the five anniversaries of asOf. Any missing year makes the result absent.
func (r *FinancialRepository) GetFiveYearAverageMultiple(ctx context.Context, code string, asOf time.Time) num.Num {
	const years = 5
	ratios := make([]float64, 0, years)

	for i := 0; i < years; i++ {
		at := anniversary(asOf, i)

		marketCap := r.GetPointFact(ctx, contracts.FactMarketCap, code, at)
		window := r.GetStatementWindow(ctx, contracts.StatementIncome, code, at, 4)
		profit := sumPresent(window, contracts.FieldNetProfit)

		ratio := marketCap.Div(profit)
		f, ok := ratio.Value()
		if !ok {
			r.logger.WithStock(code, asOf).
				WithField("year", at.Year()).
				Warn("Five-year multiple input unavailable")
			return num.Absent
		}
		ratios = append(ratios, f)
	}

	return num.Of(stat.Mean(ratios, nil))
}

// anniversary returns asOf shifted back n years; Feb 29 maps to Feb 28
func anniversary(asOf time.Time, n int) time.Time {
	y, m, d := asOf.Date()
	y -= n
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, m, d, 0, 0, 0, 0, asOf.Location())
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// sumPresent sums a field over the window's rows, skipping absent values.
// No present value at all is absent.
func sumPresent(w contracts.Window, f contracts.Field) num.Num {
	total, found := 0.0, false
	for _, row := range w.Rows {
		if v, ok := row.Get(f).Value(); ok {
			total += v
			found = true
		}
	}
	if !found {
		return num.Absent
	}
	return num.Of(total)
}

// GetDiscountedCashFlow discounts free cash flow from up to dcfYears fiscal
// year-end rows on or before asOf. k is the calendar-year offset from asOf.
func (r *FinancialRepository) GetDiscountedCashFlow(ctx context.Context, code string, asOf time.Time, discountRate, growthRate float64) num.Num {
	limit := r.dcfYears
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.queryStatementRows(ctx, contracts.StatementCashFlow, `
		SELECT * FROM data.cash_flow
		WHERE stkcd = $1 AND accper <= $2
		  AND EXTRACT(MONTH FROM accper) = 12 AND EXTRACT(DAY FROM accper) = 31
		ORDER BY accper DESC
		LIMIT $3
	`, code, asOf, limit)
	if err != nil {
		r.logger.WithStock(code, asOf).WithError(err).Error("Failed to fetch fiscal year-end cash flows")
		return num.Absent
	}

	v := discountFreeCashFlows(rows, asOf, discountRate, growthRate)
	if !v.Valid() {
		r.logger.WithStock(code, asOf).Warn("No fiscal year-end cash flow rows for DCF")
	}
	return v
}

// discountFreeCashFlows sums (OCF − capex) × (1+g)^k / (1+d)^k over fiscal
// year-end rows, k = asOf year − row year. Rows without FCF are skipped.
func discountFreeCashFlows(rows []contracts.StatementRow, asOf time.Time, discountRate, growthRate float64) num.Num {
	total, used := 0.0, 0
	for _, row := range rows {
		if !row.IsFiscalYearEnd() || row.PeriodEnd.After(asOf) {
			continue
		}
		fcf, ok := row.Get(contracts.FieldOperatingCF).Sub(row.Get(contracts.FieldCapex)).Value()
		if !ok {
			continue
		}
		k := float64(asOf.Year() - row.PeriodEnd.Year())
		total += fcf * math.Pow(1+growthRate, k) / math.Pow(1+discountRate, k)
		used++
	}

	if used == 0 {
		return num.Absent
	}
	return num.Of(total)
}

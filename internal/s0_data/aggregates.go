package s0_data

import "github.com/wonny/miller/backend/internal/contracts"

// 시장 전체 횡단면 평균. 기준 분기 = as-of 이전 최신 balance 결산일.
// $1 = as-of date
const latestPeriodCTE = `
	WITH latest AS (
		SELECT MAX(accper) AS accper FROM data.balance WHERE accper <= $1
	)`

// nopat = 영업이익 × (1 − 세율), 세율은 [0, 1]로 제한
const nopatExpr = `p.opprofit * (1 - LEAST(GREATEST(p.incometax / NULLIF(p.profitbeftax, 0), 0), 1))`

var aggregateQueries = map[contracts.Aggregate]string{
	contracts.AggregateAvgROC: latestPeriodCTE + `
	SELECT AVG(` + nopatExpr + `
		/ NULLIF(b.parownequity + b.shortborrow + b.noncurlia1y + b.ltborrow + b.bondpay, 0))::float8
	FROM data.balance b
	JOIN latest l ON b.accper = l.accper
	JOIN data.profit p ON p.stkcd = b.stkcd AND p.accper = b.accper
	`,

	contracts.AggregateAvgROOC: latestPeriodCTE + `
	SELECT AVG(nopat / nowc)::float8
	FROM (
		SELECT ` + nopatExpr + ` AS nopat,
		       (b.acctrecnet + b.prepaynet + b.inventnet + b.notesrecnet
		        - b.acctpay - b.advfromcust - b.notespay - b.empbenefitpay - b.taxpay) AS nowc
		FROM data.balance b
		JOIN latest l ON b.accper = l.accper
		JOIN data.profit p ON p.stkcd = b.stkcd AND p.accper = b.accper
	) t
	WHERE nopat > 0 AND nowc > 0
	`,

	// 종목별 직전 분기 재고를 LATERAL로 조회
	contracts.AggregateAvgInventoryTurnover: latestPeriodCTE + `
	SELECT AVG(2 * p.opcost / NULLIF(b.inventnet + prev.inventnet, 0))::float8
	FROM data.balance b
	JOIN latest l ON b.accper = l.accper
	JOIN data.profit p ON p.stkcd = b.stkcd AND p.accper = b.accper
	JOIN LATERAL (
		SELECT b2.inventnet FROM data.balance b2
		WHERE b2.stkcd = b.stkcd AND b2.accper < b.accper
		ORDER BY b2.accper DESC LIMIT 1
	) prev ON TRUE
	`,

	// 가격·주식수는 각자 as-of 이전 최신값
	contracts.AggregateAvgPB: latestPeriodCTE + `
	SELECT AVG(t.clsprc / NULLIF(b.parownequity / NULLIF(s.nshrttl, 0), 0))::float8
	FROM data.balance b
	JOIN latest l ON b.accper = l.accper
	JOIN LATERAL (
		SELECT clsprc FROM data.trade
		WHERE stkcd = b.stkcd AND trddt <= $1
		ORDER BY trddt DESC LIMIT 1
	) t ON TRUE
	JOIN LATERAL (
		SELECT nshrttl FROM data.shares
		WHERE stkcd = b.stkcd AND reptdt <= $1
		ORDER BY reptdt DESC LIMIT 1
	) s ON TRUE
	`,
}

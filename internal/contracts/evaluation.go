package contracts

import (
	"time"

	"github.com/wonny/miller/backend/pkg/num"
)

// Aggregate names a market-wide benchmark computed per evaluation date
type Aggregate string

const (
	AggregateAvgROC               Aggregate = "avg_roc"
	AggregateAvgROOC              Aggregate = "avg_rooc"
	AggregateAvgPB                Aggregate = "avg_pb"
	AggregateAvgInventoryTurnover Aggregate = "avg_inventory_turnover"
)

// Valid reports whether a is a known aggregate
func (a Aggregate) Valid() bool {
	switch a {
	case AggregateAvgROC, AggregateAvgROOC, AggregateAvgPB, AggregateAvgInventoryTurnover:
		return true
	}
	return false
}

// RateKind names a scalar reference rate
type RateKind string

const (
	RateDeposit   RateKind = "deposit"
	RateInflation RateKind = "inflation"
	RateDiscount  RateKind = "discount"
)

// FactKind names a point-in-time market fact
type FactKind string

const (
	FactPrice     FactKind = "price"
	FactShares    FactKind = "shares"
	FactMarketCap FactKind = "market_cap"
)

// Trade signal action flags
const (
	ActionSell = "0"
	ActionBuy  = "1"
)

// Selection criterion codes A..G
const SelectionCriteriaCount = 7

// Buy condition codes A..E
const BuyConditionCount = 5

// SelectionEvaluation is the seven-criterion outcome for one entity at one date
// ⭐ SSOT: 선정 판정 = 7개 조건의 논리곱
type SelectionEvaluation struct {
	Code     string                       `json:"code"`
	Date     time.Time                    `json:"date"`
	Criteria [SelectionCriteriaCount]bool `json:"criteria"`

	ROC4Min       num.Num `json:"-"`
	ROC58Max      num.Num `json:"-"`
	ROOC4Min      num.Num `json:"-"`
	ROOC58Max     num.Num `json:"-"`
	Turnover4Min  num.Num `json:"-"`
	Turnover58Max num.Num `json:"-"`
}

// Passed reports whether every criterion holds
func (e SelectionEvaluation) Passed() bool {
	for _, ok := range e.Criteria {
		if !ok {
			return false
		}
	}
	return true
}

// FailedCriteria returns the letter codes of criteria that did not hold
func (e SelectionEvaluation) FailedCriteria() []string {
	var failed []string
	for i, ok := range e.Criteria {
		if !ok {
			failed = append(failed, string(rune('A'+i)))
		}
	}
	return failed
}

// BuyEvaluation is the five-condition valuation outcome for one entity at one date
type BuyEvaluation struct {
	Code       string                  `json:"code"`
	Date       time.Time               `json:"date"`
	Price      num.Num                 `json:"-"`
	Conditions [BuyConditionCount]bool `json:"conditions"`
}

// BuyCount returns the number of satisfied conditions (0..5)
func (e BuyEvaluation) BuyCount() int {
	n := 0
	for _, ok := range e.Conditions {
		if ok {
			n++
		}
	}
	return n
}

// SelectionEvent records that an entity passed selection at a date
type SelectionEvent struct {
	Code string    `json:"stock_code"`
	Date time.Time `json:"end_date"`
}

// TradeSignal is a persisted buy-stage result, keyed by (Code, Date)
type TradeSignal struct {
	Code     string    `json:"stock_code"`
	Date     time.Time `json:"end_date"`
	Price    float64   `json:"price"`
	Action   string    `json:"op"`
	BuyCount int       `json:"score"`
}

// IsBuy reports whether the signal is a buy
func (s TradeSignal) IsBuy() bool {
	return s.Action == ActionBuy
}

// StoreCounts summarizes the result tables
type StoreCounts struct {
	Selections      int        `json:"selections"`
	TradeSignals    int        `json:"trade_signals"`
	LatestSelection *time.Time `json:"latest_selection,omitempty"`
	LatestSignal    *time.Time `json:"latest_signal,omitempty"`
}

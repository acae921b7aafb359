package contracts

import (
	"context"
	"time"

	"github.com/wonny/miller/backend/pkg/num"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// FinancialDataRepository supplies point-in-time financial facts.
// Storage errors never reach callers: gaps come back as absent values or
// empty windows.
type FinancialDataRepository interface {
	GetStatementWindow(ctx context.Context, kind StatementKind, code string, asOf time.Time, limit int) Window
	GetMarketAggregate(ctx context.Context, name Aggregate, asOf time.Time) num.Num
	GetReferenceRate(ctx context.Context, kind RateKind, asOf time.Time) num.Num
	GetPointFact(ctx context.Context, kind FactKind, code string, asOf time.Time) num.Num
	GetFiveYearAverageMultiple(ctx context.Context, code string, asOf time.Time) num.Num
	GetDiscountedCashFlow(ctx context.Context, code string, asOf time.Time, discountRate, growthRate float64) num.Num
}

// UniverseSource lists the entities a selection pass runs over
type UniverseSource interface {
	ListEntities(ctx context.Context) ([]string, error)
}

// ResultStore persists selection events and trade signals
type ResultStore interface {
	SaveSelection(ctx context.Context, event SelectionEvent) (bool, error)
	SaveTradeSignal(ctx context.Context, signal TradeSignal) error
	SelectedAsOf(ctx context.Context, date time.Time) ([]string, time.Time, error)
}

// ResultReader is the read side used by the API and status command
type ResultReader interface {
	ListSelections(ctx context.Context, date time.Time) ([]SelectionEvent, error)
	ListTradeSignals(ctx context.Context, date time.Time) ([]TradeSignal, error)
	GetTradeSignal(ctx context.Context, code string, date time.Time) (*TradeSignal, error)
	Counts(ctx context.Context) (*StoreCounts, error)
}

// Pinger checks backing store connectivity
type Pinger interface {
	Ping(ctx context.Context) error
}

package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/database"
)

// Repository handles selection event and trade signal persistence
// ⭐ SSOT: 선정/매매신호 저장/조회는 여기서만
type Repository struct {
	db database.Querier
}

var (
	_ contracts.ResultStore  = (*Repository)(nil)
	_ contracts.ResultReader = (*Repository)(nil)
)

// NewRepository creates a new selection repository
func NewRepository(db database.Querier) *Repository {
	return &Repository{db: db}
}

// SaveSelection records a passed entity. Re-running a pass for the same
// date is a no-op; the bool reports whether a new row was written.
func (r *Repository) SaveSelection(ctx context.Context, event contracts.SelectionEvent) (bool, error) {
	query := `
		INSERT INTO data.sel_stocks (stock_code, end_date)
		VALUES ($1, $2)
		ON CONFLICT (stock_code, end_date) DO NOTHING
	`

	tag, err := r.db.Exec(ctx, query, event.Code, event.Date)
	if err != nil {
		return false, fmt.Errorf("failed to save selection %s: %w", event.Code, err)
	}

	return tag.RowsAffected() > 0, nil
}

// SaveTradeSignal upserts a trade signal; the last evaluation for a date wins
func (r *Repository) SaveTradeSignal(ctx context.Context, signal contracts.TradeSignal) error {
	query := `
		INSERT INTO data.trade_stocks (stock_code, end_date, price, op, score)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (stock_code, end_date) DO UPDATE SET
			price = EXCLUDED.price,
			op = EXCLUDED.op,
			score = EXCLUDED.score,
			updated_at = NOW()
	`

	_, err := r.db.Exec(ctx, query, signal.Code, signal.Date, signal.Price, signal.Action, signal.BuyCount)
	if err != nil {
		return fmt.Errorf("failed to save trade signal %s: %w", signal.Code, err)
	}

	return nil
}

// SelectedAsOf returns the selection universe at the most recent selection
// date on or before date, together with that date. No prior selection
// returns an empty list and a zero time.
func (r *Repository) SelectedAsOf(ctx context.Context, date time.Time) ([]string, time.Time, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx, `
		SELECT MAX(end_date) FROM data.sel_stocks WHERE end_date <= $1
	`, date).Scan(&latest)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get latest selection date: %w", err)
	}
	// MAX over no rows is NULL
	if latest == nil {
		return []string{}, time.Time{}, nil
	}
	source := *latest

	rows, err := r.db.Query(ctx, `
		SELECT stock_code FROM data.sel_stocks
		WHERE end_date = $1
		ORDER BY stock_code
	`, source)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to query selected stocks: %w", err)
	}

	codes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to scan selected stocks: %w", err)
	}

	return codes, source, nil
}

// ListSelections returns the selection events for a date
func (r *Repository) ListSelections(ctx context.Context, date time.Time) ([]contracts.SelectionEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT stock_code, end_date FROM data.sel_stocks
		WHERE end_date = $1
		ORDER BY stock_code
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query selections: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.SelectionEvent, 0)
	for rows.Next() {
		var e contracts.SelectionEvent
		if err := rows.Scan(&e.Code, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

const tradeSignalColumns = `stock_code, end_date, price::float8, op, score`

// ListTradeSignals returns the trade signals for a date, buys first
func (r *Repository) ListTradeSignals(ctx context.Context, date time.Time) ([]contracts.TradeSignal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+tradeSignalColumns+`
		FROM data.trade_stocks
		WHERE end_date = $1
		ORDER BY op DESC, score DESC, stock_code
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query trade signals: %w", err)
	}
	defer rows.Close()

	results := make([]contracts.TradeSignal, 0)
	for rows.Next() {
		s, err := scanTradeSignal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return results, nil
}

// ErrNotFound is returned when a trade signal does not exist
var ErrNotFound = errors.New("not found")

// GetTradeSignal reads one trade signal by (code, date)
func (r *Repository) GetTradeSignal(ctx context.Context, code string, date time.Time) (*contracts.TradeSignal, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+tradeSignalColumns+`
		FROM data.trade_stocks
		WHERE stock_code = $1 AND end_date = $2
	`, code, date)

	s, err := scanTradeSignal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("trade signal %s %s: %w", code, date.Format("2006-01-02"), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade signal: %w", err)
	}

	return &s, nil
}

// Counts summarizes both result tables
func (r *Repository) Counts(ctx context.Context) (*contracts.StoreCounts, error) {
	var c contracts.StoreCounts
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM data.sel_stocks),
			(SELECT COUNT(*) FROM data.trade_stocks),
			(SELECT MAX(end_date) FROM data.sel_stocks),
			(SELECT MAX(end_date) FROM data.trade_stocks)
	`).Scan(&c.Selections, &c.TradeSignals, &c.LatestSelection, &c.LatestSignal)
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}

	return &c, nil
}

func scanTradeSignal(row pgx.Row) (contracts.TradeSignal, error) {
	var s contracts.TradeSignal
	err := row.Scan(&s.Code, &s.Date, &s.Price, &s.Action, &s.BuyCount)
	return s, err
}

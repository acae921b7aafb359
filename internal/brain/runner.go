package brain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/logger"
)

// Stage names one runner pass
type Stage string

const (
	StageSelection Stage = "selection"
	StageBuy       Stage = "buy"
)

// ParseStage converts a CLI or job name into a Stage
func ParseStage(s string) (Stage, error) {
	switch Stage(s) {
	case StageSelection, StageBuy:
		return Stage(s), nil
	}
	return "", fmt.Errorf("unknown stage %q (selection|buy)", s)
}

// UniverseBuilder supplies the entity set for each pass
type UniverseBuilder interface {
	SelectionUniverse(ctx context.Context, date time.Time) (*contracts.Universe, error)
	BuyUniverse(ctx context.Context, date time.Time) (*contracts.Universe, error)
}

// Runner drives the selection and buy passes over a universe
// ⭐ SSOT: 선정/매수 배치 조율은 여기서만
type Runner struct {
	repo     contracts.FinancialDataRepository
	strategy contracts.Strategy
	universe UniverseBuilder
	store    contracts.ResultStore
	limiter  *rate.Limiter
	logger   *logger.Logger
}

// PassSummary counts the outcome of one pass for one date
type PassSummary struct {
	RunID      string        `json:"run_id"`
	Stage      Stage         `json:"stage"`
	Date       time.Time     `json:"date"`
	SourceDate time.Time     `json:"source_date,omitempty"` // buy pass: 선정 기준일
	Processed  int           `json:"processed"`
	Passed     int           `json:"passed"`   // 선정 통과 또는 매수 신호
	Sells      int           `json:"sells"`    // 매도/회피 신호 (buy pass)
	Inserted   int           `json:"inserted"` // 새로 기록된 행
	Skipped    int           `json:"skipped"`  // 중복 선정, 보류(2점), 가격 결측
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// RunConfig holds configuration for a multi-date run
type RunConfig struct {
	RunID  string
	Dates  []time.Time
	Stages []Stage // 기본: selection, buy
}

// RunResult holds the results of a complete run
type RunResult struct {
	RunID    string        `json:"run_id"`
	Success  bool          `json:"success"`
	Passes   []PassSummary `json:"passes"`
	Duration time.Duration `json:"duration"`
}

// NewRunner creates a new runner
func NewRunner(
	repo contracts.FinancialDataRepository,
	strategy contracts.Strategy,
	universe UniverseBuilder,
	store contracts.ResultStore,
	logger *logger.Logger,
) *Runner {
	return &Runner{
		repo:     repo,
		strategy: strategy,
		universe: universe,
		store:    store,
		logger:   logger,
	}
}

// SetRateLimit paces entity evaluation; 0 disables pacing
func (r *Runner) SetRateLimit(perSecond float64) {
	if perSecond <= 0 {
		r.limiter = nil
		return
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	r.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Ping checks the backing store before any entity is processed
func (r *Runner) Ping(ctx context.Context) error {
	if p, ok := r.repo.(contracts.Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("repository unreachable: %w", err)
		}
	}
	return nil
}

// Run executes the requested passes for every date, oldest first.
// For each date the selection pass completes before the buy pass reads
// the selected set back from the store.
func (r *Runner) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	if config.RunID == "" {
		config.RunID = GenerateRunID()
	}
	stages := config.Stages
	if len(stages) == 0 {
		stages = []Stage{StageSelection, StageBuy}
	}
	stages = orderStages(stages)

	dates := append([]time.Time(nil), config.Dates...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	result := &RunResult{
		RunID:  config.RunID,
		Passes: make([]PassSummary, 0, len(dates)*len(stages)),
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id": config.RunID,
		"dates":  len(dates),
		"stages": stages,
	}).Info("Starting strategy run")

	if err := r.Ping(ctx); err != nil {
		return result, err
	}

	for _, date := range dates {
		for _, stage := range stages {
			var (
				summary *PassSummary
				err     error
			)
			switch stage {
			case StageSelection:
				summary, err = r.SelectionPass(ctx, date)
			case StageBuy:
				summary, err = r.BuyPass(ctx, date)
			}
			if summary != nil {
				summary.RunID = config.RunID
				result.Passes = append(result.Passes, *summary)
			}
			if err != nil {
				result.Duration = time.Since(startTime)
				return result, fmt.Errorf("%s pass %s: %w", stage, date.Format("2006-01-02"), err)
			}
		}
	}

	result.Success = true
	result.Duration = time.Since(startTime)

	r.logger.WithFields(map[string]interface{}{
		"run_id":   config.RunID,
		"duration": result.Duration.Seconds(),
		"passes":   len(result.Passes),
	}).Info("Strategy run completed")

	return result, nil
}

// SelectionPass evaluates every entity in the full universe and records
// those that pass all seven criteria
func (r *Runner) SelectionPass(ctx context.Context, date time.Time) (*PassSummary, error) {
	startTime := time.Now()
	summary := &PassSummary{Stage: StageSelection, Date: date}

	universe, err := r.universe.SelectionUniverse(ctx, date)
	if err != nil {
		return summary, fmt.Errorf("selection universe: %w", err)
	}

	for _, code := range universe.Stocks {
		if err := r.wait(ctx); err != nil {
			summary.Duration = time.Since(startTime)
			return summary, err
		}
		summary.Processed++

		err := r.isolate(code, date, func() error {
			eval := r.strategy.EvaluateSelection(ctx, r.repo, code, date)
			if !eval.Passed() {
				return nil
			}
			inserted, err := r.store.SaveSelection(ctx, contracts.SelectionEvent{Code: code, Date: date})
			if err != nil {
				return err
			}
			// 저장 성공 후에만 통과로 집계
			summary.Passed++
			if inserted {
				summary.Inserted++
			} else {
				summary.Skipped++
			}
			return nil
		})
		if err != nil {
			summary.Failed++
			r.logger.WithStock(code, date).WithError(err).Error("Selection evaluation failed")
		}
	}

	summary.Duration = time.Since(startTime)
	r.logPass(summary)
	return summary, nil
}

// BuyPass evaluates the selection universe as of date and records a trade
// signal for every entity with a decided action
func (r *Runner) BuyPass(ctx context.Context, date time.Time) (*PassSummary, error) {
	startTime := time.Now()
	summary := &PassSummary{Stage: StageBuy, Date: date}

	// ⭐ 선정 결과는 항상 저장소에서 재조회
	universe, err := r.universe.BuyUniverse(ctx, date)
	if err != nil {
		return summary, fmt.Errorf("buy universe: %w", err)
	}
	summary.SourceDate = universe.SourceDate

	for _, code := range universe.Stocks {
		if err := r.wait(ctx); err != nil {
			summary.Duration = time.Since(startTime)
			return summary, err
		}
		summary.Processed++

		err := r.isolate(code, date, func() error {
			eval := r.strategy.EvaluateBuy(ctx, r.repo, code, date)

			action, ok := r.strategy.Action(eval.BuyCount())
			if !ok {
				summary.Skipped++
				return nil
			}
			price, hasPrice := eval.Price.Value()
			if !hasPrice {
				r.logger.WithStock(code, date).Warn("No price on or before date, trade signal not written")
				summary.Skipped++
				return nil
			}

			signal := contracts.TradeSignal{
				Code:     code,
				Date:     date,
				Price:    price,
				Action:   action,
				BuyCount: eval.BuyCount(),
			}
			if err := r.store.SaveTradeSignal(ctx, signal); err != nil {
				return err
			}

			summary.Inserted++
			if signal.IsBuy() {
				summary.Passed++
			} else {
				summary.Sells++
			}
			return nil
		})
		if err != nil {
			summary.Failed++
			r.logger.WithStock(code, date).WithError(err).Error("Buy evaluation failed")
		}
	}

	summary.Duration = time.Since(startTime)
	r.logPass(summary)
	return summary, nil
}

// isolate runs one entity's evaluation; a panic becomes that entity's error
func (r *Runner) isolate(code string, date time.Time, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic evaluating %s on %s: %v", code, date.Format("2006-01-02"), p)
		}
	}()
	return fn()
}

func (r *Runner) wait(ctx context.Context) error {
	if r.limiter != nil {
		return r.limiter.Wait(ctx)
	}
	return ctx.Err()
}

func (r *Runner) logPass(s *PassSummary) {
	fields := map[string]interface{}{
		"stage":     s.Stage,
		"date":      s.Date.Format("2006-01-02"),
		"processed": s.Processed,
		"passed":    s.Passed,
		"inserted":  s.Inserted,
		"skipped":   s.Skipped,
		"failed":    s.Failed,
		"duration":  s.Duration.Seconds(),
	}
	if s.Stage == StageBuy {
		fields["sells"] = s.Sells
		if !s.SourceDate.IsZero() {
			fields["source_date"] = s.SourceDate.Format("2006-01-02")
		}
	}
	r.logger.WithFields(fields).Info("Pass completed")
}

// orderStages removes duplicates and puts selection before buy
func orderStages(stages []Stage) []Stage {
	var hasSelection, hasBuy bool
	for _, s := range stages {
		switch s {
		case StageSelection:
			hasSelection = true
		case StageBuy:
			hasBuy = true
		}
	}

	ordered := make([]Stage, 0, 2)
	if hasSelection {
		ordered = append(ordered, StageSelection)
	}
	if hasBuy {
		ordered = append(ordered, StageBuy)
	}
	return ordered
}

// GenerateRunID generates a unique run ID
func GenerateRunID() string {
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), uuid.New().String()[:8])
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/miller/backend/internal/brain"
	"github.com/wonny/miller/backend/pkg/logger"
)

// passSlot serializes selection and buy passes within the process
// ⭐ SSOT: 매수 판정은 선정 결과 커밋 이후에만 읽음
var passSlot = make(chan struct{}, 1)

func acquirePass(ctx context.Context) error {
	select {
	case passSlot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func releasePass() {
	<-passSlot
}

// PassRunner runs one strategy pass for one date
type PassRunner interface {
	Ping(ctx context.Context) error
	SelectionPass(ctx context.Context, date time.Time) (*brain.PassSummary, error)
	BuyPass(ctx context.Context, date time.Time) (*brain.PassSummary, error)
}

// SelectionJob runs the selection pass for the last completed quarter
// ⭐ SSOT: 선정 스케줄은 이 Job에서만
type SelectionJob struct {
	runner   PassRunner
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewSelectionJob creates a new selection job
func NewSelectionJob(runner PassRunner, schedule string, log *logger.Logger) *SelectionJob {
	return &SelectionJob{
		runner:   runner,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *SelectionJob) Name() string {
	return "miller_selection"
}

// Schedule returns the cron schedule (quarter start by default)
func (j *SelectionJob) Schedule() string {
	return j.schedule
}

// Run evaluates selection as of the most recent quarter end before today
func (j *SelectionJob) Run(ctx context.Context) error {
	date := LastQuarterEnd(j.now())
	j.logger.WithField("date", date.Format("2006-01-02")).Info("Starting scheduled selection pass")

	if err := acquirePass(ctx); err != nil {
		return fmt.Errorf("wait for running pass: %w", err)
	}
	defer releasePass()

	if err := j.runner.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	summary, err := j.runner.SelectionPass(ctx, date)
	if err != nil {
		return fmt.Errorf("selection pass: %w", err)
	}
	if summary.Processed > 0 && summary.Failed == summary.Processed {
		return fmt.Errorf("selection pass: all %d entities failed", summary.Failed)
	}

	return nil
}

// BuyJob runs the buy pass for today
// ⭐ SSOT: 매수 판정 스케줄은 이 Job에서만
type BuyJob struct {
	runner   PassRunner
	schedule string
	now      func() time.Time
	logger   *logger.Logger
}

// NewBuyJob creates a new buy job
func NewBuyJob(runner PassRunner, schedule string, log *logger.Logger) *BuyJob {
	return &BuyJob{
		runner:   runner,
		schedule: schedule,
		now:      time.Now,
		logger:   log,
	}
}

// Name returns the job name
func (j *BuyJob) Name() string {
	return "miller_buy"
}

// Schedule returns the cron schedule (weekday evenings by default)
func (j *BuyJob) Schedule() string {
	return j.schedule
}

// Run evaluates buy conditions for the current selection universe as of today
func (j *BuyJob) Run(ctx context.Context) error {
	date := Today(j.now())
	j.logger.WithField("date", date.Format("2006-01-02")).Info("Starting scheduled buy pass")

	if err := acquirePass(ctx); err != nil {
		return fmt.Errorf("wait for running pass: %w", err)
	}
	defer releasePass()

	if err := j.runner.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	summary, err := j.runner.BuyPass(ctx, date)
	if err != nil {
		return fmt.Errorf("buy pass: %w", err)
	}
	if summary.Processed > 0 && summary.Failed == summary.Processed {
		return fmt.Errorf("buy pass: all %d entities failed", summary.Failed)
	}

	return nil
}

// Today truncates t to a UTC calendar date
func Today(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LastQuarterEnd returns the latest quarter end strictly before t's date
func LastQuarterEnd(t time.Time) time.Time {
	// 이번 분기 첫날 - 1일
	quarterStart := time.Date(t.Year(), ((t.Month()-1)/3)*3+1, 1, 0, 0, 0, 0, time.UTC)
	return quarterStart.AddDate(0, 0, -1)
}

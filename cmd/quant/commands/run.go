package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/miller/backend/internal/brain"
	"github.com/wonny/miller/backend/internal/scheduler/jobs"
)

// selectCmd runs the selection pass
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "선정 단계 실행 (7개 조건)",
	Long: `전체 종목에 대해 7개 선정 조건을 평가하고 통과 종목을 기록합니다.

같은 (종목, 날짜) 선정은 한 번만 기록됩니다.

Flags:
  --date       평가일 목록 (쉼표 구분, 기본: 직전 분기말)
  --from/--to  기간 내 분기말마다 실행

Example:
  go run ./cmd/quant select
  go run ./cmd/quant select --date 2020-12-31
  go run ./cmd/quant select --from 2018-01-01 --to 2020-12-31`,
	RunE: runSelect,
}

// buyCmd runs the buy pass
var buyCmd = &cobra.Command{
	Use:   "buy",
	Short: "매수 판정 단계 실행 (5개 조건)",
	Long: `평가일 기준 최신 선정 종목에 대해 5개 매수 조건을 평가하고
매수("1") 또는 매도("0") 신호를 기록합니다. 2점은 기록하지 않습니다.

Flags:
  --date       평가일 목록 (쉼표 구분, 기본: 오늘)
  --from/--to  기간 내 매일 실행 (--weekdays: 평일만)

Example:
  go run ./cmd/quant buy
  go run ./cmd/quant buy --date 2021-01-04,2021-01-05
  go run ./cmd/quant buy --from 2021-01-01 --to 2021-01-31 --weekdays`,
	RunE: runBuy,
}

// runCmd runs both passes per date
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "선정 → 매수 판정 순차 실행",
	Long: `날짜마다 선정 단계를 먼저 완료한 뒤 매수 판정 단계를 실행합니다.
날짜는 오래된 순서로 처리됩니다.

Example:
  go run ./cmd/quant run --date 2020-12-31
  go run ./cmd/quant run --from 2021-01-01 --to 2021-03-31 --weekdays
  go run ./cmd/quant run --date 2021-01-04 --stages buy`,
	RunE: runRun,
}

var (
	passDates    string
	passFrom     string
	passTo       string
	passWeekdays bool
	passStages   string
)

func init() {
	for _, cmd := range []*cobra.Command{selectCmd, buyCmd, runCmd} {
		rootCmd.AddCommand(cmd)
		cmd.Flags().StringVar(&passDates, "date", "", "평가일 (YYYY-MM-DD, 쉼표 구분)")
		cmd.Flags().StringVar(&passFrom, "from", "", "기간 시작 (YYYY-MM-DD)")
		cmd.Flags().StringVar(&passTo, "to", "", "기간 끝 (YYYY-MM-DD, 기본: 오늘)")
	}
	buyCmd.Flags().BoolVar(&passWeekdays, "weekdays", false, "기간 실행 시 평일만")
	runCmd.Flags().BoolVar(&passWeekdays, "weekdays", false, "기간 실행 시 평일만")
	runCmd.Flags().StringVar(&passStages, "stages", "selection,buy", "실행 단계 (selection,buy)")
}

func runSelect(cmd *cobra.Command, args []string) error {
	dates, err := resolveDates(jobs.LastQuarterEnd, true)
	if err != nil {
		return err
	}
	return executeRun("Miller Selection Pass", dates, []brain.Stage{brain.StageSelection})
}

func runBuy(cmd *cobra.Command, args []string) error {
	dates, err := resolveDates(jobs.Today, false)
	if err != nil {
		return err
	}
	return executeRun("Miller Buy Pass", dates, []brain.Stage{brain.StageBuy})
}

func runRun(cmd *cobra.Command, args []string) error {
	stages, err := parseStages(passStages)
	if err != nil {
		return err
	}
	dates, err := resolveDates(jobs.Today, false)
	if err != nil {
		return err
	}
	return executeRun("Miller Strategy Run", dates, stages)
}

// resolveDates turns --date or --from/--to into evaluation dates.
// quarterEnds restricts a range to calendar quarter ends.
func resolveDates(fallback func(time.Time) time.Time, quarterEnds bool) ([]time.Time, error) {
	if passDates != "" && passFrom != "" {
		return nil, fmt.Errorf("--date and --from are mutually exclusive")
	}

	if passDates != "" {
		return brain.ParseDates(passDates)
	}

	if passFrom == "" {
		return []time.Time{fallback(time.Now())}, nil
	}

	from, err := time.Parse(dateLayout, passFrom)
	if err != nil {
		return nil, fmt.Errorf("invalid --from: %w", err)
	}
	to := jobs.Today(time.Now())
	if passTo != "" {
		if to, err = time.Parse(dateLayout, passTo); err != nil {
			return nil, fmt.Errorf("invalid --to: %w", err)
		}
	}

	if quarterEnds {
		dates := brain.QuarterEnds(from, to)
		if len(dates) == 0 {
			return nil, fmt.Errorf("no quarter end between %s and %s", passFrom, to.Format(dateLayout))
		}
		return dates, nil
	}
	return brain.DateRange(from, to, passWeekdays)
}

func parseStages(list string) ([]brain.Stage, error) {
	stages := make([]brain.Stage, 0, 2)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		stage, err := brain.ParseStage(part)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("--stages is empty")
	}
	return stages, nil
}

func executeRun(title string, dates []time.Time, stages []brain.Stage) error {
	if len(dates) == 0 {
		return fmt.Errorf("no dates to evaluate")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Ctrl+C: 진행 중인 종목까지만 처리하고 중단
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runConfig := brain.RunConfig{
		RunID:  brain.GenerateRunID(),
		Dates:  dates,
		Stages: stages,
	}

	PrintRunHeader(RunHeader{
		Title:    title,
		RunID:    runConfig.RunID,
		Strategy: fmt.Sprintf("%s v%s", a.policy.Meta.StrategyID, a.policy.Meta.Version),
		Dates:    dates,
		Stages:   stages,
	})

	result, runErr := a.runner.Run(ctx, runConfig)
	if result != nil && len(result.Passes) > 0 {
		PrintPassTable(result.Passes)
	}
	if result != nil {
		PrintRunCompletion(result)
	}

	stats := a.financial.CacheStats()
	a.log.WithFields(map[string]interface{}{
		"entries": stats.Entries,
		"hits":    stats.Hits,
		"misses":  stats.Misses,
	}).Debug("Aggregate cache stats")

	if runErr != nil {
		return fmt.Errorf("run %s: %w", runConfig.RunID, runErr)
	}
	return nil
}

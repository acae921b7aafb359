package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/miller/backend/internal/strategyconfig"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "결과 테이블 상태 조회",
	Long: `선정/매매 신호 테이블의 건수와 최신 날짜를 표시합니다.

표시 정보:
- Policy: 정책 ID, 버전, 해시
- Selections: 선정 건수, 최신 선정일, 최신 선정 종목 수
- Signals: 신호 건수, 최신 신호일, 매수/매도 수

Example:
  go run ./cmd/quant status
  go run ./cmd/quant status --watch 10s`,
	RunE: runStatus,
}

var (
	// Status flags
	statusWatch time.Duration
)

func init() {
	rootCmd.AddCommand(statusCmd)

	// Flags
	statusCmd.Flags().DurationVar(&statusWatch, "watch", 0, "갱신 간격 (0 = 한 번만 표시)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := displayStatus(a); err != nil {
		return err
	}
	if statusWatch <= 0 {
		return nil
	}

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(statusWatch)
	defer ticker.Stop()

	for {
		select {
		case <-sigChan:
			fmt.Println("\n✅ Status monitor stopped")
			return nil

		case <-ticker.C:
			// Clear screen (ANSI escape code)
			fmt.Print("\033[H\033[2J")
			fmt.Printf("Refresh: %v | Last update: %s\n", statusWatch, time.Now().Format("15:04:05"))

			if err := displayStatus(a); err != nil {
				a.log.WithError(err).Warn("Status refresh failed")
			}
		}
	}
}

func displayStatus(a *app) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	counts, err := a.results.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count results: %w", err)
	}

	hash, err := strategyconfig.Hash(a.policy)
	if err != nil {
		return fmt.Errorf("hash policy: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Miller Status ===")
	fmt.Println()

	fmt.Println("📋 Policy")
	PrintSeparator()
	PrintKeyValue("Strategy", a.policy.Meta.StrategyID, 14)
	PrintKeyValue("Version", a.policy.Meta.Version, 14)
	PrintKeyValue("Hash", hash[:12], 14)
	fmt.Println()

	fmt.Println("📊 Selections")
	PrintSeparator()
	PrintKeyValue("Total", fmt.Sprint(counts.Selections), 14)
	if counts.LatestSelection != nil {
		selected, err := a.results.ListSelections(ctx, *counts.LatestSelection)
		if err != nil {
			return fmt.Errorf("list selections: %w", err)
		}
		PrintKeyValue("Latest date", counts.LatestSelection.Format(dateLayout), 14)
		PrintKeyValue("Latest count", fmt.Sprint(len(selected)), 14)
	} else {
		PrintInfo("No selections stored yet")
	}
	fmt.Println()

	fmt.Println("📈 Trade Signals")
	PrintSeparator()
	PrintKeyValue("Total", fmt.Sprint(counts.TradeSignals), 14)
	if counts.LatestSignal != nil {
		signals, err := a.results.ListTradeSignals(ctx, *counts.LatestSignal)
		if err != nil {
			return fmt.Errorf("list trade signals: %w", err)
		}
		buys := 0
		for _, s := range signals {
			if s.IsBuy() {
				buys++
			}
		}
		PrintKeyValue("Latest date", counts.LatestSignal.Format(dateLayout), 14)
		PrintKeyValue("Buy (1)", fmt.Sprint(buys), 14)
		PrintKeyValue("Sell (0)", fmt.Sprint(len(signals)-buys), 14)
	} else {
		PrintInfo("No trade signals stored yet")
	}
	fmt.Println()

	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	policyFile string
	env        string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Miller - 분기 재무 기반 가치 스크린",
	Long: `Miller Value Screen CLI

분기 재무제표로 종목을 선정(7개 조건)하고
선정 종목에 대해 매수/매도 신호(5개 조건)를 기록합니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant migrate
  go run ./cmd/quant select --date 2020-12-31
  go run ./cmd/quant buy --date 2021-01-04
  go run ./cmd/quant run --from 2021-01-01 --to 2021-03-31 --weekdays
  go run ./cmd/quant scheduler start
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "strategy policy YAML (default: STRATEGY_CONFIG or built-in)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

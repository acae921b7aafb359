package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/miller/backend/migrations"
	"github.com/wonny/miller/backend/pkg/database"
	"github.com/wonny/miller/backend/pkg/logger"
)

// migrateCmd applies the schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "스키마 생성",
	Long: `재무/시세 원천 테이블과 결과 테이블(sel_stocks, trade_stocks)을 생성합니다.
모든 문장이 IF NOT EXISTS이므로 반복 실행해도 안전합니다.

Example:
  go run ./cmd/quant migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	applied, err := migrations.Apply(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	for _, name := range applied {
		log.WithField("file", name).Info("Migration applied")
	}
	PrintSuccess(fmt.Sprintf("%d migration(s) applied", len(applied)))
	return nil
}

package s1_universe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/miller/backend/migrations"
	"github.com/wonny/miller/backend/pkg/config"
	"github.com/wonny/miller/backend/pkg/database"
)

const testCode = "ZZ_MILLER_U"

func TestListEntitiesQuery_ExcludesEmptyCodes(t *testing.T) {
	assert.Contains(t, listEntitiesQuery, "stkcd <> ''")
}

func TestRepository_ListEntities(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)
	db, err := database.New(cfg)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	ctx := context.Background()
	_, err = migrations.Apply(ctx, db.Pool)
	require.NoError(t, err)

	cleanup := func() {
		_, _ = db.Pool.Exec(ctx, `DELETE FROM data.balance WHERE stkcd IN ($1, '')`, testCode)
	}
	cleanup()
	t.Cleanup(cleanup)

	accper := time.Date(1900, 12, 31, 0, 0, 0, 0, time.UTC)
	for _, code := range []string{testCode, testCode, ""} {
		_, err := db.Pool.Exec(ctx, `INSERT INTO data.balance (stkcd, accper) VALUES ($1, $2) ON CONFLICT DO NOTHING`, code, accper)
		require.NoError(t, err)
	}

	codes, err := NewRepository(db.Pool).ListEntities(ctx)
	require.NoError(t, err)
	assert.Contains(t, codes, testCode)
	assert.NotContains(t, codes, "")

	// 중복 없음
	seen := 0
	for _, c := range codes {
		if c == testCode {
			seen++
		}
	}
	assert.Equal(t, 1, seen)
}

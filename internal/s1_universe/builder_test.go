package s1_universe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/logger"
)

type fakeEntities struct {
	codes []string
	err   error
}

func (f fakeEntities) ListEntities(context.Context) ([]string, error) {
	return f.codes, f.err
}

type fakeSelected struct {
	codes  []string
	source time.Time
	err    error
	asked  time.Time
}

func (f *fakeSelected) SelectedAsOf(_ context.Context, date time.Time) ([]string, time.Time, error) {
	f.asked = date
	return f.codes, f.source, f.err
}

var testDate = time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC)

func TestBuilder_SelectionUniverse(t *testing.T) {
	entities := fakeEntities{codes: []string{"600519", "000001", "200002", "000001", "900901", "300750"}}
	b, err := NewBuilder(entities, &fakeSelected{}, strategyconfig.Universe{
		ExcludePattern: "^(200|900)",
		ExcludeCodes:   []string{"300750"},
	}, logger.Nop())
	require.NoError(t, err)

	universe, err := b.SelectionUniverse(context.Background(), testDate)
	require.NoError(t, err)

	assert.Equal(t, testDate, universe.Date)
	assert.Equal(t, []string{"000001", "600519"}, universe.Stocks)
	assert.Equal(t, 2, universe.Count())
	assert.Len(t, universe.Excluded, 3)
	assert.Equal(t, "제외 종목", universe.Excluded["300750"])
	assert.Contains(t, universe.Stocks, "600519")
	assert.NotContains(t, universe.Stocks, "200002")
}

func TestBuilder_SelectionUniverseError(t *testing.T) {
	b, err := NewBuilder(fakeEntities{err: errors.New("boom")}, &fakeSelected{}, strategyconfig.Universe{}, logger.Nop())
	require.NoError(t, err)

	_, err = b.SelectionUniverse(context.Background(), testDate)
	assert.Error(t, err)
}

func TestBuilder_BuyUniverse(t *testing.T) {
	source := time.Date(2020, 10, 1, 0, 0, 0, 0, time.UTC)
	selected := &fakeSelected{codes: []string{"000001"}, source: source}

	b, err := NewBuilder(fakeEntities{}, selected, strategyconfig.Universe{}, logger.Nop())
	require.NoError(t, err)

	universe, err := b.BuyUniverse(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, testDate, selected.asked)
	assert.Equal(t, source, universe.SourceDate)
	assert.Equal(t, []string{"000001"}, universe.Stocks)

	// 선정 이력 없음 → 빈 유니버스
	empty := &fakeSelected{codes: []string{}}
	b, err = NewBuilder(fakeEntities{}, empty, strategyconfig.Universe{}, logger.Nop())
	require.NoError(t, err)
	universe, err = b.BuyUniverse(context.Background(), testDate)
	require.NoError(t, err)
	assert.Equal(t, 0, universe.Count())
	assert.True(t, universe.SourceDate.IsZero())
}

func TestNewBuilder_BadPattern(t *testing.T) {
	_, err := NewBuilder(fakeEntities{}, &fakeSelected{}, strategyconfig.Universe{ExcludePattern: "(["}, logger.Nop())
	assert.Error(t, err)
}

func TestBuilder_checkExclusion(t *testing.T) {
	b, err := NewBuilder(fakeEntities{}, &fakeSelected{}, strategyconfig.Universe{
		ExcludePattern: "^9",
		ExcludeCodes:   []string{"000002"},
	}, logger.Nop())
	require.NoError(t, err)

	tests := []struct {
		code string
		want string
	}{
		{"000001", ""},
		{"000002", "제외 종목"},
		{"900901", "제외 패턴 (^9)"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, b.checkExclusion(tt.code))
		})
	}
}

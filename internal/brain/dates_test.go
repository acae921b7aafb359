package brain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestParseDates(t *testing.T) {
	dates, err := ParseDates("2020-12-31, 2020-09-30,2020-12-31,")
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d(2020, 9, 30), d(2020, 12, 31)}, dates)

	_, err = ParseDates("2020/12/31")
	assert.Error(t, err)

	dates, err = ParseDates("")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestDateRange(t *testing.T) {
	// 2021-01-01 금요일
	all, err := DateRange(d(2021, 1, 1), d(2021, 1, 4), false)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	weekdays, err := DateRange(d(2021, 1, 1), d(2021, 1, 4), true)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{d(2021, 1, 1), d(2021, 1, 4)}, weekdays)

	_, err = DateRange(d(2021, 1, 4), d(2021, 1, 1), false)
	assert.Error(t, err)
}

func TestQuarterEnds(t *testing.T) {
	got := QuarterEnds(d(2020, 2, 15), d(2020, 12, 31))
	assert.Equal(t, []time.Time{d(2020, 3, 31), d(2020, 6, 30), d(2020, 9, 30), d(2020, 12, 31)}, got)

	assert.Empty(t, QuarterEnds(d(2020, 4, 1), d(2020, 6, 29)))
}

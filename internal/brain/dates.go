package brain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDates parses a comma-separated list of YYYY-MM-DD dates,
// sorted and de-duplicated
func ParseDates(list string) ([]time.Time, error) {
	seen := make(map[time.Time]bool)
	dates := make([]time.Time, 0)

	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := time.Parse(dateLayout, part)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q (YYYY-MM-DD): %w", part, err)
		}
		if !seen[d] {
			seen[d] = true
			dates = append(dates, d)
		}
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// DateRange returns every day from..to inclusive; weekdaysOnly drops
// Saturdays and Sundays
func DateRange(from, to time.Time, weekdaysOnly bool) ([]time.Time, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s before start %s", to.Format(dateLayout), from.Format(dateLayout))
	}

	dates := make([]time.Time, 0)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if weekdaysOnly && (d.Weekday() == time.Saturday || d.Weekday() == time.Sunday) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// QuarterEnds returns the calendar quarter ends within from..to inclusive
func QuarterEnds(from, to time.Time) []time.Time {
	dates := make([]time.Time, 0)
	// 시작 분기의 첫날부터
	start := time.Date(from.Year(), ((from.Month()-1)/3)*3+1, 1, 0, 0, 0, 0, from.Location())
	for q := start; !q.After(to); q = q.AddDate(0, 3, 0) {
		end := q.AddDate(0, 3, -1)
		if !end.Before(from) && !end.After(to) {
			dates = append(dates, end)
		}
	}
	return dates
}

package s1_universe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/logger"
)

// SelectedSource returns the selection universe persisted as of a date
type SelectedSource interface {
	SelectedAsOf(ctx context.Context, date time.Time) ([]string, time.Time, error)
}

// Builder constructs the entity set for each runner pass
type Builder struct {
	entities contracts.UniverseSource
	selected SelectedSource
	config   strategyconfig.Universe
	exclude  *regexp.Regexp
	logger   *logger.Logger
}

// NewBuilder creates a new Universe Builder
func NewBuilder(entities contracts.UniverseSource, selected SelectedSource, config strategyconfig.Universe, log *logger.Logger) (*Builder, error) {
	b := &Builder{
		entities: entities,
		selected: selected,
		config:   config,
		logger:   log,
	}

	if config.ExcludePattern != "" {
		re, err := regexp.Compile(config.ExcludePattern)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern: %w", err)
		}
		b.exclude = re
	}

	return b, nil
}

// SelectionUniverse returns every known entity, minus configured exclusions
// ⭐ SSOT: S1 → 선정 단계 유니버스
func (b *Builder) SelectionUniverse(ctx context.Context, date time.Time) (*contracts.Universe, error) {
	codes, err := b.entities.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	universe := &contracts.Universe{
		Date:   date,
		Stocks: make([]string, 0, len(codes)),
	}

	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true

		if reason := b.checkExclusion(code); reason != "" {
			universe.Exclude(code, reason)
			continue
		}
		universe.Stocks = append(universe.Stocks, code)
	}
	sort.Strings(universe.Stocks)

	b.logger.WithFields(map[string]interface{}{
		"date":     date.Format("2006-01-02"),
		"stocks":   universe.Count(),
		"excluded": len(universe.Excluded),
	}).Info("Selection universe built")

	return universe, nil
}

// BuyUniverse re-reads the selection universe from the store as of date.
// Results from the same process are never reused.
// ⭐ SSOT: S1 → 매수 단계 유니버스
func (b *Builder) BuyUniverse(ctx context.Context, date time.Time) (*contracts.Universe, error) {
	codes, source, err := b.selected.SelectedAsOf(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("selected as of %s: %w", date.Format("2006-01-02"), err)
	}

	universe := &contracts.Universe{
		Date:       date,
		SourceDate: source,
		Stocks:     codes,
	}

	fields := map[string]interface{}{
		"date":   date.Format("2006-01-02"),
		"stocks": universe.Count(),
	}
	if source.IsZero() {
		b.logger.WithFields(fields).Warn("No selection on or before date")
	} else {
		fields["source_date"] = source.Format("2006-01-02")
		b.logger.WithFields(fields).Info("Buy universe loaded")
	}

	return universe, nil
}

// checkExclusion returns the reason a code is excluded, or "" if kept
func (b *Builder) checkExclusion(code string) string {
	for _, excluded := range b.config.ExcludeCodes {
		if code == excluded {
			return "제외 종목"
		}
	}

	if b.exclude != nil && b.exclude.MatchString(code) {
		return fmt.Sprintf("제외 패턴 (%s)", b.config.ExcludePattern)
	}

	return "" // 통과
}

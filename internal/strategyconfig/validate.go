package strategyconfig

import (
	"fmt"
	"regexp"

	"github.com/robfig/cron/v3"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === Rates ===
	if err := validateRate(cfg.Rates.Deposit, "rates.deposit"); err != nil {
		return err
	}
	if cfg.Rates.Deposit == 0 {
		return ValidationError{"rates.deposit", "must be > 0 (used as 1/deposit)"}
	}
	if err := validateRate(cfg.Rates.Discount, "rates.discount"); err != nil {
		return err
	}
	if cfg.Rates.DCFGrowth < -1 || cfg.Rates.DCFGrowth > 1 {
		return ValidationError{"rates.dcf_growth", "must be in range [-1, 1]"}
	}

	// === Selection ===
	s := cfg.Selection
	if s.RecentBlock <= 0 {
		return ValidationError{"selection.recent_block", "must be > 0"}
	}
	if s.PriorBlock <= s.RecentBlock {
		return ValidationError{"selection.prior_block", "must be > recent_block"}
	}
	if s.WindowSize < s.PriorBlock {
		return ValidationError{"selection.window_size", fmt.Sprintf("must be >= prior_block (%d)", s.PriorBlock)}
	}

	// === Buy ===
	b := cfg.Buy
	if b.PBMultiplier <= 0 {
		return ValidationError{"buy.pb_multiplier", "must be > 0"}
	}
	if b.TTMQuarters <= 0 {
		return ValidationError{"buy.ttm_quarters", "must be > 0"}
	}
	if b.DCFYears <= 0 {
		return ValidationError{"buy.dcf_years", "must be > 0"}
	}
	if b.DCFCapThreshold <= 0 {
		return ValidationError{"buy.dcf_cap_threshold", "must be > 0"}
	}
	// 2 = 보류 구간, buy/sell 구간이 겹치면 안 됨
	if b.SellThreshold < 0 || b.BuyThreshold > 5 || b.SellThreshold >= b.BuyThreshold {
		return ValidationError{"buy", "must satisfy 0 <= sell_threshold < buy_threshold <= 5"}
	}

	// === Universe ===
	if cfg.Universe.ExcludePattern != "" {
		if _, err := regexp.Compile(cfg.Universe.ExcludePattern); err != nil {
			return ValidationError{"universe.exclude_pattern", err.Error()}
		}
	}

	// === Schedule ===
	if err := validateCron(cfg.Schedule.SelectionCron, "schedule.selection_cron"); err != nil {
		return err
	}
	if err := validateCron(cfg.Schedule.BuyCron, "schedule.buy_cron"); err != nil {
		return err
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.Buy.BuyThreshold-cfg.Buy.SellThreshold > 2 {
		warnings = append(warnings, Warning{
			Code:    "WIDE_HOLD_BAND",
			Message: "보류 구간이 2개 점수 이상: 신호가 드물게 기록됨",
		})
	}

	if cfg.Rates.Discount <= cfg.Rates.DCFGrowth {
		warnings = append(warnings, Warning{
			Code:    "GROWTH_GE_DISCOUNT",
			Message: "DCF 성장률 >= 할인율: 현금흐름이 할인되지 않음",
		})
	}

	return warnings
}

// validateRate는 금리 값이 0~1 범위인지 검증
func validateRate(rate float64, field string) error {
	if rate < 0 || rate > 1 {
		return ValidationError{field, "must be in range [0, 1]"}
	}
	return nil
}

func validateCron(spec, field string) error {
	if spec == "" {
		return nil
	}
	if _, err := cronParser.Parse(spec); err != nil {
		return ValidationError{field, err.Error()}
	}
	return nil
}

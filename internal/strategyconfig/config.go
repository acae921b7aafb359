package strategyconfig

// Config는 Miller 가치 스크린 정책 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	Rates     Rates     `yaml:"rates" json:"rates"`
	Selection Selection `yaml:"selection" json:"selection"`
	Buy       Buy       `yaml:"buy" json:"buy"`
	Universe  Universe  `yaml:"universe" json:"universe"`
	Schedule  Schedule  `yaml:"schedule" json:"schedule"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// Rates 정책 상수 (예금금리, 할인율, DCF 성장률)
type Rates struct {
	Deposit   float64 `yaml:"deposit" json:"deposit"`
	Discount  float64 `yaml:"discount" json:"discount"`
	DCFGrowth float64 `yaml:"dcf_growth" json:"dcf_growth"`
}

// Selection 1단계: 7개 조건
type Selection struct {
	WindowSize  int `yaml:"window_size" json:"window_size"`   // 분기 수 (기본 12)
	RecentBlock int `yaml:"recent_block" json:"recent_block"` // 최근 블록 (기본 4)
	PriorBlock  int `yaml:"prior_block" json:"prior_block"`   // 5~8분기 전 블록 끝 (기본 8)
}

// Buy 2단계: 5개 조건 + 행동 규칙
type Buy struct {
	PBMultiplier    float64 `yaml:"pb_multiplier" json:"pb_multiplier"`
	TTMQuarters     int     `yaml:"ttm_quarters" json:"ttm_quarters"`
	DCFYears        int     `yaml:"dcf_years" json:"dcf_years"`
	DCFCapThreshold float64 `yaml:"dcf_cap_threshold" json:"dcf_cap_threshold"` // 시총/DCF < 1.0
	BuyThreshold    int     `yaml:"buy_threshold" json:"buy_threshold"`         // >= 3 → "1"
	SellThreshold   int     `yaml:"sell_threshold" json:"sell_threshold"`       // <= 1 → "0"
}

// Universe 선정 대상 종목 필터
type Universe struct {
	ExcludePattern string   `yaml:"exclude_pattern" json:"exclude_pattern"` // 종목코드 정규식
	ExcludeCodes   []string `yaml:"exclude_codes" json:"exclude_codes"`
}

// Schedule 배치 주기 (cron, 초 단위 포함)
type Schedule struct {
	SelectionCron string `yaml:"selection_cron" json:"selection_cron"`
	BuyCron       string `yaml:"buy_cron" json:"buy_cron"`
}

// Default returns the policy the screen was designed with
func Default() *Config {
	return &Config{
		Meta: Meta{
			StrategyID: "miller_value",
			Version:    "1",
		},
		Rates: Rates{
			Deposit:   0.015,
			Discount:  0.09,
			DCFGrowth: 0,
		},
		Selection: Selection{
			WindowSize:  12,
			RecentBlock: 4,
			PriorBlock:  8,
		},
		Buy: Buy{
			PBMultiplier:    2.0,
			TTMQuarters:     4,
			DCFYears:        10,
			DCFCapThreshold: 1.0,
			BuyThreshold:    3,
			SellThreshold:   1,
		},
		Schedule: Schedule{
			SelectionCron: "0 0 18 1 1,4,7,10 *", // 분기 첫날 18:00
			BuyCron:       "0 30 18 * * 1-5",    // 평일 18:30
		},
	}
}

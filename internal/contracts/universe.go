package contracts

import "time"

// Universe is the entity set one runner pass iterates over
// ⭐ SSOT: 선정 유니버스는 저장소에서 재조회 (메모리 결과 재사용 금지)
type Universe struct {
	Date       time.Time         `json:"date"`                  // 평가일
	SourceDate time.Time         `json:"source_date,omitempty"` // 선정 기준일 (buy pass)
	Stocks     []string          `json:"stocks"`
	Excluded   map[string]string `json:"excluded,omitempty"` // 탈락 종목: 실패 조건
}

// Exclude records a stock that failed, with its reason
func (u *Universe) Exclude(code, reason string) {
	if u.Excluded == nil {
		u.Excluded = make(map[string]string)
	}
	u.Excluded[code] = reason
}

// Count returns the number of stocks
func (u *Universe) Count() int {
	return len(u.Stocks)
}

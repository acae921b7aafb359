package s0_data

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/miller/backend/internal/contracts"
	"github.com/wonny/miller/backend/pkg/num"
	"github.com/wonny/miller/backend/pkg/redis"
)

// L2Store is the shared cache tier; *redis.Cache satisfies it
type L2Store interface {
	Enabled() bool
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// VersionFunc fingerprints the source rows an aggregate as of asOf reads
type VersionFunc func(ctx context.Context, asOf time.Time) (string, error)

// AggregateCache memoizes market aggregates by (name, as-of date) for the
// life of the process. An optional Redis tier shares values across processes;
// its keys carry a data version so rows loaded later are never masked.
// ⭐ SSOT: 시장 평균 캐시는 여기서만 (실행 중 무효화 없음)
type AggregateCache struct {
	mu       sync.RWMutex
	entries  map[string]num.Num
	versions map[string]string // asOf → 데이터 버전 (프로세스 내 고정)
	group    singleflight.Group

	l2      L2Store
	l2TTL   time.Duration
	version VersionFunc

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache usage
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewAggregateCache creates an in-process cache; l2 may be nil.
// The L2 tier stays unused until SetVersion is called.
func NewAggregateCache(l2 L2Store, l2TTL time.Duration) *AggregateCache {
	if l2TTL <= 0 {
		l2TTL = redis.TTLDaily
	}
	return &AggregateCache{
		entries:  make(map[string]num.Num),
		versions: make(map[string]string),
		l2:       l2,
		l2TTL:    l2TTL,
	}
}

// SetVersion installs the data fingerprint that scopes L2 keys
func (c *AggregateCache) SetVersion(fn VersionFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = fn
}

func cacheKey(name contracts.Aggregate, asOf time.Time) string {
	return redis.AggregateKey(string(name), asOf)
}

// Get returns a memoized value from the in-process tier
func (c *AggregateCache) Get(name contracts.Aggregate, asOf time.Time) (num.Num, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[cacheKey(name, asOf)]
	return v, ok
}

func (c *AggregateCache) put(key string, v num.Num) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; !exists {
		c.entries[key] = v
	}
}

// GetOrCompute returns the memoized value or runs compute once per key.
// compute errors are returned and not memoized.
func (c *AggregateCache) GetOrCompute(
	ctx context.Context,
	name contracts.Aggregate,
	asOf time.Time,
	compute func(ctx context.Context) (num.Num, error),
) (num.Num, error) {
	if v, ok := c.Get(name, asOf); ok {
		c.hits.Add(1)
		return v, nil
	}

	key := cacheKey(name, asOf)
	result, err, _ := c.group.Do(key, func() (interface{}, error) {
		// 동시 호출 대기 후 재확인
		if v, ok := c.Get(name, asOf); ok {
			return v, nil
		}
		c.misses.Add(1)

		l2Key, useL2 := c.l2Key(ctx, key, asOf)
		if useL2 {
			if v, ok := c.fromL2(ctx, l2Key); ok {
				c.put(key, v)
				return v, nil
			}
		}

		v, err := compute(ctx)
		if err != nil {
			return num.Absent, err
		}
		c.put(key, v)
		if useL2 {
			c.toL2(ctx, l2Key, v)
		}
		return v, nil
	})
	if err != nil {
		return num.Absent, err
	}
	return result.(num.Num), nil
}

// l2Key appends the data version for asOf; false means skip L2 entirely
func (c *AggregateCache) l2Key(ctx context.Context, key string, asOf time.Time) (string, bool) {
	if c.l2 == nil || !c.l2.Enabled() {
		return "", false
	}

	date := asOf.Format("2006-01-02")
	c.mu.RLock()
	fn := c.version
	version, ok := c.versions[date]
	c.mu.RUnlock()
	if fn == nil {
		return "", false
	}

	if !ok {
		var err error
		version, err = fn(ctx, asOf)
		if err != nil {
			return "", false
		}
		c.mu.Lock()
		c.versions[date] = version
		c.mu.Unlock()
	}

	return fmt.Sprintf("%s:v:%s", key, version), true
}

func (c *AggregateCache) fromL2(ctx context.Context, key string) (num.Num, bool) {
	var f float64
	found, err := c.l2.Get(ctx, key, &f)
	if err != nil || !found {
		return num.Absent, false
	}
	return num.Of(f), true
}

// L2에는 유효값만 저장 (NaN은 JSON 불가)
func (c *AggregateCache) toL2(ctx context.Context, key string, v num.Num) {
	f, ok := v.Value()
	if !ok {
		return
	}
	_ = c.l2.Set(ctx, key, f, c.l2TTL)
}

// Stats returns the current cache statistics
func (c *AggregateCache) Stats() CacheStats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return CacheStats{
		Entries: n,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

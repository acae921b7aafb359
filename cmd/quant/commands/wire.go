package commands

import (
	"fmt"

	"github.com/wonny/miller/backend/internal/brain"
	"github.com/wonny/miller/backend/internal/s0_data"
	"github.com/wonny/miller/backend/internal/s1_universe"
	"github.com/wonny/miller/backend/internal/selection"
	"github.com/wonny/miller/backend/internal/strategyconfig"
	"github.com/wonny/miller/backend/pkg/config"
	"github.com/wonny/miller/backend/pkg/database"
	"github.com/wonny/miller/backend/pkg/logger"
	"github.com/wonny/miller/backend/pkg/redis"
)

// app bundles the dependencies every strategy command needs
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	policy    *strategyconfig.Config
	financial *s0_data.FinancialRepository
	results   *selection.Repository
	runner    *brain.Runner
}

// loadConfig reads env config and applies global flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if env != "" {
		cfg.Env = env
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if policyFile != "" {
		cfg.Strategy.ConfigPath = policyFile
	}
	return cfg, nil
}

// loadPolicy loads and validates the strategy policy
func loadPolicy(cfg *config.Config, log *logger.Logger) (*strategyconfig.Config, error) {
	policy, err := strategyconfig.LoadOrDefault(cfg.Strategy.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	if err := strategyconfig.Validate(policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	for _, w := range strategyconfig.Warn(policy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return policy, nil
}

// newApp wires config → logger → DB → cache → repositories → runner.
// The database must be reachable; Redis is optional.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg)

	policy, err := loadPolicy(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		// L2 캐시 없이 계속 진행
		log.WithError(err).Warn("Redis unavailable, aggregate cache is in-process only")
		rdb = redis.Disabled()
	}

	cache := s0_data.NewAggregateCache(redis.NewCache(rdb, "miller"), cfg.Strategy.AggregateCacheTTL)
	financial := s0_data.NewFinancialRepository(db.Pool, cache, policy, log)
	cache.SetVersion(financial.DataVersion)
	results := selection.NewRepository(db.Pool)

	universe, err := s1_universe.NewBuilder(s1_universe.NewRepository(db.Pool), results, policy.Universe, log)
	if err != nil {
		db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("universe builder: %w", err)
	}

	runner := brain.NewRunner(financial, selection.NewStrategy(policy, log), universe, results, log)
	runner.SetRateLimit(cfg.Strategy.RateLimit)

	log.WithFields(map[string]interface{}{
		"env":         cfg.Env,
		"strategy_id": policy.Meta.StrategyID,
		"version":     policy.Meta.Version,
		"redis":       rdb.Enabled(),
	}).Debug("Dependencies initialized")

	return &app{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     rdb,
		policy:    policy,
		financial: financial,
		results:   results,
		runner:    runner,
	}, nil
}

// Close releases the DB pool and Redis client
func (a *app) Close() {
	a.db.Close()
	_ = a.redis.Close()
}

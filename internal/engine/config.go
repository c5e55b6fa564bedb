package engine

import (
	"time"

	"github.com/RafiulM/business-finance-tracker-ai-sub001/pkg/errors"
)

// Config controls the categorization and insight orchestrators.
type Config struct {
	// AITimeout is the hard deadline for a single AI categorization call,
	// including transport retries.
	AITimeout time.Duration `json:"ai_timeout"`

	// AIMaxRetries bounds transport-level retries inside the AI client.
	AIMaxRetries int `json:"ai_max_retries"`

	// CacheTTL is how long a categorization result stays valid.
	CacheTTL time.Duration `json:"cache_ttl"`

	// CacheSweepInterval is how often expired entries are purged.
	CacheSweepInterval time.Duration `json:"cache_sweep_interval"`

	// MaxTransactionsPerInsightCall caps the batch size handed to the
	// insight generators.
	MaxTransactionsPerInsightCall int `json:"max_transactions_per_insight_call"`

	// AnomalySigmaThreshold is the z-score multiplier above which an
	// amount counts as an outlier.
	AnomalySigmaThreshold float64 `json:"anomaly_sigma_threshold"`

	// MajorCategoryPercentThreshold is the share of total expense above
	// which a single category triggers a spending-trend insight.
	MajorCategoryPercentThreshold float64 `json:"major_category_percent_threshold"`
}

// DefaultConfig returns the standard orchestrator settings.
func DefaultConfig() *Config {
	return &Config{
		AITimeout:                     30 * time.Second,
		AIMaxRetries:                  3,
		CacheTTL:                      5 * time.Minute,
		CacheSweepInterval:            10 * time.Minute,
		MaxTransactionsPerInsightCall: 1000,
		AnomalySigmaThreshold:         2.0,
		MajorCategoryPercentThreshold: 30,
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.AITimeout <= 0 {
		return errors.ConfigError("ai_timeout", c.AITimeout, "must be positive")
	}
	if c.AIMaxRetries < 1 {
		return errors.ConfigError("ai_max_retries", c.AIMaxRetries, "must be at least 1")
	}
	if c.CacheTTL <= 0 {
		return errors.ConfigError("cache_ttl", c.CacheTTL, "must be positive")
	}
	if c.CacheSweepInterval <= 0 {
		return errors.ConfigError("cache_sweep_interval", c.CacheSweepInterval, "must be positive")
	}
	if c.MaxTransactionsPerInsightCall < 1 {
		return errors.ConfigError("max_transactions_per_insight_call", c.MaxTransactionsPerInsightCall, "must be at least 1")
	}
	if c.AnomalySigmaThreshold <= 0 {
		return errors.ConfigError("anomaly_sigma_threshold", c.AnomalySigmaThreshold, "must be positive")
	}
	if c.MajorCategoryPercentThreshold <= 0 || c.MajorCategoryPercentThreshold > 100 {
		return errors.ConfigError("major_category_percent_threshold", c.MajorCategoryPercentThreshold, "must be in (0, 100]")
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

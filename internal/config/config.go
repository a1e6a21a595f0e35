package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// DATABASE_URL is optional: when empty the dedup audit ledger is skipped.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`
	DBMinConns  int32  `envconfig:"COLLATE_DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"COLLATE_DB_MAX_CONNS" default:"8"`

	JaccardWeight      float64 `envconfig:"DEDUP_JACCARD_WEIGHT" default:"0.4"`
	LevenshteinWeight  float64 `envconfig:"DEDUP_LEVENSHTEIN_WEIGHT" default:"0.2"`
	SemanticWeight     float64 `envconfig:"DEDUP_SEMANTIC_WEIGHT" default:"0.4"`
	ThresholdNear      float64 `envconfig:"DEDUP_THRESHOLD_NEAR" default:"0.85"`
	ThresholdSentence  float64 `envconfig:"DEDUP_THRESHOLD_SENTENCE" default:"0.85"`
	ComplementaryMin   float64 `envconfig:"DEDUP_COMPLEMENTARY_MIN" default:"0.30"`
	ComplementaryMax   float64 `envconfig:"DEDUP_COMPLEMENTARY_MAX" default:"0.60"`
	PreserveChronology bool    `envconfig:"DEDUP_PRESERVE_CHRONOLOGY" default:"true"`
	MergeComplementary bool    `envconfig:"DEDUP_MERGE_COMPLEMENTARY" default:"true"`

	ServeHost            string `envconfig:"COLLATE_SERVE_HOST" default:"127.0.0.1"`
	ServePort            int    `envconfig:"COLLATE_SERVE_PORT" default:"8802"`
	APIUser              string `envconfig:"COLLATE_API_USER" default:""`
	APIPasswordHash      string `envconfig:"COLLATE_API_PASSWORD_HASH" default:""`
	ServeShutdownSeconds int    `envconfig:"COLLATE_SERVE_SHUTDOWN_SECONDS" default:"10"`
}

const weightSumEpsilon = 1e-6

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.DBMinConns < 0 {
		return fmt.Errorf("COLLATE_DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("COLLATE_DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("COLLATE_DB_MIN_CONNS (%d) cannot exceed COLLATE_DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	sum := c.JaccardWeight + c.LevenshteinWeight + c.SemanticWeight
	if math.Abs(sum-1.0) > weightSumEpsilon {
		return fmt.Errorf("similarity weights must sum to 1.0, got %.6f", sum)
	}
	for name, value := range map[string]float64{
		"DEDUP_JACCARD_WEIGHT":     c.JaccardWeight,
		"DEDUP_LEVENSHTEIN_WEIGHT": c.LevenshteinWeight,
		"DEDUP_SEMANTIC_WEIGHT":    c.SemanticWeight,
		"DEDUP_THRESHOLD_NEAR":     c.ThresholdNear,
		"DEDUP_THRESHOLD_SENTENCE": c.ThresholdSentence,
		"DEDUP_COMPLEMENTARY_MIN":  c.ComplementaryMin,
		"DEDUP_COMPLEMENTARY_MAX":  c.ComplementaryMax,
	} {
		if value < 0 || value > 1 {
			return fmt.Errorf("%s must be within [0,1], got %.6f", name, value)
		}
	}
	if c.ComplementaryMin >= c.ComplementaryMax {
		return fmt.Errorf("DEDUP_COMPLEMENTARY_MIN (%.2f) must be below DEDUP_COMPLEMENTARY_MAX (%.2f)", c.ComplementaryMin, c.ComplementaryMax)
	}

	if c.ServePort < 1 || c.ServePort > 65535 {
		return fmt.Errorf("COLLATE_SERVE_PORT must be a valid TCP port")
	}
	if c.ServeShutdownSeconds < 1 {
		return fmt.Errorf("COLLATE_SERVE_SHUTDOWN_SECONDS must be >= 1")
	}
	if strings.TrimSpace(c.APIPasswordHash) != "" && strings.TrimSpace(c.APIUser) == "" {
		return fmt.Errorf("COLLATE_API_USER is required when COLLATE_API_PASSWORD_HASH is set")
	}
	return nil
}

// AuditEnabled reports whether dedup runs should be recorded in Postgres.
func (c *Config) AuditEnabled() bool {
	return c != nil && strings.TrimSpace(c.DatabaseURL) != ""
}

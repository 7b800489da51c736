// Package config loads the migration run's YAML configuration through
// Viper, expanding ${VAR} environment references the way the original
// tool's loader did, before Viper ever sees the file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/spf13/viper"

	"dbmig/internal/dberrors"
)

// EngineConfig holds one side (source or target) of a migration's
// connection settings.
type EngineConfig struct {
	Engine   string `mapstructure:"engine"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Schema   string `mapstructure:"schema"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DSN      string `mapstructure:"dsn"`
}

// MigrationConfig tunes the migrator's chunking and concurrency.
type MigrationConfig struct {
	ChunkSize          int           `mapstructure:"chunk_size"`
	MinChunkSize       int           `mapstructure:"min_chunk_size"`
	MaxChunkFailures   int           `mapstructure:"max_chunk_failures"`
	DisableFKDuringLoad bool         `mapstructure:"disable_fk_during_load"`
	TableParallelism   int           `mapstructure:"table_parallelism"`
	ChunkTimeout       time.Duration `mapstructure:"chunk_timeout"`
}

// ValidationConfig tunes the validator's tolerances and sampling.
type ValidationConfig struct {
	RowCountTolerance float64 `mapstructure:"row_count_tolerance"`
	FloatTolerance    float64 `mapstructure:"float_tolerance"`
	SampleSize        int     `mapstructure:"sample_size"`
	SeededSampling    bool    `mapstructure:"seeded_sampling"`
	ContinueOnFailure bool    `mapstructure:"continue_on_failure"`
}

// LLMConfig configures the proposer's optional LLM acceleration.
type LLMConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	APIKey          string        `mapstructure:"api_key"`
	RateLimitPerSec float64       `mapstructure:"rate_limit_per_sec"`
	MaxRetries      int           `mapstructure:"max_retries"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RunRegistryConfig configures artifact retention.
type RunRegistryConfig struct {
	ArtifactRoot string        `mapstructure:"artifact_root"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

// Config is the top-level shape of db-migration's YAML config file.
type Config struct {
	Source     EngineConfig      `mapstructure:"source"`
	Target     EngineConfig      `mapstructure:"target"`
	Migration  MigrationConfig   `mapstructure:"migration"`
	Validation ValidationConfig  `mapstructure:"validation"`
	LLM        LLMConfig         `mapstructure:"llm"`
	Runs       RunRegistryConfig `mapstructure:"runs"`
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes every ${VAR} occurrence with the value of the
// matching environment variable, leaving the reference untouched if the
// variable is unset — the same behavior as the original tool's loader.
func expandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(m []byte) []byte {
		name := envRef.FindSubmatch(m)[1]
		if v, ok := os.LookupEnv(string(name)); ok {
			return []byte(v)
		}
		return m
	})
}

// Load reads and parses the YAML file at path, applying defaults and
// ${VAR} expansion, then AutomaticEnv overrides via Viper — mirroring
// cmd/root.go's initConfig search-path/override pattern, generalized to
// this system's config shape.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dberrors.New(dberrors.CategoryConfig, "", fmt.Errorf("read config %s: %w", path, err))
	}
	raw = expandEnv(raw)

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("DBMIG")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, dberrors.New(dberrors.CategoryConfig, "", fmt.Errorf("parse config: %w", err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, dberrors.New(dberrors.CategoryConfig, "", fmt.Errorf("unmarshal config: %w", err))
	}

	if err := validate(&cfg); err != nil {
		return nil, dberrors.New(dberrors.CategoryConfig, "", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("migration.chunk_size", 50_000)
	v.SetDefault("migration.min_chunk_size", 1_000)
	v.SetDefault("migration.max_chunk_failures", 5)
	v.SetDefault("migration.disable_fk_during_load", true)
	v.SetDefault("migration.table_parallelism", 4)
	v.SetDefault("migration.chunk_timeout", "10m")
	v.SetDefault("validation.row_count_tolerance", 0.0)
	v.SetDefault("validation.float_tolerance", 0.0001)
	v.SetDefault("validation.sample_size", 1000)
	v.SetDefault("validation.seeded_sampling", true)
	v.SetDefault("validation.continue_on_failure", true)
	v.SetDefault("llm.rate_limit_per_sec", 1.0)
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("runs.artifact_root", "./run-artifacts")
	v.SetDefault("runs.max_age", "168h")
}

func validate(cfg *Config) error {
	if cfg.Source.Engine == "" {
		return fmt.Errorf("source.engine is required")
	}
	if cfg.Target.Engine == "" {
		return fmt.Errorf("target.engine is required")
	}
	if cfg.Target.Engine != "mysql" {
		return fmt.Errorf("target.engine %q unsupported: only mysql is a valid migration target", cfg.Target.Engine)
	}
	switch cfg.Source.Engine {
	case "postgres", "mssql":
	default:
		return fmt.Errorf("source.engine %q unsupported: only postgres and mssql are valid sources", cfg.Source.Engine)
	}
	return nil
}

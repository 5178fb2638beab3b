// Package config loads warehouse configuration from file and environment.
package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Ingest  IngestConfig  `yaml:"ingest" mapstructure:"ingest"`
	Resolve ResolveConfig `yaml:"resolve" mapstructure:"resolve"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// SourcesConfig configures the upstream data source clients.
type SourcesConfig struct {
	FECAPIKey  string `yaml:"fec_api_key" mapstructure:"fec_api_key"`
	FECBaseURL string `yaml:"fec_base_url" mapstructure:"fec_base_url"`
	MDBaseURL  string `yaml:"md_base_url" mapstructure:"md_base_url"`
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// StoreConfig configures the Postgres backend.
type StoreConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// IngestConfig configures bronze extraction runs.
type IngestConfig struct {
	PageSize        int     `yaml:"page_size" mapstructure:"page_size"`
	BatchSize       int     `yaml:"batch_size" mapstructure:"batch_size"`
	PagesPerSecond  float64 `yaml:"pages_per_second" mapstructure:"pages_per_second"`
	MaxPartitions   int     `yaml:"max_partitions" mapstructure:"max_partitions"`
	DefaultWindowYr int     `yaml:"default_window_years" mapstructure:"default_window_years"`
}

// ResolveConfig configures gold entity resolution.
type ResolveConfig struct {
	MergeThreshold float64 `yaml:"merge_threshold" mapstructure:"merge_threshold"`
	FuzzyNameFloor float64 `yaml:"fuzzy_name_floor" mapstructure:"fuzzy_name_floor"`
	SecondaryBonus float64 `yaml:"secondary_bonus" mapstructure:"secondary_bonus"`
	MaxFuzzyScore  float64 `yaml:"max_fuzzy_score" mapstructure:"max_fuzzy_score"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("sources.fec_base_url", "https://api.open.fec.gov/v1")
	v.SetDefault("sources.md_base_url", "https://campaignfinance.maryland.gov")
	v.SetDefault("sources.user_agent", "fundlens/1.0")
	v.SetDefault("sources.max_retries", 3)
	v.SetDefault("ingest.page_size", 100)
	v.SetDefault("ingest.batch_size", 5000)
	v.SetDefault("ingest.pages_per_second", 2.0)
	v.SetDefault("ingest.max_partitions", 4)
	v.SetDefault("ingest.default_window_years", 2)
	v.SetDefault("resolve.merge_threshold", 0.85)
	v.SetDefault("resolve.fuzzy_name_floor", 0.6)
	v.SetDefault("resolve.secondary_bonus", 0.10)
	v.SetDefault("resolve.max_fuzzy_score", 0.99)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		Sources: SourcesConfig{
			FECBaseURL: "https://api.open.fec.gov/v1",
			MDBaseURL:  "https://campaignfinance.maryland.gov",
			UserAgent:  "fundlens/1.0",
			MaxRetries: 3,
		},
		Ingest: IngestConfig{
			PageSize:        100,
			BatchSize:       5000,
			PagesPerSecond:  2.0,
			MaxPartitions:   4,
			DefaultWindowYr: 2,
		},
		Resolve: ResolveConfig{
			MergeThreshold: 0.85,
			FuzzyNameFloor: 0.6,
			SecondaryBonus: 0.10,
			MaxFuzzyScore:  0.99,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// WriteExample writes a starter config file with the default values. Fails
// if the file already exists.
func WriteExample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return eris.Errorf("config: %s already exists", path)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return eris.Wrap(err, "config: marshal defaults")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "config: write %s", path)
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

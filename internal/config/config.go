package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete analysis run configuration.
// Precedence: defaults < YAML config file < MERIT_* environment variables.
type Config struct {
	Metric   MetricConfig   `yaml:"metric" envconfig:"METRIC"`
	Ranking  RankingConfig  `yaml:"ranking" envconfig:"RANKING"`
	Cleaning CleaningConfig `yaml:"cleaning" envconfig:"CLEANING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
}

// MetricConfig contains the Merit Generosity Index weighting parameters.
// The composite score is grant_weight*MGI + quality_weight*quality; with
// normalize set, scores are min-max scaled to [0,1] across the dataset.
type MetricConfig struct {
	GrantWeight   float64 `yaml:"grant_weight" envconfig:"GRANT_WEIGHT" validate:"gte=0"`
	QualityWeight float64 `yaml:"quality_weight" envconfig:"QUALITY_WEIGHT" validate:"gte=0"`
	Normalize     bool    `yaml:"normalize" envconfig:"NORMALIZE"`
}

// RankingConfig contains top-N selection parameters
type RankingConfig struct {
	TopN   int  `yaml:"top_n" envconfig:"TOP_N" validate:"gt=0"`
	Strict bool `yaml:"strict" envconfig:"STRICT"` // abort instead of proceeding with fewer than TopN
}

// CleaningConfig contains row-drop thresholds and affordability screens
type CleaningConfig struct {
	NetPriceCap  float64 `yaml:"net_price_cap" envconfig:"NET_PRICE_CAP" validate:"gt=0"`
	MGIQuantile  float64 `yaml:"mgi_quantile" envconfig:"MGI_QUANTILE" validate:"gte=0,lte=1"`
	MinSurvivors int     `yaml:"min_survivors" envconfig:"MIN_SURVIVORS" validate:"gte=0"`

	// Fallback screen applied when fewer than MinSurvivors institutions pass
	RelaxedNetPriceQuantile float64 `yaml:"relaxed_net_price_quantile" envconfig:"RELAXED_NET_PRICE_QUANTILE" validate:"gte=0,lte=1"`
	RelaxedMGIQuantile      float64 `yaml:"relaxed_mgi_quantile" envconfig:"RELAXED_MGI_QUANTILE" validate:"gte=0,lte=1"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" validate:"required"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format   string `yaml:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// Default returns the documented default configuration
func Default() *Config {
	return &Config{
		Metric: MetricConfig{
			GrantWeight:   1.0,
			QualityWeight: 0.5,
			Normalize:     false,
		},
		Ranking: RankingConfig{
			TopN:   20,
			Strict: false,
		},
		Cleaning: CleaningConfig{
			NetPriceCap:             25000,
			MGIQuantile:             0.5,
			MinSurvivors:            10,
			RelaxedNetPriceQuantile: 0.3,
			RelaxedMGIQuantile:      0.8,
		},
		Paths: PathsConfig{
			DataDir:    "data",
			ReportsDir: "data/reports",
			LogsDir:    "logs",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "both",
			FilePath: "logs/merit.log",
		},
	}
}

// Load loads configuration with defaults, then an optional YAML config file,
// then MERIT_* environment variables taking final precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("MERIT", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays configuration from a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// A composite with both weights at zero scores everything 0
	if c.Metric.GrantWeight+c.Metric.QualityWeight <= 0 {
		return fmt.Errorf("metric weights must not both be zero")
	}

	if c.Logging.Output != "stdout" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file_path required for output %q", c.Logging.Output)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	locations := []string{
		"merit.yaml",
		"configs/merit.yaml",
		"../configs/merit.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use defaults and env vars only
}

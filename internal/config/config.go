// Package config provides configuration management for the daily report pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"covidmap/internal/models"
	"covidmap/pkg/utils"
)

// DateToken is replaced by the MM-DD-YYYY reporting date in daily report URLs.
const DateToken = "{date}"

// MetricToken is replaced by the lower-case metric name in time-series URLs.
const MetricToken = "{metric}"

// Configuration validation errors.
var (
	ErrMissingDailySource       = errors.New("source.daily_report_url or source.file is required")
	ErrMissingDateToken         = errors.New("source.daily_report_url must contain " + DateToken)
	ErrMissingCodesSource       = errors.New("source.codes_url or source.codes_file is required")
	ErrMissingMetricToken       = errors.New("source.time_series_url must contain " + MetricToken)
	ErrInvalidSourceURL         = errors.New("source URLs must be absolute http(s) URLs")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrEmptyRewrite             = errors.New("normalize.label_rewrites entries must be non-empty")
	ErrChainedRewrite           = errors.New("normalize.label_rewrites targets must not be rewritten again")
	ErrInvalidCorrection        = errors.New("join.corrections entries need country and a 3-letter iso_alpha")
	ErrMissingTable             = errors.New("output.table is required when output.sqlite_path is set")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be 'console' or 'json'")
)

// Config represents the complete pipeline configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Retry     RetryPolicy     `yaml:"retry"`
	Normalize NormalizeConfig `yaml:"normalize"`
	Join      JoinConfig      `yaml:"join"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SourceConfig locates the upstream CSV resources.
type SourceConfig struct {
	DailyReportURL string `yaml:"daily_report_url"`
	TimeSeriesURL  string `yaml:"time_series_url"`
	CodesURL       string `yaml:"codes_url"`
	File           string `yaml:"file"`
	CodesFile      string `yaml:"codes_file"`
	BufferSizeKb   int    `yaml:"buffer_size_kb"`
}

// IsLocalFile returns true if the daily report is read from disk.
func (s *SourceConfig) IsLocalFile() bool {
	return s.File != ""
}

func (s *SourceConfig) validateURLs() error {
	helper := utils.NewHTTPHelper()

	urls := []string{s.TimeSeriesURL}
	if !s.IsLocalFile() {
		urls = append(urls, s.DailyReportURL)
	}

	if s.CodesFile == "" {
		urls = append(urls, s.CodesURL)
	}

	for _, u := range urls {
		if u != "" && !helper.IsValidURL(u) {
			return fmt.Errorf("%w: %q", ErrInvalidSourceURL, u)
		}
	}

	return nil
}

// RetryPolicy defines retry behavior.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// NormalizeConfig holds the label rewrites applied after aggregation.
type NormalizeConfig struct {
	LabelRewrites map[string]string `yaml:"label_rewrites"`
}

// JoinConfig holds manual lookup corrections.
type JoinConfig struct {
	Corrections []models.CodeEntry `yaml:"corrections"`
}

// OutputConfig defines export behavior. Empty paths disable the export.
type OutputConfig struct {
	CSVPath    string `yaml:"csv_path"`
	SQLitePath string `yaml:"sqlite_path"`
	Table      string `yaml:"table"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration the dashboard ran with.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			DailyReportURL: "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_daily_reports/" + DateToken + ".csv",
			TimeSeriesURL:  "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/time_series_covid19_" + MetricToken + "_global.csv",
			CodesURL:       "https://raw.githubusercontent.com/plotly/datasets/master/gapminder_with_codes.csv",
			BufferSizeKb:   16 * 1024,
		},
		Retry: RetryPolicy{
			MaxAttempts:       1,
			InitialDelayMs:    500,
			MaxDelayMs:        30000,
			BackoffMultiplier: 2.0,
			TimeoutSec:        30,
		},
		Normalize: NormalizeConfig{
			LabelRewrites: map[string]string{"US": "United States"},
		},
		Join: JoinConfig{
			Corrections: []models.CodeEntry{{Country: "Russia", ISOAlpha: "RUS"}},
		},
		Output: OutputConfig{
			CSVPath: "df_processed.csv",
			Table:   "joined_report",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	return data, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Source.IsLocalFile() {
		if c.Source.DailyReportURL == "" {
			return ErrMissingDailySource
		}

		if !strings.Contains(c.Source.DailyReportURL, DateToken) {
			return ErrMissingDateToken
		}
	}

	if c.Source.CodesURL == "" && c.Source.CodesFile == "" {
		return ErrMissingCodesSource
	}

	if c.Source.TimeSeriesURL != "" && !strings.Contains(c.Source.TimeSeriesURL, MetricToken) {
		return ErrMissingMetricToken
	}

	if err := c.Source.validateURLs(); err != nil {
		return err
	}

	if c.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	for from, to := range c.Normalize.LabelRewrites {
		if from == "" || to == "" {
			return fmt.Errorf("%w: %q -> %q", ErrEmptyRewrite, from, to)
		}

		if next, ok := c.Normalize.LabelRewrites[to]; ok && to != from {
			return fmt.Errorf("%w: %q -> %q -> %q", ErrChainedRewrite, from, to, next)
		}
	}

	for i, corr := range c.Join.Corrections {
		if corr.Country == "" || len(corr.ISOAlpha) != 3 {
			return fmt.Errorf("%w: corrections[%d]", ErrInvalidCorrection, i)
		}
	}

	if c.Output.SQLitePath != "" && c.Output.Table == "" {
		return ErrMissingTable
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return ErrInvalidLogFormat
	}

	return nil
}

// GetRetryDelay calculates the exponential backoff delay to wait before attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 2; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if rp.MaxDelayMs > 0 && int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	source := c.Source.DailyReportURL
	if c.Source.IsLocalFile() {
		source = c.Source.File
	}

	return fmt.Sprintf(
		"Config{Source: %s, MaxAttempts: %d, CSV: %s}",
		source,
		c.Retry.MaxAttempts,
		c.Output.CSVPath,
	)
}

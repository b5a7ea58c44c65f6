package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"ChartDataset/internal/directory"
	"ChartDataset/internal/logging"
)

// EnvPrefix prefixes every environment override, e.g. DATAPREP_STORAGE_OUTPUT_DIR.
const EnvPrefix = "DATAPREP"

// Providers accepted in data_source.provider.
const (
	ProviderYahoo     = "yahoo"
	ProviderFinanceGo = "financego"
)

// Config holds all application configuration.
type Config struct {
	Directory struct {
		URL       string `yaml:"url"`
		LocalPath string `yaml:"local_path" split_words:"true"`
	} `yaml:"directory"`
	DataSource struct {
		Provider string        `yaml:"provider"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"data_source" split_words:"true"`
	Storage struct {
		CacheDir  string `yaml:"cache_dir" split_words:"true"`
		OutputDir string `yaml:"output_dir" split_words:"true"`
		WorkDir   string `yaml:"work_dir" split_words:"true"`
	} `yaml:"storage"`
	Log struct {
		Dir   string `yaml:"dir"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Database struct {
		SqlitePath string `yaml:"sqlite_path" split_words:"true"`
	} `yaml:"database"`
	Metrics struct {
		TextfilePath string `yaml:"textfile_path" split_words:"true"`
	} `yaml:"metrics"`
	Telegram struct {
		BotToken string `yaml:"bot_token" split_words:"true"`
		ChatID   string `yaml:"chat_id" split_words:"true"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron       string `yaml:"cron"`
		RunOnStart bool   `yaml:"run_on_start" split_words:"true"`
	} `yaml:"schedule"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies .env and environment
// variable overrides, then fills defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// A missing .env file is fine; variables already set win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" && cfg.Proxy == "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("RUN_ON_START"); v == "true" {
		cfg.Schedule.RunOnStart = true
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Directory.URL == "" {
		c.Directory.URL = directory.DefaultURL
	}
	if c.Directory.LocalPath == "" {
		c.Directory.LocalPath = "data/nasdaqlisted.txt"
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = ProviderYahoo
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.Storage.CacheDir == "" {
		c.Storage.CacheDir = "data/csv"
	}
	if c.Storage.OutputDir == "" {
		c.Storage.OutputDir = "data/parquet"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "."
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Database.SqlitePath == "" {
		c.Database.SqlitePath = "data/dataprep.db"
	}
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderFinanceGo:
	default:
		return fmt.Errorf("data_source.provider must be %q or %q, got %q", ProviderYahoo, ProviderFinanceGo, c.DataSource.Provider)
	}
	if c.DataSource.Timeout < 0 {
		return fmt.Errorf("data_source.timeout must not be negative")
	}
	if c.Directory.URL == "" {
		return fmt.Errorf("directory.url is required")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Schedule.Cron != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PatternScreener/internal/contract"
	"PatternScreener/internal/model"
)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider     string        `yaml:"provider"` // yahoo, rest or mock
		BaseURL      string        `yaml:"base_url"`
		APIKey       string        `yaml:"api_key"`
		LookbackDays int           `yaml:"lookback_days"`
		RequestDelay time.Duration `yaml:"request_delay"`
	} `yaml:"data_source"`
	Universe struct {
		Path         string   `yaml:"path"`
		SymbolColumn string   `yaml:"symbol_column"`
		SeriesFilter string   `yaml:"series_filter"`
		Symbols      []string `yaml:"symbols"`
	} `yaml:"universe"`
	Screen struct {
		Pattern  string                  `yaml:"pattern"`
		MinScore float64                 `yaml:"min_score"`
		Limit    int                     `yaml:"limit"`
		Workers  int                     `yaml:"workers"`
		Criteria []model.FilterCriterion `yaml:"criteria"`
	} `yaml:"screen"`
	Schedule struct {
		ScreenCron string `yaml:"screen_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Load reads an optional .env file and the YAML config, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("DATA_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("UNIVERSE_PATH"); v != "" {
		cfg.Universe.Path = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		cfg.Universe.Symbols = splitList(v)
	}
	if v := os.Getenv("MIN_SCORE"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("MIN_SCORE: %w", err)
		}
		cfg.Screen.MinScore = score
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CRON_SCREEN"); v != "" {
		cfg.Schedule.ScreenCron = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Database.PostgresDSN = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.LookbackDays == 0 {
		cfg.DataSource.LookbackDays = 400
	}
	if cfg.Universe.SymbolColumn == "" {
		cfg.Universe.SymbolColumn = "Symbol"
	}
	if cfg.Screen.Pattern == "" {
		cfg.Screen.Pattern = string(model.PatternBoth)
	}
	if cfg.Screen.MinScore == 0 {
		cfg.Screen.MinScore = 50
	}
	if cfg.Screen.Limit == 0 {
		cfg.Screen.Limit = 10
	}
	if cfg.Schedule.ScreenCron == "" {
		cfg.Schedule.ScreenCron = "0 30 16 * * 1-5"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/pattern_screener.db"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}

	return cfg, nil
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for the rest provider")
		}
	default:
		return fmt.Errorf("data_source.provider %q is not one of yahoo, rest, mock", c.DataSource.Provider)
	}
	if c.DataSource.LookbackDays < 1 {
		return fmt.Errorf("data_source.lookback_days must be positive")
	}
	if c.Universe.Path == "" && len(c.Universe.Symbols) == 0 {
		return fmt.Errorf("universe.path or universe.symbols is required")
	}
	if !model.PatternType(c.Screen.Pattern).Valid() {
		return fmt.Errorf("screen.pattern %q is not one of reversal, breakout, both", c.Screen.Pattern)
	}
	if c.Screen.MinScore < 0 || c.Screen.MinScore > 100 {
		return fmt.Errorf("screen.min_score must be within [0, 100]")
	}
	if c.Screen.Limit < 0 || c.Screen.Workers < 0 {
		return fmt.Errorf("screen.limit and screen.workers must not be negative")
	}
	if err := contract.Validate(c.Screen.Criteria); err != nil {
		return fmt.Errorf("screen.criteria: %w", err)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"PatternScreener/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAMLAndDefaults(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: http://bars.local
  request_delay: 250ms
universe:
  symbols: [AAPL, MSFT]
screen:
  pattern: breakout
  criteria:
    - metric: rsi
      condition: less_than
      value: 40
    - metric: volume_ratio
      condition: greater_than
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if cfg.DataSource.RequestDelay != 250*time.Millisecond {
		t.Errorf("request_delay = %v", cfg.DataSource.RequestDelay)
	}
	if cfg.Screen.Pattern != "breakout" || cfg.Screen.MinScore != 50 || cfg.Screen.Limit != 10 {
		t.Errorf("screen = %+v", cfg.Screen)
	}
	if len(cfg.Screen.Criteria) != 2 {
		t.Fatalf("criteria = %+v", cfg.Screen.Criteria)
	}
	if c := cfg.Screen.Criteria[0]; c.Condition != model.LessThan || c.Value == nil || *c.Value != 40 {
		t.Errorf("criterion 0 = %+v", c)
	}
	if c := cfg.Screen.Criteria[1]; c.Value != nil {
		t.Errorf("criterion 1 should use the adaptive threshold, got %v", *c.Value)
	}
	if cfg.DataSource.LookbackDays != 400 || cfg.HTTP.Addr != ":8080" || cfg.Schedule.ScreenCron == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "data_source:\n  provider: yahoo\n")
	t.Setenv("DATA_SOURCE", "mock")
	t.Setenv("SYMBOLS", "AAA, BBB ,,CCC")
	t.Setenv("MIN_SCORE", "65")
	t.Setenv("POSTGRES_DSN", "host=db")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Provider != "mock" || cfg.Screen.MinScore != 65 ||
		cfg.Database.PostgresDSN != "host=db" || cfg.HTTP.Addr != ":9090" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if got := cfg.Universe.Symbols; len(got) != 3 || got[0] != "AAA" || got[2] != "CCC" {
		t.Errorf("symbols = %q", got)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataSource.Provider != "yahoo" {
		t.Errorf("provider = %q", cfg.DataSource.Provider)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation error without a universe")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.DataSource.Provider = "yahoo"
		c.DataSource.LookbackDays = 400
		c.Universe.Symbols = []string{"AAPL"}
		c.Screen.Pattern = "both"
		c.Screen.MinScore = 50
		return c
	}
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"rest without url", func(c *Config) { c.DataSource.Provider = "rest" }},
		{"no universe", func(c *Config) { c.Universe.Symbols = nil }},
		{"bad pattern", func(c *Config) { c.Screen.Pattern = "sideways" }},
		{"score out of range", func(c *Config) { c.Screen.MinScore = 101 }},
		{"negative limit", func(c *Config) { c.Screen.Limit = -1 }},
		{"unknown condition", func(c *Config) {
			c.Screen.Criteria = []model.FilterCriterion{{Metric: "rsi", Condition: "between"}}
		}},
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("baseline config invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

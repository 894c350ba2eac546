package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigFile = "newsrelay.yaml"
	configPathEnv     = "NEWSRELAY_CONFIG"
	databaseURLEnv    = "DATABASE_URL"
	tokenEnv          = "TOKEN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	logLevelEnv       = "LOG_LEVEL"
	metricsAddrEnv    = "METRICS_ADDR"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/80 Safari/537.36"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Telegram TelegramConfig `yaml:"telegram"`
	HTTP     HTTPConfig     `yaml:"http"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Pollers  []PollerConfig `yaml:"pollers"`
}

// LoggingConfig selects the slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig describes the delivery ledger connection.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// TelegramConfig wires the bot API.
type TelegramConfig struct {
	BotToken      string  `yaml:"botToken"`
	APIBase       string  `yaml:"apiBase"`
	RatePerSecond float64 `yaml:"ratePerSecond"`
}

// HTTPConfig bounds every outbound request.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"maxAttempts"`
	InitialDelay time.Duration `yaml:"initialDelay"`
	MaxDelay     time.Duration `yaml:"maxDelay"`
}

// MetricsConfig enables the prometheus endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SelectorConfig lists CSS selectors. Title, time and source are candidate lists
// tried in order.
type SelectorConfig struct {
	List      string   `yaml:"list"`
	Title     []string `yaml:"title"`
	Time      []string `yaml:"time"`
	Source    []string `yaml:"source"`
	Paragraph string   `yaml:"paragraph"`
}

// PollerConfig describes one independent polling loop.
type PollerConfig struct {
	Name      string            `yaml:"name"`
	Lang      string            `yaml:"lang"`
	Mode      string            `yaml:"mode"`
	ListURLs  []string          `yaml:"listUrls"`
	Channels  []string          `yaml:"channels"`
	Interval  time.Duration     `yaml:"interval"`
	Selectors SelectorConfig    `yaml:"selectors"`
	Policy    string            `yaml:"policy"`
	Identity  string            `yaml:"identity"`
	Headers   map[string]string `yaml:"headers"`
	// Proxy is used for the bot API only; listing and detail pages are
	// fetched directly unless FetchProxy is set.
	Proxy               string `yaml:"proxy"`
	FetchProxy          string `yaml:"fetchProxy"`
	ReadabilityFallback bool   `yaml:"readabilityFallback"`
}

// DefaultSelectors returns a fresh copy of the selectors used by the original
// news site layout.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		List:      ".dataList > .clearfix > h3 > a, .newsList2 > h2 > a, .newsList > h2 > a",
		Title:     []string{".h-title", "#conTit > h1", ".title", ".Btitle"},
		Time:      []string{".h-info > span:nth-child(1)", ".time"},
		Source:    []string{".h-info > span:nth-child(2)", ".source"},
		Paragraph: "p",
	}
}

// DefaultHeaders returns a fresh header map with a browser User-Agent.
func DefaultHeaders() map[string]string {
	return map[string]string{"User-Agent": defaultUserAgent}
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	path := os.Getenv(configPathEnv)
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.applyPollerDefaults()

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

// Validate reports configuration problems that must abort startup.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Telegram.BotToken) == "" {
		errs = append(errs, fmt.Errorf("bot token is required (%s or %s)", tokenEnv, telegramTokenEnv))
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, fmt.Errorf("ledger connection string is required (%s)", databaseURLEnv))
	}
	if len(c.Pollers) == 0 {
		errs = append(errs, errors.New("at least one poller must be configured"))
	}

	seen := map[string]bool{}
	for i, p := range c.Pollers {
		label := p.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i)
		}
		if seen[p.Name] {
			errs = append(errs, fmt.Errorf("poller %s: duplicate name", label))
		}
		seen[p.Name] = true

		if len(p.ListURLs) == 0 {
			errs = append(errs, fmt.Errorf("poller %s: no listUrls", label))
		}
		if len(p.Channels) == 0 {
			errs = append(errs, fmt.Errorf("poller %s: no channels", label))
		}
		if p.Interval <= 0 {
			errs = append(errs, fmt.Errorf("poller %s: interval must be positive", label))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.URL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv(tokenEnv); v != "" {
		c.Telegram.BotToken = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(metricsAddrEnv); v != "" {
		c.Metrics.Addr = v
	}
}

func (c *Config) applyPollerDefaults() {
	def := DefaultSelectors()
	for i := range c.Pollers {
		p := &c.Pollers[i]
		if p.Name == "" {
			p.Name = fmt.Sprintf("poller-%d", i+1)
			if p.Lang != "" {
				p.Name = p.Lang
			}
		}
		if p.Mode == "" {
			p.Mode = "html"
		}
		if p.Interval == 0 {
			p.Interval = 30 * time.Second
		}
		if p.Selectors.List == "" {
			p.Selectors.List = def.List
		}
		if len(p.Selectors.Title) == 0 {
			p.Selectors.Title = append([]string(nil), def.Title...)
		}
		if len(p.Selectors.Time) == 0 {
			p.Selectors.Time = append([]string(nil), def.Time...)
		}
		if len(p.Selectors.Source) == 0 {
			p.Selectors.Source = append([]string(nil), def.Source...)
		}
		if p.Selectors.Paragraph == "" {
			p.Selectors.Paragraph = def.Paragraph
		}
		if len(p.Headers) == 0 {
			p.Headers = DefaultHeaders()
		}
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.URL != "" {
		base.Database = override.Database
	}

	if override.Telegram.BotToken != "" {
		base.Telegram.BotToken = override.Telegram.BotToken
	}
	if override.Telegram.APIBase != "" {
		base.Telegram.APIBase = override.Telegram.APIBase
	}
	if override.Telegram.RatePerSecond > 0 {
		base.Telegram.RatePerSecond = override.Telegram.RatePerSecond
	}

	if override.HTTP.Timeout > 0 {
		base.HTTP.Timeout = override.HTTP.Timeout
	}
	if override.HTTP.MaxAttempts > 0 {
		base.HTTP.MaxAttempts = override.HTTP.MaxAttempts
	}
	if override.HTTP.InitialDelay > 0 {
		base.HTTP.InitialDelay = override.HTTP.InitialDelay
	}
	if override.HTTP.MaxDelay > 0 {
		base.HTTP.MaxDelay = override.HTTP.MaxDelay
	}

	if override.Metrics.Addr != "" {
		base.Metrics.Addr = override.Metrics.Addr
	}

	if len(override.Pollers) > 0 {
		base.Pollers = override.Pollers
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Telegram: TelegramConfig{APIBase: "https://api.telegram.org", RatePerSecond: 1},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
		},
	}
}

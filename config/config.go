// Package config loads the bot configuration from a YAML file. Secrets are read from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jibbril/setupbot/backtest"
	"github.com/jibbril/setupbot/model"
	"github.com/jibbril/setupbot/strategy"
)

const (
	EnvBinanceAPIKey    = "BINANCE_API_KEY"
	EnvBinanceAPISecret = "BINANCE_API_SECRET"
	EnvTelegramToken    = "TELEGRAM_TOKEN"
	EnvSMTPPassword     = "SMTP_PASSWORD"
	EnvRedisPassword    = "REDIS_PASSWORD"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Tickers   []string `yaml:"tickers"`
	Timeframe string   `yaml:"timeframe"`
	LogLevel  string   `yaml:"log_level"`

	// Warmup is the number of candles preloaded before live candles are processed.
	Warmup int `yaml:"warmup"`
	// MaxLength caps the candles kept per live series.
	MaxLength int `yaml:"max_length"`

	Strategies    []StrategyConfig   `yaml:"strategies"`
	Backtest      BacktestConfig     `yaml:"backtest"`
	Binance       BinanceConfig      `yaml:"binance"`
	Storage       StorageConfig      `yaml:"storage"`
	Notifications NotificationConfig `yaml:"notifications"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

type BacktestConfig struct {
	MaxBars        int     `yaml:"max_bars"`
	InitialBalance float64 `yaml:"initial_balance"`
	PositionSize   float64 `yaml:"position_size"`
	ReturnsDir     string  `yaml:"returns_dir"`
}

type BinanceConfig struct {
	Testnet    bool `yaml:"testnet"`
	HeikinAshi bool `yaml:"heikin_ashi"`

	APIKey    string `yaml:"-"`
	APISecret string `yaml:"-"`
}

type StorageConfig struct {
	// Driver is "bunt" or "sqlite". Empty disables persistence.
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Users   []int  `yaml:"users"`
	Token   string `yaml:"-"`
}

type MailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Server   string `yaml:"server"`
	Port     int    `yaml:"port"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	Password string `yaml:"-"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	Password string `yaml:"-"`
}

type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Mail     MailConfig     `yaml:"mail"`
	Redis    RedisConfig    `yaml:"redis"`
}

type MetricsConfig struct {
	// Addr serves /metrics while watching, e.g. ":9090". Empty disables it.
	Addr string `yaml:"addr"`
}

// Load reads the YAML file at path, applies defaults and environment secrets and
// validates the result. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes YAML data the same way Load does, without touching .env.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Timeframe == "" {
		c.Timeframe = "1h"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Warmup == 0 {
		c.Warmup = 500
	}
	if c.MaxLength == 0 {
		c.MaxLength = 2 * c.Warmup
	}
	if c.Backtest.MaxBars == 0 {
		c.Backtest.MaxBars = 500
	}
	if c.Backtest.InitialBalance == 0 {
		c.Backtest.InitialBalance = 1000
	}
	if c.Backtest.PositionSize == 0 {
		c.Backtest.PositionSize = 1
	}
	if c.Notifications.Mail.Port == 0 {
		c.Notifications.Mail.Port = 587
	}
	for i, ticker := range c.Tickers {
		c.Tickers[i] = strings.ToUpper(strings.TrimSpace(ticker))
	}
}

func (c *Config) applyEnv() {
	c.Binance.APIKey = os.Getenv(EnvBinanceAPIKey)
	c.Binance.APISecret = os.Getenv(EnvBinanceAPISecret)
	c.Notifications.Telegram.Token = os.Getenv(EnvTelegramToken)
	c.Notifications.Mail.Password = os.Getenv(EnvSMTPPassword)
	c.Notifications.Redis.Password = os.Getenv(EnvRedisPassword)
}

func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("%w: no tickers", ErrInvalidConfig)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("%w: no strategies", ErrInvalidConfig)
	}
	if c.Backtest.MaxBars < 0 || c.Backtest.InitialBalance < 0 || c.Backtest.PositionSize < 0 {
		return fmt.Errorf("%w: backtest settings must not be negative", ErrInvalidConfig)
	}
	switch c.Storage.Driver {
	case "", "bunt", "sqlite":
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}
	if c.Notifications.Telegram.Enabled && len(c.Notifications.Telegram.Users) == 0 {
		return fmt.Errorf("%w: telegram enabled without users", ErrInvalidConfig)
	}
	if c.Notifications.Redis.Enabled && c.Notifications.Redis.Addr == "" {
		return fmt.Errorf("%w: redis enabled without addr", ErrInvalidConfig)
	}

	for i, s := range c.Strategies {
		if _, err := s.Build(); err != nil {
			return fmt.Errorf("strategy %d (%s): %w", i, s.Name, err)
		}
	}
	return nil
}

// Settings returns the settings shared with the notifiers.
func (c *Config) Settings() model.Settings {
	return model.Settings{
		Pairs:     c.Tickers,
		Timeframe: c.Timeframe,
		Telegram: model.TelegramSettings{
			Enabled: c.Notifications.Telegram.Enabled,
			Token:   c.Notifications.Telegram.Token,
			Users:   c.Notifications.Telegram.Users,
		},
	}
}

// BuildStrategies instantiates every configured strategy in file order.
func (c *Config) BuildStrategies() ([]strategy.Strategy, error) {
	result := make([]strategy.Strategy, 0, len(c.Strategies))
	for _, s := range c.Strategies {
		built, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", s.Name, err)
		}
		result = append(result, built)
	}
	return result, nil
}

func (b BacktestConfig) Options() []backtest.Option {
	return []backtest.Option{
		backtest.WithMaxBars(b.MaxBars),
		backtest.WithBalance(b.InitialBalance, b.PositionSize),
	}
}

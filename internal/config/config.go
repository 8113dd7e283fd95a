package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/openquant/helix/internal/core"
)

type Config struct {
	Credentials   CredentialsConfig    `mapstructure:"credentials"`
	Engine        EngineConfig         `mapstructure:"engine"`
	Session       SessionConfig        `mapstructure:"session"`
	Journal       JournalConfig        `mapstructure:"journal"`
	Archive       ArchiveConfig        `mapstructure:"archive"`
	Metrics       MetricsConfig        `mapstructure:"metrics"`
	TradeSettings []TradeSettingConfig `mapstructure:"trade_settings"`
}

// CredentialsConfig holds the Kite Connect API credentials. The access
// token is produced by the daily login flow outside this process.
type CredentialsConfig struct {
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	AccessToken string `mapstructure:"access_token"`
}

// EngineConfig holds reconciliation loop timing.
type EngineConfig struct {
	// TickInterval is the pause between reconciliation ticks.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// IdleInterval is the pause when the market session is closed.
	IdleInterval time.Duration `mapstructure:"idle_interval"`
	// PerSymbolDelay spaces per-symbol provider calls for rate limits.
	PerSymbolDelay time.Duration `mapstructure:"per_symbol_delay"`
	// LookbackDays sizes the candle history fetch window.
	LookbackDays int `mapstructure:"lookback_days"`
}

// SessionConfig defines the market session window, clock times in the
// exchange's location.
type SessionConfig struct {
	Open     string `mapstructure:"open"`     // "09:15"
	Close    string `mapstructure:"close"`    // "15:30"
	Timezone string `mapstructure:"timezone"` // "Asia/Kolkata"
}

// JournalConfig holds the order journal file settings.
type JournalConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ArchiveConfig holds the cold export store settings.
type ArchiveConfig struct {
	Type string   `mapstructure:"type"` // "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds the Prometheus listener settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

// TradeSettingConfig is one tradable symbol entry.
type TradeSettingConfig struct {
	Symbol    string `mapstructure:"symbol"`
	Quantity  int64  `mapstructure:"quantity"`
	Timeframe string `mapstructure:"timeframe"`
	EMAPeriod int    `mapstructure:"ema_period"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Engine.TickInterval == 0 {
		cfg.Engine.TickInterval = 10 * time.Second
	}
	if cfg.Engine.IdleInterval == 0 {
		cfg.Engine.IdleInterval = 5 * time.Minute
	}
	if cfg.Engine.PerSymbolDelay == 0 {
		cfg.Engine.PerSymbolDelay = 100 * time.Millisecond
	}
	if cfg.Engine.LookbackDays == 0 {
		cfg.Engine.LookbackDays = 10
	}
	if cfg.Session.Open == "" {
		cfg.Session.Open = "09:15"
	}
	if cfg.Session.Close == "" {
		cfg.Session.Close = "15:30"
	}
	if cfg.Session.Timezone == "" {
		cfg.Session.Timezone = "Asia/Kolkata"
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "orders.log"
	}
	if cfg.Journal.MaxSizeMB == 0 {
		cfg.Journal.MaxSizeMB = 50
	}
	if cfg.Journal.MaxBackups == 0 {
		cfg.Journal.MaxBackups = 10
	}
	if cfg.Journal.MaxAgeDays == 0 {
		cfg.Journal.MaxAgeDays = 30
	}
	if cfg.Archive.Type == "" {
		cfg.Archive.Type = "localfs"
	}
	if cfg.Archive.Path == "" {
		cfg.Archive.Path = "archive"
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9105"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Credentials.APIKey == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("credentials.api_key is required"))
	}
	if c.Credentials.AccessToken == "" {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("credentials.access_token is required"))
	}

	if len(c.TradeSettings) == 0 {
		return core.WrapError(core.ErrConfigMissing, fmt.Errorf("at least one trade_settings entry is required"))
	}
	for i, s := range c.TradeSettings {
		if s.Symbol == "" {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("trade_settings[%d]: symbol is required", i))
		}
		if s.Quantity <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("trade_settings[%d] (%s): quantity must be positive", i, s.Symbol))
		}
		if s.EMAPeriod <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("trade_settings[%d] (%s): ema_period must be positive", i, s.Symbol))
		}
	}

	if c.Engine.TickInterval <= 0 || c.Engine.IdleInterval <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine intervals must be positive"))
	}
	if c.Engine.LookbackDays <= 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("engine.lookback_days must be positive, got %d", c.Engine.LookbackDays))
	}

	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("session.timezone: %w", err))
	}
	for _, clock := range []string{c.Session.Open, c.Session.Close} {
		if _, err := time.Parse("15:04", clock); err != nil {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("session clock time %q: %w", clock, err))
		}
	}

	switch c.Archive.Type {
	case "localfs", "s3":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("archive.type must be localfs or s3, got %q", c.Archive.Type))
	}
	if c.Archive.Type == "s3" && c.Archive.S3.Bucket == "" {
		return core.WrapError(core.ErrConfigMissing,
			fmt.Errorf("archive.s3.bucket required when archive.type is s3"))
	}

	return nil
}

// Settings converts the configured trade settings into domain values,
// defaulting the timeframe to 5-minute candles. One entry per symbol;
// for duplicates the last one wins.
func (c *Config) Settings() []core.TradeSetting {
	seen := make(map[string]int, len(c.TradeSettings))
	out := make([]core.TradeSetting, 0, len(c.TradeSettings))

	for _, s := range c.TradeSettings {
		tf := core.Timeframe(s.Timeframe)
		if tf == "" {
			tf = core.Timeframe5Minute
		}
		setting := core.TradeSetting{
			Symbol:    s.Symbol,
			Quantity:  s.Quantity,
			Timeframe: tf,
			EMAPeriod: s.EMAPeriod,
		}
		if i, ok := seen[s.Symbol]; ok {
			out[i] = setting
			continue
		}
		seen[s.Symbol] = len(out)
		out = append(out, setting)
	}
	return out
}

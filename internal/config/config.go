package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"yieldwatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Bridge    BridgeConfig    `mapstructure:"bridge"`
	Gas       GasConfig       `mapstructure:"gas"`
	Alerting  AlertingConfig  `mapstructure:"alerting"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity for the external
// rule store.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// SchedulerConfig governs refresh cadences.
type SchedulerConfig struct {
	PoolInterval  time.Duration `mapstructure:"pool_interval"`
	GasInterval   time.Duration `mapstructure:"gas_interval"`
	AlignToBucket bool          `mapstructure:"align_to_bucket"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// FeedConfig covers the upstream pool feed and protocol lookup.
type FeedConfig struct {
	PoolsURL       string        `mapstructure:"pools_url"`
	ProtocolURL    string        `mapstructure:"protocol_url"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	LinkCacheTTL   time.Duration `mapstructure:"link_cache_ttl"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

// BridgeConfig captures the quote provider endpoints.
type BridgeConfig struct {
	LiFiBaseURL    string        `mapstructure:"lifi_base_url"`
	SocketBaseURL  string        `mapstructure:"socket_base_url"`
	SocketAPIKey   string        `mapstructure:"socket_api_key"`
	FromAddress    string        `mapstructure:"from_address"`
	Slippage       float64       `mapstructure:"slippage"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// GasConfig tunes the gas price fetcher. Endpoint lists default to the
// built-in chains when empty.
type GasConfig struct {
	EthereumRPCs []string      `mapstructure:"ethereum_rpcs"`
	BSCRPCs      []string      `mapstructure:"bsc_rpcs"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	RPCTimeout   time.Duration `mapstructure:"rpc_timeout"`
}

// AlertingConfig defines alert evaluation and routing.
type AlertingConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Cooldown time.Duration  `mapstructure:"cooldown"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig describes the Telegram delivery channel.
type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	APIBase  string `mapstructure:"api_base"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YIELDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "yieldwatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.pool_interval", "1h")
	v.SetDefault("scheduler.gas_interval", "5m")
	v.SetDefault("scheduler.align_to_bucket", true)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("feed.pools_url", "https://yields.llama.fi/pools")
	v.SetDefault("feed.protocol_url", "https://api.llama.fi/protocol")
	v.SetDefault("feed.cache_ttl", "1h")
	v.SetDefault("feed.link_cache_ttl", "24h")
	v.SetDefault("feed.request_timeout", "15s")
	v.SetDefault("feed.user_agent", "yieldwatch/1.0")

	v.SetDefault("bridge.lifi_base_url", "https://li.quest")
	v.SetDefault("bridge.socket_base_url", "https://api.socket.tech")
	v.SetDefault("bridge.slippage", 0.03)
	v.SetDefault("bridge.request_timeout", "10s")

	v.SetDefault("gas.cache_ttl", "5m")
	v.SetDefault("gas.rpc_timeout", "5s")

	v.SetDefault("alerting.enabled", true)
	v.SetDefault("alerting.cooldown", "60s")
	v.SetDefault("alerting.telegram.enabled", false)
	v.SetDefault("alerting.telegram.api_base", "https://api.telegram.org")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.PoolInterval <= 0 {
		return fmt.Errorf("scheduler.pool_interval must be greater than zero")
	}
	if c.Scheduler.GasInterval <= 0 {
		return fmt.Errorf("scheduler.gas_interval must be greater than zero")
	}
	if c.Feed.CacheTTL <= 0 {
		return fmt.Errorf("feed.cache_ttl must be greater than zero")
	}
	if c.Bridge.Slippage < 0 || c.Bridge.Slippage >= 1 {
		return fmt.Errorf("bridge.slippage must be within [0, 1)")
	}
	if c.Alerting.Cooldown <= 0 {
		return fmt.Errorf("alerting.cooldown must be greater than zero")
	}
	if c.Alerting.Telegram.Enabled {
		if c.Alerting.Telegram.BotToken == "" {
			return fmt.Errorf("alerting.telegram.bot_token is required")
		}
		if c.Alerting.Telegram.ChatID == "" {
			return fmt.Errorf("alerting.telegram.chat_id is required")
		}
	}
	return nil
}

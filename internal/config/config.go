package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig
	Market   MarketConfig
	Catalog  CatalogConfig
	Store    StoreConfig
	Database DatabaseConfig
	Defaults DefaultsConfig
}

// ServerConfig defines the dashboard HTTP server settings.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MarketConfig defines the upstream price API and cache settings.
type MarketConfig struct {
	BaseURL         string   `mapstructure:"base_url"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
	RequestsPerMin  int      `mapstructure:"requests_per_min"`
	CacheBackend    string   `mapstructure:"cache_backend"` // "memory" or "redis"
	RedisAddr       string   `mapstructure:"redis_addr"`
	Locations       []string `mapstructure:"locations"`
}

// CatalogConfig defines where the reference item/recipe data lives.
type CatalogConfig struct {
	DataFile string `mapstructure:"data_file"`
}

// StoreConfig defines where the user snapshot document is persisted.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig defines the optional Postgres price-history settings.
// An empty host disables database logging entirely.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DefaultsConfig seeds the user settings on first run.
type DefaultsConfig struct {
	TaxRatePercent        float64 `mapstructure:"tax_rate_percent"`
	AssumePremium         bool    `mapstructure:"assume_premium"`
	UpdateIntervalMinutes int     `mapstructure:"update_interval_minutes"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("market.base_url", "https://west.albion-online-data.com/api/v2/stats")
	viper.SetDefault("market.cache_ttl_seconds", 300)
	viper.SetDefault("market.timeout_seconds", 15)
	viper.SetDefault("market.requests_per_min", 180)
	viper.SetDefault("market.cache_backend", "memory")
	viper.SetDefault("market.locations", []string{
		"Thetford", "Fort Sterling", "Lymhurst", "Bridgewatch", "Martlock", "Black Market",
	})
	viper.SetDefault("store.path", "profitmaker.json")
	viper.SetDefault("defaults.tax_rate_percent", 3)
	viper.SetDefault("defaults.assume_premium", true)
	viper.SetDefault("defaults.update_interval_minutes", 5)

	err = viper.ReadInConfig()
	if err != nil {
		// A missing config file is fine, defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = viper.Unmarshal(&config)
	return
}

// Package config loads server configuration from jsonapi.yaml and the
// environment.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. JSONAPI_SERVER_PORT.
const EnvPrefix = "JSONAPI"

// Supported store backends
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendPgx      = "pgx"
	BackendSQLite   = "sqlite"
)

// Supported id strategies
const (
	IDStrategyUUID  = "uuid"
	IDStrategyStore = "store"
)

// Config represents the server configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Store  StoreConfig  `mapstructure:"store"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Host     string `mapstructure:"host"`
	BasePath string `mapstructure:"base_path"`
	// MaxPageSize caps page[limit]; 0 disables the cap
	MaxPageSize int `mapstructure:"max_page_size"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StoreConfig represents document store configuration
type StoreConfig struct {
	Backend    string      `mapstructure:"backend"`
	DSN        string      `mapstructure:"dsn"`
	Redis      RedisConfig `mapstructure:"redis"`
	SchemaFile string      `mapstructure:"schema_file"`
	IDStrategy string      `mapstructure:"id_strategy"`
}

// RedisConfig represents Redis backend configuration
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads configuration. path names a config file; when empty,
// jsonapi.yaml is looked up in the working directory and its absence is
// not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jsonapi")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.base_path", "")
	v.SetDefault("server.max_page_size", 100)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.redis.addr", "localhost:6379")
	v.SetDefault("store.redis.password", "")
	v.SetDefault("store.redis.db", 0)
	v.SetDefault("store.redis.prefix", "jsonapi:")
	v.SetDefault("store.schema_file", "models.yaml")
	v.SetDefault("store.id_strategy", IDStrategyUUID)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.BasePath != "" {
		if !strings.HasPrefix(c.Server.BasePath, "/") {
			return fmt.Errorf("server.base_path must start with '/', got: %s", c.Server.BasePath)
		}
		if strings.HasSuffix(c.Server.BasePath, "/") {
			return fmt.Errorf("server.base_path must not end with '/', got: %s", c.Server.BasePath)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got: %d", c.Server.Port)
	}
	if c.Server.MaxPageSize < 0 {
		return fmt.Errorf("server.max_page_size must not be negative, got: %d", c.Server.MaxPageSize)
	}

	switch c.Store.Backend {
	case BackendMemory, BackendRedis:
	case BackendPostgres, BackendPgx, BackendSQLite:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store.backend: %s", c.Store.Backend)
	}

	switch c.Store.IDStrategy {
	case IDStrategyUUID, IDStrategyStore:
	default:
		return fmt.Errorf("unknown store.id_strategy: %s", c.Store.IDStrategy)
	}
	return nil
}

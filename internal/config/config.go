package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"classhub/internal/rules"
)

// Config holds all configuration for the service
type Config struct {
	Server   ServerConfig
	Data     DataConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Rules    RulesConfig
	LogLevel string `mapstructure:"log_level"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
}

type DataConfig struct {
	Dir          string        `mapstructure:"dir"`
	FacesDir     string        `mapstructure:"faces_dir"`
	LogCap       int           `mapstructure:"log_cap"`
	SaveInterval time.Duration `mapstructure:"save_interval"`
}

type AuthConfig struct {
	AdminUser     string        `mapstructure:"admin_user"`
	AdminPass     string        `mapstructure:"admin_pass"`
	SessionTTL    time.Duration `mapstructure:"session_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Store         string        `mapstructure:"store"` // "memory" or "redis"
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RulesConfig struct {
	Severity []rules.Rule `mapstructure:"severity"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetEnvPrefix("CLASSHUB")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	viper.AutomaticEnv()

	setDefaults()

	// Load config file if exists
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if len(config.Rules.Severity) == 0 {
		config.Rules.Severity = rules.Defaults()
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "15s")
	viper.SetDefault("server.shutdown_timeout", "30s")
	viper.SetDefault("server.cors_origins", []string{"*"})

	// Data defaults
	viper.SetDefault("data.dir", "data")
	viper.SetDefault("data.faces_dir", "ai_processor/faces_db")
	viper.SetDefault("data.log_cap", 1000)
	viper.SetDefault("data.save_interval", "5m")

	// Auth defaults. The single credential pair matches what the edge
	// devices and the dashboard were shipped with.
	viper.SetDefault("auth.admin_user", "admin")
	viper.SetDefault("auth.admin_pass", "admin")
	viper.SetDefault("auth.session_ttl", "24h")
	viper.SetDefault("auth.sweep_interval", "1h")
	viper.SetDefault("auth.store", "memory")

	// Redis defaults (only used when auth.store is "redis")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Data.Dir == "" {
		return fmt.Errorf("data dir is required")
	}
	if config.Data.LogCap <= 0 {
		return fmt.Errorf("data log_cap must be positive")
	}
	if config.Auth.Store != "memory" && config.Auth.Store != "redis" {
		return fmt.Errorf("auth store must be \"memory\" or \"redis\", got %q", config.Auth.Store)
	}
	if config.Auth.Store == "redis" && config.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required when auth store is redis")
	}
	if config.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth session_ttl must be positive")
	}
	return nil
}

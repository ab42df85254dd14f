package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the resolved runtime configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Canvas  CanvasConfig  `mapstructure:"canvas"`
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// AuthConfig holds the single login accepted by the dashboard
type AuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type CanvasConfig struct {
	PerPage int           `mapstructure:"per_page"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 keeps the http.Client default
}

type ReportConfig struct {
	MaxFacets int `mapstructure:"max_facets"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// New returns a viper instance with defaults and environment binding applied.
// Environment variables use the RUBRIC_ prefix, e.g. RUBRIC_REDIS_ADDR.
func New() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 8)
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("cache.ttl", time.Hour)
	v.SetDefault("auth.username", "admin")
	v.SetDefault("auth.password", "password123")
	v.SetDefault("canvas.per_page", 100)
	v.SetDefault("canvas.timeout", time.Duration(0))
	v.SetDefault("report.max_facets", 12)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("RUBRIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads an optional .env file and an optional config file, then
// decodes everything into a Config.
func Load(v *viper.Viper, dotEnvPath, configFile string) (*Config, error) {
	if dotEnvPath != "" {
		if _, err := os.Stat(dotEnvPath); err == nil {
			if err := godotenv.Load(dotEnvPath); err != nil {
				return nil, errors.Wrapf(err, "config.godotenv(%s)", dotEnvPath)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "config.os.Stat(%s)", dotEnvPath)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "config.ReadInConfig(%s)", configFile)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config.Unmarshal")
	}
	if cfg.Canvas.PerPage <= 0 {
		cfg.Canvas.PerPage = 100
	}
	if cfg.Report.MaxFacets <= 0 {
		cfg.Report.MaxFacets = 12
	}
	return &cfg, nil
}

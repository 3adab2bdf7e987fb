// Package config loads runtime configuration from environment variables and
// an optional YAML file, with hot-reload for operational tunables.
package config

import (
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/fx"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Presence PresenceConfig `mapstructure:"presence"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Otel     OtelConfig     `mapstructure:"otel"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	// Driver is one of postgres, mysql, sqlite.
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type PresenceConfig struct {
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	ManualEndCooldown time.Duration `mapstructure:"manual_end_cooldown"`
}

type SessionsConfig struct {
	AlertInterval    time.Duration `mapstructure:"alert_interval"`
	TimerWarnMinutes int           `mapstructure:"timer_warn_minutes"`
}

type NotifyConfig struct {
	WebhookURL    string        `mapstructure:"webhook_url"`
	DispatchBatch int           `mapstructure:"dispatch_batch"`
	Interval      time.Duration `mapstructure:"interval"`
}

type OtelConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load reads .env, then config.yaml if present, then PLAYDEN_* env vars.
// File changes re-apply operational tunables without a restart.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("PLAYDEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:playden.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("presence.poll_interval", 5*time.Second)
	v.SetDefault("presence.manual_end_cooldown", 5*time.Minute)
	v.SetDefault("sessions.alert_interval", 30*time.Second)
	v.SetDefault("sessions.timer_warn_minutes", 5)
	v.SetDefault("notify.dispatch_batch", 50)
	v.SetDefault("notify.interval", 5*time.Second)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/playden")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		v.OnConfigChange(func(fsnotify.Event) {
			var next Config
			if err := v.Unmarshal(&next); err == nil {
				reloadable.Store(&next)
			}
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	reloadable.Store(&cfg)
	return &cfg, nil
}

var reloadable atomic.Pointer[Config]

// Current returns the most recently loaded configuration. Loop intervals and
// the manual-end cooldown read through this so a config file edit takes
// effect on the next tick.
func Current() *Config {
	return reloadable.Load()
}

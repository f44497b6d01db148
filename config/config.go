// Package config loads server settings from a config file, a .env file and
// ATTEND_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/warp/attendance/leave"
	"github.com/warp/attendance/workcal"
)

// EnvPrefix is prepended to every environment override, e.g.
// ATTEND_SERVER_PORT or ATTEND_LEAVE_RECALC_SCOPE.
const EnvPrefix = "ATTEND"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"db"`
	Log      LogConfig      `mapstructure:"log"`
	Business BusinessConfig `mapstructure:"business"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Leave    LeaveConfig    `mapstructure:"leave"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig points at the SQLite file. ":memory:" keeps everything in
// process and is lost on exit.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BusinessConfig pins the zone all hours are computed in.
type BusinessConfig struct {
	Timezone string `mapstructure:"timezone"`
}

// ClockConfig controls server clock correction. An empty SyncURL disables
// syncing and the server uses its own clock.
type ClockConfig struct {
	SyncURL      string        `mapstructure:"sync_url"`
	SyncInterval time.Duration `mapstructure:"sync_interval"`
	SyncTimeout  time.Duration `mapstructure:"sync_timeout"`
}

type LeaveConfig struct {
	RecalcScope string `mapstructure:"recalc_scope"`
}

// Load reads configuration. Precedence: environment > .env > config file >
// defaults. An empty path searches ./config and . for config.yaml; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	// .env is optional; a missing one is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.path", "attendance.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("business.timezone", workcal.DefaultZone)

	v.SetDefault("clock.sync_url", "")
	v.SetDefault("clock.sync_interval", "1h")
	v.SetDefault("clock.sync_timeout", "5s")

	v.SetDefault("leave.recalc_scope", string(leave.ScopeOpen))
}

// Validate checks the settings that would otherwise fail late, at first use.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: db.path is required")
	}
	if _, err := workcal.LoadZone(c.Business.Timezone); err != nil {
		return fmt.Errorf("config: business.timezone: %w", err)
	}
	if _, err := leave.ParseRecalcScope(c.Leave.RecalcScope); err != nil {
		return fmt.Errorf("config: leave.recalc_scope: %w", err)
	}
	if c.Clock.SyncURL != "" && c.Clock.SyncInterval <= 0 {
		return fmt.Errorf("config: clock.sync_interval must be positive when clock.sync_url is set")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format must be json or console, got %q", c.Log.Format)
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

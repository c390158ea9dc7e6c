// Package config loads the service configuration from configs/config.yml and
// WELLPUMP_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // the access window must not depend on the host's zoneinfo

	"wellpump/internal/platform"

	"github.com/spf13/viper"
)

const envPrefix = "WELLPUMP"

// Storage drivers for the session cache and the pump phase.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Platform PlatformConfig `mapstructure:"platform"`
	Pump     PumpConfig     `mapstructure:"pump"`
	Window   WindowConfig   `mapstructure:"window"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Auth     AuthConfig     `mapstructure:"auth"`
}

type ServerConfig struct {
	Port              string        `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type PlatformConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	Serial       string        `mapstructure:"serial"`
	TelemetryKey string        `mapstructure:"telemetry_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	SessionTTL   time.Duration `mapstructure:"session_ttl"`
	Breaker      BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	Interval    time.Duration `mapstructure:"interval"`
}

type PumpConfig struct {
	HighLevel   float64       `mapstructure:"high_level"`  // cm
	LevelScale  float64       `mapstructure:"level_scale"` // raw sensor units -> cm
	OnDuration  time.Duration `mapstructure:"on_duration"`
	OffDuration time.Duration `mapstructure:"off_duration"`
	Outputs     []string      `mapstructure:"outputs"`
}

// MinuteRange is a half-open [From, To) interval of minutes since midnight.
type MinuteRange struct {
	From int `mapstructure:"from"`
	To   int `mapstructure:"to"`
}

type WindowConfig struct {
	Timezone string        `mapstructure:"timezone"`
	Weekday  []MinuteRange `mapstructure:"weekday"`
	Weekend  []MinuteRange `mapstructure:"weekend"`
}

type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SessionFile string `mapstructure:"session_file"`
	PhaseFile   string `mapstructure:"phase_file"`
	DBPath      string `mapstructure:"db_path"`
}

type ScheduleConfig struct {
	// Interval between in-process runs; 0 leaves scheduling to an external trigger.
	Interval time.Duration `mapstructure:"interval"`
}

type AuthConfig struct {
	Username     string        `mapstructure:"username"`
	PasswordHash string        `mapstructure:"password_hash"` // bcrypt
	SigningKey   string        `mapstructure:"signing_key"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
}

// Load reads <dir>/config.yml if present, applies WELLPUMP_* overrides
// (WELLPUMP_PLATFORM_PASSWORD, ...) and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("log.level", "info")

	v.SetDefault("platform.base_url", "https://cml.seapraha.cz")
	v.SetDefault("platform.username", "")
	v.SetDefault("platform.password", "")
	v.SetDefault("platform.serial", "")
	v.SetDefault("platform.telemetry_key", "ain1")
	v.SetDefault("platform.timeout", 15*time.Second)
	v.SetDefault("platform.session_ttl", 24*time.Hour)
	v.SetDefault("platform.breaker.max_failures", 5)
	v.SetDefault("platform.breaker.open_timeout", time.Minute)
	v.SetDefault("platform.breaker.interval", 0)

	v.SetDefault("pump.high_level", 160.0)
	v.SetDefault("pump.level_scale", 100.0)
	v.SetDefault("pump.on_duration", 3*time.Minute)
	v.SetDefault("pump.off_duration", 25*time.Minute)
	v.SetDefault("pump.outputs", []string{"OUT1", "OUT2"})

	v.SetDefault("window.timezone", "Europe/Prague")
	v.SetDefault("window.weekday", []map[string]int{
		{"from": 0, "to": 170},
		{"from": 660, "to": 891},
		{"from": 1380, "to": 1440},
	})
	v.SetDefault("window.weekend", []map[string]int{
		{"from": 0, "to": 170},
		{"from": 1380, "to": 1440},
	})

	v.SetDefault("storage.driver", StorageFile)
	v.SetDefault("storage.session_file", "data/session.json")
	v.SetDefault("storage.phase_file", "data/phase.json")
	v.SetDefault("storage.db_path", "data/wellpump.db")

	v.SetDefault("schedule.interval", 0)

	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password_hash", "")
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)
}

// Validate reports every configuration problem found, joined into one error.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	p := c.Platform
	if p.BaseURL == "" {
		add("platform.base_url is required")
	}
	if p.Username == "" || p.Password == "" {
		add("platform.username and platform.password are required")
	}
	if p.Serial == "" {
		add("platform.serial is required")
	}
	if p.TelemetryKey == "" {
		add("platform.telemetry_key is required")
	}

	if c.Pump.HighLevel <= 0 || c.Pump.LevelScale <= 0 {
		add("pump.high_level and pump.level_scale must be positive")
	}
	if c.Pump.OnDuration <= 0 || c.Pump.OffDuration <= 0 {
		add("pump.on_duration and pump.off_duration must be positive")
	}
	if len(c.Pump.Outputs) == 0 {
		add("pump.outputs must name at least one relay")
	}
	for _, out := range c.Pump.Outputs {
		if !platform.KnownOutput(out) {
			add("pump.outputs: unknown relay %q (want %s or %s)", out, platform.Output1, platform.Output2)
		}
	}

	if _, err := time.LoadLocation(c.Window.Timezone); err != nil {
		add("window.timezone: %v", err)
	}
	for name, ranges := range map[string][]MinuteRange{"weekday": c.Window.Weekday, "weekend": c.Window.Weekend} {
		for _, r := range ranges {
			if r.From < 0 || r.To > 24*60 || r.From >= r.To {
				add("window.%s: invalid range [%d, %d)", name, r.From, r.To)
			}
		}
	}

	switch c.Storage.Driver {
	case StorageFile:
		if c.Storage.SessionFile == "" || c.Storage.PhaseFile == "" {
			add("storage.session_file and storage.phase_file are required for the file driver")
		}
	case StorageSQLite:
	default:
		add("storage.driver must be %q or %q, got %q", StorageFile, StorageSQLite, c.Storage.Driver)
	}
	if c.Storage.DBPath == "" {
		add("storage.db_path is required")
	}

	if c.Schedule.Interval < 0 {
		add("schedule.interval must not be negative")
	}

	if c.Auth.Username != "" && (c.Auth.PasswordHash == "" || c.Auth.SigningKey == "") {
		add("auth.password_hash and auth.signing_key are required when auth.username is set")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Location returns the time zone the access window is evaluated in.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Window.Timezone)
}

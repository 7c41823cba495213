package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// maxBlockMinutes is the largest event the planner will ever emit. The working
// window must hold at least one such block or the fit loop could never place it.
const maxBlockMinutes = 8 * 60

// Config keeps runtime settings for the scheduler service.
type Config struct {
	Environment string `mapstructure:"APP_ENV"`
	ServerAddr  string `mapstructure:"SERVER_ADDR"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	ScheduleTimezone string `mapstructure:"SCHEDULE_TIMEZONE"`
	WindowStart      string `mapstructure:"WINDOW_START"`
	WindowEnd        string `mapstructure:"WINDOW_END"`

	OracleAPIKey  string        `mapstructure:"ORACLE_API_KEY"`
	OracleBaseURL string        `mapstructure:"ORACLE_BASE_URL"`
	OracleModel   string        `mapstructure:"ORACLE_MODEL"`
	OracleTimeout time.Duration `mapstructure:"ORACLE_TIMEOUT"`

	RescheduleInterval time.Duration `mapstructure:"RESCHEDULE_INTERVAL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`

	// Derived during Load.
	Location           *time.Location `mapstructure:"-"`
	WindowStartMinutes int            `mapstructure:"-"`
	WindowEndMinutes   int            `mapstructure:"-"`
}

// Load reads configuration from an optional .env file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "beacon_scheduler.db")
	v.SetDefault("SCHEDULE_TIMEZONE", "Europe/London")
	v.SetDefault("WINDOW_START", "09:00")
	v.SetDefault("WINDOW_END", "21:00")
	v.SetDefault("ORACLE_API_KEY", "")
	v.SetDefault("ORACLE_BASE_URL", "")
	v.SetDefault("ORACLE_MODEL", "deepseek/deepseek-v3")
	v.SetDefault("ORACLE_TIMEOUT", "10s")
	v.SetDefault("RESCHEDULE_INTERVAL", "0")
	v.SetDefault("LOG_LEVEL", "info")

	if err := v.ReadInConfig(); err != nil {
		// The .env file is optional; environment variables still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []string

	loc, err := time.LoadLocation(strings.TrimSpace(c.ScheduleTimezone))
	if err != nil {
		errs = append(errs, fmt.Sprintf("SCHEDULE_TIMEZONE %q is not a valid IANA zone", c.ScheduleTimezone))
	} else {
		c.Location = loc
	}

	start, err := parseClock(c.WindowStart)
	if err != nil {
		errs = append(errs, fmt.Sprintf("WINDOW_START: %v", err))
	}
	end, err := parseClock(c.WindowEnd)
	if err != nil {
		errs = append(errs, fmt.Sprintf("WINDOW_END: %v", err))
	}
	if len(errs) == 0 {
		switch {
		case start >= end:
			errs = append(errs, "WINDOW_START must be before WINDOW_END")
		case end-start < maxBlockMinutes:
			errs = append(errs, fmt.Sprintf("working window must be at least %d minutes", maxBlockMinutes))
		default:
			c.WindowStartMinutes = start
			c.WindowEndMinutes = end
		}
	}

	if c.OracleTimeout <= 0 {
		errs = append(errs, "ORACLE_TIMEOUT must be positive")
	}
	if c.RescheduleInterval < 0 {
		errs = append(errs, "RESCHEDULE_INTERVAL cannot be negative")
	}
	if strings.TrimSpace(c.OracleAPIKey) != "" && strings.TrimSpace(c.OracleModel) == "" {
		errs = append(errs, "ORACLE_MODEL cannot be blank when ORACLE_API_KEY is set")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// OracleEnabled reports whether a live oracle client should be constructed.
// Without a key the engine runs on stored scores alone.
func (c Config) OracleEnabled() bool {
	return strings.TrimSpace(c.OracleAPIKey) != ""
}

// parseClock converts an HH:MM string into minutes from midnight.
func parseClock(timeStr string) (int, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute in %q", timeStr)
	}
	return hour*60 + minute, nil
}

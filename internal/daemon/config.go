// Package daemon wires the service together: configuration, storage,
// scheduler, and the HTTP server lifecycle.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Config is the daemon configuration. Values come from defaults, then the
// TOML file, then environment overrides, in that order.
type Config struct {
	API       APIConfig       `toml:"api"`
	Database  DatabaseConfig  `toml:"database"`
	Auth      AuthConfig      `toml:"auth"`
	Game      GameConfig      `toml:"game"`
	Scheduler SchedulerConfig `toml:"scheduler"`
}

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Host           string `toml:"host" env:"COUPLES_API_HOST"`
	Port           int    `toml:"port" env:"COUPLES_API_PORT"`
	MetricsEnabled bool   `toml:"metrics_enabled" env:"COUPLES_METRICS_ENABLED"`
}

// DatabaseConfig configures the sqlite store.
type DatabaseConfig struct {
	Dir string `toml:"dir" env:"COUPLES_DB_DIR"`
}

// AuthConfig configures PIN login and session tokens.
type AuthConfig struct {
	TokenSecret   string `toml:"token_secret" env:"COUPLES_TOKEN_SECRET"`
	TokenTTLHours int    `toml:"token_ttl_hours" env:"COUPLES_TOKEN_TTL_HOURS"`
}

// GameConfig carries the game rules that are deployment constants.
type GameConfig struct {
	CurrencyName    string  `toml:"currency_name" env:"COUPLES_CURRENCY_NAME"`
	MinCreditCost   int     `toml:"min_credit_cost" env:"COUPLES_MIN_CREDIT_COST"`
	MaxCreditCost   int     `toml:"max_credit_cost" env:"COUPLES_MAX_CREDIT_COST"`
	InitialCredits  int     `toml:"initial_credits" env:"COUPLES_INITIAL_CREDITS"`
	ExpiryGraceDays float64 `toml:"expiry_grace_days" env:"COUPLES_EXPIRY_GRACE_DAYS"`
}

// SchedulerConfig carries the cron specs for the background jobs.
type SchedulerConfig struct {
	Enabled        bool   `toml:"enabled" env:"COUPLES_SCHEDULER_ENABLED"`
	WeeklyTickSpec string `toml:"weekly_tick_spec" env:"COUPLES_WEEKLY_TICK_SPEC"`
	SweepSpec      string `toml:"sweep_spec" env:"COUPLES_SWEEP_SPEC"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:           "127.0.0.1",
			Port:           8080,
			MetricsEnabled: true,
		},
		Database: DatabaseConfig{
			Dir: defaultDataDir(),
		},
		Auth: AuthConfig{
			TokenTTLHours: 720,
		},
		Game: GameConfig{
			CurrencyName:    "Venus",
			MinCreditCost:   1,
			MaxCreditCost:   7,
			InitialCredits:  10,
			ExpiryGraceDays: 2,
		},
		Scheduler: SchedulerConfig{
			Enabled:        true,
			WeeklyTickSpec: "@hourly",
			SweepSpec:      "@every 30m",
		},
	}
}

// LoadConfig reads the TOML file at path (missing file is fine: defaults
// apply) and then applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env overrides: %w", err)
	}

	if cfg.Game.MinCreditCost < 1 || cfg.Game.MaxCreditCost < cfg.Game.MinCreditCost {
		return cfg, fmt.Errorf("invalid credit cost bounds [%d, %d]", cfg.Game.MinCreditCost, cfg.Game.MaxCreditCost)
	}
	return cfg, nil
}

// DefaultConfigPath returns the conventional config file location.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".couples", "config.toml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".couples")
}

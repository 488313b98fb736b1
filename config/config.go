// Package config loads server configuration in layers: built-in defaults,
// then an optional YAML file, then PAYROLL_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/factory"
	"github.com/warp/payroll-leave/leave"
)

const envPrefix = "PAYROLL_"

// Config holds all configuration for the server.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       LogConfig       `koanf:"log"`
	Leave     LeaveConfig     `koanf:"leave"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	AllowedOrigins  []string      `koanf:"allowed_origins"`
}

type DatabaseConfig struct {
	// Path of the SQLite file, or ":memory:".
	Path string `koanf:"path"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// LeaveConfig configures the leave policy. PolicyFile, when set, takes
// precedence over the inline values.
type LeaveConfig struct {
	MaxPaidDaysPerMonth float64 `koanf:"max_paid_days_per_month"`
	AnnualAllotment     float64 `koanf:"annual_allotment"`
	PolicyFile          string  `koanf:"policy_file"`
}

type SchedulerConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval"`
}

func defaults() map[string]any {
	return map[string]any{
		"server.port":             8080,
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.idle_timeout":     "60s",
		"server.shutdown_timeout": "10s",
		"server.allowed_origins":  []string{"*"},

		"database.path": "./data/payroll.db",

		"log.level":  "info",
		"log.format": "json",

		"leave.max_paid_days_per_month": 1.5,
		"leave.annual_allotment":        0.0,
		"leave.policy_file":             "",

		"scheduler.enabled":  true,
		"scheduler.interval": "1h",
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply.
//
//	PAYROLL_SERVER_PORT                   -> server.port
//	PAYROLL_LEAVE_MAX_PAID_DAYS_PER_MONTH -> leave.max_paid_days_per_month
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
	}

	// Known keys resolve underscores inside names, e.g. read_timeout.
	envLookup := buildEnvLookup(k.Keys())
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			if koanfKey, ok := envLookup[key]; ok {
				if koanfKey == "server.allowed_origins" {
					return koanfKey, strings.Split(value, ",")
				}
				return koanfKey, value
			}
			return strings.ReplaceAll(key, "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &cfg, nil
}

func buildEnvLookup(keys []string) map[string]string {
	lookup := make(map[string]string, len(keys))
	for _, key := range keys {
		lookup[strings.ReplaceAll(key, ".", "_")] = key
	}
	return lookup
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path must not be empty"))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	if c.Leave.PolicyFile == "" && c.Leave.MaxPaidDaysPerMonth <= 0 {
		errs = append(errs, fmt.Errorf("leave.max_paid_days_per_month must be positive, got %v", c.Leave.MaxPaidDaysPerMonth))
	}
	if c.Leave.AnnualAllotment < 0 {
		errs = append(errs, fmt.Errorf("leave.annual_allotment must not be negative, got %v", c.Leave.AnnualAllotment))
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.interval must be positive, got %s", c.Scheduler.Interval))
	}
	return errors.Join(errs...)
}

// Policy returns the configured leave policy, read from PolicyFile if set.
func (c LeaveConfig) Policy() (leave.Policy, error) {
	f := factory.NewPolicyFactory()
	if c.PolicyFile != "" {
		return f.LoadPolicyFile(c.PolicyFile)
	}

	pj := factory.PolicyJSON{
		Name:                "config",
		MaxPaidDaysPerMonth: decimal.NewFromFloat(c.MaxPaidDaysPerMonth),
	}
	if c.AnnualAllotment > 0 {
		annual := decimal.NewFromFloat(c.AnnualAllotment)
		pj.AnnualAllotment = &annual
	}
	return f.Build(pj)
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all engine configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	Engine    EngineConfig
	Metrics   MetricsConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// EngineConfig holds tax engine settings
type EngineConfig struct {
	Timezone             string // IANA zone for tax-year boundaries and month grouping
	RateTableDir         string // optional directory of rate table YAML overriding the embedded set
	YearsBack            int    // tax years offered by the year list
	VATThresholdOverride string // optional decimal replacing the rate table's VAT threshold
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool
	Namespace string
}

// TelemetryConfig holds OpenTelemetry tracing settings
type TelemetryConfig struct {
	Enabled           bool    // export spans over OTLP/gRPC
	CollectorEndpoint string  // e.g. "localhost:4317"
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // non-TLS connection, development only
}

// Location loads the configured time zone.
func (e EngineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("engine.timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// VATThreshold returns the override threshold, if one is set.
func (e EngineConfig) VATThreshold() (decimal.Decimal, bool, error) {
	if strings.TrimSpace(e.VATThresholdOverride) == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(e.VATThresholdOverride))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("engine.vat_threshold_override %q: %w", e.VATThresholdOverride, err)
	}
	return d, true, nil
}

// Load reads configuration with this priority, highest first:
// 1. Environment variables with LEDGER_ prefix (e.g., LEDGER_ENGINE_TIMEZONE)
// 2. config.toml from ., ./config or /etc/taxengine, or the explicit file
// 3. Built-in defaults
func Load(file ...string) (*Config, error) {
	v := viper.New()

	if len(file) > 0 && file[0] != "" {
		v.SetConfigFile(file[0])
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/taxengine")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Engine: EngineConfig{
			Timezone:             v.GetString("engine.timezone"),
			RateTableDir:         v.GetString("engine.rate_table_dir"),
			YearsBack:            v.GetInt("engine.years_back"),
			VATThresholdOverride: v.GetString("engine.vat_threshold_override"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics.enabled"),
			Namespace: v.GetString("metrics.namespace"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "taxengine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
	if cfg.Engine.Timezone == "" {
		cfg.Engine.Timezone = "Europe/London"
	}
	if cfg.Engine.YearsBack == 0 {
		cfg.Engine.YearsBack = 7
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "taxengine"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if _, err := c.Engine.Location(); err != nil {
		return err
	}
	if c.Engine.YearsBack < 1 || c.Engine.YearsBack > 20 {
		return fmt.Errorf("engine.years_back must be between 1 and 20, got %d", c.Engine.YearsBack)
	}
	if d, ok, err := c.Engine.VATThreshold(); err != nil {
		return err
	} else if ok && d.IsNegative() {
		return fmt.Errorf("engine.vat_threshold_override must not be negative")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}

	if c.App.Env == "production" {
		if c.Log.Format != "json" {
			return fmt.Errorf("log.format must be json in production")
		}
		if c.Telemetry.Enabled && c.Telemetry.Insecure {
			return fmt.Errorf("telemetry.insecure must be false in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	return nil
}

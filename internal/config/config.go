// Package config loads application configuration from file, .env and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"wealth-planner/internal/montecarlo"
	"wealth-planner/internal/portfolio"
	"wealth-planner/internal/rescue"
	"wealth-planner/internal/status"
)

// EnvPrefix prefixes every environment override, e.g. WEALTH_SIMULATION_TIMEOUT.
const EnvPrefix = "WEALTH"

// Config holds all application configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Storage     StorageConfig    `mapstructure:"storage"`
	Simulation  SimulationConfig `mapstructure:"simulation"`
	Status      StatusConfig     `mapstructure:"status"`
	Rescue      RescueConfig     `mapstructure:"rescue"`
	History     HistoryConfig    `mapstructure:"history"`
	Portfolio   PortfolioConfig  `mapstructure:"portfolio"`
	Reporting   ReportingConfig  `mapstructure:"reporting"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and configures the stores.
type StorageConfig struct {
	UseMemory     bool   `mapstructure:"use_memory"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"`
	MaxConns      int32  `mapstructure:"max_conns"`
	RunMigrations bool   `mapstructure:"run_migrations"`
}

// SimulationConfig configures the Monte Carlo engine and request handling.
type SimulationConfig struct {
	DefaultPaths    int           `mapstructure:"default_paths"`
	MaxPaths        int           `mapstructure:"max_paths"`
	MinPaths        int           `mapstructure:"min_paths"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DegradeFactor   float64       `mapstructure:"degrade_factor"`
	Workers         int           `mapstructure:"workers"`
	ChunkSize       int           `mapstructure:"chunk_size"`
	WorstPercentile float64       `mapstructure:"worst_percentile"`
	BestPercentile  float64       `mapstructure:"best_percentile"`
}

// StatusConfig holds the classifier thresholds.
type StatusConfig struct {
	OnTrackMin float64 `mapstructure:"on_track_min"`
	MonitorMin float64 `mapstructure:"monitor_min"`
}

// RescueConfig holds the rescue generator constants.
type RescueConfig struct {
	Paths                   int     `mapstructure:"paths"`
	AllowExtend             bool    `mapstructure:"allow_extend"`
	ExtendYears             float64 `mapstructure:"extend_years"`
	LowRiskMaxVolatility    float64 `mapstructure:"low_risk_max_volatility"`
	MediumRiskMaxVolatility float64 `mapstructure:"medium_risk_max_volatility"`
}

// HistoryConfig configures the snapshot scheduler.
type HistoryConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Schedule string        `mapstructure:"schedule"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PortfolioConfig selects the allocation source.
type PortfolioConfig struct {
	Source  string        `mapstructure:"source"` // "store" | "http"
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig configures the portfolio circuit breaker.
type BreakerConfig struct {
	MaxRequests uint32        `mapstructure:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// ReportingConfig configures report rendering.
type ReportingConfig struct {
	Currency string `mapstructure:"currency"` // ISO 4217 code
}

// Portfolio sources.
const (
	PortfolioSourceStore = "store"
	PortfolioSourceHTTP  = "http"
)

// Load reads configuration. path, when non-empty, names the config file;
// otherwise config.yaml is looked up in ./configs and the working directory
// and is optional. A .env file in the working directory is loaded first.
// Environment variables (WEALTH_ prefix, "." replaced by "_") override both.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second) // covers a timed-out attempt plus its degraded retry
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Storage defaults
	v.SetDefault("storage.use_memory", true)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.max_conns", 10)
	v.SetDefault("storage.run_migrations", true)

	// Simulation defaults
	v.SetDefault("simulation.default_paths", 5000)
	v.SetDefault("simulation.max_paths", 200000)
	v.SetDefault("simulation.min_paths", 500)
	v.SetDefault("simulation.timeout", 30*time.Second)
	v.SetDefault("simulation.degrade_factor", 0.25)
	v.SetDefault("simulation.workers", 0)
	v.SetDefault("simulation.chunk_size", 256)
	v.SetDefault("simulation.worst_percentile", montecarlo.DefaultBand.Worst)
	v.SetDefault("simulation.best_percentile", montecarlo.DefaultBand.Best)

	// Status defaults
	v.SetDefault("status.on_track_min", status.DefaultPolicy.OnTrackMin)
	v.SetDefault("status.monitor_min", status.DefaultPolicy.MonitorMin)

	// Rescue defaults
	rp := rescue.DefaultPolicy()
	v.SetDefault("rescue.paths", rp.NumPaths)
	v.SetDefault("rescue.allow_extend", rp.AllowExtend)
	v.SetDefault("rescue.extend_years", rp.ExtendYears)
	v.SetDefault("rescue.low_risk_max_volatility", rp.LowRiskMaxVolatility)
	v.SetDefault("rescue.medium_risk_max_volatility", rp.MediumRiskMaxVolatility)

	// History defaults
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.schedule", "0 30 23 * * *")
	v.SetDefault("history.timeout", 10*time.Minute)

	// Portfolio defaults
	bc := portfolio.DefaultBreakerConfig()
	v.SetDefault("portfolio.source", PortfolioSourceStore)
	v.SetDefault("portfolio.base_url", "")
	v.SetDefault("portfolio.timeout", 5*time.Second)
	v.SetDefault("portfolio.breaker.max_requests", bc.MaxRequests)
	v.SetDefault("portfolio.breaker.interval", bc.Interval)
	v.SetDefault("portfolio.breaker.timeout", bc.Timeout)

	// Reporting defaults
	v.SetDefault("reporting.currency", money.INR)
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if !c.Storage.UseMemory {
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required unless storage.use_memory is set")
		}
		if c.Storage.ClickhouseDSN == "" {
			return errors.New("storage.clickhouse_dsn is required unless storage.use_memory is set")
		}
	}

	s := c.Simulation
	if s.MinPaths <= 0 || s.MinPaths > s.DefaultPaths || s.DefaultPaths > s.MaxPaths {
		return fmt.Errorf("simulation paths must satisfy 0 < min_paths <= default_paths <= max_paths, got %d / %d / %d",
			s.MinPaths, s.DefaultPaths, s.MaxPaths)
	}
	if s.Timeout <= 0 {
		return errors.New("simulation.timeout must be positive")
	}
	if s.DegradeFactor <= 0 || s.DegradeFactor >= 1 {
		return fmt.Errorf("simulation.degrade_factor must be in (0, 1), got %v", s.DegradeFactor)
	}
	if err := s.Band().Validate(); err != nil {
		return fmt.Errorf("simulation band: %w", err)
	}

	if err := c.Status.Policy().Validate(); err != nil {
		return err
	}
	if err := c.Rescue.Policy().Validate(); err != nil {
		return err
	}

	if c.History.Enabled && c.History.Schedule == "" {
		return errors.New("history.schedule is required when history is enabled")
	}

	switch c.Portfolio.Source {
	case PortfolioSourceStore:
	case PortfolioSourceHTTP:
		if c.Portfolio.BaseURL == "" {
			return errors.New("portfolio.base_url is required for the http source")
		}
	default:
		return fmt.Errorf("portfolio.source must be %q or %q, got %q",
			PortfolioSourceStore, PortfolioSourceHTTP, c.Portfolio.Source)
	}

	if money.GetCurrency(c.Reporting.Currency) == nil {
		return fmt.Errorf("reporting.currency %q is not an ISO 4217 code", c.Reporting.Currency)
	}

	return nil
}

// Band returns the configured percentile band.
func (s SimulationConfig) Band() montecarlo.Band {
	return montecarlo.Band{Worst: s.WorstPercentile, Best: s.BestPercentile}
}

// Policy returns the classifier policy.
func (s StatusConfig) Policy() status.Policy {
	return status.Policy{OnTrackMin: s.OnTrackMin, MonitorMin: s.MonitorMin}
}

// Policy returns the rescue policy with the default allocation mixes.
func (r RescueConfig) Policy() rescue.Policy {
	return rescue.Policy{
		NumPaths:                r.Paths,
		AllowExtend:             r.AllowExtend,
		ExtendYears:             r.ExtendYears,
		LowRiskMaxVolatility:    r.LowRiskMaxVolatility,
		MediumRiskMaxVolatility: r.MediumRiskMaxVolatility,
		Mixes:                   rescue.DefaultMixes,
	}
}

// BreakerConfig returns the portfolio breaker settings.
func (p PortfolioConfig) BreakerConfig() portfolio.BreakerConfig {
	return portfolio.BreakerConfig{
		MaxRequests: p.Breaker.MaxRequests,
		Interval:    p.Breaker.Interval,
		Timeout:     p.Breaker.Timeout,
	}
}

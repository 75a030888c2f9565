package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Log        LogConfig
	Engine     EngineConfig
	AlertState AlertStateConfig
	Redis      RedisConfig
	Telemetry  TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// EngineConfig holds valuation and replenishment settings
type EngineConfig struct {
	ValuationMethod          string  // fifo, lifo, weighted_average, specific_identification
	Currency                 string  // ISO 4217 code used for output rounding
	TaxRate                  float64 // Applied to suggestion subtotals
	ShippingSurcharge        float64 // Charged when a suggestion misses the supplier minimum
	UrgentStockoutDays       int     // Lines at or under this many days are marked urgent
	LeadTimeBufferMultiplier float64 // Supply under lead time × this is low
	ExcessPolicy             string  // reorder_multiple, max_stock_level
	ExcessMultiplier         float64 // On hand over reorder point × this is excess
}

// AlertStateConfig selects where alert workflow state is kept
type AlertStateConfig struct {
	Backend             string // memory, redis
	AllowMemoryFallback bool   // Use memory when redis is unreachable
	PruneStale          bool   // Drop state for items that stopped alerting
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	Key      string // Hash holding alert states
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled               bool          // Whether to enable tracing
	CollectorEndpoint     string        // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio         float64       // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName           string        // Service name for traces and metrics
	Insecure              bool          // Use insecure (non-TLS) connection (development only)
	MetricsEnabled        bool          // Whether to export metrics
	MetricsExportInterval time.Duration // How often metrics are pushed
}

// Load loads configuration from config.toml in the default search paths
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from the given TOML file, or from the default
// search paths when path is empty.
// Priority (highest to lowest):
// 1. Environment variables with ERP_ prefix (e.g., ERP_ENGINE_TAX_RATE)
// 2. config file
// 3. Built-in defaults
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/invengine")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	// Enable environment variable override
	v.SetEnvPrefix("ERP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Booleans whose default is true must be seeded so an unset key reads true
	v.SetDefault("alert_state.allow_memory_fallback", true)
	v.SetDefault("alert_state.prune_stale", true)

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Version: v.GetString("app.version"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Engine: EngineConfig{
			ValuationMethod:          v.GetString("engine.valuation_method"),
			Currency:                 v.GetString("engine.currency"),
			TaxRate:                  v.GetFloat64("engine.tax_rate"),
			ShippingSurcharge:        v.GetFloat64("engine.shipping_surcharge"),
			UrgentStockoutDays:       v.GetInt("engine.urgent_stockout_days"),
			LeadTimeBufferMultiplier: v.GetFloat64("engine.lead_time_buffer_multiplier"),
			ExcessPolicy:             v.GetString("engine.excess_policy"),
			ExcessMultiplier:         v.GetFloat64("engine.excess_multiplier"),
		},
		AlertState: AlertStateConfig{
			Backend:             v.GetString("alert_state.backend"),
			AllowMemoryFallback: v.GetBool("alert_state.allow_memory_fallback"),
			PruneStale:          v.GetBool("alert_state.prune_stale"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			Key:      v.GetString("redis.key"),
		},
		Telemetry: TelemetryConfig{
			Enabled:               v.GetBool("telemetry.enabled"),
			CollectorEndpoint:     v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:         v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:           v.GetString("telemetry.service_name"),
			Insecure:              v.GetBool("telemetry.insecure"),
			MetricsEnabled:        v.GetBool("telemetry.metrics_enabled"),
			MetricsExportInterval: v.GetDuration("telemetry.metrics_export_interval"),
		},
	}

	// Apply defaults for empty values
	applyDefaults(cfg, v)

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields. Numeric
// engine settings are only defaulted when the key is absent, so an explicit
// zero (no tax, free shipping) is kept.
func applyDefaults(cfg *Config, v *viper.Viper) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invengine"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Version == "" {
		cfg.App.Version = "dev"
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

	if cfg.Engine.ValuationMethod == "" {
		cfg.Engine.ValuationMethod = "fifo"
	}
	if cfg.Engine.Currency == "" {
		cfg.Engine.Currency = "USD"
	}
	if !v.IsSet("engine.tax_rate") {
		cfg.Engine.TaxRate = 0.08
	}
	if !v.IsSet("engine.shipping_surcharge") {
		cfg.Engine.ShippingSurcharge = 25
	}
	if !v.IsSet("engine.urgent_stockout_days") {
		cfg.Engine.UrgentStockoutDays = 2
	}
	if cfg.Engine.LeadTimeBufferMultiplier == 0 {
		cfg.Engine.LeadTimeBufferMultiplier = 1.5
	}
	if cfg.Engine.ExcessPolicy == "" {
		cfg.Engine.ExcessPolicy = "reorder_multiple"
	}
	if cfg.Engine.ExcessMultiplier == 0 {
		cfg.Engine.ExcessMultiplier = 5
	}

	if cfg.AlertState.Backend == "" {
		cfg.AlertState.Backend = "memory"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.Key == "" {
		cfg.Redis.Key = "invengine:alert_state"
	}

	// Telemetry defaults
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsExportInterval == 0 {
		cfg.Telemetry.MetricsExportInterval = 60 * time.Second
	}
	// Note: Insecure defaults to false for safety (TLS enabled by default)
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Engine.ValuationMethod {
	case "fifo", "lifo", "weighted_average", "specific_identification":
	default:
		return fmt.Errorf("engine.valuation_method must be one of fifo, lifo, weighted_average, specific_identification, got '%s'",
			c.Engine.ValuationMethod)
	}
	if len(c.Engine.Currency) != 3 {
		return fmt.Errorf("engine.currency must be a 3-letter ISO code, got '%s'", c.Engine.Currency)
	}
	if c.Engine.TaxRate < 0 || c.Engine.TaxRate > 1 {
		return fmt.Errorf("engine.tax_rate must be between 0.0 and 1.0, got %f", c.Engine.TaxRate)
	}
	if c.Engine.ShippingSurcharge < 0 {
		return fmt.Errorf("engine.shipping_surcharge cannot be negative")
	}
	if c.Engine.UrgentStockoutDays < 0 {
		return fmt.Errorf("engine.urgent_stockout_days cannot be negative")
	}
	if c.Engine.LeadTimeBufferMultiplier < 1 {
		return fmt.Errorf("engine.lead_time_buffer_multiplier must be at least 1.0, got %f", c.Engine.LeadTimeBufferMultiplier)
	}
	switch c.Engine.ExcessPolicy {
	case "reorder_multiple", "max_stock_level":
	default:
		return fmt.Errorf("engine.excess_policy must be reorder_multiple or max_stock_level, got '%s'", c.Engine.ExcessPolicy)
	}
	if c.Engine.ExcessMultiplier <= 0 {
		return fmt.Errorf("engine.excess_multiplier must be positive")
	}

	switch c.AlertState.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("alert_state.backend must be memory or redis, got '%s'", c.AlertState.Backend)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.AlertState.Backend == "memory" {
			return fmt.Errorf("alert_state.backend cannot be 'memory' in production (acknowledgements would be lost)")
		}
		if c.AlertState.AllowMemoryFallback {
			return fmt.Errorf("alert_state.allow_memory_fallback must be false in production")
		}
	}

	// Validate telemetry configuration (all environments)
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// IsProduction returns true when running in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	errInvalidPort           = errors.New("config: invalid port number")
	errConcurrencyOutOfRange = errors.New("config: concurrency must be 1-100")
	errInvalidTimeout        = errors.New("config: timeouts must be positive")
	errInvalidTrustURL       = errors.New("config: trust_url must be an absolute http(s) URL")
	errInvalidFormat         = errors.New("config: unsupported value")
	errInvalidBudget         = errors.New("config: load_time_budget_ms must be positive")
	errInvalidThreshold      = errors.New("config: alignment_threshold must be in (0, 100]")
)

// Config holds all application configuration. Values come from defaults,
// an optional config.yaml and AUDITOR_-prefixed environment variables.
type Config struct {
	Env                  string          `mapstructure:"env"`
	ServiceName          string          `mapstructure:"service_name"`
	Port                 string          `mapstructure:"port"`
	LogLevel             string          `mapstructure:"log_level"`
	LogType              string          `mapstructure:"log_type"`
	Concurrency          int             `mapstructure:"concurrency"`
	PageTimeout          time.Duration   `mapstructure:"page_timeout"`
	FetchTimeout         time.Duration   `mapstructure:"fetch_timeout"`
	UserAgent            string          `mapstructure:"user_agent"`
	AllowPrivateNetworks bool            `mapstructure:"allow_private_networks"`
	TrustURL             string          `mapstructure:"trust_url"`
	LoadTimeBudgetMs     int             `mapstructure:"load_time_budget_ms"`
	AlignmentThreshold   float64         `mapstructure:"alignment_threshold"`
	RespectRobots        bool            `mapstructure:"respect_robots"`
	OutputDir            string          `mapstructure:"output_dir"`
	ReportFormat         string          `mapstructure:"report_format"`
	MeshURL              string          `mapstructure:"mesh_url"`
	Cache                CacheConfig     `mapstructure:"cache"`
	Store                StoreConfig     `mapstructure:"store"`
	Telemetry            TelemetryConfig `mapstructure:"telemetry"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Servers []string      `mapstructure:"servers"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CollectorURL string `mapstructure:"collector_url"`
}

var defaults = map[string]any{
	"env":                     "local",
	"service_name":            "structured-web-auditor",
	"port":                    "8080",
	"log_level":               "INFO",
	"log_type":                "text",
	"concurrency":             8,
	"page_timeout":            30 * time.Second,
	"fetch_timeout":           10 * time.Second,
	"user_agent":              "StructuredWebAuditor/1.0",
	"allow_private_networks":  false,
	"trust_url":               "https://structuredweb.org/verify",
	"load_time_budget_ms":     1000,
	"alignment_threshold":     70.0,
	"respect_robots":          false,
	"output_dir":              "reports",
	"report_format":           "text",
	"mesh_url":                "https://structuredweb.org/mesh.json",
	"cache.enabled":           false,
	"cache.servers":           []string{"127.0.0.1:11211"},
	"cache.ttl":               time.Hour,
	"store.enabled":           false,
	"store.path":              "auditor.db",
	"telemetry.enabled":       false,
	"telemetry.collector_url": "localhost:4318",
}

// Load reads the configuration. An empty file means config.yaml in the
// working directory, which may be absent.
func Load(file string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("AUDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("%w: %q", errInvalidPort, c.Port)
	}

	if c.Concurrency < 1 || c.Concurrency > 100 {
		return fmt.Errorf("%w: got %d", errConcurrencyOutOfRange, c.Concurrency)
	}

	if c.PageTimeout <= 0 || c.FetchTimeout <= 0 || (c.Cache.Enabled && c.Cache.TTL <= 0) {
		return errInvalidTimeout
	}

	if c.LoadTimeBudgetMs <= 0 {
		return fmt.Errorf("%w: got %d", errInvalidBudget, c.LoadTimeBudgetMs)
	}
	if c.AlignmentThreshold <= 0 || c.AlignmentThreshold > 100 {
		return fmt.Errorf("%w: got %v", errInvalidThreshold, c.AlignmentThreshold)
	}

	u, err := url.Parse(c.TrustURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", errInvalidTrustURL, c.TrustURL)
	}

	switch strings.ToLower(c.ReportFormat) {
	case "text", "yaml":
	default:
		return fmt.Errorf("%w: report_format %q", errInvalidFormat, c.ReportFormat)
	}
	switch strings.ToLower(c.LogType) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_type %q", errInvalidFormat, c.LogType)
	}

	return nil
}

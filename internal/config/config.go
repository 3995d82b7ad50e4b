// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Limits enforced by Validate.
const (
	MinPollInterval     = 100 * time.Millisecond
	MinMaxContextTokens = 1000
	EnvPrefix           = "LOGWARDEN"
	APIKeyEnv           = "GEMINI_API_KEY"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Monitor() MonitorConfig
	Analyzer() AnalyzerConfig
	Server() ServerConfig

	SetAnalyzerAPIKey(key string)
	SetMonitorUsePolling(b bool)
	SetServerListenAddr(addr string)
}

// Config holds the entire application configuration.
// It uses private fields to enforce access through the Interface's getter methods.
type Config struct {
	logger   LoggerConfig
	monitor  MonitorConfig
	analyzer AnalyzerConfig
	server   ServerConfig
}

// fileConfig is the decode target for viper. Its fields are exported so
// mapstructure can populate them.
type fileConfig struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Monitor  MonitorConfig  `mapstructure:"monitor" yaml:"monitor"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer" yaml:"analyzer"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.logger }
func (c *Config) Monitor() MonitorConfig   { return c.monitor }
func (c *Config) Analyzer() AnalyzerConfig { return c.analyzer }
func (c *Config) Server() ServerConfig     { return c.server }

// --- Setters for CLI overrides ---

func (c *Config) SetAnalyzerAPIKey(key string) { c.analyzer.APIKey = key }
func (c *Config) SetMonitorUsePolling(b bool)  { c.monitor.UsePolling = b }
func (c *Config) SetServerListenAddr(a string) { c.server.ListenAddr = a }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// MonitorConfig controls how watched files are polled and read.
type MonitorConfig struct {
	DefaultPollInterval time.Duration `mapstructure:"default_poll_interval" yaml:"default_poll_interval"`
	MinPollInterval     time.Duration `mapstructure:"min_poll_interval" yaml:"min_poll_interval"`
	// MaxChunkSize caps how much new content is read per tick, e.g. "10MB".
	MaxChunkSize  string `mapstructure:"max_chunk_size" yaml:"max_chunk_size"`
	UsePolling    bool   `mapstructure:"use_polling" yaml:"use_polling"`
	IgnoreInitial bool   `mapstructure:"ignore_initial" yaml:"ignore_initial"`
}

// MaxChunkBytes parses MaxChunkSize.
func (m MonitorConfig) MaxChunkBytes() (int64, error) {
	n, err := humanize.ParseBytes(m.MaxChunkSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max_chunk_size %q: %w", m.MaxChunkSize, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("max_chunk_size must be greater than 0")
	}
	return int64(n), nil
}

// Validate checks the MonitorConfig settings.
func (m *MonitorConfig) Validate() error {
	if m.MinPollInterval < MinPollInterval {
		return fmt.Errorf("min_poll_interval must be at least %s", MinPollInterval)
	}
	if m.DefaultPollInterval < m.MinPollInterval {
		return fmt.Errorf("default_poll_interval must be at least min_poll_interval (%s)", m.MinPollInterval)
	}
	if _, err := m.MaxChunkBytes(); err != nil {
		return err
	}
	return nil
}

// ServerConfig configures the HTTP API served by `logwarden serve`.
type ServerConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr" yaml:"listen_addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Validate checks the ServerConfig settings.
func (s *ServerConfig) Validate() error {
	if s.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be a positive duration")
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be a positive duration")
	}
	return nil
}

// LLMProvider defines the supported LLM providers.
type LLMProvider string

const (
	ProviderGemini LLMProvider = "gemini"
)

// AnalyzerConfig configures the analysis backend.
type AnalyzerConfig struct {
	Provider         LLMProvider   `mapstructure:"provider" yaml:"provider"`
	APIKey           string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint         string        `mapstructure:"endpoint" yaml:"endpoint"`
	FastModel        string        `mapstructure:"fast_model" yaml:"fast_model"`
	PowerfulModel    string        `mapstructure:"powerful_model" yaml:"powerful_model"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	RateLimit        float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second
	Burst            int           `mapstructure:"burst" yaml:"burst"`
	MaxContextTokens int           `mapstructure:"max_context_tokens" yaml:"max_context_tokens"`
	Temperature      float32       `mapstructure:"temperature" yaml:"temperature"`
	TopP             float32       `mapstructure:"top_p" yaml:"top_p"`
	TopK             int           `mapstructure:"top_k" yaml:"top_k"`
	MaxTokens        int           `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Enabled reports whether an LLM backend can be constructed.
func (a AnalyzerConfig) Enabled() bool { return a.APIKey != "" }

// Validate checks the AnalyzerConfig settings.
func (a *AnalyzerConfig) Validate() error {
	if a.MaxContextTokens < MinMaxContextTokens {
		return fmt.Errorf("max_context_tokens must be at least %d", MinMaxContextTokens)
	}
	if a.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be a positive duration")
	}
	if a.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be greater than 0")
	}
	if a.Burst <= 0 {
		return fmt.Errorf("burst must be greater than 0")
	}
	if a.Temperature < 0 || a.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0.0 and 2.0")
	}
	if !a.Enabled() {
		return nil
	}
	if a.Provider != ProviderGemini {
		return fmt.Errorf("unsupported provider %q", a.Provider)
	}
	if a.FastModel == "" || a.PowerfulModel == "" {
		return fmt.Errorf("fast_model and powerful_model are required")
	}
	return nil
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "logwarden")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Monitor --
	v.SetDefault("monitor.default_poll_interval", "1s")
	v.SetDefault("monitor.min_poll_interval", "100ms")
	v.SetDefault("monitor.max_chunk_size", "10MB")
	v.SetDefault("monitor.use_polling", true)
	v.SetDefault("monitor.ignore_initial", false)

	// -- Analyzer --
	v.SetDefault("analyzer.provider", string(ProviderGemini))
	v.SetDefault("analyzer.api_key", "") // Should be set via env var
	v.SetDefault("analyzer.fast_model", "gemini-2.5-flash")
	v.SetDefault("analyzer.powerful_model", "gemini-2.5-pro")
	v.SetDefault("analyzer.request_timeout", "60s")
	v.SetDefault("analyzer.rate_limit", 1.0)
	v.SetDefault("analyzer.burst", 2)
	v.SetDefault("analyzer.max_context_tokens", 8000)
	v.SetDefault("analyzer.temperature", 0.2)
	v.SetDefault("analyzer.top_p", 0.95)
	v.SetDefault("analyzer.top_k", 40)
	v.SetDefault("analyzer.max_tokens", 2048)

	// -- Server --
	v.SetDefault("server.listen_addr", "127.0.0.1:8765")
	v.SetDefault("server.request_timeout", "90s")
	v.SetDefault("server.shutdown_timeout", "10s")
}

// BindEnv wires the LOGWARDEN_ prefix and the well known API key variable into v.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v.BindEnv("analyzer.api_key", EnvPrefix+"_ANALYZER_API_KEY", APIKeyEnv)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	if err := BindEnv(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	// Manually load the key if Unmarshal didn't pick it up
	if cfg.analyzer.APIKey == "" {
		cfg.analyzer.APIKey = os.Getenv(APIKeyEnv)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var raw fileConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &Config{logger: raw.Logger, monitor: raw.Monitor, analyzer: raw.Analyzer, server: raw.Server}, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	var errs error
	if err := c.monitor.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("monitor configuration invalid: %w", err))
	}
	if err := c.analyzer.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("analyzer configuration invalid: %w", err))
	}
	if err := c.server.Validate(); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("server configuration invalid: %w", err))
	}
	return errs
}

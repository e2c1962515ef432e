package config

import (
	"time"

	"go.uber.org/zap"
)

// Default tuning values for the poll cycle.
const (
	// DefaultPollInterval matches the upstream publication cadence: meter
	// readings arrive at most daily, often delayed by one or two days.
	DefaultPollInterval = time.Hour
	// DefaultHTTPTimeout bounds one upstream request
	DefaultHTTPTimeout = 30 * time.Second
)

// Config contains SDK common configuration
type Config struct {
	// Logger log instance, if nil will use default nop logger
	Logger *zap.Logger
	// Debug whether to enable debug mode
	Debug bool
	// PollInterval time between scheduled poll cycles, default one hour
	PollInterval time.Duration
	// HTTPTimeout per-request timeout for upstream calls
	HTTPTimeout time.Duration
	// BaseURL overrides the upstream API endpoint, used by tests
	BaseURL string
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:       zap.NewNop(), // default use nop logger
		Debug:        false,
		PollInterval: DefaultPollInterval,
		HTTPTimeout:  DefaultHTTPTimeout,
	}
}

// NewDebugConfig returns configuration with debug mode enabled
func NewDebugConfig() *Config {
	debugLogger, err := zap.NewDevelopment()
	if err != nil {
		// If creation fails, use nop logger
		debugLogger = zap.NewNop()
	}

	cfg := DefaultConfig()
	cfg.Logger = debugLogger
	cfg.Debug = true
	return cfg
}

// WithLogger sets custom logger
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	c.Logger = logger
	return c
}

// WithProductionLogger sets production environment logger
func (c *Config) WithProductionLogger() *Config {
	logger, err := zap.NewProduction()
	if err != nil {
		// If creation fails, use nop logger
		c.Logger = zap.NewNop()
	} else {
		c.Logger = logger
	}
	return c
}

// WithDevelopmentLogger set debug logger
func (c *Config) WithDevelopmentLogger() *Config {
	devLogger, err := zap.NewDevelopment()
	if err != nil {
		return c
	}
	c.Logger = devLogger
	c.Debug = true
	return c
}

// WithPollInterval sets the scheduled poll interval
func (c *Config) WithPollInterval(interval time.Duration) *Config {
	if interval > 0 {
		c.PollInterval = interval
	}
	return c
}

// WithHTTPTimeout sets the per-request upstream timeout
func (c *Config) WithHTTPTimeout(timeout time.Duration) *Config {
	if timeout > 0 {
		c.HTTPTimeout = timeout
	}
	return c
}

// WithBaseURL overrides the upstream endpoint
func (c *Config) WithBaseURL(baseURL string) *Config {
	c.BaseURL = baseURL
	return c
}

// GetLogger gets logger instance
func (c *Config) GetLogger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

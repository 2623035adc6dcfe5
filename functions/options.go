package functions

import (
	"net/http"
	"time"

	"github.com/petal-labs/basalt/core"
)

// Config holds configuration for the functions client.
type Config struct {
	// Headers are sent with every invocation. Call headers override them.
	Headers http.Header

	// HTTPClient dispatches requests. Defaults to http.DefaultClient.
	HTTPClient core.Doer

	// Region pins invocations to a region unless a call overrides it.
	Region Region

	// ThrowOnError returns classified errors as Go errors.
	ThrowOnError bool

	// Timeout is the default per-invocation timeout. Zero disables it.
	Timeout time.Duration

	// Logger receives request lifecycle logs.
	Logger core.Logger

	// Telemetry receives request lifecycle events.
	Telemetry core.TelemetryHook
}

// Option configures the functions client.
type Option func(*Config)

// WithHeaders merges headers sent with every invocation.
func WithHeaders(h http.Header) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		for key, values := range h {
			for _, v := range values {
				c.Headers.Add(key, v)
			}
		}
	}
}

// WithHeader sets one header sent with every invocation.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithHTTPClient sets a custom transport.
func WithHTTPClient(client core.Doer) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithRegion sets the default invocation region.
func WithRegion(r Region) Option {
	return func(c *Config) {
		c.Region = r
	}
}

// WithThrowOnError returns classified errors as Go errors instead of
// placing them in the result.
func WithThrowOnError(v bool) Option {
	return func(c *Config) {
		c.ThrowOnError = v
	}
}

// WithTimeout sets the default per-invocation timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l core.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithTelemetry sets the telemetry hook.
func WithTelemetry(h core.TelemetryHook) Option {
	return func(c *Config) {
		c.Telemetry = h
	}
}

package vectors

import (
	"net/http"
	"time"

	"github.com/petal-labs/basalt/core"
)

// Config holds configuration for the vectors client.
type Config struct {
	// Headers are sent with every request. Call headers override them.
	Headers http.Header

	// HTTPClient dispatches requests. Defaults to http.DefaultClient.
	HTTPClient core.Doer

	// ThrowOnError returns classified errors as Go errors.
	ThrowOnError bool

	// Timeout is the default per-request timeout. Zero disables it.
	Timeout time.Duration

	// Logger receives request lifecycle logs.
	Logger core.Logger

	// Telemetry receives request lifecycle events.
	Telemetry core.TelemetryHook
}

// Option configures the vectors client.
type Option func(*Config)

// WithHeader sets one header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
	}
}

// WithHeaders merges headers sent with every request.
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

// WithHTTPClient sets a custom transport.
func WithHTTPClient(client core.Doer) Option {
	return func(c *Config) {
		c.HTTPClient = client
	}
}

// WithThrowOnError returns classified errors as Go errors.
func WithThrowOnError(v bool) Option {
	return func(c *Config) {
		c.ThrowOnError = v
	}
}

// WithTimeout sets the default per-request timeout.
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

package client

import (
	"net/http"
	"time"

	"github.com/petal-labs/basalt/core"
	"github.com/petal-labs/basalt/functions"
)

// Config holds configuration shared by the sub-clients.
type Config struct {
	// HTTPClient dispatches every request. Defaults to http.DefaultClient.
	HTTPClient core.Doer

	// Headers are added to the computed headers of every sub-client.
	Headers http.Header

	// ThrowOnError returns classified errors as Go errors.
	ThrowOnError bool

	// Timeout is the default per-request timeout.
	Timeout time.Duration

	// Region is the default functions region.
	Region functions.Region

	// ClientInfo identifies the SDK. Defaults to core.DefaultClientInfo().
	ClientInfo core.ClientInfo

	Logger    core.Logger
	Telemetry core.TelemetryHook
}

// Option configures the client.
type Option func(*Config)

// WithHTTPClient sets a custom transport.
func WithHTTPClient(d core.Doer) Option {
	return func(c *Config) {
		c.HTTPClient = d
	}
}

// WithHeader adds a header sent by every sub-client.
func WithHeader(key, value string) Option {
	return func(c *Config) {
		if c.Headers == nil {
			c.Headers = make(http.Header)
		}
		c.Headers.Set(key, value)
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

// WithRegion sets the default functions region.
func WithRegion(r functions.Region) Option {
	return func(c *Config) {
		c.Region = r
	}
}

// WithClientInfo overrides the SDK identification header.
func WithClientInfo(info core.ClientInfo) Option {
	return func(c *Config) {
		c.ClientInfo = info
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

package core

import "time"

// TelemetryHook receives notifications about request lifecycle events.
// Implementations can use this for logging, metrics, tracing, etc.
//
// # Security Considerations
//
// Events carry operational metadata only. Header values (which hold API keys
// and bearer tokens), query strings, request bodies and response bodies are
// never included, so events can be shipped to external systems as-is.
type TelemetryHook interface {
	// OnRequestStart is called before the request is dispatched.
	OnRequestStart(e RequestStartEvent)

	// OnRequestEnd is called once the call has settled.
	OnRequestEnd(e RequestEndEvent)
}

// RequestStartEvent contains metadata about a starting request.
type RequestStartEvent struct {
	RequestID string    // Client-generated id correlating start and end
	Namespace Namespace // Client namespace (functions, storage, vectors)
	Method    string    // HTTP method
	Path      string    // URL path without query string
	Start     time.Time // When the request started
}

// RequestEndEvent contains metadata about a settled request.
//
// Err is the classified error, if any. Remote error messages are included
// through Err; callers forwarding events should treat them as untrusted.
type RequestEndEvent struct {
	RequestID string
	Namespace Namespace
	Method    string
	Path      string
	Status    int // HTTP status, zero when no response arrived
	Start     time.Time
	End       time.Time
	Err       error
}

// Duration returns the elapsed time for the request.
func (e RequestEndEvent) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// NoopTelemetryHook is a no-op implementation of TelemetryHook.
// Use this as a default when no telemetry is configured.
type NoopTelemetryHook struct{}

// OnRequestStart does nothing.
func (NoopTelemetryHook) OnRequestStart(RequestStartEvent) {}

// OnRequestEnd does nothing.
func (NoopTelemetryHook) OnRequestEnd(RequestEndEvent) {}

// Compile-time check that NoopTelemetryHook implements TelemetryHook.
var _ TelemetryHook = NoopTelemetryHook{}

package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Doer dispatches an HTTP request. [*http.Client] satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to the [Doer] interface.
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do implements [Doer].
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

var _ Doer = DoerFunc(nil)

// Pipeline issues requests for one client scope. It holds the client-level
// headers and toggles; everything else is built per call.
//
// Pipeline is safe for concurrent use. Derived scopes get their own copy
// through [Pipeline.Clone].
type Pipeline struct {
	namespace    Namespace
	client       Doer
	throwOnError bool
	emptyBodyOK  bool
	timeout      time.Duration
	telemetry    TelemetryHook
	logger       Logger
	timeNow      func() time.Time
	afterFunc    afterFunc
	requestID    func() string

	mu      sync.RWMutex
	headers http.Header
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// NewPipeline creates a pipeline for the given namespace.
func NewPipeline(ns Namespace, opts ...Option) *Pipeline {
	p := &Pipeline{
		namespace: ns,
		client:    http.DefaultClient,
		telemetry: NoopTelemetryHook{},
		logger:    DefaultLogger(),
		timeNow:   time.Now,
		afterFunc: defaultAfterFunc,
		requestID: uuid.NewString,
		headers:   make(http.Header),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithHTTPClient sets the transport. Nil keeps the default client.
func WithHTTPClient(d Doer) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.client = d
		}
	}
}

// WithHeaders merges client-level headers. The map is copied.
func WithHeaders(h http.Header) Option {
	return func(p *Pipeline) {
		for key, values := range h {
			p.headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
}

// WithHeader sets one client-level header.
func WithHeader(key, value string) Option {
	return func(p *Pipeline) {
		p.headers.Set(key, value)
	}
}

// WithThrowOnError returns classified errors as Go errors instead of
// placing them in [Result.Error].
func WithThrowOnError(v bool) Option {
	return func(p *Pipeline) {
		p.throwOnError = v
	}
}

// WithEmptyBodyOK treats empty or non-JSON 2xx bodies as an empty value.
func WithEmptyBodyOK(v bool) Option {
	return func(p *Pipeline) {
		p.emptyBodyOK = v
	}
}

// WithTimeout sets the default per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// WithTelemetry sets the telemetry hook.
func WithTelemetry(h TelemetryHook) Option {
	return func(p *Pipeline) {
		if h != nil {
			p.telemetry = h
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// Namespace returns the pipeline's error namespace.
func (p *Pipeline) Namespace() Namespace {
	return p.namespace
}

// ThrowOnError reports whether classified errors are returned as Go errors.
func (p *Pipeline) ThrowOnError() bool {
	return p.throwOnError
}

// Headers returns a copy of the client-level headers.
func (p *Pipeline) Headers() http.Header {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.headers.Clone()
}

// SetHeader sets a client-level header on this pipeline only.
func (p *Pipeline) SetHeader(key, value string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	next := p.headers.Clone()
	next.Set(key, value)
	p.headers = next
}

// Clone returns an independent copy for a derived scope. Header changes
// and toggles on either side never reach the other.
func (p *Pipeline) Clone(opts ...Option) *Pipeline {
	p.mu.RLock()
	headers := p.headers.Clone()
	p.mu.RUnlock()

	c := &Pipeline{
		namespace:    p.namespace,
		client:       p.client,
		throwOnError: p.throwOnError,
		emptyBodyOK:  p.emptyBodyOK,
		timeout:      p.timeout,
		telemetry:    p.telemetry,
		logger:       p.logger,
		timeNow:      p.timeNow,
		afterFunc:    p.afterFunc,
		requestID:    p.requestID,
		headers:      headers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute runs one request through the pipeline and decodes the response
// into T. Classified failures follow the pipeline's throw mode; see [Settle].
func Execute[T any](ctx context.Context, p *Pipeline, req *Request) (*Result[T], error) {
	data, err := run[T](ctx, p, req)
	return Settle(p.throwOnError, data, err)
}

// Fetch runs one request like [Execute] but returns the unsettled outcome:
// classified errors are always returned as the Go error. Facades use it when
// they reshape failures before settling.
func Fetch[T any](ctx context.Context, p *Pipeline, req *Request) (T, error) {
	return run[T](ctx, p, req)
}

// Reject settles a call that failed before dispatch.
func Reject[T any](p *Pipeline, err error) (*Result[T], error) {
	var zero T
	return Settle(p.throwOnError, zero, err)
}

func run[T any](ctx context.Context, p *Pipeline, req *Request) (value T, err error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return value, NewUnknownError(p.namespace, err)
	}
	defaults := make(http.Header)
	if contentType != "" {
		defaults.Set("Content-Type", contentType)
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = p.timeout
	}
	cancel := composeCancellation(ctx, timeout, p.afterFunc)
	handedOff := false
	defer func() {
		if handedOff {
			cancel.handOff()
			return
		}
		cancel.settle()
	}()

	httpReq, err := http.NewRequestWithContext(cancel.Context(), method, req.URL, body)
	if err != nil {
		return value, NewUnknownError(p.namespace, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header = mergeHeaders(defaults, p.Headers(), req.Headers)

	id := p.requestID()
	start := p.timeNow()
	p.telemetry.OnRequestStart(RequestStartEvent{
		RequestID: id,
		Namespace: p.namespace,
		Method:    method,
		Path:      httpReq.URL.Path,
		Start:     start,
	})
	p.logger.Info("request start", "request_id", id, "namespace", string(p.namespace), "method", method, "path", httpReq.URL.Path)

	status := 0
	defer func() {
		end := p.timeNow()
		p.telemetry.OnRequestEnd(RequestEndEvent{
			RequestID: id,
			Namespace: p.namespace,
			Method:    method,
			Path:      httpReq.URL.Path,
			Status:    status,
			Start:     start,
			End:       end,
			Err:       err,
		})
		p.logger.Info("request done", "request_id", id, "status", status, "duration", end.Sub(start), "err", err)
	}()

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if cause := cancel.cause(); cause != nil && !errors.Is(err, cause) {
			err = fmt.Errorf("%w: %w", cause, err)
		}
		return value, NewUnknownError(p.namespace, err)
	}
	status = resp.StatusCode
	p.logger.Debug("response headers", "request_id", id, "content_type", resp.Header.Get("Content-Type"))

	if resp.Body == nil {
		resp.Body = http.NoBody
	}
	resp.Body = cancel.track(resp.Body)
	dec := decoder[T]{namespace: p.namespace, mode: req.Decode, emptyBodyOK: p.emptyBodyOK}
	value, handedOff, err = dec.decode(resp)
	return value, err
}

package functions

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/petal-labs/basalt/core"
)

const (
	regionHeader     = "x-region"
	forceRegionParam = "forceFunctionRegion"
)

// Client invokes edge functions. Client is safe for concurrent use.
type Client struct {
	url      string
	region   Region
	pipeline *core.Pipeline
}

// New creates a functions client for the given base URL, e.g.
// https://project.example.co/functions/v1.
func New(baseURL string, opts ...Option) *Client {
	cfg := Config{Region: RegionAny}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Region == "" {
		cfg.Region = RegionAny
	}

	return &Client{
		url:    strings.TrimRight(baseURL, "/"),
		region: cfg.Region,
		pipeline: core.NewPipeline(core.NamespaceFunctions,
			core.WithHTTPClient(cfg.HTTPClient),
			core.WithHeaders(cfg.Headers),
			core.WithThrowOnError(cfg.ThrowOnError),
			core.WithTimeout(cfg.Timeout),
			core.WithLogger(cfg.Logger),
			core.WithTelemetry(cfg.Telemetry),
		),
	}
}

// SetAuth replaces the bearer token sent with every invocation.
func (c *Client) SetAuth(token string) {
	c.pipeline.SetHeader("Authorization", "Bearer "+token)
}

// Region returns the client default region.
func (c *Client) Region() Region {
	return c.region
}

// Invoke calls the named function. The response is decoded by
// Content-Type: JSON into map[string]any or []any, text as string, binary
// as []byte and event streams as an io.ReadCloser the caller must close.
// Multipart responses decode to a *multipart.Form; call its RemoveAll to
// delete any temporary files it holds.
func (c *Client) Invoke(ctx context.Context, name string, opts InvokeOptions) (*core.Result[any], error) {
	return InvokeInto[any](ctx, c, name, opts)
}

// InvokeInto calls the named function and decodes a JSON response into T.
func InvokeInto[T any](ctx context.Context, c *Client, name string, opts InvokeOptions) (*core.Result[T], error) {
	req, err := c.buildRequest(name, opts)
	if err != nil {
		return core.Reject[T](c.pipeline, err)
	}
	return core.Execute[T](ctx, c.pipeline, req)
}

func (c *Client) buildRequest(name string, opts InvokeOptions) (*core.Request, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.NewValidationError(core.NamespaceFunctions, "function name is required")
	}

	target, err := url.Parse(c.url + "/" + strings.TrimLeft(name, "/"))
	if err != nil {
		return nil, core.NewUnknownError(core.NamespaceFunctions, fmt.Errorf("parse function url: %w", err))
	}

	method := opts.Method
	if method == "" {
		method = http.MethodPost
	}

	headers := opts.Headers.Clone()
	if headers == nil {
		headers = make(http.Header)
	}

	region := opts.Region
	if region == "" {
		region = c.region
	}
	if region != "" && region != RegionAny {
		headers.Set(regionHeader, string(region))
		q := target.Query()
		q.Set(forceRegionParam, string(region))
		target.RawQuery = q.Encode()
	}

	return &core.Request{
		Method:  method,
		URL:     target.String(),
		Headers: headers,
		Body:    opts.Body,
		Timeout: opts.Timeout,
		Decode:  opts.ResponseType,
	}, nil
}

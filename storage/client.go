package storage

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/petal-labs/basalt/core"
)

// Client manages buckets and hands out per-bucket file scopes.
// Client is safe for concurrent use.
type Client struct {
	url      string
	pipeline *core.Pipeline
}

// New creates a storage client for the given base URL, e.g.
// https://project.example.co/storage/v1.
func New(baseURL string, opts ...Option) *Client {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		url: strings.TrimRight(baseURL, "/"),
		pipeline: core.NewPipeline(core.NamespaceStorage,
			core.WithHTTPClient(cfg.HTTPClient),
			core.WithHeaders(cfg.Headers),
			core.WithThrowOnError(cfg.ThrowOnError),
			core.WithTimeout(cfg.Timeout),
			core.WithLogger(cfg.Logger),
			core.WithTelemetry(cfg.Telemetry),
		),
	}
}

// URL returns the storage base URL.
func (c *Client) URL() string {
	return c.url
}

// SetHeader sets a header on this client. File scopes created afterwards
// inherit it; existing scopes do not.
func (c *Client) SetHeader(key, value string) *Client {
	c.pipeline.SetHeader(key, value)
	return c
}

// From returns a file scope for the bucket. The scope owns a copy of the
// client headers.
func (c *Client) From(bucket string) *FileAPI {
	return &FileAPI{
		url:      c.url,
		bucket:   bucket,
		pipeline: c.pipeline.Clone(),
	}
}

// ListBuckets returns every bucket visible to the caller.
func (c *Client) ListBuckets(ctx context.Context) (*core.Result[[]Bucket], error) {
	return core.Execute[[]Bucket](ctx, c.pipeline, &core.Request{
		Method: http.MethodGet,
		URL:    c.url + "/bucket",
	})
}

// GetBucket returns one bucket.
func (c *Client) GetBucket(ctx context.Context, id string) (*core.Result[Bucket], error) {
	return core.Execute[Bucket](ctx, c.pipeline, &core.Request{
		Method: http.MethodGet,
		URL:    c.bucketURL(id),
	})
}

// CreateBucket creates a bucket with the given id.
func (c *Client) CreateBucket(ctx context.Context, id string, opts BucketOptions) (*core.Result[CreatedBucket], error) {
	return core.Execute[CreatedBucket](ctx, c.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    c.url + "/bucket",
		Body:   newBucketRequest(id, opts),
	})
}

// UpdateBucket changes the visibility and limits of a bucket.
func (c *Client) UpdateBucket(ctx context.Context, id string, opts BucketOptions) (*core.Result[Message], error) {
	return core.Execute[Message](ctx, c.pipeline, &core.Request{
		Method: http.MethodPut,
		URL:    c.bucketURL(id),
		Body:   newBucketRequest(id, opts),
	})
}

// EmptyBucket removes every object in the bucket.
func (c *Client) EmptyBucket(ctx context.Context, id string) (*core.Result[Message], error) {
	return core.Execute[Message](ctx, c.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    c.bucketURL(id) + "/empty",
		Body:   struct{}{},
	})
}

// DeleteBucket deletes an empty bucket.
func (c *Client) DeleteBucket(ctx context.Context, id string) (*core.Result[Message], error) {
	return core.Execute[Message](ctx, c.pipeline, &core.Request{
		Method: http.MethodDelete,
		URL:    c.bucketURL(id),
		Body:   struct{}{},
	})
}

func (c *Client) bucketURL(id string) string {
	return c.url + "/bucket/" + url.PathEscape(id)
}

func newBucketRequest(id string, opts BucketOptions) bucketRequest {
	return bucketRequest{
		ID:               id,
		Name:             id,
		Public:           opts.Public,
		FileSizeLimit:    opts.FileSizeLimit,
		AllowedMimeTypes: opts.AllowedMimeTypes,
	}
}

package vectors

import (
	"context"
	"net/http"
	"strings"

	"github.com/petal-labs/basalt/core"
)

// Empty is the data of mutating calls, which answer without a body.
type Empty = map[string]any

// Client manages vector buckets. Client is safe for concurrent use.
type Client struct {
	url      string
	pipeline *core.Pipeline
}

// New creates a vectors client for the given base URL, e.g.
// https://project.example.co/storage/v1/vector.
func New(baseURL string, opts ...Option) *Client {
	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		url: strings.TrimRight(baseURL, "/"),
		pipeline: core.NewPipeline(core.NamespaceVectors,
			core.WithHTTPClient(cfg.HTTPClient),
			core.WithHeaders(cfg.Headers),
			core.WithThrowOnError(cfg.ThrowOnError),
			core.WithEmptyBodyOK(true),
			core.WithTimeout(cfg.Timeout),
			core.WithLogger(cfg.Logger),
			core.WithTelemetry(cfg.Telemetry),
		),
	}
}

// SetHeader sets a header on this client. Scopes created afterwards
// inherit it; existing scopes do not.
func (c *Client) SetHeader(key, value string) *Client {
	c.pipeline.SetHeader(key, value)
	return c
}

// From returns a scope for the named bucket.
func (c *Client) From(bucket string) *BucketScope {
	return &BucketScope{url: c.url, bucket: bucket, pipeline: c.pipeline.Clone()}
}

// CreateBucket creates a vector bucket.
func (c *Client) CreateBucket(ctx context.Context, name string) (*core.Result[Empty], error) {
	return post[Empty](ctx, c.pipeline, c.url+"/CreateVectorBucket", bucketRef{VectorBucketName: name})
}

// GetBucket returns one vector bucket.
func (c *Client) GetBucket(ctx context.Context, name string) (*core.Result[GetBucketResponse], error) {
	return post[GetBucketResponse](ctx, c.pipeline, c.url+"/GetVectorBucket", bucketRef{VectorBucketName: name})
}

// ListBuckets returns one page of vector buckets.
func (c *Client) ListBuckets(ctx context.Context, opts *ListOptions) (*core.Result[ListBucketsResponse], error) {
	var body listBucketsRequest
	if opts != nil {
		body.ListOptions = *opts
	}
	return post[ListBucketsResponse](ctx, c.pipeline, c.url+"/ListVectorBuckets", body)
}

// DeleteBucket deletes an empty vector bucket.
func (c *Client) DeleteBucket(ctx context.Context, name string) (*core.Result[Empty], error) {
	return post[Empty](ctx, c.pipeline, c.url+"/DeleteVectorBucket", bucketRef{VectorBucketName: name})
}

// post dispatches one JSON POST; every vectors endpoint has this shape.
func post[T any](ctx context.Context, p *core.Pipeline, url string, body any) (*core.Result[T], error) {
	return core.Execute[T](ctx, p, &core.Request{
		Method: http.MethodPost,
		URL:    url,
		Body:   body,
	})
}

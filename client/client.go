// Package client bundles the functions, storage and vectors clients behind
// one project URL and API key.
package client

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/petal-labs/basalt/core"
	"github.com/petal-labs/basalt/functions"
	"github.com/petal-labs/basalt/storage"
	"github.com/petal-labs/basalt/vectors"
)

// Environment variables read by NewFromEnv.
const (
	URLEnvVar    = "BASALT_URL"
	APIKeyEnvVar = "BASALT_API_KEY"
)

// Sub-client paths under the project URL.
const (
	FunctionsPath = "/functions/v1"
	StoragePath   = "/storage/v1"
	VectorsPath   = "/storage/v1/vector"
)

var (
	// ErrInvalidURL is returned for a project URL that is not absolute http(s).
	ErrInvalidURL = errors.New("invalid project url")

	// ErrAPIKeyNotFound is returned when no API key is given.
	ErrAPIKeyNotFound = errors.New("api key not found")
)

// Client is the entry point to a project. Client is safe for concurrent use.
type Client struct {
	url    string
	apiKey core.Secret

	functions *functions.Client
	storage   *storage.Client
	vectors   *vectors.Client
}

// New creates a client for the project at projectURL.
func New(projectURL, apiKey string, opts ...Option) (*Client, error) {
	base, err := parseProjectURL(projectURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrAPIKeyNotFound
	}

	cfg := Config{ClientInfo: core.DefaultClientInfo()}
	for _, opt := range opts {
		opt(&cfg)
	}

	headers := cfg.ClientInfo.Headers()
	headers.Set("apikey", apiKey)
	headers.Set("Authorization", "Bearer "+apiKey)
	for key, values := range cfg.Headers {
		headers[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
	}

	return &Client{
		url:    base,
		apiKey: core.NewSecret(apiKey),
		functions: functions.New(base+FunctionsPath,
			functions.WithHeaders(headers),
			functions.WithHTTPClient(cfg.HTTPClient),
			functions.WithRegion(cfg.Region),
			functions.WithThrowOnError(cfg.ThrowOnError),
			functions.WithTimeout(cfg.Timeout),
			functions.WithLogger(cfg.Logger),
			functions.WithTelemetry(cfg.Telemetry),
		),
		storage: storage.New(base+StoragePath,
			storage.WithHeaders(headers),
			storage.WithHTTPClient(cfg.HTTPClient),
			storage.WithThrowOnError(cfg.ThrowOnError),
			storage.WithTimeout(cfg.Timeout),
			storage.WithLogger(cfg.Logger),
			storage.WithTelemetry(cfg.Telemetry),
		),
		vectors: vectors.New(base+VectorsPath,
			vectors.WithHeaders(headers),
			vectors.WithHTTPClient(cfg.HTTPClient),
			vectors.WithThrowOnError(cfg.ThrowOnError),
			vectors.WithTimeout(cfg.Timeout),
			vectors.WithLogger(cfg.Logger),
			vectors.WithTelemetry(cfg.Telemetry),
		),
	}, nil
}

// NewFromEnv creates a client from BASALT_URL and BASALT_API_KEY.
func NewFromEnv(opts ...Option) (*Client, error) {
	apiKey := os.Getenv(APIKeyEnvVar)
	if apiKey == "" {
		return nil, ErrAPIKeyNotFound
	}
	return New(os.Getenv(URLEnvVar), apiKey, opts...)
}

// URL returns the normalized project URL.
func (c *Client) URL() string {
	return c.url
}

// APIKey returns the project key, redacted when printed.
func (c *Client) APIKey() core.Secret {
	return c.apiKey
}

// Functions returns the edge functions client.
func (c *Client) Functions() *functions.Client {
	return c.functions
}

// Storage returns the object storage client.
func (c *Client) Storage() *storage.Client {
	return c.storage
}

// Vectors returns the vector storage client.
func (c *Client) Vectors() *vectors.Client {
	return c.vectors
}

func parseProjectURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: url is required", ErrInvalidURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	u.RawQuery, u.Fragment = "", ""
	return strings.TrimRight(u.String(), "/"), nil
}

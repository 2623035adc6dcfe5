package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/basalt/core"
	"github.com/petal-labs/basalt/functions"
	"github.com/petal-labs/basalt/vectors"
)

func TestNewValidatesURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "project.example.test"},
		{"ftp", "ftp://project.example.test"},
		{"no host", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.url, "key")
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New("https://project.example.test", " ")
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

func TestNewNormalizesURL(t *testing.T) {
	c, err := New("https://project.example.test/", "key")
	require.NoError(t, err)
	assert.Equal(t, "https://project.example.test", c.URL())
	assert.Equal(t, "https://project.example.test/storage/v1", c.Storage().URL())
	assert.Equal(t, "[REDACTED]", c.APIKey().String())
}

func TestSubClientsShareHeadersAndPaths(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]http.Header{}
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.URL.Path] = r.Header.Clone()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/storage/v1/bucket":
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	c, err := New(server.URL, "service-key",
		WithClientInfo(core.ClientInfo{Name: "basalt-go", Version: "9.9.9"}),
		WithHeader("X-Extra", "1"),
	)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Functions().Invoke(ctx, "hello", functions.InvokeOptions{})
	require.NoError(t, err)
	_, err = c.Storage().ListBuckets(ctx)
	require.NoError(t, err)
	_, err = c.Vectors().ListBuckets(ctx, &vectors.ListOptions{})
	require.NoError(t, err)

	for _, path := range []string{"/functions/v1/hello", "/storage/v1/bucket", "/storage/v1/vector/ListVectorBuckets"} {
		h, ok := seen[path]
		require.True(t, ok, "no request to %s", path)
		assert.Equal(t, "basalt-go/9.9.9", h.Get("X-Client-Info"), path)
		assert.Equal(t, "service-key", h.Get("apikey"), path)
		assert.Equal(t, "Bearer service-key", h.Get("Authorization"), path)
		assert.Equal(t, "1", h.Get("X-Extra"), path)
	}
}

func TestThrowOnErrorReachesSubClients(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, err := New(server.URL, "bad-key", WithThrowOnError(true))
	require.NoError(t, err)

	_, err = c.Storage().ListBuckets(context.Background())
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
	assert.True(t, core.IsStorageError(err))

	_, err = c.Vectors().GetBucket(context.Background(), "b")
	assert.True(t, core.IsVectorsError(err))
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(URLEnvVar, "https://env.example.test")
	t.Setenv(APIKeyEnvVar, "env-key")

	c, err := NewFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.test", c.URL())

	t.Setenv(APIKeyEnvVar, "")
	_, err = NewFromEnv()
	assert.ErrorIs(t, err, ErrAPIKeyNotFound)
}

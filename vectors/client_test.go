package vectors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petal-labs/basalt/core"
)

// recorded is one request seen by the test server.
type recorded struct {
	path   string
	header http.Header
	body   map[string]any
}

func newTestServer(t *testing.T, respond func(w http.ResponseWriter, r recorded)) (*Client, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []recorded
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		rec := recorded{path: r.URL.Path, header: r.Header.Clone()}
		json.NewDecoder(r.Body).Decode(&rec.body)
		mu.Lock()
		seen = append(seen, rec)
		mu.Unlock()
		respond(w, rec)
	}))
	t.Cleanup(server.Close)
	return New(server.URL + "/storage/v1/vector"), &seen
}

func emptyOK(w http.ResponseWriter, _ recorded) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(v))
}

// countingDoer fails the test if reached and counts calls.
type countingDoer struct {
	calls atomic.Int32
}

func (d *countingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls.Add(1)
	return nil, errors.New("transport should not be called")
}

func TestBucketEndpoints(t *testing.T) {
	client, seen := newTestServer(t, emptyOK)
	ctx := context.Background()

	created, err := client.CreateBucket(ctx, "embeddings")
	require.NoError(t, err)
	require.Nil(t, created.Error)
	assert.Equal(t, Empty{}, created.Data)

	_, err = client.DeleteBucket(ctx, "embeddings")
	require.NoError(t, err)

	require.Len(t, *seen, 2)
	assert.Equal(t, "/storage/v1/vector/CreateVectorBucket", (*seen)[0].path)
	assert.Equal(t, map[string]any{"vectorBucketName": "embeddings"}, (*seen)[0].body)
	assert.Equal(t, "/storage/v1/vector/DeleteVectorBucket", (*seen)[1].path)
}

func TestGetAndListBuckets(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		switch r.path {
		case "/storage/v1/vector/GetVectorBucket":
			writeJSON(w, `{"vectorBucket":{"vectorBucketName":"embeddings","creationTime":1700000000}}`)
		case "/storage/v1/vector/ListVectorBuckets":
			writeJSON(w, `{"vectorBuckets":[{"vectorBucketName":"a"},{"vectorBucketName":"b"}],"nextToken":"t2"}`)
		}
	})
	ctx := context.Background()

	got, err := client.GetBucket(ctx, "embeddings")
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), got.Data.VectorBucket.CreationTime)

	list, err := client.ListBuckets(ctx, &ListOptions{Prefix: "a", MaxResults: 10})
	require.NoError(t, err)
	assert.Len(t, list.Data.VectorBuckets, 2)
	assert.Equal(t, "t2", list.Data.NextToken)
	assert.Equal(t, map[string]any{"prefix": "a", "maxResults": float64(10)}, (*seen)[1].body)
}

func TestEmptyBodyWithTextContentType(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, _ recorded) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("OK"))
	})

	res, err := client.From("b").Index("i").PutVectors(context.Background(), []Vector{{Key: "k"}})

	require.NoError(t, err)
	require.Nil(t, res.Error)
	assert.Equal(t, Empty{}, res.Data)
}

func TestMalformedJSONIsUnknownError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, _ recorded) {
		writeJSON(w, `{"vectors":`)
	})

	res, err := client.From("b").Index("i").GetVectors(context.Background(), GetVectorsOptions{Keys: []string{"k"}})

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VectorsUnknownError", res.Error.Name())
}

func TestAPIErrorIsVectorsError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, _ recorded) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"Bucket already exists","statusCode":"409"}`))
	})

	res, err := client.CreateBucket(context.Background(), "dup")

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VectorsApiError", res.Error.Name())
	assert.True(t, core.IsVectorsError(res.Error))
	assert.True(t, errors.Is(res.Error, core.ErrConflict))
	assert.Nil(t, res.Data)
}

func TestIndexEndpoints(t *testing.T) {
	client, seen := newTestServer(t, func(w http.ResponseWriter, r recorded) {
		switch r.path {
		case "/storage/v1/vector/GetIndex":
			writeJSON(w, `{"index":{"indexName":"docs","dimension":3,"distanceMetric":"cosine","dataType":"float32"}}`)
		case "/storage/v1/vector/ListIndexes":
			writeJSON(w, `{"indexes":[{"indexName":"docs"}]}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	bucket := client.From("embeddings")
	ctx := context.Background()

	_, err := bucket.CreateIndex(ctx, "docs", IndexOptions{Dimension: 3, NonFilterableMetadataKeys: []string{"raw"}})
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/vector/CreateIndex", (*seen)[0].path)
	assert.Equal(t, map[string]any{
		"vectorBucketName":      "embeddings",
		"indexName":             "docs",
		"dataType":              "float32",
		"dimension":             float64(3),
		"distanceMetric":        "cosine",
		"metadataConfiguration": map[string]any{"nonFilterableMetadataKeys": []any{"raw"}},
	}, (*seen)[0].body)

	idx, err := bucket.GetIndex(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Data.Index.Dimension)

	list, err := bucket.ListIndexes(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list.Data.Indexes, 1)
	assert.Equal(t, map[string]any{"vectorBucketName": "embeddings"}, (*seen)[2].body)

	_, err = bucket.DeleteIndex(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, "/storage/v1/vector/DeleteIndex", (*seen)[3].path)
}

func TestCreateIndexRequiresDimension(t *testing.T) {
	doer := &countingDoer{}
	client := New("https://x.test/storage/v1/vector", WithHTTPClient(doer))

	res, err := client.From("b").CreateIndex(context.Background(), "i", IndexOptions{})

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VectorsValidationError", res.Error.Name())
	assert.Zero(t, doer.calls.Load())
}

func TestScopeHeaderIsolation(t *testing.T) {
	client, seen := newTestServer(t, emptyOK)
	ctx := context.Background()

	bucket := client.From("b").SetHeader("X-Bucket", "1")
	index := bucket.Index("i").SetHeader("X-Index", "1")

	_, err := index.DeleteVectors(ctx, []string{"k"})
	require.NoError(t, err)
	_, err = bucket.DeleteIndex(ctx, "i")
	require.NoError(t, err)
	_, err = client.DeleteBucket(ctx, "b")
	require.NoError(t, err)

	require.Len(t, *seen, 3)
	assert.Equal(t, "1", (*seen)[0].header.Get("X-Bucket"))
	assert.Equal(t, "1", (*seen)[0].header.Get("X-Index"))
	assert.Equal(t, "1", (*seen)[1].header.Get("X-Bucket"))
	assert.Empty(t, (*seen)[1].header.Get("X-Index"))
	assert.Empty(t, (*seen)[2].header.Get("X-Bucket"))
}

func TestThrowOnErrorPerClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	throwing := New(server.URL, WithThrowOnError(true))
	returning := New(server.URL)

	res, err := throwing.From("b").GetIndex(context.Background(), "i")
	assert.Nil(t, res)
	assert.True(t, core.IsVectorsError(err))

	res, err = returning.From("b").GetIndex(context.Background(), "i")
	require.NoError(t, err)
	require.NotNil(t, res.Error)
}

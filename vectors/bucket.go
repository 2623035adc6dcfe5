package vectors

import (
	"context"

	"github.com/petal-labs/basalt/core"
)

// BucketScope manages the indexes of one bucket. It owns a copy of the
// client headers.
type BucketScope struct {
	url      string
	bucket   string
	pipeline *core.Pipeline
}

// Name returns the bucket name.
func (b *BucketScope) Name() string {
	return b.bucket
}

// SetHeader sets a header on this scope only.
func (b *BucketScope) SetHeader(key, value string) *BucketScope {
	b.pipeline.SetHeader(key, value)
	return b
}

// Index returns a scope for vector operations on the named index.
func (b *BucketScope) Index(name string) *IndexScope {
	return &IndexScope{
		url:      b.url,
		ref:      indexRef{VectorBucketName: b.bucket, IndexName: name},
		pipeline: b.pipeline.Clone(),
	}
}

// CreateIndex creates an index in the bucket.
func (b *BucketScope) CreateIndex(ctx context.Context, name string, opts IndexOptions) (*core.Result[Empty], error) {
	if opts.Dimension <= 0 {
		return core.Reject[Empty](b.pipeline, core.NewValidationError(core.NamespaceVectors, "dimension must be positive"))
	}
	body := createIndexRequest{
		indexRef:       indexRef{VectorBucketName: b.bucket, IndexName: name},
		DataType:       opts.DataType,
		Dimension:      opts.Dimension,
		DistanceMetric: opts.DistanceMetric,
	}
	if body.DataType == "" {
		body.DataType = DataTypeFloat32
	}
	if body.DistanceMetric == "" {
		body.DistanceMetric = DistanceCosine
	}
	if len(opts.NonFilterableMetadataKeys) > 0 {
		body.MetadataConfiguration = &MetadataConfiguration{NonFilterableMetadataKeys: opts.NonFilterableMetadataKeys}
	}
	return post[Empty](ctx, b.pipeline, b.url+"/CreateIndex", body)
}

// GetIndex returns one index.
func (b *BucketScope) GetIndex(ctx context.Context, name string) (*core.Result[GetIndexResponse], error) {
	return post[GetIndexResponse](ctx, b.pipeline, b.url+"/GetIndex", indexRef{VectorBucketName: b.bucket, IndexName: name})
}

// ListIndexes returns one page of the bucket's indexes.
func (b *BucketScope) ListIndexes(ctx context.Context, opts *ListOptions) (*core.Result[ListIndexesResponse], error) {
	body := listIndexesRequest{bucketRef: bucketRef{VectorBucketName: b.bucket}}
	if opts != nil {
		body.ListOptions = *opts
	}
	return post[ListIndexesResponse](ctx, b.pipeline, b.url+"/ListIndexes", body)
}

// DeleteIndex deletes an index and its vectors.
func (b *BucketScope) DeleteIndex(ctx context.Context, name string) (*core.Result[Empty], error) {
	return post[Empty](ctx, b.pipeline, b.url+"/DeleteIndex", indexRef{VectorBucketName: b.bucket, IndexName: name})
}

package vectors

// DistanceMetric is the similarity measure of an index.
type DistanceMetric string

// Supported distance metrics.
const (
	DistanceCosine     DistanceMetric = "cosine"
	DistanceEuclidean  DistanceMetric = "euclidean"
	DistanceDotProduct DistanceMetric = "dotproduct"
)

// DataTypeFloat32 is the only supported vector element type.
const DataTypeFloat32 = "float32"

// EncryptionConfiguration describes server-side encryption of a bucket.
type EncryptionConfiguration struct {
	KMSKeyArn string `json:"kmsKeyArn,omitempty"`
	SSEType   string `json:"sseType,omitempty"`
}

// VectorBucket is a container of indexes.
type VectorBucket struct {
	VectorBucketName        string                   `json:"vectorBucketName"`
	CreationTime            int64                    `json:"creationTime,omitempty"`
	EncryptionConfiguration *EncryptionConfiguration `json:"encryptionConfiguration,omitempty"`
}

// GetBucketResponse wraps one bucket.
type GetBucketResponse struct {
	VectorBucket VectorBucket `json:"vectorBucket"`
}

// ListOptions paginates bucket and index listings.
type ListOptions struct {
	Prefix     string `json:"prefix,omitempty"`
	MaxResults int    `json:"maxResults,omitempty"`
	NextToken  string `json:"nextToken,omitempty"`
}

// ListBucketsResponse is one page of buckets.
type ListBucketsResponse struct {
	VectorBuckets []VectorBucket `json:"vectorBuckets"`
	NextToken     string         `json:"nextToken,omitempty"`
}

// MetadataConfiguration lists metadata keys excluded from filtering.
type MetadataConfiguration struct {
	NonFilterableMetadataKeys []string `json:"nonFilterableMetadataKeys,omitempty"`
}

// IndexOptions configures CreateIndex.
type IndexOptions struct {
	// DataType defaults to float32.
	DataType string

	// Dimension is the vector length. Required.
	Dimension int

	// DistanceMetric defaults to cosine.
	DistanceMetric DistanceMetric

	// NonFilterableMetadataKeys are stored but cannot be used in filters.
	NonFilterableMetadataKeys []string
}

// Index is a vector index inside a bucket.
type Index struct {
	IndexName             string                 `json:"indexName"`
	VectorBucketName      string                 `json:"vectorBucketName"`
	DataType              string                 `json:"dataType"`
	Dimension             int                    `json:"dimension"`
	DistanceMetric        DistanceMetric         `json:"distanceMetric"`
	MetadataConfiguration *MetadataConfiguration `json:"metadataConfiguration,omitempty"`
	CreationTime          int64                  `json:"creationTime,omitempty"`
}

// GetIndexResponse wraps one index.
type GetIndexResponse struct {
	Index Index `json:"index"`
}

// IndexSummary is an entry of ListIndexes.
type IndexSummary struct {
	IndexName        string `json:"indexName"`
	VectorBucketName string `json:"vectorBucketName,omitempty"`
	CreationTime     int64  `json:"creationTime,omitempty"`
}

// ListIndexesResponse is one page of indexes.
type ListIndexesResponse struct {
	Indexes   []IndexSummary `json:"indexes"`
	NextToken string         `json:"nextToken,omitempty"`
}

// VectorData holds the vector components.
type VectorData struct {
	Float32 []float32 `json:"float32"`
}

// Vector is a keyed embedding with optional metadata.
type Vector struct {
	Key      string         `json:"key"`
	Data     *VectorData    `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// GetVectorsOptions selects vectors by key.
type GetVectorsOptions struct {
	Keys           []string
	ReturnData     bool
	ReturnMetadata bool
}

// VectorsResponse is a list of vectors.
type VectorsResponse struct {
	Vectors []Vector `json:"vectors"`
}

// ListVectorsOptions paginates a scan. SegmentCount and SegmentIndex split
// the scan for parallel workers.
type ListVectorsOptions struct {
	MaxResults     int
	NextToken      string
	ReturnData     bool
	ReturnMetadata bool
	SegmentCount   *int
	SegmentIndex   *int
}

// ListVectorsResponse is one page of a scan.
type ListVectorsResponse struct {
	Vectors   []Vector `json:"vectors"`
	NextToken string   `json:"nextToken,omitempty"`
}

// QueryOptions describes a similarity search.
type QueryOptions struct {
	QueryVector    VectorData
	TopK           int
	Filter         map[string]any
	ReturnDistance bool
	ReturnMetadata bool
}

// QueryMatch is one search hit.
type QueryMatch struct {
	Key      string         `json:"key"`
	Distance *float64       `json:"distance,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// QueryResponse holds the nearest vectors.
type QueryResponse struct {
	Vectors        []QueryMatch   `json:"vectors"`
	DistanceMetric DistanceMetric `json:"distanceMetric,omitempty"`
}

// ScanOptions configures ScanAll.
type ScanOptions struct {
	// Segments is the number of parallel workers, 1 to 16. Defaults to 1.
	Segments int

	// PageSize is the MaxResults of each ListVectors call.
	PageSize int

	ReturnData     bool
	ReturnMetadata bool
}

// Wire bodies.

type bucketRef struct {
	VectorBucketName string `json:"vectorBucketName"`
}

type indexRef struct {
	VectorBucketName string `json:"vectorBucketName"`
	IndexName        string `json:"indexName"`
}

type listBucketsRequest struct {
	ListOptions
}

type listIndexesRequest struct {
	bucketRef
	ListOptions
}

type createIndexRequest struct {
	indexRef
	DataType              string                 `json:"dataType"`
	Dimension             int                    `json:"dimension"`
	DistanceMetric        DistanceMetric         `json:"distanceMetric"`
	MetadataConfiguration *MetadataConfiguration `json:"metadataConfiguration,omitempty"`
}

type putVectorsRequest struct {
	indexRef
	Vectors []Vector `json:"vectors"`
}

type keysRequest struct {
	indexRef
	Keys           []string `json:"keys"`
	ReturnData     bool     `json:"returnData,omitempty"`
	ReturnMetadata bool     `json:"returnMetadata,omitempty"`
}

type listVectorsRequest struct {
	indexRef
	MaxResults     int    `json:"maxResults,omitempty"`
	NextToken      string `json:"nextToken,omitempty"`
	ReturnData     bool   `json:"returnData,omitempty"`
	ReturnMetadata bool   `json:"returnMetadata,omitempty"`
	SegmentCount   *int   `json:"segmentCount,omitempty"`
	SegmentIndex   *int   `json:"segmentIndex,omitempty"`
}

type queryVectorsRequest struct {
	indexRef
	QueryVector    VectorData     `json:"queryVector"`
	TopK           int            `json:"topK"`
	Filter         map[string]any `json:"filter,omitempty"`
	ReturnDistance bool           `json:"returnDistance,omitempty"`
	ReturnMetadata bool           `json:"returnMetadata,omitempty"`
}

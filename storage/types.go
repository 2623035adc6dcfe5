package storage

// Bucket is a storage bucket.
type Bucket struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Owner            string   `json:"owner,omitempty"`
	Public           bool     `json:"public"`
	FileSizeLimit    *int64   `json:"file_size_limit,omitempty"`
	AllowedMimeTypes []string `json:"allowed_mime_types,omitempty"`
	CreatedAt        string   `json:"created_at,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty"`
}

// BucketOptions configures a created or updated bucket.
type BucketOptions struct {
	Public bool

	// FileSizeLimit caps object size in bytes. Nil leaves it unset.
	FileSizeLimit *int64

	// AllowedMimeTypes restricts uploads, e.g. "image/*". Empty allows all.
	AllowedMimeTypes []string
}

// bucketRequest is the wire body for create and update.
type bucketRequest struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Public           bool     `json:"public"`
	FileSizeLimit    *int64   `json:"file_size_limit,omitempty"`
	AllowedMimeTypes []string `json:"allowed_mime_types,omitempty"`
}

// CreatedBucket is the response of CreateBucket.
type CreatedBucket struct {
	Name string `json:"name"`
}

// Message is a plain acknowledgement returned by mutating endpoints.
type Message struct {
	Message string `json:"message"`
}

// FileObject is an entry returned by List. Folders have a nil ID.
type FileObject struct {
	Name           string         `json:"name"`
	ID             *string        `json:"id"`
	BucketID       string         `json:"bucket_id,omitempty"`
	Owner          string         `json:"owner,omitempty"`
	UpdatedAt      string         `json:"updated_at,omitempty"`
	CreatedAt      string         `json:"created_at,omitempty"`
	LastAccessedAt string         `json:"last_accessed_at,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// FileInfo is the detailed view returned by Info.
type FileInfo struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Version      string         `json:"version,omitempty"`
	BucketID     string         `json:"bucket_id,omitempty"`
	Size         int64          `json:"size,omitempty"`
	ContentType  string         `json:"content_type,omitempty"`
	CacheControl string         `json:"cache_control,omitempty"`
	ETag         string         `json:"etag,omitempty"`
	LastModified string         `json:"last_modified,omitempty"`
	CreatedAt    string         `json:"created_at,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// FileOptions tunes Upload and Update.
type FileOptions struct {
	// CacheControl is the max-age in seconds. Defaults to "3600".
	CacheControl string

	// ContentType defaults to text/plain;charset=UTF-8.
	ContentType string

	// Upsert overwrites an existing object.
	Upsert bool

	// Metadata is stored alongside the object.
	Metadata map[string]any
}

// UploadResult identifies an uploaded object.
type UploadResult struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	FullPath string `json:"fullPath"`
}

type uploadResponse struct {
	ID  string `json:"Id"`
	Key string `json:"Key"`
}

// SortBy orders List results.
type SortBy struct {
	Column string `json:"column"`
	Order  string `json:"order"`
}

// SearchOptions tunes List.
type SearchOptions struct {
	// Limit defaults to 100.
	Limit int

	Offset int

	// SortBy defaults to name ascending.
	SortBy *SortBy

	// Search filters names by substring.
	Search string
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy SortBy `json:"sortBy"`
	Search string `json:"search,omitempty"`
}

// DestinationOptions targets another bucket for Move and Copy.
type DestinationOptions struct {
	DestinationBucket string
}

type moveRequest struct {
	BucketID          string `json:"bucketId"`
	SourceKey         string `json:"sourceKey"`
	DestinationKey    string `json:"destinationKey"`
	DestinationBucket string `json:"destinationBucket,omitempty"`
}

// CopyResult is the key of the copied object.
type CopyResult struct {
	Path string `json:"path"`
}

type copyResponse struct {
	Key string `json:"Key"`
}

// TransformOptions resizes or converts images on download.
type TransformOptions struct {
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	Resize  string `json:"resize,omitempty"` // cover, contain or fill
	Quality int    `json:"quality,omitempty"`
	Format  string `json:"format,omitempty"` // origin keeps the stored format
}

func (t *TransformOptions) empty() bool {
	return t == nil || *t == (TransformOptions{})
}

// URLOptions tunes signed and public URLs.
type URLOptions struct {
	// Download makes the URL trigger a browser download.
	Download bool

	// DownloadAs names the downloaded file. Implies Download.
	DownloadAs string

	// Transform renders the image through the transformation endpoint.
	Transform *TransformOptions
}

// SignedURL is a time-limited URL for one object.
type SignedURL struct {
	Path      string `json:"path,omitempty"`
	SignedURL string `json:"signedUrl"`
	Error     string `json:"error,omitempty"`
}

type signRequest struct {
	ExpiresIn int               `json:"expiresIn"`
	Transform *TransformOptions `json:"transform,omitempty"`
}

type signResponse struct {
	SignedURL string `json:"signedURL"`
}

type signManyRequest struct {
	ExpiresIn int      `json:"expiresIn"`
	Paths     []string `json:"paths"`
}

type signManyEntry struct {
	Error     *string `json:"error"`
	Path      string  `json:"path"`
	SignedURL *string `json:"signedURL"`
}

// PublicURL is the public address of an object in a public bucket.
type PublicURL struct {
	PublicURL string `json:"publicUrl"`
}

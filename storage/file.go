package storage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/petal-labs/basalt/core"
)

const (
	defaultCacheControl = "3600"
	defaultContentType  = "text/plain;charset=UTF-8"
	defaultListLimit    = 100
)

// FileAPI operates on the objects of one bucket. It owns a copy of the
// client headers; SetHeader on a FileAPI never reaches the client.
type FileAPI struct {
	url      string
	bucket   string
	pipeline *core.Pipeline
}

// Bucket returns the bucket id.
func (f *FileAPI) Bucket() string {
	return f.bucket
}

// SetHeader sets a header on this scope only.
func (f *FileAPI) SetHeader(key, value string) *FileAPI {
	f.pipeline.SetHeader(key, value)
	return f
}

// Upload stores a new object at path. body may be []byte, string,
// io.Reader or *core.FormData.
func (f *FileAPI) Upload(ctx context.Context, path string, body any, opts *FileOptions) (*core.Result[UploadResult], error) {
	return f.write(ctx, http.MethodPost, path, body, opts)
}

// Update replaces the object at path.
func (f *FileAPI) Update(ctx context.Context, path string, body any, opts *FileOptions) (*core.Result[UploadResult], error) {
	return f.write(ctx, http.MethodPut, path, body, opts)
}

func (f *FileAPI) write(ctx context.Context, method, path string, body any, opts *FileOptions) (*core.Result[UploadResult], error) {
	if body == nil {
		return core.Reject[UploadResult](f.pipeline, core.NewValidationError(core.NamespaceStorage, "upload body is required"))
	}
	if opts == nil {
		opts = &FileOptions{}
	}
	cacheControl := opts.CacheControl
	if cacheControl == "" {
		cacheControl = defaultCacheControl
	}

	var metadata []byte
	if len(opts.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(opts.Metadata); err != nil {
			return core.Reject[UploadResult](f.pipeline, core.NewUnknownError(core.NamespaceStorage, fmt.Errorf("encode metadata: %w", err)))
		}
	}

	headers := make(http.Header)
	headers.Set("x-upsert", strconv.FormatBool(opts.Upsert))
	if form, ok := body.(*core.FormData); ok {
		form = form.Clone().Add("cacheControl", cacheControl)
		if metadata != nil {
			form.Add("metadata", string(metadata))
		}
		body = form
	} else {
		contentType := opts.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		headers.Set("Cache-Control", "max-age="+cacheControl)
		headers.Set("Content-Type", contentType)
		if metadata != nil {
			headers.Set("x-metadata", base64.StdEncoding.EncodeToString(metadata))
		}
	}

	clean := cleanPath(path)
	res, err := core.Execute[uploadResponse](ctx, f.pipeline, &core.Request{
		Method:  method,
		URL:     f.url + "/object/" + f.finalPath(clean),
		Headers: headers,
		Body:    body,
	})
	return core.MapResult(res, err, func(r uploadResponse) UploadResult {
		return UploadResult{ID: r.ID, Path: clean, FullPath: r.Key}
	})
}

// Download returns a builder for fetching the object at path.
// Nothing is sent until Execute or Stream is called.
func (f *FileAPI) Download(path string) *Download {
	return &Download{api: f, path: cleanPath(path)}
}

// Info returns the stored details of an object.
func (f *FileAPI) Info(ctx context.Context, path string) (*core.Result[FileInfo], error) {
	return core.Execute[FileInfo](ctx, f.pipeline, &core.Request{
		Method: http.MethodGet,
		URL:    f.url + "/object/info/" + f.finalPath(cleanPath(path)),
	})
}

// Exists reports whether an object is stored at path. A 400 or 404 answer
// resolves to false rather than an error.
func (f *FileAPI) Exists(ctx context.Context, path string) (*core.Result[bool], error) {
	resp, err := core.Fetch[*http.Response](ctx, f.pipeline, &core.Request{
		Method: http.MethodHead,
		URL:    f.url + "/object/" + f.finalPath(cleanPath(path)),
		Decode: core.DecodeRaw,
	})
	if err != nil {
		if e, ok := core.AsError(err); ok && e.Kind() == core.KindAPI &&
			(e.Status == http.StatusNotFound || e.Status == http.StatusBadRequest) {
			return core.Settle(f.pipeline.ThrowOnError(), false, nil)
		}
		return core.Reject[bool](f.pipeline, err)
	}
	resp.Body.Close()
	return core.Settle(f.pipeline.ThrowOnError(), true, nil)
}

// List returns the objects and folders directly under prefix.
func (f *FileAPI) List(ctx context.Context, prefix string, opts *SearchOptions) (*core.Result[[]FileObject], error) {
	body := listRequest{
		Prefix: cleanPath(prefix),
		Limit:  defaultListLimit,
		SortBy: SortBy{Column: "name", Order: "asc"},
	}
	if opts != nil {
		if opts.Limit > 0 {
			body.Limit = opts.Limit
		}
		body.Offset = opts.Offset
		body.Search = opts.Search
		if opts.SortBy != nil {
			body.SortBy = *opts.SortBy
		}
	}
	return core.Execute[[]FileObject](ctx, f.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    f.url + "/object/list/" + url.PathEscape(f.bucket),
		Body:   body,
	})
}

// Move renames an object, optionally into another bucket.
func (f *FileAPI) Move(ctx context.Context, from, to string, opts *DestinationOptions) (*core.Result[Message], error) {
	return core.Execute[Message](ctx, f.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    f.url + "/object/move",
		Body:   f.newMoveRequest(from, to, opts),
	})
}

// Copy duplicates an object, optionally into another bucket.
func (f *FileAPI) Copy(ctx context.Context, from, to string, opts *DestinationOptions) (*core.Result[CopyResult], error) {
	res, err := core.Execute[copyResponse](ctx, f.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    f.url + "/object/copy",
		Body:   f.newMoveRequest(from, to, opts),
	})
	return core.MapResult(res, err, func(r copyResponse) CopyResult {
		return CopyResult{Path: r.Key}
	})
}

func (f *FileAPI) newMoveRequest(from, to string, opts *DestinationOptions) moveRequest {
	req := moveRequest{BucketID: f.bucket, SourceKey: from, DestinationKey: to}
	if opts != nil {
		req.DestinationBucket = opts.DestinationBucket
	}
	return req
}

// Remove deletes the objects at paths and returns what was removed.
func (f *FileAPI) Remove(ctx context.Context, paths []string) (*core.Result[[]FileObject], error) {
	if len(paths) == 0 {
		return core.Reject[[]FileObject](f.pipeline, core.NewValidationError(core.NamespaceStorage, "at least one path is required"))
	}
	return core.Execute[[]FileObject](ctx, f.pipeline, &core.Request{
		Method: http.MethodDelete,
		URL:    f.url + "/object/" + url.PathEscape(f.bucket),
		Body:   map[string][]string{"prefixes": paths},
	})
}

// CreateSignedURL returns a URL granting access to path for expiresIn seconds.
func (f *FileAPI) CreateSignedURL(ctx context.Context, path string, expiresIn int, opts *URLOptions) (*core.Result[SignedURL], error) {
	if expiresIn <= 0 {
		return core.Reject[SignedURL](f.pipeline, core.NewValidationError(core.NamespaceStorage, "expiresIn must be positive"))
	}
	body := signRequest{ExpiresIn: expiresIn}
	if opts != nil && !opts.Transform.empty() {
		body.Transform = opts.Transform
	}
	res, err := core.Execute[signResponse](ctx, f.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    f.url + "/object/sign/" + f.finalPath(cleanPath(path)),
		Body:   body,
	})
	return core.MapResult(res, err, func(r signResponse) SignedURL {
		return SignedURL{Path: cleanPath(path), SignedURL: f.url + r.SignedURL + downloadParam(opts)}
	})
}

// CreateSignedURLs signs several paths in one request. Entries that could
// not be signed carry an Error and an empty SignedURL.
func (f *FileAPI) CreateSignedURLs(ctx context.Context, paths []string, expiresIn int, opts *URLOptions) (*core.Result[[]SignedURL], error) {
	if expiresIn <= 0 {
		return core.Reject[[]SignedURL](f.pipeline, core.NewValidationError(core.NamespaceStorage, "expiresIn must be positive"))
	}
	res, err := core.Execute[[]signManyEntry](ctx, f.pipeline, &core.Request{
		Method: http.MethodPost,
		URL:    f.url + "/object/sign/" + url.PathEscape(f.bucket),
		Body:   signManyRequest{ExpiresIn: expiresIn, Paths: paths},
	})
	return core.MapResult(res, err, func(entries []signManyEntry) []SignedURL {
		out := make([]SignedURL, len(entries))
		for i, e := range entries {
			out[i].Path = e.Path
			if e.Error != nil {
				out[i].Error = *e.Error
			}
			if e.SignedURL != nil {
				out[i].SignedURL = f.url + *e.SignedURL + downloadParam(opts)
			}
		}
		return out
	})
}

// GetPublicURL builds the public address of an object. It does not check
// that the bucket is public or that the object exists.
func (f *FileAPI) GetPublicURL(path string, opts *URLOptions) PublicURL {
	renderPath := "object"
	query := make(url.Values)
	if opts != nil {
		if !opts.Transform.empty() {
			renderPath = "render/image"
			addTransformQuery(query, opts.Transform)
		}
		if opts.Download || opts.DownloadAs != "" {
			query.Set("download", opts.DownloadAs)
		}
	}

	u := f.url + "/" + renderPath + "/public/" + f.finalPath(cleanPath(path))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return PublicURL{PublicURL: u}
}

// finalPath joins the bucket and a cleaned object path, escaping each segment.
func (f *FileAPI) finalPath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return url.PathEscape(f.bucket) + "/" + strings.Join(segments, "/")
}

// cleanPath strips leading and trailing slashes and collapses repeats.
func cleanPath(path string) string {
	parts := strings.Split(path, "/")
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "/")
}

func downloadParam(opts *URLOptions) string {
	if opts == nil || (!opts.Download && opts.DownloadAs == "") {
		return ""
	}
	return "&download=" + url.QueryEscape(opts.DownloadAs)
}

func addTransformQuery(q url.Values, t *TransformOptions) {
	if t.Width > 0 {
		q.Set("width", strconv.Itoa(t.Width))
	}
	if t.Height > 0 {
		q.Set("height", strconv.Itoa(t.Height))
	}
	if t.Resize != "" {
		q.Set("resize", t.Resize)
	}
	if t.Format != "" {
		q.Set("format", t.Format)
	}
	if t.Quality > 0 {
		q.Set("quality", strconv.Itoa(t.Quality))
	}
}

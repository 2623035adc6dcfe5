package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/petal-labs/basalt/core"
)

// Download is a deferred object fetch. Configure it, then call Execute for
// the whole body or Stream to read it incrementally.
type Download struct {
	api       *FileAPI
	path      string
	transform *TransformOptions
}

// Transform renders the image server-side before download.
func (d *Download) Transform(t TransformOptions) *Download {
	d.transform = &t
	return d
}

// Execute fetches the object into memory.
func (d *Download) Execute(ctx context.Context) (*core.Result[[]byte], error) {
	return core.Execute[[]byte](ctx, d.api.pipeline, d.request(core.DecodeBlob))
}

// Stream fetches the object and returns its body unread. The caller must
// close it; the request stays open until then.
func (d *Download) Stream(ctx context.Context) (*core.Result[io.ReadCloser], error) {
	return core.Execute[io.ReadCloser](ctx, d.api.pipeline, d.request(core.DecodeStream))
}

func (d *Download) request(mode core.DecodeMode) *core.Request {
	renderPath := "object"
	query := make(url.Values)
	if !d.transform.empty() {
		renderPath = "render/image/authenticated"
		addTransformQuery(query, d.transform)
	}

	u := d.api.url + "/" + renderPath + "/" + d.api.finalPath(d.path)
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return &core.Request{Method: http.MethodGet, URL: u, Decode: mode}
}

package vectors

import (
	"context"
	"net/http"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/petal-labs/basalt/core"
)

// IndexScope reads and writes the vectors of one index. It owns a copy of
// the headers of the scope it was derived from.
type IndexScope struct {
	url      string
	ref      indexRef
	pipeline *core.Pipeline
}

// Name returns the index name.
func (s *IndexScope) Name() string {
	return s.ref.IndexName
}

// SetHeader sets a header on this scope only.
func (s *IndexScope) SetHeader(key, value string) *IndexScope {
	s.pipeline.SetHeader(key, value)
	return s
}

// PutVectors inserts or replaces 1 to 500 vectors.
func (s *IndexScope) PutVectors(ctx context.Context, vectors []Vector) (*core.Result[Empty], error) {
	if err := core.ValidateBatchSize(core.NamespaceVectors, len(vectors)); err != nil {
		return core.Reject[Empty](s.pipeline, err)
	}
	return post[Empty](ctx, s.pipeline, s.url+"/PutVectors", putVectorsRequest{indexRef: s.ref, Vectors: vectors})
}

// GetVectors fetches vectors by key.
func (s *IndexScope) GetVectors(ctx context.Context, opts GetVectorsOptions) (*core.Result[VectorsResponse], error) {
	return post[VectorsResponse](ctx, s.pipeline, s.url+"/GetVectors", keysRequest{
		indexRef:       s.ref,
		Keys:           opts.Keys,
		ReturnData:     opts.ReturnData,
		ReturnMetadata: opts.ReturnMetadata,
	})
}

// ListVectors returns one page of the index. With SegmentCount set, only
// the segment at SegmentIndex is scanned.
func (s *IndexScope) ListVectors(ctx context.Context, opts *ListVectorsOptions) (*core.Result[ListVectorsResponse], error) {
	if opts == nil {
		opts = &ListVectorsOptions{}
	}
	if err := core.ValidateSegments(core.NamespaceVectors, opts.SegmentCount, opts.SegmentIndex); err != nil {
		return core.Reject[ListVectorsResponse](s.pipeline, err)
	}
	return post[ListVectorsResponse](ctx, s.pipeline, s.url+"/ListVectors", s.listRequest(opts))
}

func (s *IndexScope) listRequest(opts *ListVectorsOptions) listVectorsRequest {
	return listVectorsRequest{
		indexRef:       s.ref,
		MaxResults:     opts.MaxResults,
		NextToken:      opts.NextToken,
		ReturnData:     opts.ReturnData,
		ReturnMetadata: opts.ReturnMetadata,
		SegmentCount:   opts.SegmentCount,
		SegmentIndex:   opts.SegmentIndex,
	}
}

// QueryVectors returns the TopK nearest vectors to the query.
func (s *IndexScope) QueryVectors(ctx context.Context, opts QueryOptions) (*core.Result[QueryResponse], error) {
	return post[QueryResponse](ctx, s.pipeline, s.url+"/QueryVectors", queryVectorsRequest{
		indexRef:       s.ref,
		QueryVector:    opts.QueryVector,
		TopK:           opts.TopK,
		Filter:         opts.Filter,
		ReturnDistance: opts.ReturnDistance,
		ReturnMetadata: opts.ReturnMetadata,
	})
}

// DeleteVectors removes 1 to 500 vectors by key.
func (s *IndexScope) DeleteVectors(ctx context.Context, keys []string) (*core.Result[Empty], error) {
	if err := core.ValidateBatchSize(core.NamespaceVectors, len(keys)); err != nil {
		return core.Reject[Empty](s.pipeline, err)
	}
	return post[Empty](ctx, s.pipeline, s.url+"/DeleteVectors", keysRequest{indexRef: s.ref, Keys: keys})
}

// ScanAll reads the whole index, one ListVectors pagination loop per
// segment, running segments in parallel. fn receives every page and may be
// called concurrently from different segments. The first failure cancels
// the remaining segments. The result is the number of vectors read.
func (s *IndexScope) ScanAll(ctx context.Context, opts ScanOptions, fn func(segment int, page []Vector) error) (*core.Result[int], error) {
	segments := opts.Segments
	if segments == 0 {
		segments = 1
	}
	if err := core.ValidateSegments(core.NamespaceVectors, &segments, nil); err != nil {
		return core.Reject[int](s.pipeline, err)
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < segments; i++ {
		g.Go(func() error {
			req := &ListVectorsOptions{
				MaxResults:     opts.PageSize,
				ReturnData:     opts.ReturnData,
				ReturnMetadata: opts.ReturnMetadata,
			}
			if segments > 1 {
				req.SegmentCount, req.SegmentIndex = &segments, &i
			}
			for {
				page, err := core.Fetch[ListVectorsResponse](gctx, s.pipeline, &core.Request{
					Method: http.MethodPost,
					URL:    s.url + "/ListVectors",
					Body:   s.listRequest(req),
				})
				if err != nil {
					return err
				}
				total.Add(int64(len(page.Vectors)))
				if fn != nil {
					if err := fn(i, page.Vectors); err != nil {
						return err
					}
				}
				if page.NextToken == "" {
					return nil
				}
				req.NextToken = page.NextToken
			}
		})
	}
	if err := g.Wait(); err != nil {
		return core.Reject[int](s.pipeline, err)
	}
	return core.Settle(s.pipeline.ThrowOnError(), int(total.Load()), nil)
}

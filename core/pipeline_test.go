package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingDoer records every dispatched request.
type countingDoer struct {
	calls    atomic.Int32
	respond  func(req *http.Request) (*http.Response, error)
	mu       sync.Mutex
	lastReq  *http.Request
	lastBody []byte
}

func (d *countingDoer) Do(req *http.Request) (*http.Response, error) {
	d.calls.Add(1)
	d.mu.Lock()
	d.lastReq = req
	if req.Body != nil {
		d.lastBody, _ = io.ReadAll(req.Body)
	}
	d.mu.Unlock()
	return d.respond(req)
}

func jsonResponder(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return newResponse(status, "application/json", body), nil
	}
}

// recordingTelemetry captures lifecycle events.
type recordingTelemetry struct {
	mu     sync.Mutex
	starts []RequestStartEvent
	ends   []RequestEndEvent
}

func (r *recordingTelemetry) OnRequestStart(e RequestStartEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, e)
}

func (r *recordingTelemetry) OnRequestEnd(e RequestEndEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ends = append(r.ends, e)
}

func newTestPipeline(ns Namespace, doer Doer, timers *fakeTimers, opts ...Option) *Pipeline {
	p := NewPipeline(ns, append([]Option{WithHTTPClient(doer)}, opts...)...)
	if timers != nil {
		p.afterFunc = timers.afterFunc
	}
	return p
}

func TestExecuteSuccess(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{"id":"abc"}`)}
	p := newTestPipeline(NamespaceStorage, doer, nil)

	res, err := Execute[map[string]any](context.Background(), p, &Request{
		Method: http.MethodPost,
		URL:    "https://example.test/storage/v1/bucket",
		Body:   map[string]any{"name": "avatars"},
	})

	require.NoError(t, err)
	require.True(t, res.OK())
	assert.Equal(t, "abc", res.Data["id"])
	assert.Equal(t, int32(1), doer.calls.Load())
	assert.Equal(t, "application/json", doer.lastReq.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"name":"avatars"}`, string(doer.lastBody))
}

func TestExecuteDefaultsToGet(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceNone, doer, nil)

	_, err := Execute[any](context.Background(), p, &Request{URL: "https://example.test/x"})

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, doer.lastReq.Method)
}

func TestExecuteThroughHTTPTest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Hello World"))
	}))
	defer server.Close()

	p := NewPipeline(NamespaceFunctions, WithHTTPClient(server.Client()))

	res, err := Execute[any](context.Background(), p, &Request{Method: http.MethodPost, URL: server.URL + "/hello"})

	require.NoError(t, err)
	assert.Equal(t, "Hello World", res.Data)
}

func TestTimerStoppedOnEveryExit(t *testing.T) {
	tests := []struct {
		name    string
		respond func(*http.Request) (*http.Response, error)
	}{
		{"success", jsonResponder(200, `{}`)},
		{"non-2xx", jsonResponder(500, `{"message":"boom"}`)},
		{"transport error", func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		}},
		{"decode error", jsonResponder(200, `{`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timers := &fakeTimers{}
			doer := &countingDoer{respond: tt.respond}
			p := newTestPipeline(NamespaceStorage, doer, timers, WithTimeout(time.Minute))

			_, _ = Execute[any](context.Background(), p, &Request{URL: "https://example.test/x"})

			require.Len(t, timers.timers, 1)
			assert.True(t, timers.timers[0].stopped.Load())
			assert.Equal(t, time.Minute, timers.timers[0].duration)
			assert.Error(t, doer.lastReq.Context().Err(), "call context should be released")
		})
	}
}

func TestCallTimeoutOverridesDefault(t *testing.T) {
	timers := &fakeTimers{}
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceNone, doer, timers, WithTimeout(time.Minute))

	_, err := Execute[any](context.Background(), p, &Request{URL: "https://example.test/x", Timeout: time.Second})

	require.NoError(t, err)
	require.Len(t, timers.timers, 1)
	assert.Equal(t, time.Second, timers.timers[0].duration)
}

func TestNoTimerWithoutTimeout(t *testing.T) {
	timers := &fakeTimers{}
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceNone, doer, timers)

	_, err := Execute[any](context.Background(), p, &Request{URL: "https://example.test/x"})

	require.NoError(t, err)
	assert.Empty(t, timers.timers)
}

// blockingDoer never answers; it returns once the request context ends.
func blockingDoer(req *http.Request) (*http.Response, error) {
	<-req.Context().Done()
	return nil, req.Context().Err()
}

func TestTimeoutAbortsUnresolvedTransport(t *testing.T) {
	p := NewPipeline(NamespaceFunctions, WithHTTPClient(DoerFunc(blockingDoer)))

	start := time.Now()
	res, err := Execute[any](context.Background(), p, &Request{URL: "https://example.test/slow", Timeout: 100 * time.Millisecond})

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, "FunctionsFetchError", res.Error.Name())
	assert.True(t, errors.Is(res.Error, ErrTimeout))
	assert.True(t, errors.Is(res.Error, ErrTransport))
}

func TestCallerCancelWinsOverTimeout(t *testing.T) {
	p := NewPipeline(NamespaceStorage, WithHTTPClient(DoerFunc(blockingDoer)))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := Execute[any](ctx, p, &Request{URL: "https://example.test/slow", Timeout: 5 * time.Second})

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.True(t, errors.Is(res.Error, context.Canceled))
	assert.False(t, errors.Is(res.Error, ErrTimeout))
}

func TestHeaderPrecedence(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceNone, doer, nil, WithHeader("A", "1"))

	_, err := Execute[any](context.Background(), p, &Request{
		URL:     "https://example.test/x",
		Headers: http.Header{"A": {"2"}, "B": {"3"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "2", doer.lastReq.Header.Get("A"))
	assert.Equal(t, "3", doer.lastReq.Header.Get("B"))
	assert.Equal(t, "1", p.Headers().Get("A"), "client headers must not change")
}

func TestCallHeaderOverridesContentType(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceStorage, doer, nil)

	_, err := Execute[any](context.Background(), p, &Request{
		Method:  http.MethodPost,
		URL:     "https://example.test/x",
		Body:    []byte("png"),
		Headers: http.Header{"Content-Type": {"image/png"}},
	})

	require.NoError(t, err)
	assert.Equal(t, "image/png", doer.lastReq.Header.Get("Content-Type"))
}

func TestBodyContentTypes(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"struct", struct{ A int }{1}, "application/json"},
		{"string", "hi", "text/plain;charset=UTF-8"},
		{"bytes", []byte{1}, "application/octet-stream"},
		{"form values", url.Values{"a": {"b"}}, "application/x-www-form-urlencoded"},
		{"reader", strings.NewReader("raw"), ""},
		{"none", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &countingDoer{respond: jsonResponder(200, `{}`)}
			p := newTestPipeline(NamespaceNone, doer, nil)

			_, err := Execute[any](context.Background(), p, &Request{Method: http.MethodPost, URL: "https://example.test/x", Body: tt.body})

			require.NoError(t, err)
			assert.Equal(t, tt.want, doer.lastReq.Header.Get("Content-Type"))
		})
	}
}

func TestFormDataBody(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceStorage, doer, nil)
	form := NewFormData().Add("cacheControl", "3600").AddFile("file", "a.txt", "text/plain", []byte("hello"))

	_, err := Execute[any](context.Background(), p, &Request{Method: http.MethodPost, URL: "https://example.test/x", Body: form})

	require.NoError(t, err)
	ct := doer.lastReq.Header.Get("Content-Type")
	assert.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="))
	assert.Contains(t, string(doer.lastBody), "hello")
	assert.Contains(t, string(doer.lastBody), `name="cacheControl"`)
}

func TestEncodeFailureIsUnknownWithoutDispatch(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceVectors, doer, nil)

	res, err := Execute[any](context.Background(), p, &Request{Method: http.MethodPost, URL: "https://example.test/x", Body: map[string]any{"f": func() {}}})

	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Equal(t, "VectorsUnknownError", res.Error.Name())
	assert.Equal(t, int32(0), doer.calls.Load())
}

func TestReturnModeVersusThrowMode(t *testing.T) {
	doer := &countingDoer{respond: jsonResponder(409, `{"message":"exists","statusCode":"409"}`)}

	returning := newTestPipeline(NamespaceStorage, doer, nil)
	res, err := Execute[any](context.Background(), returning, &Request{URL: "https://example.test/x"})
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	assert.Nil(t, res.Data)
	assert.Equal(t, "exists", res.Error.Message)

	throwing := returning.Clone(WithThrowOnError(true))
	res, err = Execute[any](context.Background(), throwing, &Request{URL: "https://example.test/x"})
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	e, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "StorageApiError", e.Name())

	assert.Equal(t, int32(2), doer.calls.Load(), "each call dispatches exactly once")
}

func TestStreamKeepsContextUntilClose(t *testing.T) {
	timers := &fakeTimers{}
	var reqCtx context.Context
	doer := DoerFunc(func(req *http.Request) (*http.Response, error) {
		reqCtx = req.Context()
		return newResponse(200, "text/event-stream", "data: a\n\n"), nil
	})
	p := newTestPipeline(NamespaceFunctions, doer, timers, WithTimeout(time.Minute))

	res, err := Execute[io.ReadCloser](context.Background(), p, &Request{URL: "https://example.test/stream"})

	require.NoError(t, err)
	assert.True(t, timers.timers[0].stopped.Load())
	assert.NoError(t, reqCtx.Err())

	data, err := io.ReadAll(res.Data)
	require.NoError(t, err)
	assert.Equal(t, "data: a\n\n", string(data))
	require.NoError(t, res.Data.Close())
	assert.Error(t, reqCtx.Err())
}

func TestCloneHeaderIsolation(t *testing.T) {
	parent := NewPipeline(NamespaceVectors, WithHeader("X-Base", "1"))
	child := parent.Clone()

	child.SetHeader("X-Scope", "child")
	parent.SetHeader("X-Parent", "p")

	assert.Equal(t, "1", child.Headers().Get("X-Base"))
	assert.Equal(t, "child", child.Headers().Get("X-Scope"))
	assert.Empty(t, child.Headers().Get("X-Parent"))
	assert.Empty(t, parent.Headers().Get("X-Scope"))
	assert.Equal(t, NamespaceVectors, child.Namespace())
}

func TestHeadersReturnsCopy(t *testing.T) {
	p := NewPipeline(NamespaceNone, WithHeader("A", "1"))
	h := p.Headers()
	h.Set("A", "mutated")
	assert.Equal(t, "1", p.Headers().Get("A"))
}

func TestWithHeadersCopiesInput(t *testing.T) {
	in := http.Header{"apikey": {"k"}}
	p := NewPipeline(NamespaceNone, WithHeaders(in))
	in.Set("Apikey", "changed")
	assert.Equal(t, "k", p.Headers().Get("apikey"))
}

func TestTelemetryEvents(t *testing.T) {
	tel := &recordingTelemetry{}
	doer := &countingDoer{respond: jsonResponder(404, `{"message":"gone"}`)}
	p := newTestPipeline(NamespaceStorage, doer, nil, WithTelemetry(tel))
	p.requestID = func() string { return "req-1" }

	_, err := Execute[any](context.Background(), p, &Request{Method: http.MethodDelete, URL: "https://example.test/storage/v1/object/b/a.png?token=secret"})
	require.NoError(t, err)

	require.Len(t, tel.starts, 1)
	require.Len(t, tel.ends, 1)
	assert.Equal(t, "req-1", tel.starts[0].RequestID)
	assert.Equal(t, "/storage/v1/object/b/a.png", tel.starts[0].Path)
	assert.Equal(t, http.MethodDelete, tel.ends[0].Method)
	assert.Equal(t, 404, tel.ends[0].Status)
	assert.True(t, errors.Is(tel.ends[0].Err, ErrNotFound))
	assert.GreaterOrEqual(t, tel.ends[0].Duration(), time.Duration(0))
}

// recordingLogger captures log messages.
type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("debug: " + msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info: " + msg) }

func (l *recordingLogger) record(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msgs = append(l.msgs, s)
}

func TestLoggerReceivesLifecycle(t *testing.T) {
	logger := &recordingLogger{}
	doer := &countingDoer{respond: jsonResponder(200, `{}`)}
	p := newTestPipeline(NamespaceNone, doer, nil, WithLogger(logger))

	_, err := Execute[any](context.Background(), p, &Request{URL: "https://example.test/x"})

	require.NoError(t, err)
	assert.Equal(t, []string{"info: request start", "debug: response headers", "info: request done"}, logger.msgs)
}

func TestRejectFollowsThrowMode(t *testing.T) {
	v := NewValidationError(NamespaceVectors, "too many")

	res, err := Reject[any](NewPipeline(NamespaceVectors), v)
	require.NoError(t, err)
	assert.Same(t, v, res.Error)

	res, err = Reject[any](NewPipeline(NamespaceVectors, WithThrowOnError(true)), v)
	assert.Nil(t, res)
	assert.Same(t, v, err)
}

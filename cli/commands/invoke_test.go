package commands

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvokePrintsJSON(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"hello"}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	stdout, _, err := h.run("--url", srv.URL, "invoke", "hello-world")
	require.NoError(t, err)

	assert.Equal(t, "/functions/v1/hello-world", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, "hello", out["message"])
}

func TestInvokePrintsMultipartFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := multipart.NewWriter(w)
		w.Header().Set("Content-Type", mw.FormDataContentType())
		mw.WriteField("greeting", "hi")
		mw.Close()
	}))
	defer srv.Close()

	h := newHarness(t)
	stdout, _, err := h.run("--url", srv.URL, "invoke", "form")
	require.NoError(t, err)

	var out map[string][]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.Equal(t, []string{"hi"}, out["greeting"])
}

func TestInvokeSendsRequestShape(t *testing.T) {
	var (
		gotMethod, gotTrace, gotType, gotRegion, gotQuery string
		gotBody                                           []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotTrace = r.Header.Get("X-Trace")
		gotType = r.Header.Get("Content-Type")
		gotRegion = r.Header.Get("x-region")
		gotQuery = r.URL.Query().Get("forceFunctionRegion")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := newHarness(t)
	stdout, _, err := h.run("--url", srv.URL, "invoke", "echo",
		"-X", "put", "-H", "X-Trace: abc", "--region", "eu-west-1", "--body", `{"a":1}`)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "abc", gotTrace)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "eu-west-1", gotRegion)
	assert.Equal(t, "eu-west-1", gotQuery)
	assert.JSONEq(t, `{"a":1}`, string(gotBody))
	assert.Equal(t, "ok\n", stdout)
}

func TestInvokeTextBody(t *testing.T) {
	var gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newHarness(t)
	_, _, err := h.run("--url", srv.URL, "invoke", "echo", "--body", "plain words")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(gotType, "text/plain"), "Content-Type = %q", gotType)
}

func TestInvokeInvalidHeader(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	h := newHarness(t)
	_, _, err := h.run("--url", srv.URL, "invoke", "echo", "-H", "no-colon")

	assert.Equal(t, ExitValidation, exitCode(t, err))
	assert.Equal(t, int32(0), calls.Load())
}

func TestInvokeAPIErrorExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message":"Function not found"}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	_, stderr, err := h.run("--url", srv.URL, "invoke", "missing")

	assert.Equal(t, ExitAPI, exitCode(t, err))
	assert.Contains(t, stderr, "FunctionsHttpError")
}

func TestInvokeJSONErrorOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"bad input"}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	_, stderr, err := h.run("--url", srv.URL, "--json", "invoke", "echo")
	require.Error(t, err)

	var out struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
			Status  int    `json:"status"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stderr), &out))
	assert.Equal(t, "FunctionsHttpError", out.Error.Type)
	assert.Equal(t, "bad input", out.Error.Message)
	assert.Equal(t, 400, out.Error.Status)
}

func TestInvokeNetworkErrorExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	h := newHarness(t)
	_, _, err := h.run("--url", url, "invoke", "echo")

	assert.Equal(t, ExitNetwork, exitCode(t, err))
}

func TestInvokeRetries(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []int
		retries   string
		wantCalls int32
		wantCode  int
	}{
		{"recovers after 5xx", []int{500, 503, 200}, "2", 3, ExitSuccess},
		{"gives up after retries", []int{500, 500, 500}, "1", 2, ExitAPI},
		{"rate limit is retried", []int{429, 200}, "3", 2, ExitSuccess},
		{"4xx is permanent", []int{400, 200}, "3", 1, ExitAPI},
		{"no retries by default", []int{500, 200}, "0", 1, ExitAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1)) - 1
				status := tt.statuses[len(tt.statuses)-1]
				if n < len(tt.statuses) {
					status = tt.statuses[n]
				}
				w.Header().Set("Content-Type", "text/plain")
				w.WriteHeader(status)
				w.Write([]byte("attempt"))
			}))
			defer srv.Close()

			h := newHarness(t)
			_, _, err := h.run("--url", srv.URL, "invoke", "flaky", "--retries", tt.retries)

			assert.Equal(t, tt.wantCode, exitCode(t, err))
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestInvokeRetriesRelayError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if calls.Add(1) == 1 {
			w.Header().Set("x-relay-error", "true")
			w.Write([]byte("worker boot error"))
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	h := newHarness(t)
	stdout, _, err := h.run("--url", srv.URL, "invoke", "flaky", "--retries", "2")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Contains(t, stdout, "ok")
}

func TestInvokeStreamCopiedToStdout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: one\n\ndata: two\n\n"))
	}))
	defer srv.Close()

	h := newHarness(t)
	stdout, _, err := h.run("--url", srv.URL, "invoke", "events")
	require.NoError(t, err)
	assert.Equal(t, "data: one\n\ndata: two\n\n", stdout)
}

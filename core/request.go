package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"time"
)

// DecodeMode selects how a successful response body is decoded.
type DecodeMode int

const (
	// DecodeAuto decodes by the response Content-Type.
	DecodeAuto DecodeMode = iota
	// DecodeJSON parses the body as JSON regardless of Content-Type.
	DecodeJSON
	// DecodeText returns the body as a string.
	DecodeText
	// DecodeBlob returns the body as []byte.
	DecodeBlob
	// DecodeStream returns the body as an io.ReadCloser the caller must close.
	DecodeStream
	// DecodeForm parses the body as form data: *multipart.Form for
	// multipart bodies, url.Values otherwise. Large multipart parts may be
	// stored in temporary files; call RemoveAll on the form when done.
	DecodeForm
	// DecodeRaw returns the *http.Response with its body unread.
	DecodeRaw
)

// Request describes one call through the pipeline. It is built fresh per
// call and not retained after dispatch.
type Request struct {
	// Method is the HTTP method. Defaults to GET.
	Method string

	// URL is the absolute target URL.
	URL string

	// Headers are call-level headers. They override client headers.
	Headers http.Header

	// Body is encoded according to its type; see [encodeBody].
	Body any

	// Timeout bounds the call. Zero falls back to the pipeline default.
	Timeout time.Duration

	// Decode selects the response decode path.
	Decode DecodeMode
}

// FormData is a multipart form body. The pipeline sets the boundary.
type FormData struct {
	fields []formField
}

type formField struct {
	name     string
	filename string
	value    []byte
	mimeType string
}

// NewFormData returns an empty form.
func NewFormData() *FormData {
	return &FormData{}
}

// Add appends a plain field.
func (f *FormData) Add(name, value string) *FormData {
	f.fields = append(f.fields, formField{name: name, value: []byte(value)})
	return f
}

// AddFile appends a file part.
func (f *FormData) AddFile(name, filename, mimeType string, content []byte) *FormData {
	f.fields = append(f.fields, formField{name: name, filename: filename, value: content, mimeType: mimeType})
	return f
}

// Clone returns a copy that can be extended without changing f.
func (f *FormData) Clone() *FormData {
	return &FormData{fields: append([]formField(nil), f.fields...)}
}

// encode writes the form as multipart and returns the body with its content type.
func (f *FormData) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, field := range f.fields {
		if field.filename == "" {
			if err := w.WriteField(field.name, string(field.value)); err != nil {
				return nil, "", err
			}
			continue
		}
		part, err := createFilePart(w, field)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(field.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func createFilePart(w *multipart.Writer, field formField) (io.Writer, error) {
	if field.mimeType == "" {
		return w.CreateFormFile(field.name, field.filename)
	}
	h := make(textproto.MIMEHeader)
	h["Content-Disposition"] = []string{
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, field.name, field.filename),
	}
	h["Content-Type"] = []string{field.mimeType}
	return w.CreatePart(h)
}

// encodeBody turns a request body into a reader and a default content type.
// The content type is empty when the body carries its own framing.
func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case *FormData:
		return b.encode()
	case url.Values:
		return bytes.NewBufferString(b.Encode()), "application/x-www-form-urlencoded", nil
	case []byte:
		return bytes.NewReader(b), "application/octet-stream", nil
	case string:
		return bytes.NewBufferString(b), "text/plain;charset=UTF-8", nil
	case io.Reader:
		return b, "", nil
	case json.RawMessage:
		return bytes.NewReader(b), "application/json", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// mergeHeaders applies precedence: call > client > computed default.
// None of the inputs are mutated.
func mergeHeaders(defaults, client, call http.Header) http.Header {
	out := make(http.Header, len(defaults)+len(client)+len(call))
	for _, layer := range []http.Header{defaults, client, call} {
		for key, values := range layer {
			out[http.CanonicalHeaderKey(key)] = append([]string(nil), values...)
		}
	}
	return out
}

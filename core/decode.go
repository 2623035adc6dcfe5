package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// RelayErrorHeader marks an error raised by the relay in front of a function.
const RelayErrorHeader = "x-relay-error"

// maxFormMemory bounds the in-memory part of a parsed multipart body.
const maxFormMemory = 32 << 20

// decoder turns a completed response into a value of type T.
type decoder[T any] struct {
	namespace   Namespace
	mode        DecodeMode
	emptyBodyOK bool
}

// decode classifies and decodes resp. When ownsBody is true the returned value
// holds the response body and the caller must close it; otherwise the body
// has been fully consumed and closed.
func (d decoder[T]) decode(resp *http.Response) (value T, ownsBody bool, err error) {
	if strings.EqualFold(resp.Header.Get(RelayErrorHeader), "true") {
		defer resp.Body.Close()
		e := ClassifyResponse(d.namespace, resp)
		// The relay failed in front of the function, whatever status it sent.
		e.Relay = true
		e.Err = ErrServer
		return value, false, e
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return value, false, ClassifyResponse(d.namespace, resp)
	}

	mediaType, params := parseContentType(resp.Header.Get("Content-Type"))
	mode := d.mode
	if mode == DecodeAuto {
		mode = modeForMediaType(mediaType)
	}

	switch mode {
	case DecodeRaw:
		value, err = d.assign(resp)
		return value, err == nil, err
	case DecodeStream:
		value, err = d.assign(resp.Body)
		if err != nil {
			resp.Body.Close()
		}
		return value, err == nil, err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return value, false, NewUnknownError(d.namespace, fmt.Errorf("read response body: %w", err))
	}

	if d.emptyBodyOK && (len(bytes.TrimSpace(body)) == 0 || (d.mode == DecodeAuto && mediaType != "application/json")) {
		return emptyValue[T](), false, nil
	}

	switch mode {
	case DecodeJSON:
		if err := json.Unmarshal(body, &value); err != nil {
			return value, false, NewUnknownError(d.namespace, fmt.Errorf("decode json response: %w", err))
		}
		return value, false, nil
	case DecodeBlob:
		value, err = d.assign(body)
	case DecodeForm:
		var form any
		form, err = parseForm(mediaType, params, body)
		if err != nil {
			return value, false, NewUnknownError(d.namespace, err)
		}
		value, err = d.assign(form)
	default:
		value, err = d.assign(string(body))
	}
	return value, false, err
}

// assign converts a decoded shape to T.
func (d decoder[T]) assign(v any) (T, error) {
	if out, ok := v.(T); ok {
		return out, nil
	}
	var zero T
	return zero, NewUnknownError(d.namespace, fmt.Errorf("cannot decode %T response into %T", v, zero))
}

// modeForMediaType picks the decode path for a successful response.
func modeForMediaType(mediaType string) DecodeMode {
	switch mediaType {
	case "application/json":
		return DecodeJSON
	case "application/octet-stream", "application/pdf":
		return DecodeBlob
	case "text/event-stream":
		return DecodeStream
	case "multipart/form-data":
		return DecodeForm
	default:
		return DecodeText
	}
}

// parseContentType returns the lower-cased media type without parameters.
func parseContentType(header string) (string, map[string]string) {
	if header == "" {
		return "", nil
	}
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		mediaType, _, _ = strings.Cut(header, ";")
		return strings.ToLower(strings.TrimSpace(mediaType)), nil
	}
	return mediaType, params
}

// parseForm decodes multipart or urlencoded bodies.
func parseForm(mediaType string, params map[string]string, body []byte) (any, error) {
	if mediaType == "multipart/form-data" {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart response without boundary")
		}
		form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxFormMemory)
		if err != nil {
			return nil, fmt.Errorf("decode multipart response: %w", err)
		}
		return form, nil
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode form response: %w", err)
	}
	return values, nil
}

// emptyValue is the decoded value of a bodiless success: an empty object
// when T can hold one, the zero value otherwise.
func emptyValue[T any]() T {
	if v, ok := any(map[string]any{}).(T); ok {
		return v
	}
	var zero T
	return zero
}

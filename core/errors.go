package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Namespace selects the display name of an [Error] without changing its shape.
type Namespace string

// Known namespaces.
const (
	NamespaceNone      Namespace = ""
	NamespaceFunctions Namespace = "functions"
	NamespaceStorage   Namespace = "storage"
	NamespaceVectors   Namespace = "vectors"
)

// Kind discriminates the variants of [Error].
type Kind int

const (
	// KindAPI is a remote rejection: a non-2xx status or a relay error header.
	KindAPI Kind = iota + 1

	// KindUnknown is a transport failure or a malformed response.
	KindUnknown

	// KindValidation is a local precondition violation detected before dispatch.
	KindValidation
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAPI:
		return "api"
	case KindUnknown:
		return "unknown"
	case KindValidation:
		return "validation"
	default:
		return "invalid"
	}
}

// Sentinel errors for classification with errors.Is.
var (
	ErrAPI        = errors.New("api error")
	ErrTransport  = errors.New("transport error")
	ErrValidation = errors.New("validation error")
	ErrTimeout    = errors.New("request timed out")
)

// Status sentinels. API errors wrap the one matching their HTTP status.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrRateLimited  = errors.New("rate limited")
	ErrServer       = errors.New("server error")
)

// Error is the classified error produced by the request pipeline.
//
// The namespace is fixed at construction; use the New* constructors.
type Error struct {
	// Status is the HTTP status of an API error, zero otherwise.
	Status int

	// StatusCode is the server-supplied code (e.g. "404" or "InvalidKey").
	StatusCode string

	// Message is the human readable description.
	Message string

	// Relay reports that the error came from the relay in front of the function.
	Relay bool

	// Err is the wrapped cause: the original transport error or a status sentinel.
	Err error

	kind      Kind
	namespace Namespace
}

// NewAPIError creates an API error for a remote rejection.
func NewAPIError(ns Namespace, status int, statusCode, message string) *Error {
	if statusCode == "" {
		statusCode = strconv.Itoa(status)
	}
	if message == "" {
		message = fallbackMessage(status, "")
	}
	return &Error{
		Status:     status,
		StatusCode: statusCode,
		Message:    message,
		Err:        SentinelForStatus(status),
		kind:       KindAPI,
		namespace:  ns,
	}
}

// NewUnknownError wraps a transport or decode failure.
func NewUnknownError(ns Namespace, err error) *Error {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Message:   msg,
		Err:       err,
		kind:      KindUnknown,
		namespace: ns,
	}
}

// NewValidationError reports a precondition violation.
func NewValidationError(ns Namespace, message string) *Error {
	return &Error{
		Message:   message,
		kind:      KindValidation,
		namespace: ns,
	}
}

// Kind returns the error variant.
func (e *Error) Kind() Kind { return e.kind }

// Namespace returns the namespace assigned at construction.
func (e *Error) Namespace() Namespace { return e.namespace }

// Name returns the namespaced display name, e.g. "VectorsApiError".
func (e *Error) Name() string {
	if e.namespace == NamespaceFunctions {
		switch {
		case e.kind == KindAPI && e.Relay:
			return "FunctionsRelayError"
		case e.kind == KindAPI:
			return "FunctionsHttpError"
		case e.kind == KindUnknown:
			return "FunctionsFetchError"
		default:
			return "FunctionsValidationError"
		}
	}

	var base string
	switch e.kind {
	case KindAPI:
		base = "ApiError"
	case KindUnknown:
		base = "UnknownError"
	default:
		base = "ValidationError"
	}
	switch e.namespace {
	case NamespaceStorage:
		return "Storage" + base
	case NamespaceVectors:
		return "Vectors" + base
	default:
		return base
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.kind == KindAPI {
		return fmt.Sprintf("%s: %s (status=%d, code=%s)", e.Name(), e.Message, e.Status, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Name(), e.Message)
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels so errors.Is(err, ErrAPI) works.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAPI:
		return e.kind == KindAPI
	case ErrTransport:
		return e.kind == KindUnknown
	case ErrValidation:
		return e.kind == KindValidation
	}
	return false
}

// IsError reports whether err is, or wraps, a classified [*Error].
func IsError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// AsError returns the classified error in err's chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsVectorsError reports whether err is a classified error in the vectors namespace.
func IsVectorsError(err error) bool {
	return hasNamespace(err, NamespaceVectors)
}

// IsStorageError reports whether err is a classified error in the storage namespace.
func IsStorageError(err error) bool {
	return hasNamespace(err, NamespaceStorage)
}

// IsFunctionsError reports whether err is a classified error in the functions namespace.
func IsFunctionsError(err error) bool {
	return hasNamespace(err, NamespaceFunctions)
}

func hasNamespace(err error, ns Namespace) bool {
	e, ok := AsError(err)
	return ok && e.namespace == ns
}

// SentinelForStatus maps an HTTP status code to a status sentinel.
func SentinelForStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	default:
		return ErrBadRequest
	}
}

// errorBody holds the conventional fields of an error response.
type errorBody struct {
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	ErrorDescription string          `json:"error_description"`
	Error            json.RawMessage `json:"error"`
	StatusCode       json.RawMessage `json:"statusCode"`
	Code             json.RawMessage `json:"code"`
}

// ClassifyResponse builds an API error from a response that was not OK.
// The body is consumed. It never fails: unreadable or non-JSON bodies fall
// back to the status text.
func ClassifyResponse(ns Namespace, resp *http.Response) *Error {
	var body []byte
	if resp.Body != nil {
		body, _ = io.ReadAll(resp.Body)
	}
	return ClassifyBody(ns, resp.StatusCode, resp.Status, body)
}

// ClassifyBody builds an API error from a status and raw error body.
// statusLine is the full status line ("404 Not Found") and may be empty.
func ClassifyBody(ns Namespace, status int, statusLine string, body []byte) *Error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return NewAPIError(ns, status, "", nonObjectMessage(status, statusLine, body))
	}

	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	message := firstNonEmpty(eb.Msg, eb.Message, eb.ErrorDescription, errorField(eb.Error))
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	code := scalarString(eb.StatusCode)
	if code == "" {
		code = scalarString(eb.Code)
	}

	return NewAPIError(ns, status, code, message)
}

// errorField extracts a message from an "error" field that may be a string
// or an object with its own "message".
func errorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil && nested.Message != "" {
		return nested.Message
	}
	return ""
}

// scalarString renders a JSON string or number as a plain string.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// nonObjectMessage renders a body that is not a JSON object. Valid JSON
// (a bare string, an array) is kept as text; anything else falls back to
// the status text.
func nonObjectMessage(status int, statusLine string, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) || bytes.Equal(trimmed, []byte("null")) {
		return fallbackMessage(status, statusLine)
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return fallbackMessage(status, statusLine)
	}
	return string(trimmed)
}

func fallbackMessage(status int, statusLine string) string {
	if text := reasonPhrase(statusLine); text != "" {
		return text
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d error", status)
}

// reasonPhrase strips the numeric code from a status line.
func reasonPhrase(statusLine string) string {
	_, text, ok := strings.Cut(statusLine, " ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package core provides the request pipeline shared by the basalt clients.
//
// Every client call flows through [Execute]: build the request, attach the
// effective cancellation signal, dispatch once, then decode or classify the
// response. The outcome is a [Result] holding either data or a classified
// [*Error].
//
// # Pipeline
//
// A [Pipeline] carries the client-level state: transport, headers, throw
// mode and the error namespace. Clients derive scoped pipelines with
// [Pipeline.Clone]; the copy owns its headers, so a scope calling
// [Pipeline.SetHeader] never changes its parent:
//
//	p := core.NewPipeline(core.NamespaceVectors,
//	    core.WithHTTPClient(httpClient),
//	    core.WithHeader("apikey", key),
//	)
//	res, err := core.Execute[ListResponse](ctx, p, &core.Request{
//	    Method: http.MethodPost,
//	    URL:    baseURL + "/ListVectors",
//	    Body:   body,
//	})
//
// Headers merge with call-level taking precedence over client-level, which
// takes precedence over computed defaults such as Content-Type. Structs and
// maps are sent as JSON; []byte, string, io.Reader, url.Values and
// [*FormData] bodies are passed through with a suitable content type.
//
// # Cancellation
//
// The caller context and an optional timeout compose into one signal; the
// first to fire aborts the request. The timer is disarmed on every exit
// path. Streamed and raw responses keep their context alive until the body
// is closed.
//
// # Decoding
//
// A 2xx body is decoded by Content-Type (parameters ignored): JSON into T,
// octet-stream and PDF as []byte, event streams as an io.ReadCloser,
// multipart as *multipart.Form, anything else as a string. Use
// [Request.Decode] to force a path, or [DecodeRaw] to receive the
// *http.Response untouched. Pipelines built [WithEmptyBodyOK] decode empty
// or non-JSON successes to an empty value.
//
// # Errors
//
// [*Error] has three kinds: [KindAPI] for remote rejections (non-2xx or the
// x-relay-error header), [KindUnknown] for transport and decode failures, and
// [KindValidation] for preconditions checked before dispatch. The namespace
// picks the display name (ApiError, StorageApiError, VectorsApiError,
// FunctionsHttpError) without changing the shape. Use [IsError],
// [IsVectorsError] or errors.Is with [ErrAPI], [ErrTransport],
// [ErrValidation], [ErrTimeout] and the status sentinels.
//
// By default classified errors are returned inside the Result and the Go
// error is nil. With [WithThrowOnError] the same error is returned as the Go
// error instead. Errors that are not classified are always returned as the Go
// error.
package core

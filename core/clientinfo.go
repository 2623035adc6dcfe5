package core

import (
	"net/http"
	"runtime"
)

// Version is the SDK version reported in the client info header.
// Set at build time via -ldflags "-X github.com/petal-labs/basalt/core.Version=v1.2.3".
var Version = "0.1.0"

// ClientInfoHeader is the header identifying the SDK to the backend.
const ClientInfoHeader = "X-Client-Info"

// ClientInfo describes the calling SDK. It is computed once at client
// construction and passed down as plain header data.
type ClientInfo struct {
	Name    string
	Version string
	Runtime string
}

// DefaultClientInfo returns the info for this SDK build.
func DefaultClientInfo() ClientInfo {
	return ClientInfo{
		Name:    "basalt-go",
		Version: Version,
		Runtime: runtime.Version(),
	}
}

// String renders the header value, e.g. "basalt-go/0.1.0".
func (c ClientInfo) String() string {
	return c.Name + "/" + c.Version
}

// Headers returns the default headers derived from the client info.
func (c ClientInfo) Headers() http.Header {
	h := make(http.Header)
	h.Set(ClientInfoHeader, c.String())
	if c.Runtime != "" {
		h.Set("X-Client-Runtime", c.Runtime)
	}
	return h
}

package functions

import (
	"net/http"
	"time"

	"github.com/petal-labs/basalt/core"
)

// Region is an edge region a function can be pinned to.
type Region string

// Known regions. RegionAny lets the platform choose.
const (
	RegionAny          Region = "any"
	RegionApNortheast1 Region = "ap-northeast-1"
	RegionApNortheast2 Region = "ap-northeast-2"
	RegionApSouth1     Region = "ap-south-1"
	RegionApSoutheast1 Region = "ap-southeast-1"
	RegionApSoutheast2 Region = "ap-southeast-2"
	RegionCaCentral1   Region = "ca-central-1"
	RegionEuCentral1   Region = "eu-central-1"
	RegionEuWest1      Region = "eu-west-1"
	RegionEuWest2      Region = "eu-west-2"
	RegionEuWest3      Region = "eu-west-3"
	RegionSaEast1      Region = "sa-east-1"
	RegionUsEast1      Region = "us-east-1"
	RegionUsWest1      Region = "us-west-1"
	RegionUsWest2      Region = "us-west-2"
)

// InvokeOptions tunes a single invocation.
type InvokeOptions struct {
	// Headers override client headers for this call.
	Headers http.Header

	// Method defaults to POST.
	Method string

	// Body is encoded by type: structs and maps as JSON, string as text,
	// []byte as octet-stream, *core.FormData as multipart, io.Reader as is.
	Body any

	// Region overrides the client region for this call.
	Region Region

	// Timeout bounds this call. Zero uses the client default.
	Timeout time.Duration

	// ResponseType forces a decode path. The default picks one from the
	// response Content-Type.
	ResponseType core.DecodeMode
}

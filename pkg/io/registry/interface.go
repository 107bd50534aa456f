package registry

import (
	"github.com/xpanvictor/parley/pkg/io/device"
)

// Registry tracks the event endpoints currently attached.
type Registry interface {
	AttachEndpoint(ep device.Endpoint) error
	DetachEndpoint(id device.EndpointID) (device.Endpoint, bool)
	ListEndpoints() []device.Endpoint
	Len() int
}

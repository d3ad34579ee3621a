package registry

import (
	"github.com/docpipe/docpipe/pkg/nodes/ingest"
	"github.com/docpipe/docpipe/pkg/nodes/sink"
	switchnode "github.com/docpipe/docpipe/pkg/nodes/switch"
	"github.com/docpipe/docpipe/pkg/nodes/transform"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes() {
	r.RegisterNode(ingest.NewIngestNodeFactory())
	r.RegisterNode(transform.NewTransformNodeFactory())
	r.RegisterNode(switchnode.NewSwitchNodeFactory())
	r.RegisterNode(sink.NewSinkNodeFactory())
}

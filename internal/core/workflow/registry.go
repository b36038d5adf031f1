package workflow

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// NodeBuilder creates a node bound to its collaborators.
type NodeBuilder func(d *Deps) NodeFunc

// Registry maps node names to their builders.
// It is filled once at startup and read-only afterwards.
type Registry struct {
	builders map[string]NodeBuilder
}

// NewRegistry creates an empty node registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]NodeBuilder),
	}
}

// Register adds a node builder. A later registration under the same name
// replaces the earlier one.
func (r *Registry) Register(name string, builder NodeBuilder) {
	r.builders[name] = builder
}

// RegisterDefaults registers the generation nodes.
func RegisterDefaults(r *Registry) {
	r.Register(NodePrepare, Prepare)
	r.Register(NodeDispatch, Dispatch)
	r.Register(NodeCollect, Collect)
	r.Register(NodeStandardize, Standardize)
	r.Register(NodeGenerate, Generate)
}

// Has returns true if a node with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered node names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles the generation graph from the registered nodes.
func (r *Registry) Build(d *Deps) (*Graph, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	deps := d.withDefaults()

	g := NewGraph()
	for _, name := range []string{NodePrepare, NodeDispatch, NodeCollect, NodeStandardize, NodeGenerate} {
		builder, ok := r.builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown node: %s", name)
		}
		g.AddNode(name, builder(deps))
	}

	g.SetEntryPoint(NodePrepare).
		AddEdge(NodePrepare, NodeDispatch).
		AddConditionalEdge(NodeDispatch, RouteProgress, map[string]string{
			string(domain.ProgressInProgress): NodeCollect,
			string(domain.ProgressCompleted):  End,
		}).
		AddEdge(NodeCollect, NodeStandardize).
		AddEdge(NodeStandardize, NodeGenerate).
		AddEdge(NodeGenerate, NodeDispatch)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

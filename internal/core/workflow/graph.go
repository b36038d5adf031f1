package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/logger"
)

// End is the terminal pseudo-node. Routing to it stops a run.
const End = "__end__"

// DefaultMaxSteps bounds the node executions of a single run.
const DefaultMaxSteps = 10000

// ErrMaxSteps is returned when a run exceeds its step budget.
var ErrMaxSteps = errors.New("workflow exceeded max steps")

// NodeFunc executes one step, reading and updating the run state.
type NodeFunc func(ctx context.Context, state *domain.GenerationState) error

// ConditionFunc picks a route key from the state after a node has run.
type ConditionFunc func(state *domain.GenerationState) string

type conditionalEdge struct {
	condition ConditionFunc
	paths     map[string]string
}

// Graph is a directed graph of nodes over a GenerationState.
// Every node has exactly one outgoing edge, plain or conditional.
type Graph struct {
	nodes       map[string]NodeFunc
	edges       map[string]string
	conditional map[string]conditionalEdge
	entry       string
	maxSteps    int
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:       make(map[string]NodeFunc),
		edges:       make(map[string]string),
		conditional: make(map[string]conditionalEdge),
		maxSteps:    DefaultMaxSteps,
	}
}

// AddNode adds a node. Adding a name twice replaces the earlier node.
func (g *Graph) AddNode(name string, fn NodeFunc) *Graph {
	g.nodes[name] = fn
	return g
}

// AddEdge routes from one node to another unconditionally.
func (g *Graph) AddEdge(from, to string) *Graph {
	g.edges[from] = to
	return g
}

// AddConditionalEdge routes from a node to paths[condition(state)].
func (g *Graph) AddConditionalEdge(from string, condition ConditionFunc, paths map[string]string) *Graph {
	g.conditional[from] = conditionalEdge{condition: condition, paths: paths}
	return g
}

// SetEntryPoint sets the first node of a run.
func (g *Graph) SetEntryPoint(name string) *Graph {
	g.entry = name
	return g
}

// SetMaxSteps sets the step budget. Values below one are ignored.
func (g *Graph) SetMaxSteps(n int) *Graph {
	if n > 0 {
		g.maxSteps = n
	}
	return g
}

// Validate checks that the entry point and every edge target exist and
// that every node can leave.
func (g *Graph) Validate() error {
	if g.entry == "" {
		return fmt.Errorf("%w: no entry point", domain.ErrInvalidInput)
	}
	if _, ok := g.nodes[g.entry]; !ok {
		return fmt.Errorf("%w: entry point %q is not a node", domain.ErrInvalidInput, g.entry)
	}

	for name := range g.nodes {
		_, plain := g.edges[name]
		_, cond := g.conditional[name]
		if !plain && !cond {
			return fmt.Errorf("%w: node %q has no outgoing edge", domain.ErrInvalidInput, name)
		}
		if plain && cond {
			return fmt.Errorf("%w: node %q has both plain and conditional edges", domain.ErrInvalidInput, name)
		}
	}

	for from, to := range g.edges {
		if !g.known(to) {
			return fmt.Errorf("%w: edge %s -> %s targets an unknown node", domain.ErrInvalidInput, from, to)
		}
	}
	for from, edge := range g.conditional {
		for key, to := range edge.paths {
			if !g.known(to) {
				return fmt.Errorf("%w: edge %s -[%s]-> %s targets an unknown node", domain.ErrInvalidInput, from, key, to)
			}
		}
	}
	return nil
}

func (g *Graph) known(name string) bool {
	if name == End {
		return true
	}
	_, ok := g.nodes[name]
	return ok
}

// Run executes nodes from the entry point until End is reached.
// The first node error stops the run and is returned wrapped with the
// node name.
func (g *Graph) Run(ctx context.Context, state *domain.GenerationState) error {
	if err := g.Validate(); err != nil {
		return err
	}

	current := g.entry
	for steps := 0; current != End; steps++ {
		if steps >= g.maxSteps {
			return fmt.Errorf("%w (%d)", ErrMaxSteps, g.maxSteps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		logger.Debug("workflow: %s (step %d)", current, steps+1)
		if err := g.nodes[current](ctx, state); err != nil {
			return fmt.Errorf("%s: %w", current, err)
		}

		next, err := g.next(current, state)
		if err != nil {
			return err
		}
		current = next
	}
	return nil
}

func (g *Graph) next(from string, state *domain.GenerationState) (string, error) {
	if edge, ok := g.conditional[from]; ok {
		key := edge.condition(state)
		to, ok := edge.paths[key]
		if !ok {
			return "", fmt.Errorf("%w: node %q routed to unmapped key %q", domain.ErrStateDrift, from, key)
		}
		return to, nil
	}
	return g.edges[from], nil
}

package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

func noop(context.Context, *domain.GenerationState) error { return nil }

func TestGraph_RunFollowsEdges(t *testing.T) {
	var visited []string
	visit := func(name string) NodeFunc {
		return func(context.Context, *domain.GenerationState) error {
			visited = append(visited, name)
			return nil
		}
	}

	counter := 0
	g := NewGraph().
		AddNode("a", visit("a")).
		AddNode("b", func(ctx context.Context, s *domain.GenerationState) error {
			counter++
			return visit("b")(ctx, s)
		}).
		SetEntryPoint("a").
		AddEdge("a", "b").
		AddConditionalEdge("b", func(*domain.GenerationState) string {
			if counter < 3 {
				return "again"
			}
			return "done"
		}, map[string]string{"again": "b", "done": End})

	require.NoError(t, g.Run(context.Background(), domain.NewGenerationState("p", "go")))
	assert.Equal(t, []string{"a", "b", "b", "b"}, visited)
}

func TestGraph_MaxSteps(t *testing.T) {
	g := NewGraph().AddNode("loop", noop).AddEdge("loop", "loop").SetEntryPoint("loop").SetMaxSteps(5)

	err := g.Run(context.Background(), domain.NewGenerationState("p", "go"))
	assert.ErrorIs(t, err, ErrMaxSteps)
}

func TestGraph_NodeErrorStopsRun(t *testing.T) {
	boom := errors.New("boom")
	reached := false
	g := NewGraph().
		AddNode("fail", func(context.Context, *domain.GenerationState) error { return boom }).
		AddNode("after", func(context.Context, *domain.GenerationState) error {
			reached = true
			return nil
		}).
		AddEdge("fail", "after").
		AddEdge("after", End).
		SetEntryPoint("fail")

	err := g.Run(context.Background(), domain.NewGenerationState("p", "go"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "fail: boom", err.Error())
	assert.False(t, reached)
}

func TestGraph_UnmappedRoute(t *testing.T) {
	g := NewGraph().
		AddNode("a", noop).
		AddConditionalEdge("a", func(*domain.GenerationState) string { return "nowhere" }, map[string]string{"x": End}).
		SetEntryPoint("a")

	err := g.Run(context.Background(), domain.NewGenerationState("p", "go"))
	assert.ErrorIs(t, err, domain.ErrStateDrift)
}

func TestGraph_CancelledContext(t *testing.T) {
	g := NewGraph().AddNode("a", noop).AddEdge("a", End).SetEntryPoint("a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, g.Run(ctx, domain.NewGenerationState("p", "go")), context.Canceled)
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name  string
		graph *Graph
	}{
		{"no entry", NewGraph().AddNode("a", noop).AddEdge("a", End)},
		{"unknown entry", NewGraph().AddNode("a", noop).AddEdge("a", End).SetEntryPoint("z")},
		{"dangling node", NewGraph().AddNode("a", noop).SetEntryPoint("a")},
		{"unknown target", NewGraph().AddNode("a", noop).AddEdge("a", "z").SetEntryPoint("a")},
		{"unknown conditional target", NewGraph().AddNode("a", noop).
			AddConditionalEdge("a", RouteProgress, map[string]string{"x": "z"}).SetEntryPoint("a")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.graph.Validate(), domain.ErrInvalidInput)
		})
	}
}

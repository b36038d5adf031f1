package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// mockLLM answers through respond and records every request.
type mockLLM struct {
	mu      sync.Mutex
	respond func(req driven.CompletionRequest) (string, error)
	calls   []driven.CompletionRequest
}

func (m *mockLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()
	return m.respond(req)
}

func (m *mockLLM) ModelName() string            { return "mock" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// mockEmbedder returns a vector of the text length for every text.
type mockEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	out, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.batches = append(m.batches, texts)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return 2 }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// mockPrompts serves fixed prompt text.
type mockPrompts map[string]string

func (p mockPrompts) Load(name string) (string, error) {
	v, ok := p[name]
	if !ok {
		return "", errors.New("no prompt " + name)
	}
	return v, nil
}

func (p mockPrompts) Reload() {}

func testPrompts() mockPrompts {
	return mockPrompts{
		driven.PromptCollect:      "COLLECT",
		driven.PromptStandardize:  "STANDARDIZE",
		driven.PromptGenerate:     "GENERATE in %s",
		driven.PromptRequirements: "REQUIREMENTS",
	}
}

// answerBy routes on the system prompt prefix.
func answerBy(answers map[string]string) func(driven.CompletionRequest) (string, error) {
	return func(req driven.CompletionRequest) (string, error) {
		for prefix, answer := range answers {
			if strings.HasPrefix(req.SystemPrompt, prefix) {
				return answer, nil
			}
		}
		return "", errors.New("unexpected prompt " + req.SystemPrompt)
	}
}

package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

const (
	testProject = "proj-1"
	testDocID   = "doc-1"
	testDocName = "api.md"
)

// mockLLM answers by system prompt and records every request.
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

func (m *mockLLM) callsFor(system string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c.SystemPrompt, system) {
			n++
		}
	}
	return n
}

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
		driven.PromptCollect:     "COLLECT",
		driven.PromptStandardize: "STANDARDIZE",
		driven.PromptGenerate:    "GENERATE in %s",
	}
}

// mockEmbedder returns a fixed vector for every text.
type mockEmbedder struct {
	vector []float32
	err    error
	texts  []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.texts = append(m.texts, text)
	return m.vector, m.err
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

// countingTestCaseStore counts writes on top of the memory store.
type countingTestCaseStore struct {
	*memory.TestCaseStore
	suiteSaves int
	caseSaves  int
}

func (s *countingTestCaseStore) SaveTestSuite(ctx context.Context, suite *domain.TestSuite) error {
	s.suiteSaves++
	return s.TestCaseStore.SaveTestSuite(ctx, suite)
}

func (s *countingTestCaseStore) SaveTestCases(ctx context.Context, cases []domain.TestCase) error {
	s.caseSaves++
	return s.TestCaseStore.SaveTestCases(ctx, cases)
}

type fixture struct {
	docs  *memory.DocumentStore
	reqs  *memory.RequirementStore
	cases *countingTestCaseStore
	llm   *mockLLM
	deps  *Deps
}

// newFixture stores one document with two sections and the given
// selected groups, numbered from 1.
func newFixture(groups ...string) *fixture {
	ctx := context.Background()
	f := &fixture{
		docs:  memory.NewDocumentStore(),
		reqs:  memory.NewRequirementStore(),
		cases: &countingTestCaseStore{TestCaseStore: memory.NewTestCaseStore()},
		llm:   &mockLLM{respond: happyPath},
	}

	_ = f.docs.SaveDocument(ctx, &domain.DocumentMetadata{
		ID:              testDocID,
		ProjectID:       testProject,
		Name:            testDocName,
		TableOfContents: "<heading>1 - Users\n<heading>1.1 - Create user\n",
		CreatedAt:       time.Unix(100, 0),
	})
	_ = f.docs.SaveContents(ctx, []domain.DocumentContent{
		{ID: "c1", DocumentID: testDocID, Heading: "<heading>1 - Users", Text: "Users are people.", Position: 0, Embedding: []float32{0, 1}},
		{ID: "c2", DocumentID: testDocID, Heading: "<heading>1.1 - Create user", Text: "<heading>1.1 - Create user\nPOST /users creates a user.", Position: 1, Embedding: []float32{1, 0}},
	})

	var frs []domain.FunctionalRequirementGroup
	for i, g := range groups {
		frs = append(frs, domain.FunctionalRequirementGroup{
			ID:         "fr-" + g,
			ProjectID:  testProject,
			Group:      g,
			Number:     i + 1,
			IsSelected: true,
		})
	}
	frs = append(frs, domain.FunctionalRequirementGroup{
		ID: "fr-unselected", ProjectID: testProject, Group: "Unselected", Number: 99,
	})
	_ = f.reqs.SaveRequirements(ctx, frs)

	ids := 0
	f.deps = &Deps{
		Documents:    f.docs,
		Requirements: f.reqs,
		TestCases:    f.cases,
		LLM:          f.llm,
		Prompts:      testPrompts(),
		Backoff:      NoBackoff,
		Now:          func() time.Time { return time.Unix(200, 0) },
		NewID: func() string {
			ids++
			return "id-" + strings.Repeat("x", ids)
		},
	}
	return f
}

const (
	collectAnswer     = "Sure:\n```json\n{\"api.md\": [\"<heading>1.1 - Create user\"]}\n```"
	standardizeAnswer = "Here it is\n```json\n{\"method\": \"post\", \"url\": \"https://api.example.com/users\", \"headers\": {\"Content-Type\": \"application/json\"}}\n```"
	generateAnswer    = `[{"name": "draft"}, {"name": "create user", "expect": 201}]`
)

func happyPath(req driven.CompletionRequest) (string, error) {
	switch {
	case strings.HasPrefix(req.SystemPrompt, "COLLECT"):
		return collectAnswer, nil
	case strings.HasPrefix(req.SystemPrompt, "STANDARDIZE"):
		return standardizeAnswer, nil
	case strings.HasPrefix(req.SystemPrompt, "GENERATE"):
		return generateAnswer, nil
	}
	return "", errors.New("unexpected prompt")
}

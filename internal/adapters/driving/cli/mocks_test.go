package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
)

type mockIngest struct {
	raws   []*domain.RawDocument
	docs   []domain.DocumentMetadata
	result *driving.IngestResult
	err    error
}

func (m *mockIngest) Ingest(_ context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	m.raws = append(m.raws, raw)
	if m.result == nil && m.err == nil {
		return &driving.IngestResult{Document: domain.DocumentMetadata{Name: raw.Name}, Sections: 2}, nil
	}
	return m.result, m.err
}

func (m *mockIngest) ListDocuments(_ context.Context, _ string) ([]domain.DocumentMetadata, error) {
	return m.docs, nil
}

type mockRequirements struct {
	groups   []domain.FunctionalRequirementGroup
	ids      []string
	selected bool
}

func (m *mockRequirements) List(_ context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	if projectID == "" {
		return nil, domain.ErrInvalidInput
	}
	return m.groups, nil
}

func (m *mockRequirements) Select(_ context.Context, ids []string, selected bool) error {
	m.ids = ids
	m.selected = selected
	return nil
}

// mockGeneration reports each status in statuses once per Status call,
// repeating the last one.
type mockGeneration struct {
	mu       sync.Mutex
	statuses []domain.GenerationRun
	polls    int
	suites   []driving.SuiteWithCases
}

func (m *mockGeneration) Start(_ context.Context, projectID, lang string) (*domain.GenerationRun, error) {
	if projectID == "" || lang == "" {
		return nil, domain.ErrInvalidInput
	}
	return &domain.GenerationRun{ID: "run-1", ProjectID: projectID, Lang: lang, Status: domain.RunPending}, nil
}

func (m *mockGeneration) Run(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error) {
	return m.Start(ctx, projectID, lang)
}

func (m *mockGeneration) Status(_ context.Context, _ string) (*domain.GenerationRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) == 0 {
		return nil, errors.New("no status")
	}
	i := min(m.polls, len(m.statuses)-1)
	m.polls++
	run := m.statuses[i]
	return &run, nil
}

func (m *mockGeneration) TestSuites(_ context.Context, _ string) ([]driving.SuiteWithCases, error) {
	return m.suites, nil
}

// execute runs the root command with svc installed and returns its output.
func execute(svc *Services, args ...string) (string, error) {
	old := services
	services = svc
	defer func() { services = old }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

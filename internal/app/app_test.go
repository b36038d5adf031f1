package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/config"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

const usersDoc = `Users API

1. Users
Users are accounts.
1.1 Create user
POST https://api.example.com/users
`

// scriptedLLM answers by the opening words of the default prompts.
type scriptedLLM struct {
	mu    sync.Mutex
	calls int
}

func (m *scriptedLLM) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	switch {
	case strings.HasPrefix(req.SystemPrompt, "You extract functional requirements"):
		return `["Create user"]`, nil
	case strings.HasPrefix(req.SystemPrompt, "You map a functional requirement"):
		return `{"users.txt": ["<heading>1.1 - Create user<u-fr-001>"]}`, nil
	case strings.HasPrefix(req.SystemPrompt, "You turn raw API documentation"):
		return "Creates a user.\n```json\n{\"method\": \"POST\", \"url\": \"https://api.example.com/users\"}\n```", nil
	case strings.HasPrefix(req.SystemPrompt, "You write test cases"):
		return `{"name": "create user", "expected": {"status": 201}}`, nil
	}
	return "", errors.New("unexpected prompt")
}

func (m *scriptedLLM) ModelName() string            { return "scripted" }
func (m *scriptedLLM) Ping(_ context.Context) error { return nil }
func (m *scriptedLLM) Close() error                 { return nil }

func memorySettings(t *testing.T) *config.Settings {
	t.Helper()
	s := config.Defaults()
	s.Storage.Backend = config.BackendMemory
	s.PromptsDir = t.TempDir()
	return &s
}

func usersRaw() *domain.RawDocument {
	return &domain.RawDocument{
		ProjectID: "proj-1",
		Name:      "users.txt",
		URI:       "users.txt",
		MIMEType:  "text/plain",
		Content:   []byte(usersDoc),
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	ctx := context.Background()
	llm := &scriptedLLM{}
	svc, err := Build(ctx, memorySettings(t), Models{LLM: llm})
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	result, err := svc.Ingest.Ingest(ctx, usersRaw())
	require.NoError(t, err)
	require.Len(t, result.Requirements, 1)
	assert.Equal(t, "Create user", result.Requirements[0].Group)
	assert.Contains(t, result.Document.TableOfContents, "<heading>1.1 - Create user<u-fr-001>")

	groups, err := svc.Requirements.List(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].IsSelected)

	run, err := svc.Generation.Run(ctx, "proj-1", "go")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.Equal(t, 1, run.Generated)

	suites, err := svc.Generation.TestSuites(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, suites, 1)
	assert.Equal(t, domain.HTTPMethod("POST"), suites[0].Suite.Method)
	assert.Equal(t, "https://api.example.com/users/", suites[0].Suite.URL)
	require.Len(t, suites[0].Cases, 1)
}

func TestBuild_WithoutLLM(t *testing.T) {
	ctx := context.Background()
	svc, err := Build(ctx, memorySettings(t), Models{})
	require.NoError(t, err)
	defer svc.Close()

	result, err := svc.Ingest.Ingest(ctx, usersRaw())
	require.NoError(t, err)
	assert.Empty(t, result.Requirements, "extraction needs a model")
	assert.Zero(t, result.Blocks)

	run, err := svc.Generation.Run(ctx, "proj-1", "go")
	require.NoError(t, err, "nothing selected, nothing to call")
	assert.Equal(t, domain.RunCompleted, run.Status)
}

func TestUnavailableLLM(t *testing.T) {
	_, err := unavailableLLM{}.Complete(context.Background(), driven.CompletionRequest{})
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()

	stores, err := OpenStores(ctx, config.StorageSettings{Backend: config.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.NotNil(t, stores.Documents)
	assert.NoError(t, stores.Close())

	_, err = OpenStores(ctx, config.StorageSettings{Backend: "mongo"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/normalisers"
	"github.com/custodia-labs/apiforge/internal/postprocessors"
)

const guide = `API Guide

1. Users
Users are accounts.
1.1 Create user
POST https://api.example.com/users
1.2 Delete user
DELETE https://api.example.com/users/{id}
2. Orders
Orders API.
2.1 List orders
GET https://api.example.com/orders
`

type ingestFixture struct {
	docs     *memory.DocumentStore
	reqs     *memory.RequirementStore
	llm      *mockLLM
	embedder *mockEmbedder
}

func newIngestService(t *testing.T, f *ingestFixture, opts ...IngestOption) *IngestService {
	t.Helper()
	r := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(r)
	pipeline, err := r.BuildPipeline(domain.DefaultPipelineConfig())
	require.NoError(t, err)

	return NewIngestService(normalisers.NewDefaultRegistry(), pipeline, f.docs, f.reqs, opts...)
}

func requirementsByBlock(req driven.CompletionRequest) (string, error) {
	switch {
	case strings.Contains(req.Input, "Create user"):
		return `["User management"]`, nil
	case strings.Contains(req.Input, "Delete user"):
		return "```json\n[\"user  management\", \"Deletion\"]\n```", nil
	case strings.Contains(req.Input, "List orders"):
		return "I found nothing", nil
	}
	return "", errors.New("unexpected block")
}

func rawGuide() *domain.RawDocument {
	return &domain.RawDocument{
		ProjectID: "proj-1",
		Name:      "guide.txt",
		URI:       "/tmp/guide.txt",
		MIMEType:  "text/plain",
		Content:   []byte(guide),
	}
}

func TestIngest_SectionsAndEmbeddings(t *testing.T) {
	f := &ingestFixture{
		docs:     memory.NewDocumentStore(),
		reqs:     memory.NewRequirementStore(),
		embedder: &mockEmbedder{},
	}
	svc := newIngestService(t, f, WithEmbedding(f.embedder), WithWorkers(2))
	ctx := context.Background()

	result, err := svc.Ingest(ctx, rawGuide())
	require.NoError(t, err)

	assert.Equal(t, 6, result.Sections, "title plus five headings")
	assert.Zero(t, result.Blocks, "extraction disabled")
	assert.Equal(t, "guide.txt", result.Document.Name)
	assert.Equal(t, "proj-1", result.Document.ProjectID)
	assert.Equal(t,
		"Title\n<heading>1 - Users\n<heading>1.1 - Create user\n<heading>1.2 - Delete user\n"+
			"<heading>2 - Orders\n<heading>2.1 - List orders\n",
		result.Document.TableOfContents)

	require.Len(t, f.embedder.batches, 1)
	assert.Contains(t, f.embedder.batches[0], "1.1 - Create user\nPOST https://api.example.com/users")

	id, err := f.docs.GetDocumentIDByName(ctx, "proj-1", "guide.txt")
	require.NoError(t, err)
	content, err := f.docs.GetContentByHeading(ctx, id, "<heading>1.1 - Create user")
	require.NoError(t, err)
	assert.Equal(t, "POST https://api.example.com/users", content.Text)
	assert.NotEmpty(t, content.Embedding)
}

func TestIngest_ExtractsRequirements(t *testing.T) {
	ctx := context.Background()
	f := &ingestFixture{
		docs: memory.NewDocumentStore(),
		reqs: memory.NewRequirementStore(),
		llm:  &mockLLM{respond: requirementsByBlock},
	}
	require.NoError(t, f.reqs.SaveRequirements(ctx, []domain.FunctionalRequirementGroup{
		{ID: "existing", ProjectID: "proj-1", Group: "Auth", Number: 1},
	}))
	svc := newIngestService(t, f, WithRequirementExtraction(f.llm, testPrompts()))

	result, err := svc.Ingest(ctx, rawGuide())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Blocks)
	assert.Equal(t, 3, f.llm.callCount())
	require.Len(t, result.Requirements, 2)
	assert.Equal(t, "User management", result.Requirements[0].Group)
	assert.Equal(t, 2, result.Requirements[0].Number)
	assert.True(t, result.Requirements[0].IsSelected)
	assert.Equal(t, "Deletion", result.Requirements[1].Group)
	assert.Equal(t, 3, result.Requirements[1].Number)

	want := "Title\n" +
		"<heading>1 - Users<m-fr-002><m-fr-003>\n" +
		"<heading>1.1 - Create user<u-fr-002>\n" +
		"<heading>1.2 - Delete user<u-fr-002><u-fr-003>\n" +
		"<heading>2 - Orders\n" +
		"<heading>2.1 - List orders\n"
	assert.Equal(t, want, result.Document.TableOfContents)

	stored, err := f.docs.GetDocument(ctx, result.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, want, stored.TableOfContents)

	groups, err := f.reqs.ListRequirements(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, groups, 3)
}

func TestIngest_ReusesGroupsAcrossDocuments(t *testing.T) {
	ctx := context.Background()
	f := &ingestFixture{
		docs: memory.NewDocumentStore(),
		reqs: memory.NewRequirementStore(),
		llm:  &mockLLM{respond: requirementsByBlock},
	}
	svc := newIngestService(t, f, WithRequirementExtraction(f.llm, testPrompts()))

	_, err := svc.Ingest(ctx, rawGuide())
	require.NoError(t, err)

	second := rawGuide()
	second.Name = "guide-v2.txt"
	result, err := svc.Ingest(ctx, second)
	require.NoError(t, err)

	require.Len(t, result.Requirements, 2)
	assert.Equal(t, 1, result.Requirements[0].Number)
	groups, err := f.reqs.ListRequirements(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, groups, 2, "no duplicates")
}

func TestIngest_ReplacesDocumentOfSameName(t *testing.T) {
	ctx := context.Background()
	f := &ingestFixture{docs: memory.NewDocumentStore(), reqs: memory.NewRequirementStore()}
	svc := newIngestService(t, f)

	first, err := svc.Ingest(ctx, rawGuide())
	require.NoError(t, err)
	second, err := svc.Ingest(ctx, rawGuide())
	require.NoError(t, err)
	assert.NotEqual(t, first.Document.ID, second.Document.ID)

	docs, err := svc.ListDocuments(ctx, "proj-1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, second.Document.ID, docs[0].ID)

	_, err = f.docs.GetDocument(ctx, first.Document.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_ModelFailureKeepsDocument(t *testing.T) {
	ctx := context.Background()
	f := &ingestFixture{
		docs: memory.NewDocumentStore(),
		reqs: memory.NewRequirementStore(),
		llm: &mockLLM{respond: func(driven.CompletionRequest) (string, error) {
			return "", domain.ErrLLMUnavailable
		}},
	}
	svc := newIngestService(t, f, WithRequirementExtraction(f.llm, testPrompts()))

	result, err := svc.Ingest(ctx, rawGuide())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	require.NotNil(t, result)

	docs, err := svc.ListDocuments(ctx, "proj-1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestIngest_InvalidInput(t *testing.T) {
	f := &ingestFixture{docs: memory.NewDocumentStore(), reqs: memory.NewRequirementStore()}
	svc := newIngestService(t, f)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noProject := rawGuide()
	noProject.ProjectID = ""
	_, err = svc.Ingest(ctx, noProject)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	unsupported := rawGuide()
	unsupported.MIMEType = "image/png"
	_, err = svc.Ingest(ctx, unsupported)
	assert.ErrorIs(t, err, domain.ErrUnsupportedMIME)
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	f := &ingestFixture{
		docs:     memory.NewDocumentStore(),
		reqs:     memory.NewRequirementStore(),
		embedder: &mockEmbedder{err: domain.ErrEmbeddingUnavailable},
	}
	svc := newIngestService(t, f, WithEmbedding(f.embedder))

	_, err := svc.Ingest(context.Background(), rawGuide())
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	docs, err := svc.ListDocuments(context.Background(), "proj-1")
	require.NoError(t, err)
	assert.Empty(t, docs, "nothing stored when embedding fails")
}

func TestRequirementKey(t *testing.T) {
	assert.Equal(t, "user management", requirementKey("  User   Management "))
	assert.Empty(t, requirementKey("   "))
}

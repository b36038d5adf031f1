package driving

import (
	"context"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// IngestService turns uploaded documents into stored, embedded sections.
type IngestService interface {
	// Ingest normalises, sections, embeds and stores a document. When an
	// LLM is configured it also extracts requirement groups from it.
	Ingest(ctx context.Context, raw *domain.RawDocument) (*IngestResult, error)

	// ListDocuments returns the documents of a project.
	ListDocuments(ctx context.Context, projectID string) ([]domain.DocumentMetadata, error)
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	// Document is the stored metadata.
	Document domain.DocumentMetadata

	// Sections is the number of sections stored.
	Sections int

	// Blocks is the number of hierarchical blocks analysed.
	Blocks int

	// Requirements are the groups found in the document.
	Requirements []domain.FunctionalRequirementGroup
}

// RequirementService manages functional requirement groups.
type RequirementService interface {
	// List returns the groups of a project.
	List(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error)

	// Select sets the selection flag of the given groups.
	Select(ctx context.Context, ids []string, selected bool) error
}

// GenerationService runs test-case generation.
type GenerationService interface {
	// Start schedules a run in the background and returns immediately.
	Start(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error)

	// Run executes a run to completion in the caller's goroutine.
	Run(ctx context.Context, projectID, lang string) (*domain.GenerationRun, error)

	// Status returns the current state of a run.
	Status(ctx context.Context, runID string) (*domain.GenerationRun, error)

	// TestSuites returns the persisted suites of a project with their cases.
	TestSuites(ctx context.Context, projectID string) ([]SuiteWithCases, error)
}

// SuiteWithCases is a persisted suite and its cases.
type SuiteWithCases struct {
	Suite domain.TestSuite
	Cases []domain.TestCase
}

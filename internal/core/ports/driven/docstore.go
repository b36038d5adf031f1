package driven

import (
	"context"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// DocumentStore persists ingested documents and their sections.
type DocumentStore interface {
	// SaveDocument stores or updates document metadata.
	SaveDocument(ctx context.Context, doc *domain.DocumentMetadata) error

	// SaveContents inserts a batch of sections in one transaction.
	// Either every section is stored or none is.
	SaveContents(ctx context.Context, contents []domain.DocumentContent) error

	// GetDocument retrieves document metadata by ID.
	// Returns domain.ErrNotFound when missing.
	GetDocument(ctx context.Context, id string) (*domain.DocumentMetadata, error)

	// ListDocuments returns every document of a project, oldest first.
	ListDocuments(ctx context.Context, projectID string) ([]domain.DocumentMetadata, error)

	// GetDocumentIDByName resolves a document name within a project.
	// Returns domain.ErrNotFound when no document has that name.
	GetDocumentIDByName(ctx context.Context, projectID, name string) (string, error)

	// GetContentByHeading returns the section stored under an exact heading.
	// Returns domain.ErrNotFound when missing.
	GetContentByHeading(ctx context.Context, docID, heading string) (*domain.DocumentContent, error)

	// SimilaritySearch returns up to topK sections of a document ordered by
	// cosine similarity to query. docID may be empty to search the project.
	SimilaritySearch(ctx context.Context, query []float32, projectID, docID string, topK int) ([]domain.DocumentContent, error)

	// UpdateTableOfContents replaces the stored table of contents.
	UpdateTableOfContents(ctx context.Context, docID, toc string) error

	// DeleteDocument removes a document and its sections.
	DeleteDocument(ctx context.Context, id string) error
}

// RequirementStore persists functional requirement groups.
type RequirementStore interface {
	// SaveRequirements stores or updates groups in one transaction.
	SaveRequirements(ctx context.Context, groups []domain.FunctionalRequirementGroup) error

	// ListRequirements returns every group of a project ordered by number.
	ListRequirements(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error)

	// ListSelected returns the selected groups of a project ordered by number.
	ListSelected(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error)

	// SetSelected updates the selection flag of the given groups.
	SetSelected(ctx context.Context, ids []string, selected bool) error
}

// TestCaseStore persists generated test suites and cases.
type TestCaseStore interface {
	// SaveTestSuite stores a suite header in its own transaction.
	SaveTestSuite(ctx context.Context, suite *domain.TestSuite) error

	// SaveTestCases stores a batch of cases in one transaction.
	SaveTestCases(ctx context.Context, cases []domain.TestCase) error

	// ListTestSuites returns the suites of a project, oldest first.
	ListTestSuites(ctx context.Context, projectID string) ([]domain.TestSuite, error)

	// ListTestCases returns the cases of a suite in position order.
	ListTestCases(ctx context.Context, suiteID string) ([]domain.TestCase, error)
}

// RunStore persists generation run status.
type RunStore interface {
	// SaveRun stores or updates a run.
	SaveRun(ctx context.Context, run *domain.GenerationRun) error

	// GetRun retrieves a run by ID. Returns domain.ErrNotFound when missing.
	GetRun(ctx context.Context, id string) (*domain.GenerationRun, error)
}

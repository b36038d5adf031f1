package driven

import (
	"context"

	"github.com/custodia-labs/apiforge/internal/core/domain"
)

// PostProcessor turns document text into sections.
// PostProcessors are chained in a pipeline (e.g., toc, chunker).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns sections.
	// Processors that create sections (toc) receive nil; processors that
	// refine sections (chunker) receive and return them.
	Process(ctx context.Context, doc *domain.Document, sections []domain.DocumentContent) ([]domain.DocumentContent, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	Process(ctx context.Context, doc *domain.Document) ([]domain.DocumentContent, error)
}

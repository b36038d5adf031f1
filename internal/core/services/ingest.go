package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
	"github.com/custodia-labs/apiforge/internal/core/workflow"
	"github.com/custodia-labs/apiforge/internal/logger"
	"github.com/custodia-labs/apiforge/internal/sectioning"
	"github.com/custodia-labs/apiforge/internal/workerpool"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// embedBatchSize is the number of sections sent per embedding call.
const embedBatchSize = 16

// IngestService turns uploaded documents into stored sections and
// requirement groups.
type IngestService struct {
	registry driven.NormaliserRegistry
	pipeline driven.PostProcessorPipeline
	docStore driven.DocumentStore
	reqStore driven.RequirementStore

	embeddingService driven.EmbeddingService
	llmService       driven.LLMService
	prompts          driven.PromptStore

	annotation          string
	workers             int
	extractRequirements bool
	now                 func() time.Time
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithEmbedding enables section embeddings.
func WithEmbedding(e driven.EmbeddingService) IngestOption {
	return func(s *IngestService) {
		s.embeddingService = e
	}
}

// WithRequirementExtraction enables requirement extraction with the given
// model and prompts.
func WithRequirementExtraction(llm driven.LLMService, prompts driven.PromptStore) IngestOption {
	return func(s *IngestService) {
		s.llmService = llm
		s.prompts = prompts
		s.extractRequirements = llm != nil && prompts != nil
	}
}

// WithWorkers sets the width of the embedding and extraction pools.
func WithWorkers(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithHeadingAnnotation sets the heading marker used by the toc processor.
func WithHeadingAnnotation(annotation string) IngestOption {
	return func(s *IngestService) {
		if annotation != "" {
			s.annotation = annotation
		}
	}
}

// NewIngestService creates a new ingest service. Embedding and requirement
// extraction are disabled unless enabled by options.
func NewIngestService(
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	docStore driven.DocumentStore,
	reqStore driven.RequirementStore,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		registry:   registry,
		pipeline:   pipeline,
		docStore:   docStore,
		reqStore:   reqStore,
		annotation: domain.DefaultHeadingAnnotation,
		workers:    workerpool.DefaultWidth,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest normalises, sections, embeds and stores a document, then tags
// its table of contents with the requirements found in it.
func (s *IngestService) Ingest(ctx context.Context, raw *domain.RawDocument) (*driving.IngestResult, error) {
	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", domain.ErrInvalidInput)
	}
	if raw.ProjectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}

	// 1. NORMALISE
	normalised, err := s.registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise: %w", err)
	}
	doc := normalised.Document
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	doc.ProjectID = raw.ProjectID
	doc.CreatedAt = s.now()
	doc.Content = sectioning.CleanText(doc.Content)

	// 2. SECTION
	sections, err := s.pipeline.Process(ctx, &doc)
	if err != nil {
		return nil, fmt.Errorf("post-process: %w", err)
	}

	// 3. EMBED
	if s.embeddingService != nil && len(sections) > 0 {
		if err := s.embed(ctx, sections); err != nil {
			return nil, fmt.Errorf("embed sections: %w", err)
		}
	}

	// 4. STORE, replacing an earlier upload of the same name
	meta := doc.ToMetadata()
	if err := s.replace(ctx, meta.ProjectID, meta.Name); err != nil {
		return nil, err
	}
	if err := s.docStore.SaveDocument(ctx, &meta); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := s.docStore.SaveContents(ctx, sections); err != nil {
		return nil, fmt.Errorf("save contents: %w", err)
	}
	logger.Info("ingested %s: %d sections", meta.Name, len(sections))

	result := &driving.IngestResult{Document: meta, Sections: len(sections)}

	// 5. EXTRACT REQUIREMENTS
	if !s.extractRequirements {
		return result, nil
	}
	blocks := sectioning.CreateHierarchicalSectionBlocks(doc.Content)
	result.Blocks = len(blocks)
	if len(blocks) == 0 {
		return result, nil
	}

	groups, toc, err := s.extract(ctx, &meta, blocks)
	if err != nil {
		return result, fmt.Errorf("extract requirements: %w", err)
	}
	result.Requirements = groups
	result.Document.TableOfContents = toc

	return result, nil
}

func (s *IngestService) replace(ctx context.Context, projectID, name string) error {
	id, err := s.docStore.GetDocumentIDByName(ctx, projectID, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up %s: %w", name, err)
	}
	if err := s.docStore.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	logger.Info("replacing %s (%s)", name, id)
	return nil
}

// embed fills in section embeddings, batching calls on the worker pool.
func (s *IngestService) embed(ctx context.Context, sections []domain.DocumentContent) error {
	var batches [][]int
	for start := 0; start < len(sections); start += embedBatchSize {
		end := min(start+embedBatchSize, len(sections))
		idx := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			idx = append(idx, i)
		}
		batches = append(batches, idx)
	}

	vectors, err := workerpool.Map(ctx, s.workers, batches, func(ctx context.Context, batch []int) ([][]float32, error) {
		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = embeddingText(sections[idx], s.annotation)
		}
		return s.embeddingService.EmbedBatch(ctx, texts)
	})
	if err != nil {
		return err
	}

	for b, batch := range batches {
		if len(vectors[b]) != len(batch) {
			return fmt.Errorf("%w: got %d vectors for %d sections", domain.ErrEmbeddingUnavailable, len(vectors[b]), len(batch))
		}
		for i, idx := range batch {
			sections[idx].Embedding = vectors[b][i]
		}
	}
	return nil
}

// embeddingText is the heading without its marker followed by the body.
func embeddingText(c domain.DocumentContent, annotation string) string {
	heading := strings.TrimSpace(strings.TrimPrefix(c.Heading, annotation))
	return heading + "\n" + c.Text
}

// extract asks the model for the requirements of every block, numbers new
// groups after the project's existing ones and tags the table of contents.
func (s *IngestService) extract(
	ctx context.Context,
	meta *domain.DocumentMetadata,
	blocks []domain.HierarchicalBlock,
) ([]domain.FunctionalRequirementGroup, string, error) {
	prompt, err := s.prompts.Load(driven.PromptRequirements)
	if err != nil {
		return nil, meta.TableOfContents, fmt.Errorf("load prompt: %w", err)
	}

	found, err := workerpool.Map(ctx, s.workers, blocks, func(ctx context.Context, b domain.HierarchicalBlock) ([]string, error) {
		out, err := s.llmService.Complete(ctx, driven.CompletionRequest{SystemPrompt: prompt, Input: b.Text})
		if err != nil {
			return nil, err
		}
		var names []string
		if err := workflow.ExtractJSON(out, &names); err != nil {
			logger.Warn("requirements: block %q/%q: %v", b.ParentHeading, b.ChildHeading, err)
			return nil, nil
		}
		return names, nil
	})
	if err != nil {
		return nil, meta.TableOfContents, err
	}

	existing, err := s.reqStore.ListRequirements(ctx, meta.ProjectID)
	if err != nil {
		return nil, meta.TableOfContents, fmt.Errorf("list requirements: %w", err)
	}
	byName := make(map[string]domain.FunctionalRequirementGroup, len(existing))
	next := 1
	for _, g := range existing {
		byName[requirementKey(g.Group)] = g
		if g.Number >= next {
			next = g.Number + 1
		}
	}

	var (
		created []domain.FunctionalRequirementGroup
		inDoc   []domain.FunctionalRequirementGroup
		seen    = make(map[string]bool)
		toc     = meta.TableOfContents
	)
	for i, names := range found {
		parent := sectioning.HeadingKey(blocks[i].ParentHeading, s.annotation)
		child := sectioning.HeadingKey(blocks[i].ChildHeading, s.annotation)

		for _, name := range names {
			name = strings.TrimSpace(name)
			key := requirementKey(name)
			if key == "" {
				continue
			}

			g, ok := byName[key]
			if !ok {
				g = domain.FunctionalRequirementGroup{
					ID:         uuid.New().String(),
					ProjectID:  meta.ProjectID,
					Group:      name,
					Number:     next,
					IsSelected: true,
					CreatedAt:  s.now(),
				}
				next++
				byName[key] = g
				created = append(created, g)
			}
			if !seen[key] {
				seen[key] = true
				inDoc = append(inDoc, g)
			}

			toc = sectioning.AnnotateRequirement(toc, parent, domain.FRTag{Kind: domain.FRTagMain, Number: g.Number})
			toc = sectioning.AnnotateRequirement(toc, child, domain.FRTag{Kind: domain.FRTagUsed, Number: g.Number})
		}
	}

	if len(created) > 0 {
		if err := s.reqStore.SaveRequirements(ctx, created); err != nil {
			return nil, meta.TableOfContents, fmt.Errorf("save requirements: %w", err)
		}
	}

	toc = sectioning.Truncate(toc, domain.MaxTableOfContentsLength)
	if toc != meta.TableOfContents {
		if err := s.docStore.UpdateTableOfContents(ctx, meta.ID, toc); err != nil {
			return nil, meta.TableOfContents, fmt.Errorf("update table of contents: %w", err)
		}
	}

	logger.Info("requirements: %d found in %s, %d new", len(inDoc), meta.Name, len(created))
	return inDoc, toc, nil
}

// requirementKey folds case and inner whitespace so near-identical names
// share a group.
func requirementKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// ListDocuments returns the documents of a project.
func (s *IngestService) ListDocuments(ctx context.Context, projectID string) ([]domain.DocumentMetadata, error) {
	docs, err := s.docStore.ListDocuments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/vecmath"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.DocumentMetadata
	contents  map[string][]domain.DocumentContent // by document ID, position order
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.DocumentMetadata),
		contents:  make(map[string][]domain.DocumentContent),
	}
}

// SaveDocument stores or updates document metadata.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.DocumentMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveContents stores sections. Every section must reference a saved
// document, otherwise nothing is stored.
func (s *DocumentStore) SaveContents(_ context.Context, contents []domain.DocumentContent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range contents {
		if _, ok := s.documents[c.DocumentID]; !ok {
			return domain.ErrDocumentMissing
		}
	}

	touched := make(map[string]struct{})
	for _, c := range contents {
		existing := s.contents[c.DocumentID]
		replaced := false
		for i := range existing {
			if existing[i].ID == c.ID {
				existing[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, c)
		}
		s.contents[c.DocumentID] = existing
		touched[c.DocumentID] = struct{}{}
	}

	for docID := range touched {
		list := s.contents[docID]
		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	}
	return nil
}

// GetDocument retrieves document metadata by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.DocumentMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// ListDocuments returns the documents of a project, oldest first.
func (s *DocumentStore) ListDocuments(_ context.Context, projectID string) ([]domain.DocumentMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectDocuments(projectID), nil
}

func (s *DocumentStore) projectDocuments(projectID string) []domain.DocumentMetadata {
	var result []domain.DocumentMetadata
	for id := range s.documents {
		if doc := s.documents[id]; doc.ProjectID == projectID {
			result = append(result, doc)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// GetDocumentIDByName resolves a document name within a project; the most
// recent upload wins.
func (s *DocumentStore) GetDocumentIDByName(_ context.Context, projectID, name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.projectDocuments(projectID)
	for i := len(docs) - 1; i >= 0; i-- {
		if docs[i].Name == name {
			return docs[i].ID, nil
		}
	}
	return "", domain.ErrNotFound
}

// GetContentByHeading returns the section under heading with its parts joined.
func (s *DocumentStore) GetContentByHeading(_ context.Context, docID, heading string) (*domain.DocumentContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		found *domain.DocumentContent
		texts []string
	)
	for _, c := range s.contents[docID] {
		if c.Heading != heading {
			continue
		}
		if found == nil {
			c := c
			found = &c
		}
		texts = append(texts, c.Text)
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	found.Text = strings.Join(texts, "\n")
	return found, nil
}

// SimilaritySearch ranks sections by cosine similarity to query.
func (s *DocumentStore) SimilaritySearch(
	_ context.Context, query []float32, projectID, docID string, topK int,
) ([]domain.DocumentContent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []domain.DocumentContent
	if docID != "" {
		candidates = append(candidates, s.contents[docID]...)
	} else {
		for _, doc := range s.projectDocuments(projectID) {
			candidates = append(candidates, s.contents[doc.ID]...)
		}
	}

	vectors := make([][]float32, len(candidates))
	for i, c := range candidates {
		vectors[i] = c.Embedding
	}

	scored := vecmath.TopK(query, vectors, topK)
	results := make([]domain.DocumentContent, len(scored))
	for i, sc := range scored {
		results[i] = candidates[sc.Index]
	}
	return results, nil
}

// UpdateTableOfContents replaces the stored table of contents.
func (s *DocumentStore) UpdateTableOfContents(_ context.Context, docID, toc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[docID]
	if !ok {
		return domain.ErrNotFound
	}
	doc.TableOfContents = toc
	s.documents[docID] = doc
	return nil
}

// DeleteDocument removes a document and its sections.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.documents, id)
	delete(s.contents, id)
	return nil
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
)

// Ensure RequirementStore implements the interface.
var _ driven.RequirementStore = (*RequirementStore)(nil)

// RequirementStore is an in-memory implementation of driven.RequirementStore.
type RequirementStore struct {
	mu     sync.RWMutex
	groups map[string]domain.FunctionalRequirementGroup
}

// NewRequirementStore creates a new in-memory requirement store.
func NewRequirementStore() *RequirementStore {
	return &RequirementStore{
		groups: make(map[string]domain.FunctionalRequirementGroup),
	}
}

// SaveRequirements stores or updates groups.
func (s *RequirementStore) SaveRequirements(_ context.Context, groups []domain.FunctionalRequirementGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return nil
}

// ListRequirements returns every group of a project ordered by number.
func (s *RequirementStore) ListRequirements(_ context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(projectID, false), nil
}

// ListSelected returns the selected groups of a project ordered by number.
func (s *RequirementStore) ListSelected(_ context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	return s.list(projectID, true), nil
}

func (s *RequirementStore) list(projectID string, selectedOnly bool) []domain.FunctionalRequirementGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.FunctionalRequirementGroup
	for id := range s.groups {
		g := s.groups[id]
		if g.ProjectID != projectID || (selectedOnly && !g.IsSelected) {
			continue
		}
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Number != result[j].Number {
			return result[i].Number < result[j].Number
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// SetSelected updates the selection flag of the given groups. Unknown IDs
// leave every group untouched.
func (s *RequirementStore) SetSelected(_ context.Context, ids []string, selected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, ok := s.groups[id]; !ok {
			return fmt.Errorf("requirement %s: %w", id, domain.ErrNotFound)
		}
	}
	for _, id := range ids {
		g := s.groups[id]
		g.IsSelected = selected
		s.groups[id] = g
	}
	return nil
}

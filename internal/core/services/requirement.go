package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/apiforge/internal/core/domain"
	"github.com/custodia-labs/apiforge/internal/core/ports/driven"
	"github.com/custodia-labs/apiforge/internal/core/ports/driving"
)

// Ensure RequirementService implements the interface.
var _ driving.RequirementService = (*RequirementService)(nil)

// RequirementService manages functional requirement groups.
type RequirementService struct {
	store driven.RequirementStore
}

// NewRequirementService creates a new requirement service.
func NewRequirementService(store driven.RequirementStore) *RequirementService {
	return &RequirementService{store: store}
}

// List returns the groups of a project ordered by number.
func (s *RequirementService) List(ctx context.Context, projectID string) ([]domain.FunctionalRequirementGroup, error) {
	if projectID == "" {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrInvalidInput)
	}
	groups, err := s.store.ListRequirements(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list requirements: %w", err)
	}
	return groups, nil
}

// Select sets the selection flag of the given groups. Unknown IDs fail
// the whole update.
func (s *RequirementService) Select(ctx context.Context, ids []string, selected bool) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no requirement ids", domain.ErrInvalidInput)
	}
	if err := s.store.SetSelected(ctx, ids, selected); err != nil {
		return fmt.Errorf("set selection: %w", err)
	}
	return nil
}

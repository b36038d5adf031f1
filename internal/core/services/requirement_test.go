package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/apiforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/apiforge/internal/core/domain"
)

func TestRequirementService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRequirementStore()
	require.NoError(t, store.SaveRequirements(ctx, []domain.FunctionalRequirementGroup{
		{ID: "b", ProjectID: "p", Group: "Orders", Number: 2, IsSelected: true},
		{ID: "a", ProjectID: "p", Group: "Users", Number: 1, IsSelected: true},
		{ID: "c", ProjectID: "other", Group: "Other", Number: 1, IsSelected: true},
	}))
	svc := NewRequirementService(store)

	groups, err := svc.List(ctx, "p")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Users", groups[0].Group)

	require.NoError(t, svc.Select(ctx, []string{"a"}, false))
	selected, err := store.ListSelected(ctx, "p")
	require.NoError(t, err)
	require.Len(t, selected, 1)
	assert.Equal(t, "b", selected[0].ID)
}

func TestRequirementService_Errors(t *testing.T) {
	ctx := context.Background()
	svc := NewRequirementService(memory.NewRequirementStore())

	_, err := svc.List(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.ErrorIs(t, svc.Select(ctx, nil, true), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Select(ctx, []string{"missing"}, true), domain.ErrNotFound)
}

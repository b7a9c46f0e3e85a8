package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func TestEntityCreateDerivesKey(t *testing.T) {
	db := testDB(t)
	s := NewEntityStore(db)
	ctx := context.Background()

	e := &domain.Entity{Name: "Alice Smith", EntityType: "person"}
	require.NoError(t, s.Create(ctx, e))
	require.NotZero(t, e.ID)
	assert.Equal(t, domain.CanonicalKey("Alice Smith"), e.CanonicalKey)

	got, err := s.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", got.Name)
	assert.Equal(t, "person", got.EntityType)
}

func TestEntityCreateDeduplicatesOnKey(t *testing.T) {
	db := testDB(t)
	s := NewEntityStore(db)
	ctx := context.Background()

	first := &domain.Entity{Name: "Alice Smith", EntityType: "person"}
	require.NoError(t, s.Create(ctx, first))

	// same name through different casing and spacing resolves to the
	// same canonical key, so the existing row is reused
	dup := &domain.Entity{Name: "alice  smith", EntityType: "person"}
	require.NoError(t, s.Create(ctx, dup))
	assert.Equal(t, first.ID, dup.ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestEntityKeyCollisionAcrossTypes(t *testing.T) {
	db := testDB(t)
	s := NewEntityStore(db)
	ctx := context.Background()

	person := &domain.Entity{Name: "Mercury", EntityType: "person"}
	project := &domain.Entity{Name: "Mercury", EntityType: "project"}
	require.NoError(t, s.Create(ctx, person))
	require.NoError(t, s.Create(ctx, project))
	assert.NotEqual(t, person.ID, project.ID)
}

func TestEntityFindByKey(t *testing.T) {
	db := testDB(t)
	s := NewEntityStore(db)
	ctx := context.Background()

	e := &domain.Entity{Name: "Morning Routine", EntityType: "concept"}
	require.NoError(t, s.Create(ctx, e))

	got, err := s.FindByKey(ctx, domain.CanonicalKey("morning routine"))
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	_, err = s.FindByKey(ctx, "no_such_key")
	assert.ErrorIs(t, err, ErrNotFound)
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestFact(subject, predicate, object string) *domain.Fact {
	return &domain.Fact{
		SubjectText:    subject,
		Predicate:      predicate,
		ObjectText:     object,
		Confidence:     0.8,
		Source:         "test",
		DecayRate:      domain.BaseDecayRate,
		MemoryStrength: domain.DefaultStrength,
	}
}

func TestFactCreateAndGet(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	f := newTestFact("Alice", "lives_in", "Berlin")
	require.NoError(t, s.Create(ctx, f))
	require.NotZero(t, f.ID)

	got, err := s.GetByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.SubjectText)
	assert.Equal(t, "lives_in", got.Predicate)
	assert.Equal(t, "Berlin", got.ObjectText)
	assert.True(t, got.Current())
	assert.Nil(t, got.Valence)
	assert.Zero(t, got.AccessCount)
}

func TestFactGetByIDNotFound(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)

	_, err := s.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactSupersede(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	old := newTestFact("Alice", "lives_in", "Berlin")
	require.NoError(t, s.Create(ctx, old))

	at := time.Now().UTC()
	replacement := newTestFact("Alice", "lives_in", "Lisbon")
	require.NoError(t, s.Supersede(ctx, old.ID, replacement, at))
	require.NotZero(t, replacement.ID)
	require.NotEqual(t, old.ID, replacement.ID)

	// Old row: closed window, pointer to replacement. The original
	// content is untouched.
	closed, err := s.GetByID(ctx, old.ID)
	require.NoError(t, err)
	assert.False(t, closed.Current())
	assert.Equal(t, domain.StatusSuperseded, closed.Status())
	require.NotNil(t, closed.SupersededBy)
	assert.Equal(t, replacement.ID, *closed.SupersededBy)
	assert.Equal(t, "Berlin", closed.ObjectText)
	require.NotNil(t, closed.ValidUntil)
	assert.Equal(t, at.UnixMilli(), closed.ValidUntil.UnixMilli())

	// New row: current, fresh access state.
	current, err := s.GetByID(ctx, replacement.ID)
	require.NoError(t, err)
	assert.True(t, current.Current())
	assert.Zero(t, current.AccessCount)

	// Only the replacement is in the current set.
	facts, err := s.ListCurrent(ctx)
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, replacement.ID, facts[0].ID)
}

func TestFactSupersedeTwiceConflicts(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	old := newTestFact("Alice", "lives_in", "Berlin")
	require.NoError(t, s.Create(ctx, old))

	require.NoError(t, s.Supersede(ctx, old.ID, newTestFact("Alice", "lives_in", "Lisbon"), time.Now().UTC()))

	err := s.Supersede(ctx, old.ID, newTestFact("Alice", "lives_in", "Madrid"), time.Now().UTC())
	assert.ErrorIs(t, err, ErrConflict)

	// The failed attempt must not have inserted anything.
	facts, err := s.ListCurrent(ctx)
	require.NoError(t, err)
	assert.Len(t, facts, 1)
}

func TestFactSupersedeMissing(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)

	err := s.Supersede(context.Background(), 12345, newTestFact("x", "y", "z"), time.Now().UTC())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactGetSupersededBy(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	old := newTestFact("Alice", "lives_in", "Berlin")
	require.NoError(t, s.Create(ctx, old))
	replacement := newTestFact("Alice", "lives_in", "Lisbon")
	require.NoError(t, s.Supersede(ctx, old.ID, replacement, time.Now().UTC()))

	prev, err := s.GetSupersededBy(ctx, replacement.ID)
	require.NoError(t, err)
	assert.Equal(t, old.ID, prev.ID)

	_, err = s.GetSupersededBy(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFactRecordAccess(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	f := newTestFact("Alice", "likes", "coffee")
	require.NoError(t, s.Create(ctx, f))

	at := time.Now().UTC()
	got, err := s.RecordAccess(ctx, f.ID, at)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
	require.NotNil(t, got.LastAccessedAt)
	assert.Equal(t, at.UnixMilli(), got.LastAccessedAt.UnixMilli())
	assert.InDelta(t, domain.BoostStrength(domain.DefaultStrength), got.MemoryStrength, 1e-9)

	// strength saturates at the cap
	for i := 0; i < 100; i++ {
		got, err = s.RecordAccess(ctx, f.ID, at)
		require.NoError(t, err)
	}
	assert.InDelta(t, domain.MaxMemoryStrength, got.MemoryStrength, 1e-6)
	assert.Equal(t, 101, got.AccessCount)
}

func TestFactUpdateEmotion(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	ctx := context.Background()

	f := newTestFact("Alice", "fears", "deadlines")
	require.NoError(t, s.Create(ctx, f))

	require.NoError(t, s.UpdateEmotion(ctx, f.ID, -0.6, 0.8, domain.DecayRateFor(0.8)))

	got, err := s.GetByID(ctx, f.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Valence)
	require.NotNil(t, got.Arousal)
	assert.InDelta(t, -0.6, *got.Valence, 1e-9)
	assert.InDelta(t, 0.8, *got.Arousal, 1e-9)
	assert.InDelta(t, 0.06, got.DecayRate, 1e-9)

	assert.ErrorIs(t, s.UpdateEmotion(ctx, 999, 0, 0, 0.1), ErrNotFound)
}

func TestFactListCurrentBySubject(t *testing.T) {
	db := testDB(t)
	s := NewFactStore(db)
	entities := NewEntityStore(db)
	ctx := context.Background()

	entity := &domain.Entity{Name: "Alice", EntityType: "person"}
	require.NoError(t, entities.Create(ctx, entity))

	linked := newTestFact("Alice", "lives_in", "Berlin")
	linked.SubjectEntityID = &entity.ID
	require.NoError(t, s.Create(ctx, linked))
	require.NoError(t, s.Create(ctx, newTestFact("Bob", "lives_in", "Oslo")))

	byEntity, err := s.ListCurrentBySubject(ctx, &entity.ID, "")
	require.NoError(t, err)
	require.Len(t, byEntity, 1)
	assert.Equal(t, linked.ID, byEntity[0].ID)

	byText, err := s.ListCurrentBySubject(ctx, nil, "Bob")
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, "Oslo", byText[0].ObjectText)
}

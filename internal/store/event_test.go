package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func newTestEvent(summary string, importance, valence float64) *domain.Event {
	return &domain.Event{
		EventType:  "observation",
		Summary:    summary,
		Importance: importance,
		Valence:    valence,
		Arousal:    domain.DefaultArousal,
	}
}

func TestEventCreateDefaults(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	e := newTestEvent("shipped release", 0.8, 0.4)
	require.NoError(t, s.Create(ctx, e))
	require.NotZero(t, e.ID)

	got, err := s.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationWorking, got.ConsolidationState)
	assert.InDelta(t, 3.2, got.MemoryStrength, 1e-9)
	assert.False(t, got.OccurredAt.IsZero())
	assert.Nil(t, got.SubsumedBySeedID)
	assert.Nil(t, got.NextReviewAt)
}

func TestEventUpdateReview(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	e := newTestEvent("first review", 0.5, 0)
	require.NoError(t, s.Create(ctx, e))

	now := time.Now().UTC()
	next := now.Add(time.Hour)
	require.NoError(t, s.UpdateReview(ctx, e.ID, 2.6, 1, now, next))

	got, err := s.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.InDelta(t, 2.6, got.MemoryStrength, 1e-9)
	assert.Equal(t, 1, got.RepetitionCount)
	require.NotNil(t, got.LastReviewedAt)
	require.NotNil(t, got.NextReviewAt)
	assert.Equal(t, next.UnixMilli(), got.NextReviewAt.UnixMilli())

	assert.ErrorIs(t, s.UpdateReview(ctx, 999, 1, 0, now, next), ErrNotFound)
}

func TestEventListDue(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	now := time.Now().UTC()

	overdue := newTestEvent("overdue", 0.5, 0)
	require.NoError(t, s.Create(ctx, overdue))
	require.NoError(t, s.UpdateReview(ctx, overdue.ID, 1, 1, now.Add(-48*time.Hour), now.Add(-24*time.Hour)))

	future := newTestEvent("not yet", 0.5, 0)
	require.NoError(t, s.Create(ctx, future))
	require.NoError(t, s.UpdateReview(ctx, future.ID, 1, 1, now, now.Add(24*time.Hour)))

	unscheduled := newTestEvent("never reviewed", 0.5, 0)
	require.NoError(t, s.Create(ctx, unscheduled))

	due, err := s.ListDue(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, overdue.ID, due[0].ID)
}

func TestEventMarkForgotten(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	a := newTestEvent("trivia a", 0.1, 0)
	b := newTestEvent("trivia b", 0.1, 0)
	keep := newTestEvent("keep", 0.9, 0)
	require.NoError(t, s.Create(ctx, a))
	require.NoError(t, s.Create(ctx, b))
	require.NoError(t, s.Create(ctx, keep))

	n, err := s.MarkForgotten(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// flagged, not deleted
	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationForgotten, got.ConsolidationState)

	// forgotten events leave the scorable set
	scorable, err := s.ListScorable(ctx)
	require.NoError(t, err)
	require.Len(t, scorable, 1)
	assert.Equal(t, keep.ID, scorable[0].ID)

	// re-marking is a no-op
	n, err = s.MarkForgotten(ctx, []int64{a.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEventAssignSeed(t *testing.T) {
	db := testDB(t)
	events := NewEventStore(db)
	seeds := NewSeedStore(db)
	ctx := context.Background()

	a := newTestEvent("day one", 0.4, 0)
	b := newTestEvent("day two", 0.4, 0)
	require.NoError(t, events.Create(ctx, a))
	require.NoError(t, events.Create(ctx, b))

	seed := &domain.MemorySeed{Summary: "week summary", EventCount: 2}
	require.NoError(t, seeds.Create(ctx, seed))

	require.NoError(t, events.AssignSeed(ctx, []int64{a.ID, b.ID}, seed.ID))

	got, err := events.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationLongTerm, got.ConsolidationState)
	require.NotNil(t, got.SubsumedBySeedID)
	assert.Equal(t, seed.ID, *got.SubsumedBySeedID)
}

func TestEventRetentionStats(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	now := time.Now().UTC()

	working := newTestEvent("working", 0.5, 0)
	require.NoError(t, s.Create(ctx, working))

	reviewed := newTestEvent("reviewed", 0.5, 0)
	require.NoError(t, s.Create(ctx, reviewed))
	require.NoError(t, s.UpdateReview(ctx, reviewed.ID, 2, 1, now.Add(-2*time.Hour), now.Add(-time.Hour)))

	stats, err := s.RetentionStats(ctx, now)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.ConsolidationWorking, stats[0].State)
	assert.Equal(t, 2, stats[0].Count)
	assert.Equal(t, 1, stats[0].Overdue)
}

func TestEventRecordAccess(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	e := newTestEvent("memorable", 0.5, 0.2)
	require.NoError(t, s.Create(ctx, e))

	at := time.Now().UTC()
	got, err := s.RecordAccess(ctx, e.ID, at)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AccessCount)
	require.NotNil(t, got.LastAccessedAt)
	assert.InDelta(t, domain.BoostStrength(e.MemoryStrength), got.MemoryStrength, 1e-9)

	// strength saturates at the cap
	for i := 0; i < 100; i++ {
		got, err = s.RecordAccess(ctx, e.ID, at)
		require.NoError(t, err)
	}
	assert.InDelta(t, domain.MaxMemoryStrength, got.MemoryStrength, 1e-6)

	_, err = s.RecordAccess(ctx, 999, at)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEventListWindow(t *testing.T) {
	db := testDB(t)
	s := NewEventStore(db)
	ctx := context.Background()

	now := time.Now().UTC()

	inside := newTestEvent("inside", 0.5, 0)
	inside.OccurredAt = now.Add(-time.Hour)
	require.NoError(t, s.Create(ctx, inside))

	outside := newTestEvent("outside", 0.5, 0)
	outside.OccurredAt = now.Add(-72 * time.Hour)
	require.NoError(t, s.Create(ctx, outside))

	got, err := s.ListWindow(ctx, now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inside.ID, got[0].ID)
}

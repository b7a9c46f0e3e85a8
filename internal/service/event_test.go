package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func TestCreateEventDefaultsAndStrength(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	e, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "daily sync",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, e.Importance)
	assert.Equal(t, domain.DefaultValence, e.Valence)
	assert.Equal(t, domain.DefaultArousal, e.Arousal)
	assert.Equal(t, domain.ConsolidationWorking, e.ConsolidationState)
	assert.InDelta(t, domain.InitialEventStrength(0.5, 0), e.MemoryStrength, 1e-9)
	assert.False(t, e.OccurredAt.IsZero())
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{EventType: "observation"})
	assert.ErrorIs(t, err, ErrContentEmpty)

	_, err = env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "x", Significance: 11,
	})
	assert.ErrorIs(t, err, ErrSignificanceOutOfRange)

	_, err = env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "x", Importance: ptrFloat(1.5),
	})
	assert.ErrorIs(t, err, ErrImportanceOutOfRange)
}

func TestSignificantEventSignalsBackup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "routine", Significance: 5,
	})
	require.NoError(t, err)

	pending, err := env.outbox.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	big, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "milestone", Summary: "first deployment", Significance: 9,
	})
	require.NoError(t, err)

	pending, err = env.outbox.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, big.ID, pending[0].SourceID)
}

func TestSignificanceThresholdOverride(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.eventSvc.SetSignificanceThreshold(3)

	_, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "mildly notable", Significance: 4,
	})
	require.NoError(t, err)

	pending, err := env.outbox.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestCompressEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{EventType: "observation", Summary: "monday"})
	require.NoError(t, err)
	b, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{EventType: "observation", Summary: "tuesday"})
	require.NoError(t, err)

	seed, err := env.eventSvc.CompressEvents(ctx, []int64{a.ID, b.ID}, "a quiet week of steady progress")
	require.NoError(t, err)
	require.NotZero(t, seed.ID)
	assert.Equal(t, 2, seed.EventCount)

	// raw events survive, flipped to long_term with a seed pointer
	for _, id := range []int64{a.ID, b.ID} {
		e, err := env.eventSvc.GetEvent(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ConsolidationLongTerm, e.ConsolidationState)
		require.NotNil(t, e.SubsumedBySeedID)
		assert.Equal(t, seed.ID, *e.SubsumedBySeedID)
	}

	seeds, err := env.eventSvc.ListSeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, seeds, 1)
}

func TestCompressEventsValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eventSvc.CompressEvents(ctx, []int64{1}, " ")
	assert.ErrorIs(t, err, ErrContentEmpty)

	_, err = env.eventSvc.CompressEvents(ctx, nil, "summary")
	assert.ErrorIs(t, err, ErrContentEmpty)

	// a missing member aborts before any write
	a, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{EventType: "observation", Summary: "real"})
	require.NoError(t, err)
	_, err = env.eventSvc.CompressEvents(ctx, []int64{a.ID, 999}, "summary")
	assert.ErrorIs(t, err, ErrNotFound)

	e, err := env.eventSvc.GetEvent(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationWorking, e.ConsolidationState)

	seeds, err := env.eventSvc.ListSeeds(ctx)
	require.NoError(t, err)
	assert.Empty(t, seeds)
}

func TestAccessEventStrengthens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	e, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{EventType: "observation", Summary: "memorable"})
	require.NoError(t, err)

	accessed, err := env.eventSvc.AccessEvent(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, accessed.AccessCount)
	assert.Greater(t, accessed.MemoryStrength, e.MemoryStrength)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func TestCreateFactDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultFactConfidence, f.Confidence)
	assert.Equal(t, "direct", f.Source)
	assert.Equal(t, domain.BaseDecayRate, f.DecayRate)
	assert.Equal(t, domain.DefaultStrength, f.MemoryStrength)
	assert.Nil(t, f.SubjectEntityID)

	// creation enqueues the sentence for embedding
	jobs, err := env.queue.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.SourceFacts, jobs[0].SourceTable)
	assert.Equal(t, f.Sentence(), jobs[0].TextToEmbed)
}

func TestCreateFactValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.beliefs.CreateFact(ctx, CreateFactInput{Predicate: "p", Object: "o"})
	assert.ErrorIs(t, err, ErrSubjectEmpty)

	_, err = env.beliefs.CreateFact(ctx, CreateFactInput{Subject: "Alice", Predicate: " ", Object: "o"})
	assert.ErrorIs(t, err, ErrContentEmpty)

	_, err = env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "p", Object: "o", Confidence: ptrFloat(1.2),
	})
	assert.ErrorIs(t, err, ErrConfidenceOutOfRange)

	_, err = env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "p", Object: "o", Valence: ptrFloat(-2),
	})
	assert.ErrorIs(t, err, ErrValenceOutOfRange)
}

func TestCreateFactResolvesSubjectEntity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	entity, err := env.beliefs.CreateEntity(ctx, "Alice Smith", "person", "")
	require.NoError(t, err)

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "alice  smith", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)
	require.NotNil(t, f.SubjectEntityID)
	assert.Equal(t, entity.ID, *f.SubjectEntityID)
	// canonical entity name replaces the raw subject text
	assert.Equal(t, "Alice Smith", f.SubjectText)

	// subject lookups resolve through the same key
	bySubject, err := env.beliefs.ListCurrentFacts(ctx, "ALICE SMITH")
	require.NoError(t, err)
	require.Len(t, bySubject, 1)
	assert.Equal(t, f.ID, bySubject[0].ID)
}

func TestCreateFactArousalSetsDecayRate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "fears", Object: "deadlines",
		Valence: ptrFloat(-0.6), Arousal: ptrFloat(0.8),
	})
	require.NoError(t, err)
	assert.InDelta(t, domain.DecayRateFor(0.8), f.DecayRate, 1e-9)
}

func TestHighSalienceFactSignalsBackup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// neutral fact: no signal
	_, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Bob", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)

	pending, err := env.outbox.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	charged, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "fears", Object: "deadlines",
		Valence: ptrFloat(-0.8), Arousal: ptrFloat(0.9),
	})
	require.NoError(t, err)

	pending, err = env.outbox.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.SourceFacts, pending[0].SourceTable)
	assert.Equal(t, charged.ID, pending[0].SourceID)
}

func TestRetagFactEmotion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)

	updated, err := env.beliefs.RetagFactEmotion(ctx, f.ID, -0.4, 0.9)
	require.NoError(t, err)
	require.NotNil(t, updated.Valence)
	assert.Equal(t, -0.4, *updated.Valence)
	assert.InDelta(t, domain.DecayRateFor(0.9), updated.DecayRate, 1e-9)

	// arousal 0.9 crosses the salience threshold
	pending, err := env.outbox.ListPending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	_, err = env.beliefs.RetagFactEmotion(ctx, f.ID, 2, 0)
	assert.ErrorIs(t, err, ErrValenceOutOfRange)
}

func TestCreateLessonDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	l, err := env.beliefs.CreateLesson(ctx, CreateLessonInput{Lesson: "confirm timezones"})
	require.NoError(t, err)
	assert.Equal(t, "general", l.Domain)
	assert.Equal(t, "learned", l.Source)
	assert.Equal(t, DefaultLessonConfidence, l.Confidence)
}

func TestCreateValueValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.beliefs.CreateValue(ctx, CreateValueInput{Name: "x", Description: "y", Priority: 101})
	assert.ErrorIs(t, err, ErrPriorityOutOfRange)

	v, err := env.beliefs.CreateValue(ctx, CreateValueInput{Name: "honesty", Description: "tell the truth", Priority: 90})
	require.NoError(t, err)
	assert.Equal(t, "axionic", v.Source)
}

func TestAccessFactStrengthens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)

	accessed, err := env.beliefs.AccessFact(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, accessed.AccessCount)
	assert.Greater(t, accessed.MemoryStrength, f.MemoryStrength)
	assert.NotNil(t, accessed.LastAccessedAt)

	_, err = env.beliefs.AccessFact(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

// fixClock pins the review service's clock so retention and scheduling
// are deterministic.
func fixClock(env *testEnv, at time.Time) {
	env.reviews.now = func() time.Time { return at }
}

func seedEvent(t *testing.T, env *testEnv, occurredAt time.Time, importance, valence float64) *domain.Event {
	t.Helper()
	e := &domain.Event{
		EventType:  "observation",
		Summary:    "seeded for review",
		Importance: importance,
		Valence:    valence,
		Arousal:    domain.DefaultArousal,
		OccurredAt: occurredAt,
		CreatedAt:  occurredAt,
	}
	require.NoError(t, env.events.Create(context.Background(), e))
	return e
}

func TestRegisterReviewSuccessSchedulesNext(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := seedEvent(t, env, base, 0.5, 0)
	reviewAt := base.Add(48 * time.Hour)
	fixClock(env, reviewAt)

	res, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 5)
	require.NoError(t, err)

	// strength 2.0, 48h elapsed: retention = e^(-48/48)
	wantRetention := 1 / 2.718281828459045
	assert.InDelta(t, wantRetention, res.RetentionBefore, 1e-9)
	assert.Equal(t, 2.0, res.StrengthBefore)
	// quality 5 multiplier 1.3, bonus 1 + (1-retention)*0.5
	assert.InDelta(t, 2.0*1.3*(1+(1-wantRetention)*0.5), res.StrengthAfter, 1e-9)
	assert.Equal(t, 1, res.RepetitionCount)
	// repetition count 1 schedules one hour out
	assert.Equal(t, reviewAt.Add(time.Hour).UnixMilli(), res.NextReviewAt.UnixMilli())

	got, err := env.events.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RepetitionCount)
	require.NotNil(t, got.LastReviewedAt)
	assert.Equal(t, reviewAt.UnixMilli(), got.LastReviewedAt.UnixMilli())
}

func TestRegisterReviewFailureResetsRepetitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := seedEvent(t, env, base, 0.5, 0)

	fixClock(env, base.Add(time.Hour))
	_, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 4)
	require.NoError(t, err)
	fixClock(env, base.Add(2*time.Hour))
	res, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, res.RepetitionCount)

	// a blackout drops the count back to zero and weakens the trace
	fixClock(env, base.Add(3*time.Hour))
	res, err = env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 1)
	require.NoError(t, err)
	assert.Zero(t, res.RepetitionCount)
	assert.InDelta(t, res.StrengthBefore*0.7, res.StrengthAfter, 1e-9)
	// back to the shortest interval
	assert.Equal(t, base.Add(3*time.Hour).Add(20*time.Minute).UnixMilli(), res.NextReviewAt.UnixMilli())
}

func TestRegisterReviewLesson(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	l, err := env.beliefs.CreateLesson(ctx, CreateLessonInput{
		Domain: "scheduling", Lesson: "confirm timezones",
	})
	require.NoError(t, err)

	fixClock(env, time.Now().UTC().Add(time.Minute))
	res, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceLessons, ID: l.ID}, 4)
	require.NoError(t, err)
	assert.Equal(t, domain.SourceLessons, res.Source)
	assert.Equal(t, 1, res.RepetitionCount)
	assert.Greater(t, res.StrengthAfter, res.StrengthBefore)
}

func TestRegisterReviewValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: 1}, 6)
	assert.ErrorIs(t, err, ErrQualityOutOfRange)

	_, err = env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceFacts, ID: 1}, 3)
	assert.ErrorIs(t, err, ErrUnknownSourceTable)

	_, err = env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: 999}, 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReviewHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := seedEvent(t, env, base, 0.5, 0)

	fixClock(env, base.Add(time.Hour))
	_, err := env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 4)
	require.NoError(t, err)
	fixClock(env, base.Add(2*time.Hour))
	_, err = env.reviews.RegisterReview(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID}, 2)
	require.NoError(t, err)

	history, err := env.reviews.History(ctx, ItemRef{Source: domain.SourceEvents, ID: e.ID})
	require.NoError(t, err)
	require.Len(t, history, 2)
	// newest first
	assert.Equal(t, 2, history[0].Quality)
	assert.Equal(t, 4, history[1].Quality)
}

func TestDueMergesAndOrdersByRetention(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := base.Add(10 * 24 * time.Hour)

	// reviewed long ago: deeply decayed by now
	decayed := seedEvent(t, env, base, 0.5, 0)
	require.NoError(t, env.events.UpdateReview(ctx, decayed.ID, 1.0, 1, base, base.Add(time.Hour)))

	// reviewed recently: due but still well retained
	fresh := seedEvent(t, env, base, 0.5, 0)
	require.NoError(t, env.events.UpdateReview(ctx, fresh.ID, 8.0, 3, now.Add(-2*time.Hour), now.Add(-time.Hour)))

	l, err := env.beliefs.CreateLesson(ctx, CreateLessonInput{Domain: "general", Lesson: "due lesson"})
	require.NoError(t, err)
	require.NoError(t, env.lessons.UpdateReview(ctx, l.ID, 2.0, 1, now.Add(-36*time.Hour), now.Add(-12*time.Hour)))

	fixClock(env, now)
	items, err := env.reviews.Due(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 3)

	// most decayed first
	assert.Equal(t, decayed.ID, items[0].ID)
	assert.Equal(t, domain.SourceEvents, items[0].Source)
	assert.Equal(t, UrgencyUrgent, items[0].Urgency)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Retention, items[i].Retention)
	}
}

func TestSweepDryRunThenApply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base.Add(60 * 24 * time.Hour)

	// trivial and long-faded: eligible
	faded := seedEvent(t, env, base, 0.1, 0)
	// important: kept regardless of retention
	important := seedEvent(t, env, base, 0.9, 0)
	// trivial but recent: retention still high
	recent := seedEvent(t, env, now.Add(-time.Hour), 0.1, 0)

	fixClock(env, now)

	report, err := env.reviews.Sweep(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, []int64{faded.ID}, report.Candidates)
	assert.Zero(t, report.Forgotten)
	assert.True(t, report.DryRun)

	// dry run wrote nothing
	got, err := env.events.GetByID(ctx, faded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationWorking, got.ConsolidationState)

	report, err = env.reviews.Sweep(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Forgotten)

	got, err = env.events.GetByID(ctx, faded.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ConsolidationForgotten, got.ConsolidationState)

	for _, id := range []int64{important.ID, recent.ID} {
		got, err := env.events.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.ConsolidationWorking, got.ConsolidationState)
	}
}

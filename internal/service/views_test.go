package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemoslab/mnemos/internal/domain"
)

func seedFactAccessedAt(t *testing.T, env *testEnv, subject, object string, lastAccess time.Time, accessCount int) *domain.Fact {
	t.Helper()
	f := &domain.Fact{
		SubjectText:    subject,
		Predicate:      "prefers",
		ObjectText:     object,
		Confidence:     0.8,
		Source:         "test",
		DecayRate:      domain.BaseDecayRate,
		MemoryStrength: domain.DefaultStrength,
		AccessCount:    accessCount,
		LastAccessedAt: &lastAccess,
	}
	require.NoError(t, env.facts.Create(context.Background(), f))
	return f
}

func TestTierPartitionIsTotal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	env.retrieval.now = func() time.Time { return now }

	hot := seedFactAccessedAt(t, env, "Alice", "tea", now.Add(-24*time.Hour), 5)
	warm := seedFactAccessedAt(t, env, "Bob", "coffee", now.Add(-14*24*time.Hour), 2)
	cold := seedFactAccessedAt(t, env, "Carol", "juice", now.Add(-90*24*time.Hour), 1)

	tiers, err := env.retrieval.TierPartition(ctx)
	require.NoError(t, err)
	require.Len(t, tiers.Hot, 1)
	require.Len(t, tiers.Warm, 1)
	require.Len(t, tiers.Cold, 1)
	assert.Equal(t, hot.ID, tiers.Hot[0].Fact.ID)
	assert.Equal(t, warm.ID, tiers.Warm[0].Fact.ID)
	assert.Equal(t, cold.ID, tiers.Cold[0].Fact.ID)
	assert.Equal(t, domain.TierHot, tiers.Hot[0].Tier)
}

func TestTierPartitionNeverAccessedUsesCreation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	f, err := env.beliefs.CreateFact(ctx, CreateFactInput{
		Subject: "Alice", Predicate: "prefers", Object: "tea",
	})
	require.NoError(t, err)

	// just created, never accessed: tiered from created_at, so hot
	tiers, err := env.retrieval.TierPartition(ctx)
	require.NoError(t, err)
	require.Len(t, tiers.Hot, 1)
	assert.Equal(t, f.ID, tiers.Hot[0].Fact.ID)
	assert.Empty(t, tiers.Warm)
	assert.Empty(t, tiers.Cold)
}

func TestFactRankingOrdersByScore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	env.retrieval.now = func() time.Time { return now }

	// hot and frequently used beats cold and untouched
	busy := seedFactAccessedAt(t, env, "Alice", "tea", now.Add(-time.Hour), 12)
	idle := seedFactAccessedAt(t, env, "Bob", "coffee", now.Add(-90*24*time.Hour), 0)

	ranked, err := env.retrieval.FactRanking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, busy.ID, ranked[0].Fact.ID)
	assert.Equal(t, idle.ID, ranked[1].Fact.ID)
	assert.Greater(t, ranked[0].RetrievalScore, ranked[1].RetrievalScore)

	// limit truncates after sorting
	ranked, err = env.retrieval.FactRanking(ctx, 1)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, busy.ID, ranked[0].Fact.ID)
}

func TestEmotionalHighlights(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "neutral standup",
	})
	require.NoError(t, err)

	intense, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "milestone", Summary: "launch day",
		Valence: ptrFloat(0.9), Arousal: ptrFloat(0.8),
	})
	require.NoError(t, err)

	mild, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "pleasant walk",
		Valence: ptrFloat(0.6), Arousal: ptrFloat(0.2),
	})
	require.NoError(t, err)

	highlights, err := env.retrieval.EmotionalHighlights(ctx, 10)
	require.NoError(t, err)
	require.Len(t, highlights, 2)
	// most salient first
	assert.Equal(t, intense.ID, highlights[0].Event.ID)
	assert.Equal(t, mild.ID, highlights[1].Event.ID)
	assert.InDelta(t, 1.7, highlights[0].Salience, 1e-9)
}

func TestPriorityRankingFavorsImportantRecent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now().UTC()
	env.retrieval.now = func() time.Time { return now }

	old := now.Add(-60 * 24 * time.Hour)
	stale, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "observation", Summary: "old minor note",
		OccurredAt: &old, Importance: ptrFloat(0.2),
	})
	require.NoError(t, err)

	fresh, err := env.eventSvc.CreateEvent(ctx, CreateEventInput{
		EventType: "milestone", Summary: "big recent win",
		Importance: ptrFloat(0.9), Valence: ptrFloat(0.7), Arousal: ptrFloat(0.6),
	})
	require.NoError(t, err)

	ranked, err := env.retrieval.PriorityRanking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, fresh.ID, ranked[0].Event.ID)
	assert.Equal(t, stale.ID, ranked[1].Event.ID)
}

func TestForgettingRiskFiltersAndOrders(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := base.Add(45 * 24 * time.Hour)
	env.retrieval.now = func() time.Time { return now }

	// important but long unrehearsed: at risk
	atRisk := seedEvent(t, env, base, 0.8, 0)
	// important and just rehearsed: safe
	safe := seedEvent(t, env, now.Add(-time.Hour), 0.8, 0)
	// trivial and decayed: excluded regardless of retention
	seedEvent(t, env, base, 0.2, 0)

	risk, err := env.retrieval.ForgettingRisk(ctx, 10)
	require.NoError(t, err)
	require.Len(t, risk, 1)
	assert.Equal(t, atRisk.ID, risk[0].Event.ID)
	assert.Less(t, risk[0].Retention, RiskRetentionCeiling)

	got, err := env.events.GetByID(ctx, safe.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRetentionStatsView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	seedEvent(t, env, time.Now().UTC(), 0.5, 0)

	stats, err := env.retrieval.RetentionStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, domain.ConsolidationWorking, stats[0].State)
	assert.Equal(t, 1, stats[0].Count)
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
	"go.uber.org/zap"
)

// Forgetting-risk thresholds: important items whose retention has
// slipped below the warning line.
const (
	RiskRetentionCeiling = 0.3
	RiskImportanceFloor  = 0.3
)

// ScoredFact is a fact annotated with its read-time decay state.
type ScoredFact struct {
	Fact            domain.Fact      `json:"fact"`
	Tier            domain.DecayTier `json:"tier"`
	CurrentStrength float64          `json:"current_strength"`
	RetrievalScore  float64          `json:"retrieval_score"`
}

// TieredFacts partitions current facts into hot/warm/cold buckets.
// Every fact lands in exactly one bucket.
type TieredFacts struct {
	Hot  []ScoredFact `json:"hot"`
	Warm []ScoredFact `json:"warm"`
	Cold []ScoredFact `json:"cold"`
}

// ScoredEvent is an event annotated with read-time scores.
type ScoredEvent struct {
	Event     domain.Event `json:"event"`
	Retention float64      `json:"retention"`
	Salience  float64      `json:"salience"`
	Priority  float64      `json:"priority"`
}

// RetrievalService computes the read-time views: decay is never
// materialized, every score is derived from raw rows at query time.
type RetrievalService struct {
	facts   domain.FactStore
	events  domain.EventStore
	weights domain.RetrievalWeights
	logger  *zap.Logger
	now     func() time.Time
}

func NewRetrievalService(fs domain.FactStore, es domain.EventStore, logger *zap.Logger) *RetrievalService {
	return &RetrievalService{
		facts:   fs,
		events:  es,
		weights: domain.DefaultRetrievalWeights(),
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// accessReference is the instant tiering measures from. Facts that were
// never accessed fall back to creation time.
func accessReference(f *domain.Fact) time.Time {
	if f.LastAccessedAt != nil {
		return *f.LastAccessedAt
	}
	return f.CreatedAt
}

func (s *RetrievalService) scoreFact(f *domain.Fact, now time.Time) ScoredFact {
	since := now.Sub(accessReference(f))
	tier := domain.TierFor(since)
	v, a := domain.EmotionOrDefault(f.Valence, f.Arousal)
	return ScoredFact{
		Fact:            *f,
		Tier:            tier,
		CurrentStrength: domain.FactCurrentStrength(f.MemoryStrength, f.DecayRate, since),
		RetrievalScore:  domain.FactRetrievalScore(f.AccessCount, v, a, tier, s.weights),
	}
}

// TierPartition buckets every current fact by time since last access.
func (s *RetrievalService) TierPartition(ctx context.Context) (*TieredFacts, error) {
	facts, err := s.facts.ListCurrent(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	out := &TieredFacts{}
	for i := range facts {
		sf := s.scoreFact(&facts[i], now)
		switch sf.Tier {
		case domain.TierHot:
			out.Hot = append(out.Hot, sf)
		case domain.TierWarm:
			out.Warm = append(out.Warm, sf)
		default:
			out.Cold = append(out.Cold, sf)
		}
	}
	return out, nil
}

// FactRanking returns current facts ordered by retrieval score.
func (s *RetrievalService) FactRanking(ctx context.Context, limit int) ([]ScoredFact, error) {
	facts, err := s.facts.ListCurrent(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	scored := make([]ScoredFact, 0, len(facts))
	for i := range facts {
		scored = append(scored, s.scoreFact(&facts[i], now))
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].RetrievalScore > scored[j].RetrievalScore })
	return truncateFacts(scored, limit), nil
}

func (s *RetrievalService) scoreEvent(e *domain.Event, now time.Time) ScoredEvent {
	return ScoredEvent{
		Event:     *e,
		Retention: domain.Retention(e.MemoryStrength, now.Sub(e.ReviewReference())),
		Salience:  domain.Salience(e.Valence, e.Arousal),
		Priority:  domain.EventPriority(e.Importance, e.Valence, e.Arousal, now.Sub(e.OccurredAt)),
	}
}

// EmotionalHighlights surfaces events with strong emotional tags,
// most salient first.
func (s *RetrievalService) EmotionalHighlights(ctx context.Context, limit int) ([]ScoredEvent, error) {
	events, err := s.events.ListScorable(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var out []ScoredEvent
	for i := range events {
		e := &events[i]
		if !domain.EmotionalHighlight(e.Valence, e.Arousal) {
			continue
		}
		out = append(out, s.scoreEvent(e, now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Salience > out[j].Salience })
	return truncateEvents(out, limit), nil
}

// PriorityRanking orders events by the combined importance, salience
// and recency score.
func (s *RetrievalService) PriorityRanking(ctx context.Context, limit int) ([]ScoredEvent, error) {
	events, err := s.events.ListScorable(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	out := make([]ScoredEvent, 0, len(events))
	for i := range events {
		out = append(out, s.scoreEvent(&events[i], now))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return truncateEvents(out, limit), nil
}

// ForgettingRisk lists important events whose retention is collapsing,
// most at risk first.
func (s *RetrievalService) ForgettingRisk(ctx context.Context, limit int) ([]ScoredEvent, error) {
	events, err := s.events.ListScorable(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	var out []ScoredEvent
	for i := range events {
		e := &events[i]
		if e.Importance <= RiskImportanceFloor {
			continue
		}
		se := s.scoreEvent(e, now)
		if se.Retention >= RiskRetentionCeiling {
			continue
		}
		out = append(out, se)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Retention < out[j].Retention })
	return truncateEvents(out, limit), nil
}

// RetentionStats aggregates review health per consolidation state.
func (s *RetrievalService) RetentionStats(ctx context.Context) ([]domain.RetentionStat, error) {
	return s.events.RetentionStats(ctx, s.now())
}

func truncateFacts(s []ScoredFact, limit int) []ScoredFact {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

func truncateEvents(s []ScoredEvent, limit int) []ScoredEvent {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/store"
	"go.uber.org/zap"
)

// Forgetting sweep thresholds: only trivia that has genuinely faded is
// eligible. Everything important stays retrievable forever.
const (
	SweepImportanceCeiling = 0.3
	SweepRetentionFloor    = 0.1
)

// ItemRef addresses one reviewable item: an event or a lesson.
type ItemRef struct {
	Source domain.EmbedSource `json:"source_table"`
	ID     int64              `json:"source_id"`
}

// ReviewResult reports one completed review.
type ReviewResult struct {
	Source          domain.EmbedSource `json:"source_table"`
	ID              int64              `json:"source_id"`
	Quality         int                `json:"quality"`
	RetentionBefore float64            `json:"retention_before"`
	StrengthBefore  float64            `json:"strength_before"`
	StrengthAfter   float64            `json:"strength_after"`
	RepetitionCount int                `json:"repetition_count"`
	NextReviewAt    time.Time          `json:"next_review_at"`
}

// ReviewUrgency buckets due items by how far retention has fallen.
type ReviewUrgency string

const (
	UrgencyUrgent   ReviewUrgency = "urgent"
	UrgencyDue      ReviewUrgency = "due"
	UrgencyOptional ReviewUrgency = "optional"
)

func urgencyFor(retention float64) ReviewUrgency {
	switch {
	case retention < 0.3:
		return UrgencyUrgent
	case retention < 0.6:
		return UrgencyDue
	default:
		return UrgencyOptional
	}
}

// DueItem is one entry of the merged review queue.
type DueItem struct {
	Source       domain.EmbedSource `json:"source_table"`
	ID           int64              `json:"source_id"`
	Summary      string             `json:"summary"`
	Retention    float64            `json:"retention"`
	Urgency      ReviewUrgency      `json:"urgency"`
	Strength     float64            `json:"memory_strength"`
	Repetitions  int                `json:"repetition_count"`
	NextReviewAt *time.Time         `json:"next_review_at,omitempty"`
}

// SweepReport summarizes one forgetting sweep.
type SweepReport struct {
	Scanned    int     `json:"scanned"`
	Candidates []int64 `json:"candidates"`
	Forgotten  int64   `json:"forgotten"`
	DryRun     bool    `json:"dry_run"`
}

// ReviewService drives spaced-repetition scheduling for events and
// lessons, and the forgetting sweep for events.
type ReviewService struct {
	events  domain.EventStore
	lessons domain.LessonStore
	log     domain.ReviewLogStore
	logger  *zap.Logger
	now     func() time.Time
}

func NewReviewService(es domain.EventStore, ls domain.LessonStore, rl domain.ReviewLogStore, logger *zap.Logger) *ReviewService {
	return &ReviewService{events: es, lessons: ls, log: rl, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// RegisterReview applies one recall outcome. Quality is the SM-2 scale
// 0-5; 3 and above is a successful recall. The next review is scheduled
// from the fixed interval table at the new repetition count.
func (s *ReviewService) RegisterReview(ctx context.Context, ref ItemRef, quality int) (*ReviewResult, error) {
	if quality < 0 || quality > 5 {
		return nil, ErrQualityOutOfRange
	}

	now := s.now()
	switch ref.Source {
	case domain.SourceEvents:
		return s.reviewEvent(ctx, ref.ID, quality, now)
	case domain.SourceLessons:
		return s.reviewLesson(ctx, ref.ID, quality, now)
	default:
		return nil, ErrUnknownSourceTable
	}
}

func (s *ReviewService) reviewEvent(ctx context.Context, id int64, quality int, now time.Time) (*ReviewResult, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	since := now.Sub(e.ReviewReference())
	retentionBefore := domain.Retention(e.MemoryStrength, since)
	strength, reps := nextReviewState(e.MemoryStrength, e.RepetitionCount, retentionBefore, quality)
	nextAt := now.Add(domain.NextReviewInterval(reps))

	if err := s.events.UpdateReview(ctx, id, strength, reps, now, nextAt); err != nil {
		return nil, err
	}
	s.appendLog(ctx, domain.SourceEvents, id, retentionBefore, quality, since, now)

	s.logger.Info("event reviewed",
		zap.Int64("event_id", id),
		zap.Int("quality", quality),
		zap.Float64("retention_before", retentionBefore),
		zap.Int("repetition_count", reps))

	return &ReviewResult{
		Source:          domain.SourceEvents,
		ID:              id,
		Quality:         quality,
		RetentionBefore: retentionBefore,
		StrengthBefore:  e.MemoryStrength,
		StrengthAfter:   strength,
		RepetitionCount: reps,
		NextReviewAt:    nextAt,
	}, nil
}

func (s *ReviewService) reviewLesson(ctx context.Context, id int64, quality int, now time.Time) (*ReviewResult, error) {
	l, err := s.lessons.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ref := l.CreatedAt
	if l.LastReviewedAt != nil {
		ref = *l.LastReviewedAt
	}
	since := now.Sub(ref)
	retentionBefore := domain.Retention(l.MemoryStrength, since)
	strength, reps := nextReviewState(l.MemoryStrength, l.RepetitionCount, retentionBefore, quality)
	nextAt := now.Add(domain.NextReviewInterval(reps))

	if err := s.lessons.UpdateReview(ctx, id, strength, reps, now, nextAt); err != nil {
		return nil, err
	}
	s.appendLog(ctx, domain.SourceLessons, id, retentionBefore, quality, since, now)

	s.logger.Info("lesson reviewed",
		zap.Int64("lesson_id", id),
		zap.Int("quality", quality),
		zap.Float64("retention_before", retentionBefore),
		zap.Int("repetition_count", reps))

	return &ReviewResult{
		Source:          domain.SourceLessons,
		ID:              id,
		Quality:         quality,
		RetentionBefore: retentionBefore,
		StrengthBefore:  l.MemoryStrength,
		StrengthAfter:   strength,
		RepetitionCount: reps,
		NextReviewAt:    nextAt,
	}, nil
}

// nextReviewState advances (strength, repetition count) for one recall.
// Failures reset the repetition count to zero.
func nextReviewState(strength float64, repetitions int, retentionBefore float64, quality int) (float64, int) {
	newStrength := domain.ReviewStrength(strength, retentionBefore, quality)
	if quality < 3 {
		return newStrength, 0
	}
	return newStrength, repetitions + 1
}

func (s *ReviewService) appendLog(ctx context.Context, source domain.EmbedSource, id int64, retentionBefore float64, quality int, since time.Duration, now time.Time) {
	entry := &domain.ReviewLogEntry{
		SourceTable:     source,
		SourceID:        id,
		RetentionBefore: retentionBefore,
		Quality:         quality,
		HoursSinceLast:  since.Hours(),
		CreatedAt:       now,
	}
	if err := s.log.Append(ctx, entry); err != nil {
		s.logger.Warn("review log append failed",
			zap.String("source", string(source)),
			zap.Int64("source_id", id),
			zap.Error(err))
	}
}

// Due merges events and lessons whose next review has come, most
// decayed first.
func (s *ReviewService) Due(ctx context.Context, limit int) ([]DueItem, error) {
	if limit <= 0 {
		limit = 50
	}
	now := s.now()

	events, err := s.events.ListDue(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListDue(ctx, now, limit)
	if err != nil {
		return nil, err
	}

	items := make([]DueItem, 0, len(events)+len(lessons))
	for i := range events {
		e := &events[i]
		retention := domain.Retention(e.MemoryStrength, now.Sub(e.ReviewReference()))
		items = append(items, DueItem{
			Source:       domain.SourceEvents,
			ID:           e.ID,
			Summary:      e.Summary,
			Retention:    retention,
			Urgency:      urgencyFor(retention),
			Strength:     e.MemoryStrength,
			Repetitions:  e.RepetitionCount,
			NextReviewAt: e.NextReviewAt,
		})
	}
	for i := range lessons {
		l := &lessons[i]
		ref := l.CreatedAt
		if l.LastReviewedAt != nil {
			ref = *l.LastReviewedAt
		}
		retention := domain.Retention(l.MemoryStrength, now.Sub(ref))
		items = append(items, DueItem{
			Source:       domain.SourceLessons,
			ID:           l.ID,
			Summary:      l.Lesson,
			Retention:    retention,
			Urgency:      urgencyFor(retention),
			Strength:     l.MemoryStrength,
			Repetitions:  l.RepetitionCount,
			NextReviewAt: l.NextReviewAt,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Retention < items[j].Retention })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Sweep flags low-importance, fully-decayed events as forgotten. Rows
// are only flagged, never deleted; a dry run reports candidates without
// touching them.
func (s *ReviewService) Sweep(ctx context.Context, dryRun bool) (*SweepReport, error) {
	now := s.now()
	events, err := s.events.ListScorable(ctx)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{Scanned: len(events), DryRun: dryRun}
	for i := range events {
		e := &events[i]
		if e.Importance >= SweepImportanceCeiling {
			continue
		}
		retention := domain.Retention(e.MemoryStrength, now.Sub(e.ReviewReference()))
		if retention >= SweepRetentionFloor {
			continue
		}
		report.Candidates = append(report.Candidates, e.ID)
	}

	if dryRun || len(report.Candidates) == 0 {
		return report, nil
	}

	n, err := s.events.MarkForgotten(ctx, report.Candidates)
	if err != nil {
		return nil, err
	}
	report.Forgotten = n

	s.logger.Info("forgetting sweep",
		zap.Int("scanned", report.Scanned),
		zap.Int64("forgotten", n))
	return report, nil
}

// History returns the review audit trail for one item, newest first.
func (s *ReviewService) History(ctx context.Context, ref ItemRef) ([]domain.ReviewLogEntry, error) {
	switch ref.Source {
	case domain.SourceEvents, domain.SourceLessons:
		return s.log.ListBySource(ctx, ref.Source, ref.ID)
	default:
		return nil, ErrUnknownSourceTable
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/store"
	"go.uber.org/zap"
)

// DefaultSignificanceThreshold is the significance at which an event
// raises a backup signal.
const DefaultSignificanceThreshold = 8

// EventService owns the timeline: creation, access strengthening, and
// compression into memory seeds.
type EventService struct {
	events domain.EventStore
	seeds  domain.SeedStore
	queue  domain.QueueStore
	outbox domain.OutboxStore
	logger *zap.Logger

	significanceThreshold int
}

func NewEventService(es domain.EventStore, ss domain.SeedStore, qs domain.QueueStore, os domain.OutboxStore, logger *zap.Logger) *EventService {
	return &EventService{
		events:                es,
		seeds:                 ss,
		queue:                 qs,
		outbox:                os,
		logger:                logger,
		significanceThreshold: DefaultSignificanceThreshold,
	}
}

// SetSignificanceThreshold overrides the backup-signal trigger level.
func (s *EventService) SetSignificanceThreshold(t int) {
	s.significanceThreshold = t
}

type CreateEventInput struct {
	OccurredAt   *time.Time
	EventType    string
	Category     string
	Summary      string
	Details      string
	Significance int
	Importance   *float64
	Valence      *float64
	Arousal      *float64
}

func (s *EventService) CreateEvent(ctx context.Context, in CreateEventInput) (*domain.Event, error) {
	if strings.TrimSpace(in.Summary) == "" || strings.TrimSpace(in.EventType) == "" {
		return nil, ErrContentEmpty
	}
	if in.Significance < 0 || in.Significance > 10 {
		return nil, ErrSignificanceOutOfRange
	}
	importance := 0.5
	if in.Importance != nil {
		importance = *in.Importance
	}
	if importance < 0 || importance > 1 {
		return nil, ErrImportanceOutOfRange
	}
	valence := domain.DefaultValence
	if in.Valence != nil {
		valence = *in.Valence
	}
	if !validValence(valence) {
		return nil, ErrValenceOutOfRange
	}
	arousal := domain.DefaultArousal
	if in.Arousal != nil {
		arousal = *in.Arousal
	}
	if !validArousal(arousal) {
		return nil, ErrArousalOutOfRange
	}

	event := &domain.Event{
		EventType:          in.EventType,
		Category:           in.Category,
		Summary:            in.Summary,
		Details:            in.Details,
		Significance:       in.Significance,
		Importance:         importance,
		Valence:            valence,
		Arousal:            arousal,
		ConsolidationState: domain.ConsolidationWorking,
		MemoryStrength:     domain.InitialEventStrength(importance, valence),
	}
	if in.OccurredAt != nil {
		event.OccurredAt = in.OccurredAt.UTC()
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, err
	}

	text := event.Summary
	if event.Details != "" {
		text += "\n" + event.Details
	}
	if err := s.queue.Enqueue(ctx, domain.SourceEvents, event.ID, text); err != nil {
		s.logger.Warn("embedding enqueue failed", zap.Int64("event_id", event.ID), zap.Error(err))
	}

	if event.Significance >= s.significanceThreshold {
		reason := fmt.Sprintf("significant event %d: %s", event.ID, event.Summary)
		if err := s.outbox.Append(ctx, reason, domain.SourceEvents, event.ID); err != nil {
			s.logger.Warn("backup signal failed", zap.Int64("event_id", event.ID), zap.Error(err))
		}
	}

	s.logger.Info("event created",
		zap.Int64("id", event.ID),
		zap.String("type", event.EventType),
		zap.Int("significance", event.Significance))
	return event, nil
}

func (s *EventService) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *EventService) AccessEvent(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := s.events.RecordAccess(ctx, id, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return e, err
}

func (s *EventService) ListRecentEvents(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.events.ListRecent(ctx, limit)
}

// CompressEvents folds a set of events into one memory seed. The raw
// events are retained, flipped to long_term, and record which seed
// subsumed them.
func (s *EventService) CompressEvents(ctx context.Context, eventIDs []int64, summary string) (*domain.MemorySeed, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, ErrContentEmpty
	}
	if len(eventIDs) == 0 {
		return nil, ErrContentEmpty
	}
	for _, id := range eventIDs {
		if _, err := s.events.GetByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
			}
			return nil, err
		}
	}

	seed := &domain.MemorySeed{Summary: summary, EventCount: len(eventIDs)}
	if err := s.seeds.Create(ctx, seed); err != nil {
		return nil, err
	}
	if err := s.events.AssignSeed(ctx, eventIDs, seed.ID); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, domain.SourceSeeds, seed.ID, seed.Summary); err != nil {
		s.logger.Warn("embedding enqueue failed", zap.Int64("seed_id", seed.ID), zap.Error(err))
	}

	s.logger.Info("events compressed into seed",
		zap.Int64("seed_id", seed.ID),
		zap.Int("event_count", len(eventIDs)))
	return seed, nil
}

func (s *EventService) ListSeeds(ctx context.Context) ([]domain.MemorySeed, error) {
	return s.seeds.List(ctx)
}

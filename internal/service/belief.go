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

const (
	// DefaultFactConfidence matches the reflection pipeline's default
	// for approved observations.
	DefaultFactConfidence = 0.8
	// DefaultLessonConfidence matches the default for insights.
	DefaultLessonConfidence = 0.7
)

// BeliefService owns creation and read access for the three belief
// kinds, plus the entity resolution facts use for their subjects.
type BeliefService struct {
	facts    domain.FactStore
	lessons  domain.LessonStore
	values   domain.ValueStore
	entities domain.EntityStore
	queue    domain.QueueStore
	outbox   domain.OutboxStore
	logger   *zap.Logger
}

func NewBeliefService(
	fs domain.FactStore,
	ls domain.LessonStore,
	vs domain.ValueStore,
	es domain.EntityStore,
	qs domain.QueueStore,
	os domain.OutboxStore,
	logger *zap.Logger,
) *BeliefService {
	return &BeliefService{
		facts:    fs,
		lessons:  ls,
		values:   vs,
		entities: es,
		queue:    qs,
		outbox:   os,
		logger:   logger,
	}
}

func validConfidence(c float64) bool { return c >= 0 && c <= 1 }
func validValence(v float64) bool    { return v >= -1 && v <= 1 }
func validArousal(a float64) bool    { return a >= 0 && a <= 1 }

// CreateFactInput carries a new subject-predicate-object assertion.
// Valence and arousal are optional emotional tags.
type CreateFactInput struct {
	Subject    string
	Predicate  string
	Object     string
	Source     string
	Confidence *float64
	Valence    *float64
	Arousal    *float64
}

func (s *BeliefService) CreateFact(ctx context.Context, in CreateFactInput) (*domain.Fact, error) {
	if strings.TrimSpace(in.Subject) == "" {
		return nil, ErrSubjectEmpty
	}
	if strings.TrimSpace(in.Predicate) == "" || strings.TrimSpace(in.Object) == "" {
		return nil, ErrContentEmpty
	}
	confidence := DefaultFactConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if !validConfidence(confidence) {
		return nil, ErrConfidenceOutOfRange
	}
	if in.Valence != nil && !validValence(*in.Valence) {
		return nil, ErrValenceOutOfRange
	}
	if in.Arousal != nil && !validArousal(*in.Arousal) {
		return nil, ErrArousalOutOfRange
	}
	if in.Source == "" {
		in.Source = "direct"
	}

	fact := &domain.Fact{
		SubjectText:    in.Subject,
		Predicate:      in.Predicate,
		ObjectText:     in.Object,
		Confidence:     confidence,
		Source:         in.Source,
		Valence:        in.Valence,
		Arousal:        in.Arousal,
		DecayRate:      domain.BaseDecayRate,
		MemoryStrength: domain.DefaultStrength,
	}
	if in.Arousal != nil {
		fact.DecayRate = domain.DecayRateFor(*in.Arousal)
	}

	// Subject resolution: an existing entity under the canonical key
	// becomes a reference; anything else stays free text.
	entity, err := s.entities.FindByKey(ctx, domain.CanonicalKey(in.Subject))
	if err == nil {
		fact.SubjectEntityID = &entity.ID
		fact.SubjectText = entity.Name
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("resolve subject: %w", err)
	}

	if err := s.facts.Create(ctx, fact); err != nil {
		return nil, err
	}

	s.enqueueForEmbedding(ctx, domain.SourceFacts, fact.ID, fact.Sentence())
	s.signalIfSalient(ctx, domain.SourceFacts, fact.ID, fact.Valence, fact.Arousal)

	s.logger.Info("fact created",
		zap.Int64("id", fact.ID),
		zap.String("subject", fact.SubjectText),
		zap.String("predicate", fact.Predicate))
	return fact, nil
}

type CreateLessonInput struct {
	Domain     string
	Lesson     string
	Context    string
	Source     string
	Confidence *float64
	Valence    *float64
	Arousal    *float64
}

func (s *BeliefService) CreateLesson(ctx context.Context, in CreateLessonInput) (*domain.Lesson, error) {
	if strings.TrimSpace(in.Lesson) == "" {
		return nil, ErrContentEmpty
	}
	confidence := DefaultLessonConfidence
	if in.Confidence != nil {
		confidence = *in.Confidence
	}
	if !validConfidence(confidence) {
		return nil, ErrConfidenceOutOfRange
	}
	if in.Valence != nil && !validValence(*in.Valence) {
		return nil, ErrValenceOutOfRange
	}
	if in.Arousal != nil && !validArousal(*in.Arousal) {
		return nil, ErrArousalOutOfRange
	}
	if in.Domain == "" {
		in.Domain = "general"
	}
	if in.Source == "" {
		in.Source = "learned"
	}

	lesson := &domain.Lesson{
		Domain:         in.Domain,
		Lesson:         in.Lesson,
		Context:        in.Context,
		Confidence:     confidence,
		Source:         in.Source,
		Valence:        in.Valence,
		Arousal:        in.Arousal,
		MemoryStrength: domain.DefaultStrength,
	}
	if err := s.lessons.Create(ctx, lesson); err != nil {
		return nil, err
	}

	s.enqueueForEmbedding(ctx, domain.SourceLessons, lesson.ID, lesson.Lesson)
	s.signalIfSalient(ctx, domain.SourceLessons, lesson.ID, lesson.Valence, lesson.Arousal)

	s.logger.Info("lesson created",
		zap.Int64("id", lesson.ID),
		zap.String("domain", lesson.Domain))
	return lesson, nil
}

type CreateValueInput struct {
	Name        string
	Description string
	Priority    int
	Source      string
}

func (s *BeliefService) CreateValue(ctx context.Context, in CreateValueInput) (*domain.Value, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Description) == "" {
		return nil, ErrContentEmpty
	}
	if in.Priority < 0 || in.Priority > 100 {
		return nil, ErrPriorityOutOfRange
	}
	if in.Source == "" {
		in.Source = "axionic"
	}

	value := &domain.Value{
		Name:        in.Name,
		Description: in.Description,
		Priority:    in.Priority,
		Source:      in.Source,
	}
	if err := s.values.Create(ctx, value); err != nil {
		return nil, err
	}

	s.logger.Info("value created",
		zap.Int64("id", value.ID),
		zap.String("name", value.Name),
		zap.Int("priority", value.Priority))
	return value, nil
}

func (s *BeliefService) GetFact(ctx context.Context, id int64) (*domain.Fact, error) {
	f, err := s.facts.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *BeliefService) GetLesson(ctx context.Context, id int64) (*domain.Lesson, error) {
	l, err := s.lessons.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return l, err
}

func (s *BeliefService) GetValue(ctx context.Context, id int64) (*domain.Value, error) {
	v, err := s.values.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return v, err
}

func (s *BeliefService) ListCurrentFacts(ctx context.Context, subject string) ([]domain.Fact, error) {
	if subject == "" {
		return s.facts.ListCurrent(ctx)
	}
	entity, err := s.entities.FindByKey(ctx, domain.CanonicalKey(subject))
	if err == nil {
		return s.facts.ListCurrentBySubject(ctx, &entity.ID, "")
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return s.facts.ListCurrentBySubject(ctx, nil, subject)
}

func (s *BeliefService) ListCurrentLessons(ctx context.Context, dom string) ([]domain.Lesson, error) {
	if dom == "" {
		return s.lessons.ListCurrent(ctx)
	}
	return s.lessons.ListCurrentByDomain(ctx, dom)
}

func (s *BeliefService) ListCurrentValues(ctx context.Context) ([]domain.Value, error) {
	return s.values.ListCurrent(ctx)
}

// AccessFact is the read path that strengthens: every access bump
// refreshes last_accessed_at and nudges memory_strength upward.
func (s *BeliefService) AccessFact(ctx context.Context, id int64) (*domain.Fact, error) {
	f, err := s.facts.RecordAccess(ctx, id, time.Now().UTC())
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return f, err
}

// RetagFactEmotion re-tags a fact's emotional weighting, which also
// reactively adjusts its decay rate.
func (s *BeliefService) RetagFactEmotion(ctx context.Context, id int64, valence, arousal float64) (*domain.Fact, error) {
	if !validValence(valence) {
		return nil, ErrValenceOutOfRange
	}
	if !validArousal(arousal) {
		return nil, ErrArousalOutOfRange
	}

	decayRate := domain.DecayRateFor(arousal)
	if err := s.facts.UpdateEmotion(ctx, id, valence, arousal, decayRate); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.signalIfSalient(ctx, domain.SourceFacts, id, &valence, &arousal)
	return s.facts.GetByID(ctx, id)
}

func (s *BeliefService) CreateEntity(ctx context.Context, name, entityType, description string) (*domain.Entity, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrContentEmpty
	}
	entity := &domain.Entity{
		Name:        name,
		EntityType:  entityType,
		Description: description,
	}
	if err := s.entities.Create(ctx, entity); err != nil {
		return nil, err
	}
	text := entity.Name
	if entity.Description != "" {
		text += ": " + entity.Description
	}
	s.enqueueForEmbedding(ctx, domain.SourceEntities, entity.ID, text)
	return entity, nil
}

func (s *BeliefService) ListEntities(ctx context.Context) ([]domain.Entity, error) {
	return s.entities.List(ctx)
}

// Queue and outbox writes are best-effort side channels: a failure is
// logged, never propagated into the primary write's result.
func (s *BeliefService) enqueueForEmbedding(ctx context.Context, source domain.EmbedSource, id int64, text string) {
	if err := s.queue.Enqueue(ctx, source, id, text); err != nil {
		s.logger.Warn("embedding enqueue failed",
			zap.String("source", string(source)),
			zap.Int64("id", id),
			zap.Error(err))
	}
}

func (s *BeliefService) signalIfSalient(ctx context.Context, source domain.EmbedSource, id int64, valence, arousal *float64) {
	v, a := domain.EmotionOrDefault(valence, arousal)
	if !domain.HighSalience(v, a) {
		return
	}
	reason := fmt.Sprintf("high emotional salience on %s:%d (valence=%.2f arousal=%.2f)", source, id, v, a)
	if err := s.outbox.Append(ctx, reason, source, id); err != nil {
		s.logger.Warn("backup signal failed", zap.Error(err))
	}
}

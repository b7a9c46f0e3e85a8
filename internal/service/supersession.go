package service

import (
	"context"
	"errors"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
	"github.com/mnemoslab/mnemos/internal/store"
	"go.uber.org/zap"
)

// GenealogyDepthCap bounds chain traversal. Chains are acyclic by
// construction; hitting the cap means the data is corrupt.
const GenealogyDepthCap = 10000

// SupersessionService replaces current beliefs while preserving full
// provenance, and reconstructs version history.
type SupersessionService struct {
	facts   domain.FactStore
	lessons domain.LessonStore
	values  domain.ValueStore
	queue   domain.QueueStore
	logger  *zap.Logger
}

func NewSupersessionService(fs domain.FactStore, ls domain.LessonStore, vs domain.ValueStore, qs domain.QueueStore, logger *zap.Logger) *SupersessionService {
	return &SupersessionService{facts: fs, lessons: ls, values: vs, queue: qs, logger: logger}
}

func mapSupersedeErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrAlreadySuperseded
	default:
		return err
	}
}

// SupersedeFact replaces a current fact's object, keeping its subject
// and predicate. Calling it again on the same old id fails: the first
// call's effects are never altered by a retry.
func (s *SupersessionService) SupersedeFact(ctx context.Context, oldID int64, newObject, source string, confidence *float64) (*domain.Fact, error) {
	if newObject == "" {
		return nil, ErrContentEmpty
	}
	if confidence != nil && !validConfidence(*confidence) {
		return nil, ErrConfidenceOutOfRange
	}

	old, err := s.facts.GetByID(ctx, oldID)
	if err != nil {
		return nil, mapSupersedeErr(err)
	}
	if !old.Current() {
		return nil, ErrAlreadySuperseded
	}

	replacement := &domain.Fact{
		SubjectEntityID: old.SubjectEntityID,
		SubjectText:     old.SubjectText,
		Predicate:       old.Predicate,
		ObjectText:      newObject,
		Confidence:      old.Confidence,
		Source:          source,
		Valence:         old.Valence,
		Arousal:         old.Arousal,
		DecayRate:       old.DecayRate,
		MemoryStrength:  domain.DefaultStrength,
	}
	if confidence != nil {
		replacement.Confidence = *confidence
	}
	if source == "" {
		replacement.Source = old.Source
	}

	if err := s.facts.Supersede(ctx, oldID, replacement, time.Now().UTC()); err != nil {
		return nil, mapSupersedeErr(err)
	}

	if err := s.queue.Enqueue(ctx, domain.SourceFacts, replacement.ID, replacement.Sentence()); err != nil {
		s.logger.Warn("embedding enqueue failed", zap.Int64("fact_id", replacement.ID), zap.Error(err))
	}

	s.logger.Info("fact superseded",
		zap.Int64("old_id", oldID),
		zap.Int64("new_id", replacement.ID))
	return replacement, nil
}

// SupersedeLesson replaces a current lesson's text, keeping its domain.
func (s *SupersessionService) SupersedeLesson(ctx context.Context, oldID int64, newLesson, source string, confidence *float64) (*domain.Lesson, error) {
	if newLesson == "" {
		return nil, ErrContentEmpty
	}
	if confidence != nil && !validConfidence(*confidence) {
		return nil, ErrConfidenceOutOfRange
	}

	old, err := s.lessons.GetByID(ctx, oldID)
	if err != nil {
		return nil, mapSupersedeErr(err)
	}
	if !old.Current() {
		return nil, ErrAlreadySuperseded
	}

	replacement := &domain.Lesson{
		Domain:         old.Domain,
		Lesson:         newLesson,
		Context:        old.Context,
		Confidence:     old.Confidence,
		Source:         source,
		Valence:        old.Valence,
		Arousal:        old.Arousal,
		MemoryStrength: domain.DefaultStrength,
	}
	if confidence != nil {
		replacement.Confidence = *confidence
	}
	if source == "" {
		replacement.Source = old.Source
	}

	if err := s.lessons.Supersede(ctx, oldID, replacement, time.Now().UTC()); err != nil {
		return nil, mapSupersedeErr(err)
	}

	if err := s.queue.Enqueue(ctx, domain.SourceLessons, replacement.ID, replacement.Lesson); err != nil {
		s.logger.Warn("embedding enqueue failed", zap.Int64("lesson_id", replacement.ID), zap.Error(err))
	}

	s.logger.Info("lesson superseded",
		zap.Int64("old_id", oldID),
		zap.Int64("new_id", replacement.ID))
	return replacement, nil
}

// SupersedeValue replaces a current value's description (and
// optionally its priority), keeping its name.
func (s *SupersessionService) SupersedeValue(ctx context.Context, oldID int64, newDescription, source string, priority *int) (*domain.Value, error) {
	if newDescription == "" {
		return nil, ErrContentEmpty
	}
	if priority != nil && (*priority < 0 || *priority > 100) {
		return nil, ErrPriorityOutOfRange
	}

	old, err := s.values.GetByID(ctx, oldID)
	if err != nil {
		return nil, mapSupersedeErr(err)
	}
	if !old.Current() {
		return nil, ErrAlreadySuperseded
	}

	replacement := &domain.Value{
		Name:        old.Name,
		Description: newDescription,
		Priority:    old.Priority,
		Source:      source,
	}
	if priority != nil {
		replacement.Priority = *priority
	}
	if source == "" {
		replacement.Source = old.Source
	}

	if err := s.values.Supersede(ctx, oldID, replacement, time.Now().UTC()); err != nil {
		return nil, mapSupersedeErr(err)
	}

	s.logger.Info("value superseded",
		zap.Int64("old_id", oldID),
		zap.Int64("new_id", replacement.ID))
	return replacement, nil
}

// chainNode is the kind-independent projection genealogy walks over.
type chainNode struct {
	ID           int64
	Content      string
	Source       string
	CreatedAt    time.Time
	ValidUntil   *time.Time
	SupersededBy *int64
}

// chainAccessor parameterizes the one generic traversal per kind:
// lookup by id and lookup of the previous generation (the row whose
// superseded_by pointer is the given id).
type chainAccessor struct {
	get         func(ctx context.Context, id int64) (*chainNode, error)
	predecessor func(ctx context.Context, id int64) (*chainNode, error)
}

func (s *SupersessionService) factAccessor() chainAccessor {
	project := func(f *domain.Fact) *chainNode {
		return &chainNode{
			ID:           f.ID,
			Content:      f.Sentence(),
			Source:       f.Source,
			CreatedAt:    f.CreatedAt,
			ValidUntil:   f.ValidUntil,
			SupersededBy: f.SupersededBy,
		}
	}
	return chainAccessor{
		get: func(ctx context.Context, id int64) (*chainNode, error) {
			f, err := s.facts.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(f), nil
		},
		predecessor: func(ctx context.Context, id int64) (*chainNode, error) {
			f, err := s.facts.GetSupersededBy(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(f), nil
		},
	}
}

func (s *SupersessionService) lessonAccessor() chainAccessor {
	project := func(l *domain.Lesson) *chainNode {
		return &chainNode{
			ID:           l.ID,
			Content:      l.Lesson,
			Source:       l.Source,
			CreatedAt:    l.CreatedAt,
			ValidUntil:   l.ValidUntil,
			SupersededBy: l.SupersededBy,
		}
	}
	return chainAccessor{
		get: func(ctx context.Context, id int64) (*chainNode, error) {
			l, err := s.lessons.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(l), nil
		},
		predecessor: func(ctx context.Context, id int64) (*chainNode, error) {
			l, err := s.lessons.GetSupersededBy(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(l), nil
		},
	}
}

func (s *SupersessionService) valueAccessor() chainAccessor {
	project := func(v *domain.Value) *chainNode {
		return &chainNode{
			ID:           v.ID,
			Content:      v.Name + ": " + v.Description,
			Source:       v.Source,
			CreatedAt:    v.CreatedAt,
			ValidUntil:   v.ValidUntil,
			SupersededBy: v.SupersededBy,
		}
	}
	return chainAccessor{
		get: func(ctx context.Context, id int64) (*chainNode, error) {
			v, err := s.values.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(v), nil
		},
		predecessor: func(ctx context.Context, id int64) (*chainNode, error) {
			v, err := s.values.GetSupersededBy(ctx, id)
			if err != nil {
				return nil, err
			}
			return project(v), nil
		},
	}
}

// Genealogy reconstructs a belief's full version chain, oldest first,
// with generation 0 as the newest entry. On a depth-cap breach the
// bounded partial chain is returned alongside ErrChainTooDeep.
func (s *SupersessionService) Genealogy(ctx context.Context, kind domain.BeliefKind, id int64) ([]domain.GenealogyEntry, error) {
	var acc chainAccessor
	switch kind {
	case domain.KindFact:
		acc = s.factAccessor()
	case domain.KindLesson:
		acc = s.lessonAccessor()
	case domain.KindValue:
		acc = s.valueAccessor()
	default:
		return nil, ErrUnknownSourceTable
	}

	start, err := acc.get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	visited := map[int64]bool{start.ID: true}
	chain := []*chainNode{start} // newest-last while walking forward

	// Forward: toward the current generation.
	node := start
	for node.SupersededBy != nil {
		if len(visited) >= GenealogyDepthCap {
			return assembleGenealogy(chain), ErrChainTooDeep
		}
		next, err := acc.get(ctx, *node.SupersededBy)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if visited[next.ID] {
			return assembleGenealogy(chain), ErrChainTooDeep
		}
		visited[next.ID] = true
		chain = append(chain, next)
		node = next
	}

	// Backward: toward the oldest generation.
	node = start
	for {
		if len(visited) >= GenealogyDepthCap {
			return assembleGenealogy(chain), ErrChainTooDeep
		}
		prev, err := acc.predecessor(ctx, node.ID)
		if errors.Is(err, store.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		if visited[prev.ID] {
			return assembleGenealogy(chain), ErrChainTooDeep
		}
		visited[prev.ID] = true
		chain = append([]*chainNode{prev}, chain...)
		node = prev
	}

	return assembleGenealogy(chain), nil
}

// assembleGenealogy numbers an oldest-first chain: the last element is
// generation 0, the first is generation len-1.
func assembleGenealogy(chain []*chainNode) []domain.GenealogyEntry {
	entries := make([]domain.GenealogyEntry, 0, len(chain))
	for i, node := range chain {
		status := domain.StatusSuperseded
		if node.ValidUntil == nil {
			status = domain.StatusActive
		}
		entries = append(entries, domain.GenealogyEntry{
			Generation:   len(chain) - 1 - i,
			ID:           node.ID,
			Content:      node.Content,
			Source:       node.Source,
			Status:       status,
			CreatedAt:    node.CreatedAt,
			ValidUntil:   node.ValidUntil,
			SupersededBy: node.SupersededBy,
		})
	}
	return entries
}

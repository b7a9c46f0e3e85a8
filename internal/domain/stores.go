package domain

import (
	"context"
	"time"
)

type FactStore interface {
	Create(ctx context.Context, f *Fact) error
	GetByID(ctx context.Context, id int64) (*Fact, error)
	ListCurrent(ctx context.Context) ([]Fact, error)
	ListCurrentBySubject(ctx context.Context, entityID *int64, subjectText string) ([]Fact, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]Fact, error)
	// Supersede inserts the replacement and closes the old row's
	// validity window in one transaction. ErrConflict if the old row
	// is no longer current.
	Supersede(ctx context.Context, oldID int64, replacement *Fact, at time.Time) error
	// GetSupersededBy returns the row whose superseded_by pointer is
	// the given id, i.e. the previous generation.
	GetSupersededBy(ctx context.Context, id int64) (*Fact, error)
	RecordAccess(ctx context.Context, id int64, at time.Time) (*Fact, error)
	UpdateEmotion(ctx context.Context, id int64, valence, arousal, decayRate float64) error
}

type LessonStore interface {
	Create(ctx context.Context, l *Lesson) error
	GetByID(ctx context.Context, id int64) (*Lesson, error)
	ListCurrent(ctx context.Context) ([]Lesson, error)
	ListCurrentByDomain(ctx context.Context, domain string) ([]Lesson, error)
	Supersede(ctx context.Context, oldID int64, replacement *Lesson, at time.Time) error
	GetSupersededBy(ctx context.Context, id int64) (*Lesson, error)
	UpdateReview(ctx context.Context, id int64, strength float64, repetitionCount int, reviewedAt, nextReviewAt time.Time) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]Lesson, error)
}

type ValueStore interface {
	Create(ctx context.Context, v *Value) error
	GetByID(ctx context.Context, id int64) (*Value, error)
	ListCurrent(ctx context.Context) ([]Value, error)
	Supersede(ctx context.Context, oldID int64, replacement *Value, at time.Time) error
	GetSupersededBy(ctx context.Context, id int64) (*Value, error)
}

// RetentionStat aggregates review health per consolidation state.
type RetentionStat struct {
	State          ConsolidationState `json:"state"`
	Count          int                `json:"count"`
	AvgStrength    float64            `json:"avg_strength"`
	AvgRepetitions float64            `json:"avg_repetitions"`
	AvgImportance  float64            `json:"avg_importance"`
	Overdue        int                `json:"overdue"`
}

type EventStore interface {
	Create(ctx context.Context, e *Event) error
	GetByID(ctx context.Context, id int64) (*Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
	// ListScorable returns every event not marked forgotten; decay
	// tier and retention are recomputed in Go at read time.
	ListScorable(ctx context.Context) ([]Event, error)
	ListWindow(ctx context.Context, from, to time.Time) ([]Event, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]Event, error)
	RecordAccess(ctx context.Context, id int64, at time.Time) (*Event, error)
	UpdateReview(ctx context.Context, id int64, strength float64, repetitionCount int, reviewedAt, nextReviewAt time.Time) error
	MarkForgotten(ctx context.Context, ids []int64) (int64, error)
	AssignSeed(ctx context.Context, eventIDs []int64, seedID int64) error
	RetentionStats(ctx context.Context, now time.Time) ([]RetentionStat, error)
}

type EntityStore interface {
	Create(ctx context.Context, e *Entity) error
	GetByID(ctx context.Context, id int64) (*Entity, error)
	FindByKey(ctx context.Context, canonicalKey string) (*Entity, error)
	List(ctx context.Context) ([]Entity, error)
}

type SeedStore interface {
	Create(ctx context.Context, s *MemorySeed) error
	GetByID(ctx context.Context, id int64) (*MemorySeed, error)
	List(ctx context.Context) ([]MemorySeed, error)
}

type QueueStore interface {
	// Enqueue upserts on (source_table, source_id), resetting status
	// to pending. The core never blocks on the worker.
	Enqueue(ctx context.Context, source EmbedSource, sourceID int64, text string) error
	ListPending(ctx context.Context, limit int) ([]EmbeddingJob, error)
	SetStatus(ctx context.Context, id int64, status QueueStatus, errorMessage string) error
	Stats(ctx context.Context) (map[QueueStatus]int, error)
}

type OutboxStore interface {
	Append(ctx context.Context, reason string, source EmbedSource, sourceID int64) error
	ListPending(ctx context.Context) ([]BackupSignal, error)
	Acknowledge(ctx context.Context, id int64) error
}

type ReviewLogStore interface {
	Append(ctx context.Context, entry *ReviewLogEntry) error
	ListBySource(ctx context.Context, source EmbedSource, sourceID int64) ([]ReviewLogEntry, error)
}

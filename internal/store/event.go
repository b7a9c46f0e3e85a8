package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type EventStore struct {
	db *DB
}

func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const eventColumns = `id, occurred_at, event_type, category, summary, details,
	significance, importance, valence, arousal,
	consolidation_state, subsumed_by_seed_id,
	repetition_count, memory_strength, access_count,
	last_accessed_at, last_reviewed_at, next_review_at, created_at`

func scanEvent(row interface{ Scan(...any) error }) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		occurredAt   int64
		state        string
		seedID       sql.NullInt64
		lastAccessed sql.NullInt64
		lastReviewed sql.NullInt64
		nextReview   sql.NullInt64
		createdAt    int64
	)
	err := row.Scan(
		&e.ID, &occurredAt, &e.EventType, &e.Category, &e.Summary, &e.Details,
		&e.Significance, &e.Importance, &e.Valence, &e.Arousal,
		&state, &seedID,
		&e.RepetitionCount, &e.MemoryStrength, &e.AccessCount,
		&lastAccessed, &lastReviewed, &nextReview, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	e.OccurredAt = fromMillis(occurredAt)
	e.ConsolidationState = domain.ConsolidationState(state)
	e.SubsumedBySeedID = intPtr(seedID)
	e.LastAccessedAt = timePtr(lastAccessed)
	e.LastReviewedAt = timePtr(lastReviewed)
	e.NextReviewAt = timePtr(nextReview)
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func (s *EventStore) Create(ctx context.Context, e *domain.Event) error {
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	if e.ConsolidationState == "" {
		e.ConsolidationState = domain.ConsolidationWorking
	}
	if e.MemoryStrength == 0 {
		e.MemoryStrength = domain.InitialEventStrength(e.Importance, e.Valence)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (occurred_at, event_type, category, summary, details,
			significance, importance, valence, arousal,
			consolidation_state, repetition_count, memory_strength, access_count,
			last_accessed_at, last_reviewed_at, next_review_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		millis(e.OccurredAt), e.EventType, e.Category, e.Summary, e.Details,
		e.Significance, e.Importance, e.Valence, e.Arousal,
		string(e.ConsolidationState), e.RepetitionCount, e.MemoryStrength, e.AccessCount,
		nullMillis(e.LastAccessedAt), nullMillis(e.LastReviewedAt), nullMillis(e.NextReviewAt),
		millis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (s *EventStore) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EventStore) ListRecent(ctx context.Context, limit int) ([]domain.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY occurred_at DESC, id DESC LIMIT ?`, limit)
}

func (s *EventStore) ListScorable(ctx context.Context) ([]domain.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE consolidation_state != 'forgotten'
		 ORDER BY occurred_at DESC, id DESC`)
}

func (s *EventStore) ListWindow(ctx context.Context, from, to time.Time) ([]domain.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE occurred_at >= ? AND occurred_at < ?
		 ORDER BY occurred_at, id`, millis(from), millis(to))
}

func (s *EventStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Event, error) {
	return s.list(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE consolidation_state != 'forgotten'
		   AND next_review_at IS NOT NULL AND next_review_at <= ?
		 ORDER BY next_review_at
		 LIMIT ?`, millis(now), limit)
}

func (s *EventStore) list(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []domain.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) RecordAccess(ctx context.Context, id int64, at time.Time) (*domain.Event, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET
			access_count = access_count + 1,
			last_accessed_at = ?,
			memory_strength = MIN(?, memory_strength * ?)
		 WHERE id = ?`,
		millis(at), domain.MaxMemoryStrength, domain.AccessBoostFactor, id)
	if err != nil {
		return nil, fmt.Errorf("record event access: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

func (s *EventStore) UpdateReview(ctx context.Context, id int64, strength float64, repetitionCount int, reviewedAt, nextReviewAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET memory_strength = ?, repetition_count = ?,
			last_reviewed_at = ?, next_review_at = ?
		 WHERE id = ?`,
		strength, repetitionCount, millis(reviewedAt), millis(nextReviewAt), id)
	if err != nil {
		return fmt.Errorf("update event review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkForgotten flips consolidation state; rows are retained.
func (s *EventStore) MarkForgotten(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET consolidation_state = 'forgotten'
		 WHERE id IN (`+placeholders+`) AND consolidation_state != 'forgotten'`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("mark forgotten: %w", err)
	}
	return res.RowsAffected()
}

// AssignSeed marks events as compressed into a seed: long_term state
// plus a pointer to the subsuming seed. Raw rows stay.
func (s *EventStore) AssignSeed(ctx context.Context, eventIDs []int64, seedID int64) error {
	if len(eventIDs) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(eventIDs)), ",")
	args := make([]any, 0, len(eventIDs)+1)
	args = append(args, seedID)
	for _, id := range eventIDs {
		args = append(args, id)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE events SET consolidation_state = 'long_term', subsumed_by_seed_id = ?
		 WHERE id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("assign seed: %w", err)
	}
	return nil
}

func (s *EventStore) RetentionStats(ctx context.Context, now time.Time) ([]domain.RetentionStat, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT consolidation_state, COUNT(*),
			AVG(memory_strength), AVG(repetition_count), AVG(importance),
			SUM(CASE WHEN next_review_at IS NOT NULL AND next_review_at <= ? THEN 1 ELSE 0 END)
		 FROM events
		 GROUP BY consolidation_state
		 ORDER BY consolidation_state`,
		millis(now))
	if err != nil {
		return nil, fmt.Errorf("retention stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.RetentionStat
	for rows.Next() {
		var st domain.RetentionStat
		var state string
		if err := rows.Scan(&state, &st.Count, &st.AvgStrength, &st.AvgRepetitions, &st.AvgImportance, &st.Overdue); err != nil {
			return nil, fmt.Errorf("scan retention stat: %w", err)
		}
		st.State = domain.ConsolidationState(state)
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

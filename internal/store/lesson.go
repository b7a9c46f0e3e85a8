package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type LessonStore struct {
	db *DB
}

func NewLessonStore(db *DB) *LessonStore {
	return &LessonStore{db: db}
}

const lessonColumns = `id, domain, lesson, context, confidence, source,
	valence, arousal,
	memory_strength, repetition_count, last_reviewed_at, next_review_at,
	created_at, valid_until, superseded_by`

func scanLesson(row interface{ Scan(...any) error }) (*domain.Lesson, error) {
	l := &domain.Lesson{}
	var (
		valence      sql.NullFloat64
		arousal      sql.NullFloat64
		lastReviewed sql.NullInt64
		nextReview   sql.NullInt64
		createdAt    int64
		validUntil   sql.NullInt64
		supersededBy sql.NullInt64
	)
	err := row.Scan(
		&l.ID, &l.Domain, &l.Lesson, &l.Context, &l.Confidence, &l.Source,
		&valence, &arousal,
		&l.MemoryStrength, &l.RepetitionCount, &lastReviewed, &nextReview,
		&createdAt, &validUntil, &supersededBy,
	)
	if err != nil {
		return nil, err
	}
	l.Valence = floatPtr(valence)
	l.Arousal = floatPtr(arousal)
	l.LastReviewedAt = timePtr(lastReviewed)
	l.NextReviewAt = timePtr(nextReview)
	l.CreatedAt = fromMillis(createdAt)
	l.ValidUntil = timePtr(validUntil)
	l.SupersededBy = intPtr(supersededBy)
	return l, nil
}

func (s *LessonStore) Create(ctx context.Context, l *domain.Lesson) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	if l.MemoryStrength == 0 {
		l.MemoryStrength = domain.DefaultStrength
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO lessons (domain, lesson, context, confidence, source,
			valence, arousal, memory_strength, repetition_count,
			last_reviewed_at, next_review_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.Domain, l.Lesson, l.Context, l.Confidence, l.Source,
		nullFloat(l.Valence), nullFloat(l.Arousal), l.MemoryStrength, l.RepetitionCount,
		nullMillis(l.LastReviewedAt), nullMillis(l.NextReviewAt), millis(l.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

func (s *LessonStore) GetByID(ctx context.Context, id int64) (*domain.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *LessonStore) ListCurrent(ctx context.Context) ([]domain.Lesson, error) {
	return s.list(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE valid_until IS NULL ORDER BY created_at, id`)
}

func (s *LessonStore) ListCurrentByDomain(ctx context.Context, dom string) ([]domain.Lesson, error) {
	return s.list(ctx,
		`SELECT `+lessonColumns+` FROM lessons
		 WHERE valid_until IS NULL AND domain = ?
		 ORDER BY created_at, id`, dom)
}

func (s *LessonStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Lesson, error) {
	return s.list(ctx,
		`SELECT `+lessonColumns+` FROM lessons
		 WHERE valid_until IS NULL AND next_review_at IS NOT NULL AND next_review_at <= ?
		 ORDER BY next_review_at
		 LIMIT ?`, millis(now), limit)
}

func (s *LessonStore) list(ctx context.Context, query string, args ...any) ([]domain.Lesson, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query lessons: %w", err)
	}
	defer rows.Close()

	var lessons []domain.Lesson
	for rows.Next() {
		l, err := scanLesson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, *l)
	}
	return lessons, rows.Err()
}

func (s *LessonStore) Supersede(ctx context.Context, oldID int64, replacement *domain.Lesson, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	var validUntil sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT valid_until FROM lessons WHERE id = ?`, oldID).Scan(&validUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if validUntil.Valid {
		return ErrConflict
	}

	replacement.CreatedAt = at
	if replacement.MemoryStrength == 0 {
		replacement.MemoryStrength = domain.DefaultStrength
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO lessons (domain, lesson, context, confidence, source,
			valence, arousal, memory_strength, repetition_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		replacement.Domain, replacement.Lesson, replacement.Context,
		replacement.Confidence, replacement.Source,
		nullFloat(replacement.Valence), nullFloat(replacement.Arousal),
		replacement.MemoryStrength, millis(at),
	)
	if err != nil {
		return fmt.Errorf("insert replacement lesson: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	upd, err := tx.ExecContext(ctx,
		`UPDATE lessons SET valid_until = ?, superseded_by = ? WHERE id = ? AND valid_until IS NULL`,
		millis(at), newID, oldID)
	if err != nil {
		return fmt.Errorf("close superseded lesson: %w", err)
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit supersede: %w", err)
	}
	replacement.ID = newID
	return nil
}

func (s *LessonStore) GetSupersededBy(ctx context.Context, id int64) (*domain.Lesson, error) {
	l, err := scanLesson(s.db.QueryRowContext(ctx,
		`SELECT `+lessonColumns+` FROM lessons WHERE superseded_by = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *LessonStore) UpdateReview(ctx context.Context, id int64, strength float64, repetitionCount int, reviewedAt, nextReviewAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE lessons SET memory_strength = ?, repetition_count = ?,
			last_reviewed_at = ?, next_review_at = ?
		 WHERE id = ?`,
		strength, repetitionCount, millis(reviewedAt), millis(nextReviewAt), id)
	if err != nil {
		return fmt.Errorf("update lesson review: %w", err)
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

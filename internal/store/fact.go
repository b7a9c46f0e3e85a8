package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type FactStore struct {
	db *DB
}

func NewFactStore(db *DB) *FactStore {
	return &FactStore{db: db}
}

const factColumns = `id, subject_entity_id, subject_text, predicate, object_text,
	confidence, source, valence, arousal,
	access_count, last_accessed_at, decay_rate, memory_strength,
	created_at, valid_until, superseded_by`

func scanFact(row interface{ Scan(...any) error }) (*domain.Fact, error) {
	f := &domain.Fact{}
	var (
		subjectEntity sql.NullInt64
		valence       sql.NullFloat64
		arousal       sql.NullFloat64
		lastAccessed  sql.NullInt64
		createdAt     int64
		validUntil    sql.NullInt64
		supersededBy  sql.NullInt64
	)
	err := row.Scan(
		&f.ID, &subjectEntity, &f.SubjectText, &f.Predicate, &f.ObjectText,
		&f.Confidence, &f.Source, &valence, &arousal,
		&f.AccessCount, &lastAccessed, &f.DecayRate, &f.MemoryStrength,
		&createdAt, &validUntil, &supersededBy,
	)
	if err != nil {
		return nil, err
	}
	f.SubjectEntityID = intPtr(subjectEntity)
	f.Valence = floatPtr(valence)
	f.Arousal = floatPtr(arousal)
	f.LastAccessedAt = timePtr(lastAccessed)
	f.CreatedAt = fromMillis(createdAt)
	f.ValidUntil = timePtr(validUntil)
	f.SupersededBy = intPtr(supersededBy)
	return f, nil
}

func (s *FactStore) Create(ctx context.Context, f *domain.Fact) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (subject_entity_id, subject_text, predicate, object_text,
			confidence, source, valence, arousal,
			access_count, last_accessed_at, decay_rate, memory_strength, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt(f.SubjectEntityID), f.SubjectText, f.Predicate, f.ObjectText,
		f.Confidence, f.Source, nullFloat(f.Valence), nullFloat(f.Arousal),
		f.AccessCount, nullMillis(f.LastAccessedAt), f.DecayRate, f.MemoryStrength,
		millis(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	f.ID, err = res.LastInsertId()
	return err
}

func (s *FactStore) GetByID(ctx context.Context, id int64) (*domain.Fact, error) {
	f, err := scanFact(s.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM facts WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *FactStore) ListCurrent(ctx context.Context) ([]domain.Fact, error) {
	return s.list(ctx,
		`SELECT `+factColumns+` FROM facts WHERE valid_until IS NULL ORDER BY created_at, id`)
}

func (s *FactStore) ListCurrentBySubject(ctx context.Context, entityID *int64, subjectText string) ([]domain.Fact, error) {
	if entityID != nil {
		return s.list(ctx,
			`SELECT `+factColumns+` FROM facts
			 WHERE valid_until IS NULL AND subject_entity_id = ?
			 ORDER BY created_at, id`, *entityID)
	}
	return s.list(ctx,
		`SELECT `+factColumns+` FROM facts
		 WHERE valid_until IS NULL AND subject_text = ?
		 ORDER BY created_at, id`, subjectText)
}

func (s *FactStore) ListWindow(ctx context.Context, from, to time.Time) ([]domain.Fact, error) {
	return s.list(ctx,
		`SELECT `+factColumns+` FROM facts
		 WHERE created_at >= ? AND created_at < ?
		 ORDER BY created_at, id`, millis(from), millis(to))
}

func (s *FactStore) list(ctx context.Context, query string, args ...any) ([]domain.Fact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	var facts []domain.Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// Supersede inserts the replacement and closes the old row's validity
// window in one transaction. Both writes land or neither does.
func (s *FactStore) Supersede(ctx context.Context, oldID int64, replacement *domain.Fact, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	var validUntil sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT valid_until FROM facts WHERE id = ?`, oldID).Scan(&validUntil)
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
	res, err := tx.ExecContext(ctx,
		`INSERT INTO facts (subject_entity_id, subject_text, predicate, object_text,
			confidence, source, valence, arousal,
			access_count, decay_rate, memory_strength, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		nullInt(replacement.SubjectEntityID), replacement.SubjectText, replacement.Predicate,
		replacement.ObjectText, replacement.Confidence, replacement.Source,
		nullFloat(replacement.Valence), nullFloat(replacement.Arousal),
		replacement.DecayRate, replacement.MemoryStrength, millis(at),
	)
	if err != nil {
		return fmt.Errorf("insert replacement fact: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	// Conditional close: the guard re-checks current-ness so a lost
	// race surfaces as a conflict, not a silent double-supersede.
	upd, err := tx.ExecContext(ctx,
		`UPDATE facts SET valid_until = ?, superseded_by = ? WHERE id = ? AND valid_until IS NULL`,
		millis(at), newID, oldID)
	if err != nil {
		return fmt.Errorf("close superseded fact: %w", err)
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

func (s *FactStore) GetSupersededBy(ctx context.Context, id int64) (*domain.Fact, error) {
	f, err := scanFact(s.db.QueryRowContext(ctx,
		`SELECT `+factColumns+` FROM facts WHERE superseded_by = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// RecordAccess bumps access_count, refreshes last_accessed_at, and
// applies the bounded strength boost, returning the updated row.
func (s *FactStore) RecordAccess(ctx context.Context, id int64, at time.Time) (*domain.Fact, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facts SET
			access_count = access_count + 1,
			last_accessed_at = ?,
			memory_strength = MIN(?, memory_strength * ?)
		 WHERE id = ?`,
		millis(at), domain.MaxMemoryStrength, domain.AccessBoostFactor, id)
	if err != nil {
		return nil, fmt.Errorf("record fact access: %w", err)
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

func (s *FactStore) UpdateEmotion(ctx context.Context, id int64, valence, arousal, decayRate float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facts SET valence = ?, arousal = ?, decay_rate = ? WHERE id = ?`,
		valence, arousal, decayRate, id)
	if err != nil {
		return fmt.Errorf("update fact emotion: %w", err)
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

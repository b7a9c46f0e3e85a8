package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type ReviewLogStore struct {
	db *DB
}

func NewReviewLogStore(db *DB) *ReviewLogStore {
	return &ReviewLogStore{db: db}
}

func (s *ReviewLogStore) Append(ctx context.Context, entry *domain.ReviewLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO review_log (source_table, source_id, retention_before, quality, time_since_last_review_hours, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.SourceTable), entry.SourceID, entry.RetentionBefore,
		entry.Quality, entry.HoursSinceLast, millis(entry.CreatedAt))
	if err != nil {
		return fmt.Errorf("append review log: %w", err)
	}
	entry.ID, err = res.LastInsertId()
	return err
}

func (s *ReviewLogStore) ListBySource(ctx context.Context, source domain.EmbedSource, sourceID int64) ([]domain.ReviewLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_table, source_id, retention_before, quality, time_since_last_review_hours, created_at
		 FROM review_log
		 WHERE source_table = ? AND source_id = ?
		 ORDER BY created_at, id`,
		string(source), sourceID)
	if err != nil {
		return nil, fmt.Errorf("query review log: %w", err)
	}
	defer rows.Close()

	var entries []domain.ReviewLogEntry
	for rows.Next() {
		var (
			entry     domain.ReviewLogEntry
			src       string
			createdAt int64
		)
		if err := rows.Scan(&entry.ID, &src, &entry.SourceID, &entry.RetentionBefore, &entry.Quality, &entry.HoursSinceLast, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review log row: %w", err)
		}
		entry.SourceTable = domain.EmbedSource(src)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

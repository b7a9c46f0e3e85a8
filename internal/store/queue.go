package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type QueueStore struct {
	db *DB
}

func NewQueueStore(db *DB) *QueueStore {
	return &QueueStore{db: db}
}

// Enqueue upserts on (source_table, source_id): re-enqueueing resets
// the row to pending with fresh text. The core returns immediately;
// the external worker drains asynchronously.
func (s *QueueStore) Enqueue(ctx context.Context, source domain.EmbedSource, sourceID int64, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO embedding_queue (source_table, source_id, text_to_embed, status, created_at)
		 VALUES (?, ?, ?, 'pending', ?)
		 ON CONFLICT (source_table, source_id) DO UPDATE SET
			text_to_embed = excluded.text_to_embed,
			status = 'pending',
			error_message = NULL,
			processed_at = NULL`,
		string(source), sourceID, text, millis(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("enqueue embedding: %w", err)
	}
	return nil
}

func (s *QueueStore) ListPending(ctx context.Context, limit int) ([]domain.EmbeddingJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_table, source_id, text_to_embed, status, error_message, created_at, processed_at
		 FROM embedding_queue
		 WHERE status = 'pending'
		 ORDER BY created_at
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query queue: %w", err)
	}
	defer rows.Close()

	var jobs []domain.EmbeddingJob
	for rows.Next() {
		var (
			job         domain.EmbeddingJob
			source      string
			status      string
			errMsg      sql.NullString
			createdAt   int64
			processedAt sql.NullInt64
		)
		if err := rows.Scan(&job.ID, &source, &job.SourceID, &job.TextToEmbed, &status, &errMsg, &createdAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scan queue row: %w", err)
		}
		job.SourceTable = domain.EmbedSource(source)
		job.Status = domain.QueueStatus(status)
		job.ErrorMessage = errMsg.String
		job.CreatedAt = fromMillis(createdAt)
		job.ProcessedAt = timePtr(processedAt)
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// SetStatus is called on behalf of the external worker to flip a job
// to processing/done/failed.
func (s *QueueStore) SetStatus(ctx context.Context, id int64, status domain.QueueStatus, errorMessage string) error {
	var errMsg sql.NullString
	if errorMessage != "" {
		errMsg = sql.NullString{String: errorMessage, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE embedding_queue SET status = ?, error_message = ?, processed_at = ? WHERE id = ?`,
		string(status), errMsg, millis(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("update queue status: %w", err)
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

func (s *QueueStore) Stats(ctx context.Context) (map[domain.QueueStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM embedding_queue GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.QueueStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan queue stat: %w", err)
		}
		stats[domain.QueueStatus(status)] = count
	}
	return stats, rows.Err()
}

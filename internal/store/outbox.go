package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type OutboxStore struct {
	db *DB
}

func NewOutboxStore(db *DB) *OutboxStore {
	return &OutboxStore{db: db}
}

// Append records one significance signal. Each record is consumed and
// acknowledged individually, so producers and the backup collaborator
// never race on a shared flag.
func (s *OutboxStore) Append(ctx context.Context, reason string, source domain.EmbedSource, sourceID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backup_outbox (reason, source_table, source_id, created_at) VALUES (?, ?, ?, ?)`,
		reason, string(source), sourceID, millis(time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("append outbox: %w", err)
	}
	return nil
}

func (s *OutboxStore) ListPending(ctx context.Context) ([]domain.BackupSignal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, reason, source_table, source_id, created_at
		 FROM backup_outbox
		 WHERE acknowledged_at IS NULL
		 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var signals []domain.BackupSignal
	for rows.Next() {
		var (
			sig       domain.BackupSignal
			source    string
			createdAt int64
		)
		if err := rows.Scan(&sig.ID, &sig.Reason, &source, &sig.SourceID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		sig.SourceTable = domain.EmbedSource(source)
		sig.CreatedAt = fromMillis(createdAt)
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

func (s *OutboxStore) Acknowledge(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE backup_outbox SET acknowledged_at = ? WHERE id = ? AND acknowledged_at IS NULL`,
		millis(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("acknowledge outbox: %w", err)
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

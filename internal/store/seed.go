package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type SeedStore struct {
	db *DB
}

func NewSeedStore(db *DB) *SeedStore {
	return &SeedStore{db: db}
}

func (s *SeedStore) Create(ctx context.Context, seed *domain.MemorySeed) error {
	if seed.CreatedAt.IsZero() {
		seed.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO memory_seeds (summary, event_count, created_at) VALUES (?, ?, ?)`,
		seed.Summary, seed.EventCount, millis(seed.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert seed: %w", err)
	}
	seed.ID, err = res.LastInsertId()
	return err
}

func (s *SeedStore) GetByID(ctx context.Context, id int64) (*domain.MemorySeed, error) {
	seed := &domain.MemorySeed{}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, summary, event_count, created_at FROM memory_seeds WHERE id = ?`, id,
	).Scan(&seed.ID, &seed.Summary, &seed.EventCount, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	seed.CreatedAt = fromMillis(createdAt)
	return seed, nil
}

func (s *SeedStore) List(ctx context.Context) ([]domain.MemorySeed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, summary, event_count, created_at FROM memory_seeds ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query seeds: %w", err)
	}
	defer rows.Close()

	var seeds []domain.MemorySeed
	for rows.Next() {
		var seed domain.MemorySeed
		var createdAt int64
		if err := rows.Scan(&seed.ID, &seed.Summary, &seed.EventCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scan seed: %w", err)
		}
		seed.CreatedAt = fromMillis(createdAt)
		seeds = append(seeds, seed)
	}
	return seeds, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type EntityStore struct {
	db *DB
}

func NewEntityStore(db *DB) *EntityStore {
	return &EntityStore{db: db}
}

func (s *EntityStore) Create(ctx context.Context, e *domain.Entity) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.CanonicalKey == "" {
		e.CanonicalKey = domain.CanonicalKey(e.Name)
	}
	if e.EntityType == "" {
		e.EntityType = "generic"
	}
	// The canonical key is the only dedup: an existing entity with
	// the same (type, key) is reused, not duplicated.
	existing, err := s.findByTypeAndKey(ctx, e.EntityType, e.CanonicalKey)
	if err == nil {
		e.ID = existing.ID
		e.CreatedAt = existing.CreatedAt
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO entities (name, entity_type, canonical_key, description, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.Name, e.EntityType, e.CanonicalKey, e.Description, millis(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert entity: %w", err)
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (s *EntityStore) findByTypeAndKey(ctx context.Context, entityType, key string) (*domain.Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx,
		`SELECT id, name, entity_type, canonical_key, description, created_at
		 FROM entities WHERE entity_type = ? AND canonical_key = ?`, entityType, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func scanEntity(row interface{ Scan(...any) error }) (*domain.Entity, error) {
	e := &domain.Entity{}
	var createdAt int64
	if err := row.Scan(&e.ID, &e.Name, &e.EntityType, &e.CanonicalKey, &e.Description, &createdAt); err != nil {
		return nil, err
	}
	e.CreatedAt = fromMillis(createdAt)
	return e, nil
}

func (s *EntityStore) GetByID(ctx context.Context, id int64) (*domain.Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx,
		`SELECT id, name, entity_type, canonical_key, description, created_at
		 FROM entities WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EntityStore) FindByKey(ctx context.Context, canonicalKey string) (*domain.Entity, error) {
	e, err := scanEntity(s.db.QueryRowContext(ctx,
		`SELECT id, name, entity_type, canonical_key, description, created_at
		 FROM entities WHERE canonical_key = ?
		 ORDER BY id LIMIT 1`, canonicalKey))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EntityStore) List(ctx context.Context) ([]domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, entity_type, canonical_key, description, created_at
		 FROM entities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var entities []domain.Entity
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		entities = append(entities, *e)
	}
	return entities, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mnemoslab/mnemos/internal/domain"
)

type ValueStore struct {
	db *DB
}

func NewValueStore(db *DB) *ValueStore {
	return &ValueStore{db: db}
}

const valueColumns = `id, name, description, priority, source, created_at, valid_until, superseded_by`

func scanValue(row interface{ Scan(...any) error }) (*domain.Value, error) {
	v := &domain.Value{}
	var (
		createdAt    int64
		validUntil   sql.NullInt64
		supersededBy sql.NullInt64
	)
	err := row.Scan(&v.ID, &v.Name, &v.Description, &v.Priority, &v.Source,
		&createdAt, &validUntil, &supersededBy)
	if err != nil {
		return nil, err
	}
	v.CreatedAt = fromMillis(createdAt)
	v.ValidUntil = timePtr(validUntil)
	v.SupersededBy = intPtr(supersededBy)
	return v, nil
}

func (s *ValueStore) Create(ctx context.Context, v *domain.Value) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO core_values (name, description, priority, source, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		v.Name, v.Description, v.Priority, v.Source, millis(v.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert value: %w", err)
	}
	v.ID, err = res.LastInsertId()
	return err
}

func (s *ValueStore) GetByID(ctx context.Context, id int64) (*domain.Value, error) {
	v, err := scanValue(s.db.QueryRowContext(ctx,
		`SELECT `+valueColumns+` FROM core_values WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *ValueStore) ListCurrent(ctx context.Context) ([]domain.Value, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+valueColumns+` FROM core_values
		 WHERE valid_until IS NULL
		 ORDER BY priority DESC, created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query values: %w", err)
	}
	defer rows.Close()

	var values []domain.Value
	for rows.Next() {
		v, err := scanValue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan value: %w", err)
		}
		values = append(values, *v)
	}
	return values, rows.Err()
}

func (s *ValueStore) Supersede(ctx context.Context, oldID int64, replacement *domain.Value, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin supersede: %w", err)
	}
	defer tx.Rollback()

	var validUntil sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT valid_until FROM core_values WHERE id = ?`, oldID).Scan(&validUntil)
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
		`INSERT INTO core_values (name, description, priority, source, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		replacement.Name, replacement.Description, replacement.Priority,
		replacement.Source, millis(at))
	if err != nil {
		return fmt.Errorf("insert replacement value: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	upd, err := tx.ExecContext(ctx,
		`UPDATE core_values SET valid_until = ?, superseded_by = ? WHERE id = ? AND valid_until IS NULL`,
		millis(at), newID, oldID)
	if err != nil {
		return fmt.Errorf("close superseded value: %w", err)
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

func (s *ValueStore) GetSupersededBy(ctx context.Context, id int64) (*domain.Value, error) {
	v, err := scanValue(s.db.QueryRowContext(ctx,
		`SELECT `+valueColumns+` FROM core_values WHERE superseded_by = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

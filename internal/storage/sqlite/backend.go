package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sandevgo/recall/internal/core"
)

// Backend implements core.Backend over SQLite. Field maps, scored indexes,
// membership sets, and scalars each live in their own table; every method is
// a single statement or transaction, so each structure update is atomic.
type Backend struct {
	db *sql.DB
}

func NewBackend(db *sql.DB) *Backend {
	return &Backend{db: db}
}

func (b *Backend) PutFields(ctx context.Context, key string, fields map[string]string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for field, value := range fields {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO record_fields (key, field, value) VALUES (?, ?, ?)
			 ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`,
			key, field, value,
		)
		if err != nil {
			return fmt.Errorf("failed to put field %s/%s: %w", key, field, err)
		}
	}

	return tx.Commit()
}

func (b *Backend) GetFields(ctx context.Context, key string) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT field, value FROM record_fields WHERE key = ?`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get fields for %s: %w", key, err)
	}
	defer rows.Close()

	fields := map[string]string{}
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, err
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// IncrFieldBy adds delta to a numeric field in a single upsert statement, so
// concurrent increments never lose updates.
func (b *Backend) IncrFieldBy(ctx context.Context, key, field string, delta int64) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO record_fields (key, field, value) VALUES (?, ?, CAST(? AS TEXT))
		 ON CONFLICT (key, field) DO UPDATE SET value = CAST(CAST(value AS INTEGER) + ? AS TEXT)`,
		key, field, delta, delta,
	)
	if err != nil {
		return fmt.Errorf("failed to increment %s/%s: %w", key, field, err)
	}
	return nil
}

func (b *Backend) DeleteFields(ctx context.Context, key string) error {
	_, err := b.db.ExecContext(ctx, `DELETE FROM record_fields WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (b *Backend) IndexPut(ctx context.Context, index, id string, score float64) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO scored_index (name, id, score) VALUES (?, ?, ?)
		 ON CONFLICT (name, id) DO UPDATE SET score = excluded.score`,
		index, id, score,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert %s into index %s: %w", id, index, err)
	}
	return nil
}

func (b *Backend) IndexScore(ctx context.Context, index, id string) (float64, bool, error) {
	var score float64
	err := b.db.QueryRowContext(ctx,
		`SELECT score FROM scored_index WHERE name = ? AND id = ?`, index, id,
	).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read score of %s in index %s: %w", id, index, err)
	}
	return score, true, nil
}

func (b *Backend) IndexRangeAsc(ctx context.Context, index string, offset, count int64) ([]core.ScoredID, error) {
	return b.indexRange(ctx, index, offset, count, "ASC")
}

func (b *Backend) IndexRangeDesc(ctx context.Context, index string, offset, count int64) ([]core.ScoredID, error) {
	return b.indexRange(ctx, index, offset, count, "DESC")
}

func (b *Backend) indexRange(ctx context.Context, index string, offset, count int64, dir string) ([]core.ScoredID, error) {
	if count < 0 {
		count = -1 // SQLite: LIMIT -1 means unbounded
	}
	query := fmt.Sprintf(
		`SELECT id, score FROM scored_index WHERE name = ?
		 ORDER BY score %s, id %s LIMIT ? OFFSET ?`, dir, dir)

	rows, err := b.db.QueryContext(ctx, query, index, count, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to range index %s: %w", index, err)
	}
	defer rows.Close()

	var entries []core.ScoredID
	for rows.Next() {
		var e core.ScoredID
		if err := rows.Scan(&e.ID, &e.Score); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (b *Backend) IndexRemove(ctx context.Context, index, id string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM scored_index WHERE name = ? AND id = ?`, index, id)
	if err != nil {
		return fmt.Errorf("failed to remove %s from index %s: %w", id, index, err)
	}
	return nil
}

func (b *Backend) IndexCard(ctx context.Context, index string) (int64, error) {
	var n int64
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM scored_index WHERE name = ?`, index).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count index %s: %w", index, err)
	}
	return n, nil
}

func (b *Backend) IndexTrim(ctx context.Context, index string, keep int64) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM scored_index WHERE name = ? AND id NOT IN (
		     SELECT id FROM scored_index WHERE name = ?
		     ORDER BY score DESC, id DESC LIMIT ?
		 )`,
		index, index, keep,
	)
	if err != nil {
		return fmt.Errorf("failed to trim index %s: %w", index, err)
	}
	return nil
}

func (b *Backend) SetAdd(ctx context.Context, set, id string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO member_sets (name, id) VALUES (?, ?)`, set, id)
	if err != nil {
		return fmt.Errorf("failed to add %s to set %s: %w", id, set, err)
	}
	return nil
}

func (b *Backend) SetRemove(ctx context.Context, set, id string) error {
	_, err := b.db.ExecContext(ctx,
		`DELETE FROM member_sets WHERE name = ? AND id = ?`, set, id)
	if err != nil {
		return fmt.Errorf("failed to remove %s from set %s: %w", id, set, err)
	}
	return nil
}

func (b *Backend) SetMembers(ctx context.Context, set string) ([]string, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id FROM member_sets WHERE name = ?`, set)
	if err != nil {
		return nil, fmt.Errorf("failed to list set %s: %w", set, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (b *Backend) SetCard(ctx context.Context, set string) (int64, error) {
	var n int64
	err := b.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM member_sets WHERE name = ?`, set).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count set %s: %w", set, err)
	}
	return n, nil
}

func (b *Backend) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM scalars WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read scalar %s: %w", key, err)
	}
	return value, true, nil
}

func (b *Backend) PutValue(ctx context.Context, key, value string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO scalars (key, value) VALUES (?, ?)
		 ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write scalar %s: %w", key, err)
	}
	return nil
}

func (b *Backend) Close() error {
	return b.db.Close()
}

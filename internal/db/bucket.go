package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Bucket is a namespaced string key-value view over the kv table.
type Bucket struct {
	db   *DB
	name string
}

func (b *Bucket) Name() string {
	return b.name
}

// Get returns the value stored under key. found is false when the key is
// absent; err is reserved for driver failures.
func (b *Bucket) Get(ctx context.Context, key string) (value string, found bool, err error) {
	err = b.db.conn.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE bucket = ? AND key = ?`, b.name, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s/%s: %w", b.name, key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value.
func (b *Bucket) Set(ctx context.Context, key, value string) error {
	_, err := b.db.conn.ExecContext(ctx, `
		INSERT INTO kv (bucket, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(bucket, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, b.name, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", b.name, key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (b *Bucket) Delete(ctx context.Context, key string) error {
	_, err := b.db.conn.ExecContext(ctx,
		`DELETE FROM kv WHERE bucket = ? AND key = ?`, b.name, key)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", b.name, key, err)
	}
	return nil
}

// Keys lists every key in the bucket in lexical order.
func (b *Bucket) Keys(ctx context.Context) ([]string, error) {
	rows, err := b.db.conn.QueryContext(ctx,
		`SELECT key FROM kv WHERE bucket = ? ORDER BY key ASC`, b.name)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", b.name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

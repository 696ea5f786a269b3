package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for a key that was never written.
var ErrNotFound = errors.New("key not found")

// Get returns the raw value stored under key for account.
func (db *DB) Get(ctx context.Context, account, key string) (string, error) {
	var value string
	err := db.QueryRowContext(ctx,
		"SELECT value FROM kv WHERE account = ? AND key = ?", account, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

// Put replaces the value stored under key for account.
func (db *DB) Put(ctx context.Context, account, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO kv (account, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (account, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, account, key, value)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// Delete removes key for account. Missing keys are not an error.
func (db *DB) Delete(ctx context.Context, account, key string) error {
	if _, err := db.ExecContext(ctx, "DELETE FROM kv WHERE account = ? AND key = ?", account, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"errors"

	"docsign/internal/repository"
)

// SettingsPostgres is a PostgreSQL implementation of repository.SettingsRepository.
type SettingsPostgres struct {
	db *sql.DB
}

// NewSettingsPostgres creates a new SettingsPostgres repository.
func NewSettingsPostgres(db *sql.DB) *SettingsPostgres {
	return &SettingsPostgres{db: db}
}

var _ repository.SettingsRepository = (*SettingsPostgres)(nil)

// Get returns the value for a key, or an empty string when the key is absent.
func (r *SettingsPostgres) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM settings WHERE key = $1`
	var value string
	err := r.db.QueryRowContext(ctx, q, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// Set upserts a key/value pair.
func (r *SettingsPostgres) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	_, err := r.db.ExecContext(ctx, q, key, value)
	return err
}

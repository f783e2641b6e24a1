package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the table backing the PostgreSQL adapter.
const Schema = `
CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// Postgres stores documents as JSONB rows in kv_store.
type Postgres struct {
	db *sqlx.DB
}

// NewPostgres creates a PostgreSQL-backed store
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates kv_store if it does not exist
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("%w: migrate kv_store: %v", ErrUnavailable, err)
	}
	return nil
}

func (p *Postgres) Load(ctx context.Context, key string) (json.RawMessage, bool, error) {
	query := `SELECT value FROM kv_store WHERE key = $1`
	var value []byte
	err := p.db.GetContext(ctx, &value, query, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: load %s: %v", ErrUnavailable, key, err)
	}
	return value, true, nil
}

func (p *Postgres) Save(ctx context.Context, key string, value json.RawMessage) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value,
		              updated_at = NOW()
	`
	if _, err := p.db.ExecContext(ctx, query, key, []byte(value)); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Open returns the Store for driver. db is required for postgres (the
// schema is migrated) and client for redis.
func Open(ctx context.Context, driver string, db *sqlx.DB, client *redis.Client, prefix string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres store: no database connection")
		}
		pg := NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case DriverRedis:
		if client == nil {
			return nil, fmt.Errorf("redis store: no redis client")
		}
		return NewRedis(client, prefix), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

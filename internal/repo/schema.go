package repo

import (
	"context"
	"fmt"
)

// schema — DDL таблиц сервиса. Выполняется идемпотентно при старте.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS stage_cache (
		key        TEXT PRIMARY KEY,
		stage      TEXT NOT NULL,
		payload    JSONB NOT NULL,
		hits       BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS stage_cache_expires_at_idx ON stage_cache (expires_at)`,
}

// EnsureSchema создаёт таблицы, если их нет.
func EnsureSchema(ctx context.Context, db querier) error {
	for i, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

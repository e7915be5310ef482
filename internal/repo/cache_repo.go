package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// CacheRepo — кэш ответов этапов в PostgreSQL.
// Реализует stageclient.Cache.
type CacheRepo struct {
	db  querier
	now func() time.Time
}

// NewCacheRepo создаёт новый CacheRepo.
func NewCacheRepo(db querier) *CacheRepo {
	return &CacheRepo{db: db, now: time.Now}
}

// Get возвращает неистёкшую запись по ключу.
func (r *CacheRepo) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	query := `
		UPDATE stage_cache
		SET hits = hits + 1
		WHERE key = $1 AND expires_at > $2
		RETURNING payload
	`

	var payload []byte
	err := r.db.QueryRow(ctx, query, key, r.now()).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}

	return json.RawMessage(payload), true, nil
}

// Put сохраняет запись. Существующая запись с тем же ключом перезаписывается.
func (r *CacheRepo) Put(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	stage, err := stageOf(key)
	if err != nil {
		return err
	}

	now := r.now()
	query := `
		INSERT INTO stage_cache (key, stage, payload, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload,
		    created_at = EXCLUDED.created_at,
		    expires_at = EXCLUDED.expires_at,
		    hits = 0
	`
	_, err = r.db.Exec(ctx, query, key, stage, []byte(payload), now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// purgeLockKey — ключ advisory lock для очистки кэша.
const purgeLockKey int64 = 515151

// PurgeExpired удаляет истёкшие записи и возвращает их количество.
// Вызывается планировщиком по cron. Если очистку уже выполняет другой
// экземпляр (advisory lock занят), ничего не удаляет.
func (r *CacheRepo) PurgeExpired(ctx context.Context) (int64, error) {
	query := `
		WITH lock AS (SELECT pg_try_advisory_xact_lock($2) AS acquired)
		DELETE FROM stage_cache
		WHERE expires_at <= $1 AND (SELECT acquired FROM lock)
	`
	result, err := r.db.Exec(ctx, query, r.now(), purgeLockKey)
	if err != nil {
		return 0, fmt.Errorf("purge expired cache entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// stageOf достаёт имя этапа из ключа вида "<stage>:<hash>".
func stageOf(key string) (string, error) {
	stage, _, ok := strings.Cut(key, ":")
	if !ok || stage == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return stage, nil
}

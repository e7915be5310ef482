// Package repo — доступ к PostgreSQL.
//
// Единственная таблица — stage_cache: кэш ответов этапов с временем жизни.
// История runs в БД не хранится.
//
//	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
//	if err := repo.EnsureSchema(ctx, pool); err != nil { ... }
//	cache := repo.NewCacheRepo(pool)
package repo

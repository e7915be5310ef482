// Package scheduler периодически очищает кэш ответов этапов.
//
// Scheduler запускает Purger по cron-выражению (по умолчанию каждые 10 минут)
// и удаляет записи stage_cache с истёкшим временем жизни.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Run, Tick)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	sched, err := scheduler.New(scheduler.Config{
//	    Purger:   cacheRepo,
//	    CronExpr: cfg.Cache.PurgeCron,
//	    Logger:   logger,
//	})
//
//	// Блокируется до отмены ctx
//	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
//	    logger.Error("scheduler stopped", "error", err)
//	}
//
// Несколько экземпляров могут работать одновременно: очистку в каждый
// момент выполняет один из них (advisory lock в PurgeExpired).
package scheduler

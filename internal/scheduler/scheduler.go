package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// defaultCronExpr — расписание очистки по умолчанию.
const defaultCronExpr = "*/10 * * * *"

// Purger удаляет устаревшие записи кэша.
// Реализация: repo.CacheRepo.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler — планировщик очистки кэша.
type Scheduler struct {
	purger   Purger
	schedule cron.Schedule
	cronExpr string
	logger   *slog.Logger
	now      func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Purger   Purger
	CronExpr string // расписание очистки (default: каждые 10 минут)
	Logger   *slog.Logger
}

// New создаёт новый Scheduler. Возвращает ошибку для некорректного cron-выражения.
func New(cfg Config) (*Scheduler, error) {
	cronExpr := cfg.CronExpr
	if cronExpr == "" {
		cronExpr = defaultCronExpr
	}

	schedule, err := parseCron(cronExpr)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		purger:   cfg.Purger,
		schedule: schedule,
		cronExpr: cronExpr,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Run выполняет Tick по расписанию до отмены ctx.
// Ошибка одного тика логируется и не останавливает планировщик.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("cache scheduler started", "cron", s.cronExpr)

	for {
		next := s.NextRun(s.now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("cache scheduler stopped")
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	}
}

// Tick выполняет одну очистку кэша.
func (s *Scheduler) Tick(ctx context.Context) error {
	start := s.now()

	purged, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("purge expired cache entries: %w", err)
	}

	s.logger.Info("scheduler tick completed",
		"purged", purged,
		"duration", time.Since(start),
	)
	return nil
}

// NextRun возвращает время следующей очистки после from.
func (s *Scheduler) NextRun(from time.Time) time.Time {
	return s.schedule.Next(from)
}

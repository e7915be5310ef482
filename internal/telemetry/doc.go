// Package telemetry обеспечивает наблюдаемость системы.
//
// Включает:
//   - logging.go — structured logging через slog
//   - metrics.go — Prometheus метрики runs, этапов, кэша и HTTP API
//
// Все бинарники используют единый формат логирования,
// polyglot-api экспортирует метрики на /metrics.
package telemetry

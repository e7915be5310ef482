// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go       — Handler с DI (оркестратор, каталог моделей, logger)
//   - routes.go        — регистрация маршрутов
//   - middleware.go    — middleware (logging, recovery, metrics)
//   - response.go      — унифицированные JSON-ответы и обработка ошибок
//   - dto.go           — Data Transfer Objects (request/response)
//   - run_handler.go   — обработчики для /analyze и /runs
//   - model_handler.go — обработчик для /models
//
// API запускает pipeline анализа текста и отдаёт снимок текущего run.
package api

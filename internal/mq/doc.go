// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Через RabbitMQ оркестратор отдаёт snapshots runs внешнему presenter'у.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация snapshots (реализует orchestrator.Presenter)
//   - consumer.go   — потребление сообщений (cmd/polyglot-presenter)
//
// Типы сообщений:
//   - run.snapshot — snapshot run после перехода этапа или завершения run
//
// Exchanges:
//   - polyglot.runs — snapshots runs
//   - polyglot.dlq  — dead letter queue
package mq

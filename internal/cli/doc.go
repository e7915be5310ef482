// Package cli реализует инструмент командной строки Polyglot.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Polyglot API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI запускает анализ текста, показывает и отменяет текущий run.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Polyglot API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Ошибки API возвращаются как *APIError.
//
//	client := cli.NewClient("http://localhost:8090")
//	run, err := client.Analyze("hello world", true)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: polyglot run show --json | jq .
//
// ## Commands
//
//   - analyze: запуск pipeline (--wait, --watch)
//   - run: show, cancel, watch
//   - models: каталог моделей
//
// Каждая команда создаётся через фабричную функцию (NewRunCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli

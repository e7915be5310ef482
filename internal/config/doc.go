// Package config загружает конфигурацию polyglot-api.
//
// # Обзор
//
// Конфигурация собирается в три слоя:
//   - Default() — адреса сервисов для локального запуска, таймауты и политика повторов
//   - YAML-файл — переопределения по этапам (сопоставляются по имени)
//   - переменные окружения — API_PORT, DB_URL, AMQP_URL, POLYGLOT_* и т.д.
//
// Пример файла:
//
//	model_id: python-bert
//	stages:
//	  - name: statistics
//	    endpoint: http://stats:8081/analyze
//	    timeout: 10s
//	    max_retries: 3
//	    backoff:
//	      initial: 200ms
//	      max: 5s
//	cache:
//	  enabled: true
//	  ttl: 1h
//	  purge_cron: "*/10 * * * *"
//
// Порядок этапов фиксирован, файл не может его изменить.
package config

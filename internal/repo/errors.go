package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrEmptyDSN — строка подключения не задана.
	ErrEmptyDSN = errors.New("empty database dsn")

	// ErrInvalidKey — ключ кэша пустой или без префикса этапа.
	ErrInvalidKey = errors.New("invalid cache key")
)

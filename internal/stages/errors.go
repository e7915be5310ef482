package stages

import "errors"

// Ошибки таблицы этапов.
var (
	// ErrProjection — не удалось построить запрос из ответа предыдущего этапа.
	ErrProjection = errors.New("cannot build stage request")

	// ErrUnknownStage — имя этапа отсутствует в цепочке.
	ErrUnknownStage = errors.New("unknown stage")

	// ErrInvalidTable — таблица дескрипторов некорректна.
	ErrInvalidTable = errors.New("invalid stage table")
)

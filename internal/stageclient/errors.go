package stageclient

import "errors"

// Ошибки вызова этапа. Оборачиваются в *domain.StageError.
var (
	// ErrTimeout — попытка не уложилась в таймаут этапа.
	ErrTimeout = errors.New("stage call timed out")

	// ErrConnection — не удалось установить соединение или прочитать ответ.
	ErrConnection = errors.New("stage connection failed")

	// ErrServerError — сервис ответил 5xx.
	ErrServerError = errors.New("stage service error")

	// ErrRejected — сервис отклонил запрос (4xx и прочие не-2xx).
	ErrRejected = errors.New("stage request rejected")

	// ErrResponseTooLarge — тело ответа больше допустимого размера.
	ErrResponseTooLarge = errors.New("stage response too large")

	// ErrEncodeRequest — не удалось сериализовать запрос.
	ErrEncodeRequest = errors.New("cannot encode stage request")
)

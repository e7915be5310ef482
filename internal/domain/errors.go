package domain

import (
	"errors"
	"fmt"
)

// Ошибки доменной модели.
var (
	// ErrInvalidTransition — недопустимый переход статуса этапа.
	ErrInvalidTransition = errors.New("invalid stage status transition")

	// ErrStageIndex — индекс этапа вне диапазона.
	ErrStageIndex = errors.New("stage index out of range")

	// ErrMalformedResponse — ответ сервиса не прошёл проверку схемы.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrCancelled — выполнение отменено.
	ErrCancelled = errors.New("cancelled")
)

// ErrorKind — класс ошибки этапа.
type ErrorKind string

const (
	// KindValidation — некорректный ввод, run не создавался.
	KindValidation ErrorKind = "VALIDATION"

	// KindTransientNetwork — сетевая ошибка, таймаут или 5xx. Повторяется ограниченно.
	KindTransientNetwork ErrorKind = "TRANSIENT_NETWORK"

	// KindPermanentApplication — 4xx или ответ с неверной схемой. Не повторяется.
	KindPermanentApplication ErrorKind = "PERMANENT_APPLICATION"

	// KindCancelled — run отменён или вытеснен.
	KindCancelled ErrorKind = "CANCELLED"

	// KindConfiguration — не удалось построить запрос этапа из предыдущего ответа.
	KindConfiguration ErrorKind = "CONFIGURATION"
)

// StageError — классифицированная ошибка этапа.
type StageError struct {
	// Kind — класс ошибки.
	Kind ErrorKind

	// Stage — имя этапа, к которому относится ошибка.
	Stage string

	// StatusCode — HTTP-код ответа (0, если ответа не было).
	StatusCode int

	// Attempts — сколько попыток было сделано.
	Attempts int

	// Message — краткое описание для пользователя.
	Message string

	// Err — исходная ошибка.
	Err error
}

// Error реализует интерфейс error.
func (e *StageError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("stage %s: %s (HTTP %d): %s", e.Stage, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("stage %s: %s: %s", e.Stage, e.Kind, msg)
}

// Unwrap возвращает исходную ошибку.
func (e *StageError) Unwrap() error {
	return e.Err
}

// ValidationError — ошибка валидации входных данных.
// Возвращается до создания run.
type ValidationError struct {
	Field   string
	Message string
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// KindOf возвращает класс ошибки. Для неклассифицированных ошибок возвращает "".
func KindOf(err error) ErrorKind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return ""
}

// IsTransient проверяет, является ли ошибка временной.
func IsTransient(err error) bool {
	return KindOf(err) == KindTransientNetwork
}

// IsPermanent проверяет, является ли ошибка постоянной (повтор не поможет).
func IsPermanent(err error) bool {
	switch KindOf(err) {
	case KindPermanentApplication, KindConfiguration, KindValidation:
		return true
	default:
		return false
	}
}

// IsCancelled проверяет, вызвана ли ошибка отменой run.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled || errors.Is(err, ErrCancelled)
}

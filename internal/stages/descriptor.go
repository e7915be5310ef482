package stages

import (
	"encoding/json"
	"time"
)

// Projection строит тело запроса этапа.
//
// input — исходный текст пользователя, previous — ответ предыдущего этапа
// (nil для первого этапа). Функция чистая: не делает I/O и не меняет аргументы.
type Projection func(input string, previous json.RawMessage) (map[string]any, error)

// BackoffPolicy — политика задержки между повторами.
//
// Задержка перед повтором n (с 1): Initial × Multiplier^(n-1),
// ограничена Max, затем ± Jitter × задержка.
type BackoffPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Max        time.Duration
	Jitter     float64
}

// Descriptor — неизменяемое описание одного этапа цепочки.
type Descriptor struct {
	// Name — имя этапа ("language-analysis", "statistics", ...).
	Name string

	// Endpoint — URL сервиса, на который делается POST.
	Endpoint string

	// BuildRequest — проекция ответа предыдущего этапа в запрос этого.
	BuildRequest Projection

	// Timeout — таймаут одной попытки.
	Timeout time.Duration

	// MaxRetries — количество повторов для временных ошибок.
	// Всего попыток не больше MaxRetries + 1.
	MaxRetries int

	// Backoff — задержка между повторами.
	Backoff BackoffPolicy

	// RequiredFields — поля, которые обязаны быть в ответе.
	// Без них ответ считается MalformedResponse.
	RequiredFields []string

	// Cacheable — ответы можно брать из кэша.
	Cacheable bool
}

// MaxAttempts возвращает максимальное количество попыток.
func (d Descriptor) MaxAttempts() int {
	return max(d.MaxRetries, 0) + 1
}

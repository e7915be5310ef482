package domain

import (
	"encoding/json"
	"time"
)

// Имена этапов цепочки в порядке выполнения.
const (
	StageLanguageAnalysis      = "language-analysis"
	StageStatistics            = "statistics"
	StageOptimization          = "optimization"
	StageNumericalOptimization = "numerical-optimization"
)

// StageNames возвращает имена этапов в порядке выполнения.
func StageNames() []string {
	return []string{
		StageLanguageAnalysis,
		StageStatistics,
		StageOptimization,
		StageNumericalOptimization,
	}
}

// StageResult — результат одного этапа в рамках run.
//
// Слот создаётся вместе с run в статусе NOT_STARTED и заполняется
// оркестратором ровно один раз. После финального статуса не изменяется.
type StageResult struct {
	// Index — порядковый номер этапа (0..N-1).
	Index int `json:"index"`

	// Name — имя этапа из таблицы дескрипторов.
	Name string `json:"name"`

	// Status — текущий статус этапа.
	Status StageStatus `json:"status"`

	// Payload — тело ответа сервиса. Есть только у SUCCEEDED.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Error — классифицированная ошибка. Есть у FAILED и CANCELLED.
	Error *StageError `json:"-"`

	// StartedAt — время перевода в RUNNING.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время перевода в финальный статус.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Attempts — количество HTTP-попыток (0 для ответа из кэша).
	Attempts int `json:"attempts"`

	// Cached — ответ получен из кэша без сетевого вызова.
	Cached bool `json:"cached,omitempty"`
}

// Latency возвращает длительность этапа.
// Возвращает 0, если этап не запускался или ещё не завершён.
func (s *StageResult) Latency() time.Duration {
	if s.StartedAt == nil || s.FinishedAt == nil {
		return 0
	}
	return s.FinishedAt.Sub(*s.StartedAt)
}

// IsFinished возвращает true, если этап в финальном статусе.
func (s *StageResult) IsFinished() bool {
	return s.Status.IsTerminal()
}

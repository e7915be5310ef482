package domain

// StageStatus — статус выполнения одного этапа pipeline.
//
// Жизненный цикл:
//
//	NOT_STARTED → RUNNING → SUCCEEDED
//	                      ↘ FAILED
//	                      ↘ CANCELLED
//	NOT_STARTED → SKIPPED (предыдущий этап не завершился успешно)
//	NOT_STARTED → FAILED (не удалось построить запрос)
//	NOT_STARTED → CANCELLED (отмена до начала вызова)
type StageStatus string

const (
	// StageStatusNotStarted — этап ещё не выполнялся.
	StageStatusNotStarted StageStatus = "NOT_STARTED"

	// StageStatusRunning — идёт вызов сервиса этапа.
	StageStatusRunning StageStatus = "RUNNING"

	// StageStatusSucceeded — сервис вернул корректный ответ.
	StageStatusSucceeded StageStatus = "SUCCEEDED"

	// StageStatusFailed — этап завершился ошибкой.
	StageStatusFailed StageStatus = "FAILED"

	// StageStatusCancelled — run отменён, пока этап выполнялся или ждал запуска.
	StageStatusCancelled StageStatus = "CANCELLED"

	// StageStatusSkipped — этап не выполнялся, потому что цепочка остановилась раньше.
	StageStatusSkipped StageStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный и больше не изменится.
func (s StageStatus) IsTerminal() bool {
	switch s {
	case StageStatusSucceeded, StageStatusFailed, StageStatusCancelled, StageStatusSkipped:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление StageStatus.
func (s StageStatus) String() string {
	return string(s)
}

// RunStatus — общий статус run.
//
// Жизненный цикл:
//
//	RUNNING → COMPLETED        (все этапы SUCCEEDED)
//	        ↘ PARTIALLY_FAILED (хотя бы один этап FAILED)
//	        ↘ CANCELLED        (run отменён или вытеснен новым)
type RunStatus string

const (
	// RunStatusRunning — run выполняется.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — все этапы успешно завершены.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusPartiallyFailed — цепочка остановилась на ошибке,
	// результаты успешных этапов сохранены.
	RunStatusPartiallyFailed RunStatus = "PARTIALLY_FAILED"

	// RunStatusCancelled — run отменён.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusPartiallyFailed, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// validTransitions — допустимые переходы статусов этапа.
var validTransitions = map[StageStatus][]StageStatus{
	StageStatusNotStarted: {
		StageStatusRunning,
		StageStatusFailed,
		StageStatusCancelled,
		StageStatusSkipped,
	},
	StageStatusRunning: {
		StageStatusSucceeded,
		StageStatusFailed,
		StageStatusCancelled,
	},
}

// CanTransition проверяет, допустим ли переход from → to.
func CanTransition(from, to StageStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

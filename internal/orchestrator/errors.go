package orchestrator

import (
	"errors"
	"fmt"
)

// Ошибки оркестратора.
var (
	// ErrNoActiveRun — нет run, который можно отменить.
	ErrNoActiveRun = errors.New("no active run")

	// ErrRunFinished — run уже завершён, отменять нечего.
	ErrRunFinished = fmt.Errorf("%w: run already finished", ErrNoActiveRun)

	// ErrOrchestratorStopped — оркестратор остановлен.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
)

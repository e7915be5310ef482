package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run — одно выполнение pipeline для одного пользовательского ввода.
//
// Run создаётся оркестратором в начале Run/Submit и изменяется только им.
// StageClient возвращает результаты, оркестратор записывает их через Mark*.
// После финального статуса run неизменяем и передаётся presenter'у.
//
// Все методы потокобезопасны: API читает run через Snapshot,
// пока горутина оркестратора его обновляет.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID

	// Input — исходный текст пользователя.
	Input string

	// CreatedAt — время создания run.
	CreatedAt time.Time

	mu         sync.RWMutex
	stages     []StageResult
	status     RunStatus
	finishedAt *time.Time

	// cancel — handle отмены всей работы run.
	cancel          context.CancelFunc
	cancelRequested bool
}

// NewRun создаёт run со слотом NOT_STARTED для каждого этапа.
func NewRun(input string, stageNames []string) *Run {
	stages := make([]StageResult, len(stageNames))
	for i, name := range stageNames {
		stages[i] = StageResult{
			Index:  i,
			Name:   name,
			Status: StageStatusNotStarted,
		}
	}

	return &Run{
		ID:        uuid.New(),
		Input:     input,
		CreatedAt: time.Now(),
		stages:    stages,
		status:    RunStatusRunning,
	}
}

// AttachCancel привязывает handle отмены к run.
func (r *Run) AttachCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel = cancel
}

// Cancel запрашивает отмену run.
//
// Идемпотентен: повторный вызов и вызов на завершённом run ничего не делают.
// Возвращает true, если отмена была запрошена именно этим вызовом.
func (r *Run) Cancel() bool {
	r.mu.Lock()
	if r.status.IsTerminal() || r.cancelRequested {
		r.mu.Unlock()
		return false
	}
	r.cancelRequested = true
	cancel := r.cancel
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return true
}

// CancelRequested возвращает true, если для run была запрошена отмена.
func (r *Run) CancelRequested() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cancelRequested
}

// Status возвращает текущий общий статус run.
func (r *Run) Status() RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status().IsTerminal()
}

// FinishedAt возвращает время завершения run или nil.
func (r *Run) FinishedAt() *time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyTime(r.finishedAt)
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.finishedAt == nil {
		return 0
	}
	return r.finishedAt.Sub(r.CreatedAt)
}

// Len возвращает количество этапов.
func (r *Run) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stages)
}

// Stage возвращает копию результата этапа с индексом k.
func (r *Run) Stage(k int) (StageResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if k < 0 || k >= len(r.stages) {
		return StageResult{}, fmt.Errorf("%w: %d", ErrStageIndex, k)
	}
	return r.stages[k], nil
}

// Stages возвращает копию всех результатов этапов.
func (r *Run) Stages() []StageResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]StageResult, len(r.stages))
	copy(out, r.stages)
	return out
}

// MarkStageRunning переводит этап в RUNNING.
func (r *Run) MarkStageRunning(k int) error {
	return r.transition(k, StageStatusRunning, func(s *StageResult, now time.Time) {
		s.StartedAt = &now
	})
}

// MarkStageSucceeded переводит этап в SUCCEEDED и сохраняет ответ.
func (r *Run) MarkStageSucceeded(k int, payload json.RawMessage, attempts int, cached bool) error {
	return r.transition(k, StageStatusSucceeded, func(s *StageResult, now time.Time) {
		s.Payload = payload
		s.Attempts = attempts
		s.Cached = cached
		s.FinishedAt = &now
	})
}

// MarkStageFailed переводит этап в FAILED с классифицированной ошибкой.
func (r *Run) MarkStageFailed(k int, stageErr *StageError) error {
	return r.transition(k, StageStatusFailed, func(s *StageResult, now time.Time) {
		s.Error = stageErr
		if stageErr != nil {
			s.Attempts = stageErr.Attempts
		}
		s.FinishedAt = &now
	})
}

// MarkStageCancelled переводит этап в CANCELLED.
func (r *Run) MarkStageCancelled(k int, stageErr *StageError) error {
	return r.transition(k, StageStatusCancelled, func(s *StageResult, now time.Time) {
		s.Error = stageErr
		if stageErr != nil {
			s.Attempts = stageErr.Attempts
		}
		s.FinishedAt = &now
	})
}

// SkipRemaining помечает SKIPPED все этапы начиная с from, которые ещё не запускались.
func (r *Run) SkipRemaining(from int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := max(from, 0); k < len(r.stages); k++ {
		if r.stages[k].Status == StageStatusNotStarted {
			r.stages[k].Status = StageStatusSkipped
		}
	}
	r.recomputeLocked()
}

// transition выполняет проверенный переход статуса этапа k.
func (r *Run) transition(k int, to StageStatus, apply func(*StageResult, time.Time)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if k < 0 || k >= len(r.stages) {
		return fmt.Errorf("%w: %d", ErrStageIndex, k)
	}

	stage := &r.stages[k]
	if !CanTransition(stage.Status, to) {
		return fmt.Errorf("%w: stage %s %s → %s", ErrInvalidTransition, stage.Name, stage.Status, to)
	}

	stage.Status = to
	apply(stage, time.Now())
	r.recomputeLocked()
	return nil
}

// recomputeLocked пересчитывает общий статус. Вызывается под r.mu.
func (r *Run) recomputeLocked() {
	r.status = DeriveRunStatus(r.stages)
	if r.status.IsTerminal() && r.finishedAt == nil {
		now := time.Now()
		r.finishedAt = &now
	}
}

// DeriveRunStatus вычисляет общий статус run по статусам этапов.
//
//   - есть этап NOT_STARTED или RUNNING → RUNNING
//   - все этапы SUCCEEDED → COMPLETED
//   - есть этап CANCELLED → CANCELLED
//   - иначе → PARTIALLY_FAILED (в том числе отказ на первом этапе)
func DeriveRunStatus(stages []StageResult) RunStatus {
	allSucceeded := true
	cancelled := false

	for i := range stages {
		switch stages[i].Status {
		case StageStatusNotStarted, StageStatusRunning:
			return RunStatusRunning
		case StageStatusCancelled:
			cancelled = true
		}
		if stages[i].Status != StageStatusSucceeded {
			allSucceeded = false
		}
	}

	switch {
	case allSucceeded:
		return RunStatusCompleted
	case cancelled:
		return RunStatusCancelled
	default:
		return RunStatusPartiallyFailed
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

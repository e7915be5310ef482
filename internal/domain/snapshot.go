package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Snapshot — представление run только для чтения.
//
// Передаётся presenter'у при каждом переходе этапа и отдаётся через API.
// Не содержит ссылок на внутреннее состояние run.
type Snapshot struct {
	RunID      uuid.UUID   `json:"run_id"`
	Input      string      `json:"input"`
	Status     RunStatus   `json:"status"`
	Stages     []StageView `json:"stages"`
	CreatedAt  time.Time   `json:"created_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
}

// StageView — представление одного этапа в Snapshot.
type StageView struct {
	Index      int             `json:"index"`
	Name       string          `json:"name"`
	Status     StageStatus     `json:"status"`
	Payload    json.RawMessage `json:"payload"`
	Error      *ErrorView      `json:"error"`
	Attempts   int             `json:"attempts"`
	Cached     bool            `json:"cached,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	LatencyMs  int64           `json:"latency_ms"`
}

// ErrorView — ошибка этапа в виде, пригодном для показа.
type ErrorView struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status_code,omitempty"`
}

// TakeSnapshot строит Snapshot run.
//
// Чистая функция: можно вызывать в любой момент выполнения и после него.
// Для завершённого run повторные вызовы возвращают одинаковые значения.
func TakeSnapshot(run *Run) Snapshot {
	run.mu.RLock()
	defer run.mu.RUnlock()

	views := make([]StageView, len(run.stages))
	for i := range run.stages {
		views[i] = stageView(&run.stages[i])
	}

	return Snapshot{
		RunID:      run.ID,
		Input:      run.Input,
		Status:     run.status,
		Stages:     views,
		CreatedAt:  run.CreatedAt,
		FinishedAt: copyTime(run.finishedAt),
	}
}

// IsFinished возвращает true, если run в снимке завершён.
func (s Snapshot) IsFinished() bool {
	return s.Status.IsTerminal()
}

func stageView(s *StageResult) StageView {
	v := StageView{
		Index:      s.Index,
		Name:       s.Name,
		Status:     s.Status,
		Attempts:   s.Attempts,
		Cached:     s.Cached,
		StartedAt:  copyTime(s.StartedAt),
		FinishedAt: copyTime(s.FinishedAt),
		LatencyMs:  s.Latency().Milliseconds(),
	}

	if s.Payload != nil {
		v.Payload = append(json.RawMessage(nil), s.Payload...)
	}

	if s.Error != nil {
		msg := s.Error.Message
		if msg == "" && s.Error.Err != nil {
			msg = s.Error.Err.Error()
		}
		v.Error = &ErrorView{
			Kind:       s.Error.Kind,
			Message:    msg,
			StatusCode: s.Error.StatusCode,
		}
	}

	return v
}

package api

import (
	"github.com/shaiso/Polyglot/internal/domain"
)

// Analyze DTOs

// AnalyzeRequest — запрос на запуск pipeline.
type AnalyzeRequest struct {
	Text string `json:"text"`
}

// Run DTOs

// RunResponse — ответ со снимком run.
type RunResponse struct {
	domain.Snapshot
	DurationMs      int64 `json:"duration_ms"`
	CancelRequested bool  `json:"cancel_requested,omitempty"`
}

// RunFromDomain конвертирует domain.Run в RunResponse.
func RunFromDomain(run *domain.Run) RunResponse {
	return runFromSnapshot(domain.TakeSnapshot(run), run.CancelRequested())
}

// runFromSnapshot считает длительность по самому snapshot,
// чтобы статус и duration_ms всегда были согласованы.
func runFromSnapshot(snapshot domain.Snapshot, cancelRequested bool) RunResponse {
	var durationMs int64
	if snapshot.FinishedAt != nil {
		durationMs = snapshot.FinishedAt.Sub(snapshot.CreatedAt).Milliseconds()
	}
	return RunResponse{
		Snapshot:        snapshot,
		DurationMs:      durationMs,
		CancelRequested: cancelRequested,
	}
}

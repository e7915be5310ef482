package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// maxRequestBody — лимит тела запроса /analyze.
const maxRequestBody = 1 << 20

// Analyze запускает pipeline для текста.
// POST /api/v1/analyze?wait=true
//
// По умолчанию run выполняется в фоне и сразу возвращается 202.
// С wait=true ответ отправляется после завершения run.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	wait := false
	if waitStr := r.URL.Query().Get("wait"); waitStr != "" {
		v, err := strconv.ParseBool(waitStr)
		if err != nil {
			BadRequest(w, "invalid wait parameter")
			return
		}
		wait = v
	}

	if wait {
		run, err := h.orch.Run(r.Context(), req.Text)
		if HandleRunError(w, h.logger, err) {
			return
		}
		Success(w, RunFromDomain(run))
		return
	}

	run, err := h.orch.Submit(r.Context(), req.Text)
	if HandleRunError(w, h.logger, err) {
		return
	}

	h.logger.Info("run submitted", "run_id", run.ID)
	Accepted(w, RunFromDomain(run))
}

// GetCurrentRun возвращает снимок текущего или последнего run.
// GET /api/v1/runs/current
func (h *Handler) GetCurrentRun(w http.ResponseWriter, r *http.Request) {
	run := h.orch.Current()
	if run == nil {
		NotFound(w, "no run has been started")
		return
	}

	Success(w, RunFromDomain(run))
}

// GetRun возвращает run по ID.
// GET /api/v1/runs/{id}
//
// Доступен только текущий run: история не хранится.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid run id")
		return
	}

	run, ok := h.orch.Lookup(id)
	if !ok {
		NotFound(w, "run not found")
		return
	}

	Success(w, RunFromDomain(run))
}

// CancelCurrentRun отменяет выполняющийся run.
// POST /api/v1/runs/current/cancel
func (h *Handler) CancelCurrentRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.orch.CancelCurrent()
	if HandleRunError(w, h.logger, err) {
		return
	}

	Success(w, RunFromDomain(run))
}

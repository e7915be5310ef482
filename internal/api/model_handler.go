package api

import (
	"net/http"
)

// ListModels возвращает каталог моделей.
// GET /api/v1/models
func (h *Handler) ListModels(w http.ResponseWriter, r *http.Request) {
	List(w, h.models, len(h.models))
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/Di-arva/diarva-backend/models"
	"github.com/Di-arva/diarva-backend/services"
)

type WorkHistoryHandler struct {
	service *services.WorkHistoryService
}

func NewWorkHistoryHandler(service *services.WorkHistoryService) *WorkHistoryHandler {
	return &WorkHistoryHandler{service: service}
}

func paginationFromQuery(r *http.Request) models.Pagination {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return models.NormalizePagination(page, limit)
}

// ListForClinic handles GET /api/clinic/work-history.
func (h *WorkHistoryHandler) ListForClinic(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ListForClinic(r.Context(), scope.ClinicID, paginationFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListForAssistant handles GET /api/assistant/work-history.
func (h *WorkHistoryHandler) ListForAssistant(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleAssistant}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.ListForAssistant(r.Context(), userID, paginationFromQuery(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

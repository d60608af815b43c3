package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/models"
	"github.com/Di-arva/diarva-backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// CreateTask handles POST /api/clinic/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var payload models.TaskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.CreateForClinic(r.Context(), scope.ClinicID, payload)
	if err != nil {
		logging.Logger.Warnf("Event ID: TASK_CREATE_FAILED, Description: Task creation failed for clinic %s: %v", scope.ClinicID.Hex(), err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, successResponse{Success: true, Data: map[string]string{"id": task.ID.Hex()}})
}

// ListTasks handles GET /api/clinic/tasks. Listing is always scoped to the
// caller's own clinic.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filters, pagination, sortBy, sortDesc, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.service.ListForClinic(r.Context(), scope.ClinicID, services.TaskListOptions{
		Filters:    filters,
		Pagination: pagination,
		SortBy:     sortBy,
		SortDesc:   sortDesc,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetTask handles GET /api/clinic/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic, models.RoleAdmin}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	task, err := h.service.GetByID(r.Context(), taskID, scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: task})
}

// UpdateTask handles PATCH /api/clinic/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic, models.RoleAdmin}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var update models.TaskUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := h.service.UpdateByID(r.Context(), taskID, update, scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: task})
}

// CancelTask handles POST /api/clinic/tasks/{id}/cancel.
func (h *TaskHandler) CancelTask(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic, models.RoleAdmin}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := h.service.Cancel(r.Context(), taskID, scope, body.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Task cancelled.", Data: result})
}

package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/models"
	"github.com/Di-arva/diarva-backend/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationHandler struct {
	service *services.ApplicationService
}

func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Discover handles GET /api/assistant/tasks/discover.
func (h *ApplicationHandler) Discover(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleAssistant}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	filters, pagination, sortBy, sortDesc, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.service.Discover(r.Context(), userID, services.DiscoverOptions{
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

// Apply handles POST /api/assistant/tasks/{id}/apply.
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleAssistant}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid task ID format", http.StatusBadRequest)
		return
	}

	userID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var payload models.ApplyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && err != io.EOF {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	application, err := h.service.Apply(r.Context(), userID, taskID, payload)
	if err != nil {
		logging.Logger.Warnf("Event ID: APPLY_FAILED, Description: Apply failed for user %s on task %s: %v", userID.Hex(), taskID.Hex(), err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, successResponse{
		Success: true,
		Message: "Application submitted successfully.",
		Data:    map[string]string{"application_id": application.ID.Hex()},
	})
}

// Accept handles POST /api/applications/{id}/accept.
func (h *ApplicationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	applicationID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid application ID format", http.StatusBadRequest)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	actorID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Accept(r.Context(), applicationID, scope.ClinicID, actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Application accepted successfully.", Data: result})
}

// Reject handles POST /api/applications/{id}/reject.
func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleClinic}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	applicationID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid application ID format", http.StatusBadRequest)
		return
	}

	scope, err := actorScope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	actorID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Reject(r.Context(), applicationID, scope.ClinicID, actorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Application rejected.", Data: result})
}

// Withdraw handles POST /api/applications/{id}/withdraw.
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleAssistant}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	applicationID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid application ID format", http.StatusBadRequest)
		return
	}

	userID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.service.Withdraw(r.Context(), applicationID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Application withdrawn successfully.", Data: result})
}

// ListForTask handles GET /api/clinic/tasks/{id}/applications.
func (h *ApplicationHandler) ListForTask(w http.ResponseWriter, r *http.Request) {
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

	applications, err := h.service.ListForTask(r.Context(), taskID, scope)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Data: applications})
}

// ListMine handles GET /api/assistant/applications.
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{models.RoleAssistant}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	userID, err := actorUserID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	_, pagination, _, _, err := parseTaskQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	result, err := h.service.ListForApplicant(r.Context(), userID, pagination)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

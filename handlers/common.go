package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Di-arva/diarva-backend/models"
	"github.com/Di-arva/diarva-backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// checkRole verifies the actor role injected by the auth middleware.
func checkRole(r *http.Request, allowedRoles []string) error {
	userRole := r.Header.Get("Role")
	if userRole == "" {
		return fmt.Errorf("role is missing in request header")
	}
	for _, role := range allowedRoles {
		if role == userRole {
			return nil
		}
	}
	return fmt.Errorf("access forbidden: user does not have the required role")
}

// actorScope resolves the task scope for the authenticated actor: admins
// bypass clinic scoping, clinic actors are confined to their own clinic.
func actorScope(r *http.Request) (services.TaskScope, error) {
	if r.Header.Get("Role") == models.RoleAdmin {
		return services.TaskScope{IsAdmin: true}, nil
	}
	clinicID, err := primitive.ObjectIDFromHex(r.Header.Get("Clinic-ID"))
	if err != nil {
		return services.TaskScope{}, fmt.Errorf("invalid clinic ID")
	}
	return services.TaskScope{ClinicID: clinicID}, nil
}

func actorUserID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.Header.Get("User-ID"))
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid user ID")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses:
// validation 422, not-found/out-of-scope 404, business conflicts 409 (task
// unavailability 404, ineligible assistant 403), everything else 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Message: "Validation failed",
			Errors:  validationErr.Errors,
		})
		return
	}

	if errors.Is(err, models.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Not found"})
		return
	}

	var conflictErr *models.ConflictError
	if errors.As(err, &conflictErr) {
		status := http.StatusConflict
		switch conflictErr.Reason {
		case models.ReasonTaskNotAvailable:
			status = http.StatusNotFound
		case models.ReasonNotEligible:
			status = http.StatusForbidden
		}
		writeJSON(w, status, errorResponse{
			Message: conflictErr.Message,
			Reason:  conflictErr.Reason,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
}

type successResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// parseTaskQuery parses filters, pagination and sorting shared by the
// clinic listing and assistant discovery endpoints. Validation problems are
// collected into a single field-error list.
func parseTaskQuery(q url.Values) (services.TaskFilters, models.Pagination, string, bool, error) {
	var errs []string
	var filters services.TaskFilters

	if raw := q.Get("status"); raw != "" {
		for _, s := range splitCSV(raw) {
			status := models.TaskStatus(s)
			if !models.IsValidTaskStatus(status) {
				errs = append(errs, fmt.Sprintf("invalid status: %s", s))
				continue
			}
			filters.Statuses = append(filters.Statuses, status)
		}
	}
	if raw := q.Get("priority"); raw != "" {
		p := models.TaskPriority(raw)
		if !models.IsValidPriority(p) {
			errs = append(errs, fmt.Sprintf("invalid priority: %s", raw))
		} else {
			filters.Priority = p
		}
	}
	if raw := q.Get("certification_level"); raw != "" {
		cert, ok := models.NormalizeCertificationLevel(raw)
		if !ok {
			errs = append(errs, fmt.Sprintf("invalid certification_level: %s", raw))
		} else {
			filters.CertificationLevel = cert
		}
	}
	if raw := q.Get("specialization"); raw != "" {
		s := models.Specialization(raw)
		if !models.IsValidSpecialization(s) {
			errs = append(errs, fmt.Sprintf("invalid specialization: %s", raw))
		} else {
			filters.Specialization = s
		}
	}
	if raw := q.Get("start_from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs = append(errs, "start_from must be a valid date")
		} else {
			filters.StartFrom = &t
		}
	}
	if raw := q.Get("start_to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			errs = append(errs, "start_to must be a valid date")
		} else {
			filters.StartTo = &t
		}
	}

	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	pagination := models.NormalizePagination(page, limit)

	sortBy := q.Get("sort_by")
	sortDesc := q.Get("sort_dir") == "desc"

	if len(errs) > 0 {
		return filters, pagination, sortBy, sortDesc, &models.ValidationError{Errors: errs}
	}
	return filters, pagination, sortBy, sortDesc, nil
}

func splitCSV(raw string) []string {
	var parts []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

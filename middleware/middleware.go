package middleware

import (
	"net/http"
	"strings"

	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/utils"
)

// JWTAuthMiddleware validates the bearer token and injects the actor
// context (role, user id, clinic id) as request headers for the handlers.
// Handlers trust these headers and never re-authenticate.
func JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			http.Error(w, "Authorization header missing", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Set("Role", claims.Role)
		r.Header.Set("User-ID", claims.UserID)
		r.Header.Set("Clinic-ID", claims.ClinicID)

		next.ServeHTTP(w, r)
	})
}

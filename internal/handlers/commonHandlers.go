package handlers

import (
	"net/http"
	"time"

	"energynexus/internal/utils"
)

// HealthChecker reports the state of the backing store.
type HealthChecker interface {
	Health() map[string]string
}

type CommonHandler struct {
	db HealthChecker
}

func NewCommonHandler(db HealthChecker) *CommonHandler {
	return &CommonHandler{db: db}
}

func (h *CommonHandler) HelloWorldHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Energy Nexus API is running"))
}

func (h *CommonHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	db := h.db.Health()
	status := http.StatusOK
	if db["status"] == "down" {
		status = http.StatusServiceUnavailable
	}
	utils.RespondWithJSON(w, status, map[string]interface{}{
		"status": db["status"],
		"db":     db,
	})
}

func (h *CommonHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"pong": true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *CommonHandler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"name":      "Energy Nexus API",
		"endpoints": apiEndpoints,
	})
}

func (h *CommonHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusNotFound, map[string]interface{}{
		"success":            false,
		"error":              "API endpoint not found",
		"path":               r.URL.Path,
		"availableEndpoints": apiEndpoints,
	})
}

var apiEndpoints = []string{
	"POST /api/auth/signup",
	"POST /api/auth/verify-otp",
	"POST /api/auth/login",
	"POST /api/auth/resend-otp",
	"POST /api/auth/forgot-password",
	"POST /api/auth/reset-password",
	"GET /api/auth/me",
	"POST /api/auth/logout",
	"GET /api/users/me",
	"PUT /api/users/me",
	"GET /api/ping",
}

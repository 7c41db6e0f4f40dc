package handlers

import (
	"net/http"
	"time"
)

func check(err error) map[string]interface{} {
	if err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}
	return map[string]interface{}{"status": "healthy"}
}

// Health reports the status of the archive and analytics backends
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if _, err := h.results.ListRoundResults("", 1); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["database"] = check(err)
	} else {
		checks["database"] = check(nil)
	}

	if _, err := h.stats.TopWords(1); err != nil {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
		checks["analytics"] = check(err)
	} else {
		checks["analytics"] = check(nil)
	}

	checks["rooms"] = map[string]interface{}{
		"status": "healthy",
		"count":  h.registry.RoomCount(),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// Liveness handles Kubernetes liveness probes
// Returns 200 if the application is running (doesn't check dependencies)
func (h *APIHandlers) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().Unix(),
	})
}

// Readiness handles Kubernetes readiness probes. Rooms live in memory, so only
// the round archive can make the service unready.
func (h *APIHandlers) Readiness(w http.ResponseWriter, r *http.Request) {
	if _, err := h.results.ListRoundResults("", 1); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "not_ready",
			"reason":    "database_unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now().Unix(),
	})
}

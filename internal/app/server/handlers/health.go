package handlers

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	started time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{started: time.Now()}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"message": "Server is healthy",
		"uptime":  time.Since(h.started).Seconds(),
	})
}

package handlers

import "net/http"

type HealthHandler struct {
	engine string
}

func NewHealthHandler(engine string) *HealthHandler {
	return &HealthHandler{engine: engine}
}

// Get reports liveness and which speech-to-text engine is active
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{
		"status":   "ok",
		"provider": h.engine,
	}, http.StatusOK)
}

package handler

import (
	"net/http"

	"promptregistry/internal/prompt/service"
	"promptregistry/pkg/logger"
)

const integrationHealthMessage = "AI Integration Service is running"

// IntegrationHandler serves the read-only endpoints used by AI services to
// fetch the current system prompt.
type IntegrationHandler struct {
	Service *service.PromptService
}

func NewIntegrationHandler(service *service.PromptService) *IntegrationHandler {
	return &IntegrationHandler{Service: service}
}

// GetCurrentPrompt handles GET /integration/prompts/{name}.
func (h *IntegrationHandler) GetCurrentPrompt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	prompt, err := h.Service.GetCurrentPromptForAI(r.Context(), name)
	if err != nil {
		writeServiceError(w, "get current prompt for AI "+name, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// Health handles GET /integration/health. It answers as long as the process
// is up and does not touch storage.
func (h *IntegrationHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(integrationHealthMessage)); err != nil {
		logger.Sugar.Warnf("Failed to write health response: %v", err)
	}
}

// Ready handles GET /health. Unlike Health it checks that storage answers.
func (h *IntegrationHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Ping(r.Context()); err != nil {
		logger.Sugar.Warnf("Readiness check failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "unavailable", "Storage is not reachable")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

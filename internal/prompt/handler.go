package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"promptregistry/internal/prompt/model"
	"promptregistry/internal/prompt/service"
	"promptregistry/middleware"
	"promptregistry/pkg/apperrors"
	"promptregistry/pkg/logger"
)

const maxBodyBytes = 1 << 20

type PromptHandler struct {
	Service *service.PromptService
}

func NewPromptHandler(service *service.PromptService) *PromptHandler {
	return &PromptHandler{Service: service}
}

// CreatePrompt handles POST /prompts.
func (h *PromptHandler) CreatePrompt(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePromptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, "create prompt", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "create prompt", err)
		return
	}

	prompt, err := h.Service.CreatePrompt(r.Context(), req)
	if err != nil {
		writeServiceError(w, "create prompt "+req.Name, err)
		return
	}

	logger.Sugar.Infof("Handler: prompt %s v%d created by %s", prompt.Name, prompt.Version, actor(r))
	writeJSON(w, http.StatusCreated, prompt)
}

// UpdatePrompt handles PUT /prompts/{name}.
func (h *PromptHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req model.UpdatePromptRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, "update prompt "+name, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeServiceError(w, "update prompt "+name, err)
		return
	}

	prompt, err := h.Service.UpdatePrompt(r.Context(), name, req)
	if err != nil {
		writeServiceError(w, "update prompt "+name, err)
		return
	}

	logger.Sugar.Infof("Handler: prompt %s v%d written by %s", prompt.Name, prompt.Version, actor(r))
	writeJSON(w, http.StatusOK, prompt)
}

// GetPromptByName handles GET /prompts/{name}.
func (h *PromptHandler) GetPromptByName(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	prompt, err := h.Service.GetPromptByName(r.Context(), name)
	if err != nil {
		writeServiceError(w, "get prompt "+name, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// GetPromptByID handles GET /prompts/id/{id}.
func (h *PromptHandler) GetPromptByID(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid prompt ID format: "+raw)
		return
	}

	prompt, err := h.Service.GetPromptByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get prompt by id "+raw, err)
		return
	}
	writeJSON(w, http.StatusOK, prompt)
}

// GetAllActivePrompts handles GET /prompts.
func (h *PromptHandler) GetAllActivePrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.Service.GetAllActivePrompts(r.Context())
	if err != nil {
		writeServiceError(w, "list active prompts", err)
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

// GetPromptsByCategory handles GET /prompts/category/{category}. An empty
// category is reported as 404.
func (h *PromptHandler) GetPromptsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")

	prompts, err := h.Service.GetPromptsByCategory(r.Context(), category)
	if err != nil {
		writeServiceError(w, "list prompts in category "+category, err)
		return
	}
	if len(prompts) == 0 {
		writeServiceError(w, "list prompts in category "+category,
			fmt.Errorf("%w: no prompts found for category '%s'", apperrors.ErrNotFound, category))
		return
	}
	writeJSON(w, http.StatusOK, prompts)
}

// GetPromptVersionHistory handles GET /prompts/{name}/versions.
func (h *PromptHandler) GetPromptVersionHistory(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	versions, err := h.Service.GetPromptVersionHistory(r.Context(), name)
	if err != nil {
		writeServiceError(w, "get version history of "+name, err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

// DeletePrompt handles DELETE /prompts/{name}.
func (h *PromptHandler) DeletePrompt(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := h.Service.DeletePrompt(r.Context(), name); err != nil {
		writeServiceError(w, "delete prompt "+name, err)
		return
	}

	logger.Sugar.Infof("Handler: prompt %s deactivated by %s", name, actor(r))
	w.WriteHeader(http.StatusNoContent)
}

// GetPromptSubresource handles GET /prompts/{first}/{second}. ServeMux cannot
// register /prompts/id/{id} next to /prompts/{name}/versions (they overlap on
// /prompts/id/versions), so the two-segment reads are dispatched here.
// The literal "id" and "category" prefixes win over prompt names.
func (h *PromptHandler) GetPromptSubresource(w http.ResponseWriter, r *http.Request) {
	first, second := r.PathValue("first"), r.PathValue("second")
	switch {
	case first == "id":
		r.SetPathValue("id", second)
		h.GetPromptByID(w, r)
	case first == "category":
		r.SetPathValue("category", second)
		h.GetPromptsByCategory(w, r)
	case second == "versions":
		r.SetPathValue("name", first)
		h.GetPromptVersionHistory(w, r)
	default:
		writeError(w, http.StatusNotFound, "not_found", "Unknown resource: "+r.URL.Path)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: Invalid request body: %v", apperrors.ErrValidation, err)
	}
	return nil
}

func actor(r *http.Request) string {
	if userID := middleware.UserID(r.Context()); userID != "" {
		return userID
	}
	return "anonymous"
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promptregistry/internal/prompt/model"
	"promptregistry/internal/prompt/repository"
	"promptregistry/internal/prompt/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHandlers() (*PromptHandler, *IntegrationHandler) {
	svc := service.NewPromptService(repository.NewMemoryStore())
	return NewPromptHandler(svc), NewIntegrationHandler(svc)
}

func do(t *testing.T, h http.HandlerFunc, method, target, body string, pathValues map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodePrompt(t *testing.T, rec *httptest.ResponseRecorder) model.Prompt {
	t.Helper()
	var p model.Prompt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

const createBody = `{"name":"support","content":"You are helpful.","category":"cs","active":true}`

func TestCreatePrompt(t *testing.T) {
	h, _ := newHandlers()

	rec := do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	p := decodePrompt(t, rec)
	assert.Equal(t, "support", p.Name)
	assert.Equal(t, 1, p.Version)
	assert.True(t, p.Active)
}

func TestCreatePrompt_Conflict(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", decodeError(t, rec)["error"])
}

func TestCreatePrompt_ValidationErrors(t *testing.T) {
	h, _ := newHandlers()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"blank name", `{"name":" ","content":"x","category":"c","active":true}`, "Name is required"},
		{"missing content", `{"name":"n","category":"c","active":true}`, "Content is required"},
		{"missing category", `{"name":"n","content":"x","active":true}`, "Category is required"},
		{"missing active", `{"name":"n","content":"x","category":"c"}`, "Active status is required"},
		{"malformed json", `{"name":`, "Invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h.CreatePrompt, http.MethodPost, "/prompts", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "validation_error", body["error"])
			assert.Contains(t, body["message"], tt.message)
		})
	}
}

func TestUpdatePrompt(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, h.UpdatePrompt, http.MethodPut, "/prompts/support", `{"content":"You are very helpful."}`,
		map[string]string{"name": "support"})

	require.Equal(t, http.StatusOK, rec.Code)
	p := decodePrompt(t, rec)
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, "cs", p.Category)
	assert.True(t, p.Active)
}

func TestUpdatePrompt_NotFoundAndInvalid(t *testing.T) {
	h, _ := newHandlers()

	rec := do(t, h.UpdatePrompt, http.MethodPut, "/prompts/ghost", `{"content":"x"}`, map[string]string{"name": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h.UpdatePrompt, http.MethodPut, "/prompts/ghost", `{"content":""}`, map[string]string{"name": "ghost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPromptByName(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, h.GetPromptByName, http.MethodGet, "/prompts/support", "", map[string]string{"name": "support"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "You are helpful.", decodePrompt(t, rec).Content)

	rec = do(t, h.GetPromptByName, http.MethodGet, "/prompts/nope", "", map[string]string{"name": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec)["error"])
}

func TestGetPromptByID(t *testing.T) {
	h, _ := newHandlers()
	created := decodePrompt(t, do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil))

	rec := do(t, h.GetPromptByID, http.MethodGet, "/prompts/id/1", "", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decodePrompt(t, rec).ID)

	rec = do(t, h.GetPromptByID, http.MethodGet, "/prompts/id/99", "", map[string]string{"id": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h.GetPromptByID, http.MethodGet, "/prompts/id/abc", "", map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}

func TestGetAllActivePrompts_EmptyIsArray(t *testing.T) {
	h, _ := newHandlers()

	rec := do(t, h.GetAllActivePrompts, http.MethodGet, "/prompts", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestGetPromptsByCategory(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, h.GetPromptsByCategory, http.MethodGet, "/prompts/category/cs", "", map[string]string{"category": "cs"})
	require.Equal(t, http.StatusOK, rec.Code)
	var prompts []model.Prompt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&prompts))
	assert.Len(t, prompts, 1)

	rec = do(t, h.GetPromptsByCategory, http.MethodGet, "/prompts/category/none", "", map[string]string{"category": "none"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPromptVersionHistory(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)
	do(t, h.UpdatePrompt, http.MethodPut, "/prompts/support", `{"content":"v2"}`, map[string]string{"name": "support"})

	rec := do(t, h.GetPromptVersionHistory, http.MethodGet, "/prompts/support/versions", "", map[string]string{"name": "support"})
	require.Equal(t, http.StatusOK, rec.Code)
	var versions []model.Prompt
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&versions))
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.Equal(t, 1, versions[1].Version)

	rec = do(t, h.GetPromptVersionHistory, http.MethodGet, "/prompts/x/versions", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletePrompt(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, h.DeletePrompt, http.MethodDelete, "/prompts/support", "", map[string]string{"name": "support"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = do(t, h.DeletePrompt, http.MethodDelete, "/prompts/support", "", map[string]string{"name": "support"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPromptSubresource_Dispatch(t *testing.T) {
	h, _ := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	tests := []struct {
		first, second string
		want          int
	}{
		{"id", "1", http.StatusOK},
		{"category", "cs", http.StatusOK},
		{"support", "versions", http.StatusOK},
		{"support", "other", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := do(t, h.GetPromptSubresource, http.MethodGet, "/prompts/"+tt.first+"/"+tt.second, "",
			map[string]string{"first": tt.first, "second": tt.second})
		assert.Equal(t, tt.want, rec.Code, "%s/%s", tt.first, tt.second)
	}
}

func TestIntegrationHandler(t *testing.T) {
	h, ai := newHandlers()
	do(t, h.CreatePrompt, http.MethodPost, "/prompts", createBody, nil)

	rec := do(t, ai.GetCurrentPrompt, http.MethodGet, "/integration/prompts/support", "", map[string]string{"name": "support"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "support", decodePrompt(t, rec).Name)

	rec = do(t, ai.GetCurrentPrompt, http.MethodGet, "/integration/prompts/x", "", map[string]string{"name": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, ai.Health, http.MethodGet, "/integration/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AI Integration Service is running", rec.Body.String())

	rec = do(t, ai.Ready, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) FindAllActive(context.Context) ([]model.Prompt, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Ping(context.Context) error {
	return errors.New("connection refused")
}

func TestStorageFailureIsInternalError(t *testing.T) {
	svc := service.NewPromptService(brokenStore{MemoryStore: repository.NewMemoryStore()})
	h, ai := NewPromptHandler(svc), NewIntegrationHandler(svc)

	rec := do(t, h.GetAllActivePrompts, http.MethodGet, "/prompts", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]string{"error": "internal_error", "message": "Internal server error"}, decodeError(t, rec))

	rec = do(t, ai.Ready, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", decodeError(t, rec)["error"])
}

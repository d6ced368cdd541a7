package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"promptregistry/pkg/apperrors"
	"promptregistry/pkg/logger"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// writeError writes the {"error", "message"} body shared by every failure.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, map[string]string{"error": code, "message": message})
}

// writeServiceError maps the service error taxonomy onto status codes.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		logger.Sugar.Errorf("Handler: %s failed: %v", op, err)
		writeError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto status codes. Validation issues are
// returned per field.
func writeError(w http.ResponseWriter, logger *zap.Logger, msg string, err error) {
	if iss, ok := form.AsIssues(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"errors": iss.ByField(),
		})
		return
	}

	var apiErr *client.APIError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotConfigured):
		status = http.StatusConflict
	case errors.Is(err, client.ErrRemoteAuth):
		status = http.StatusForbidden
	case errors.Is(err, client.ErrRemoteUnavailable), errors.As(err, &apiErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	} else {
		logger.Info(msg, zap.Int("status", status), zap.Error(err))
	}

	writeJSON(w, status, map[string]string{
		"error": msg + ": " + service.ConnectionMessage(err),
	})
}

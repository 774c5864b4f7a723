package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/service"
)

type ConfigHandler struct {
	configService *service.ConfigurationService
	logger        *zap.Logger
}

func NewConfigHandler(configService *service.ConfigurationService, logger *zap.Logger) *ConfigHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// configRequest is the body of PUT /projects/{project}/config. An empty
// password or token keeps the stored one.
type configRequest struct {
	URL          string   `json:"url"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Token        string   `json:"token"`
	Project      string   `json:"project"`
	DefaultTags  string   `json:"default_tags"`
	IgnoreFields []string `json:"ignore_fields"`
}

// GetConfig returns the stored options with secrets redacted. When the
// tracker cannot be reached the options are still returned, along with a
// connection_error message and no choices.
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project")

	options, choices, err := h.configService.Load(r.Context(), projectID)
	body := map[string]interface{}{
		"options":  options,
		"choices":  choices,
		"password": options.Password != "",
		"token":    options.Token != "",
	}
	if err != nil {
		if options.URL == "" {
			writeError(w, h.logger, "Error trying to load configuration", err)
			return
		}
		body["connection_error"] = service.ConnectionMessage(err)
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *ConfigHandler) PutConfig(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project")

	var req configRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body: " + err.Error()})
		return
	}

	saved, err := h.configService.Save(r.Context(), projectID, service.ProjectOptions{
		URL:          req.URL,
		Username:     req.Username,
		Password:     req.Password,
		Token:        req.Token,
		Project:      req.Project,
		DefaultTags:  req.DefaultTags,
		IgnoreFields: req.IgnoreFields,
	})
	if err != nil {
		writeError(w, h.logger, "Error trying to save configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"options": saved,
	})
}

func (h *ConfigHandler) DeleteConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.configService.Reset(r.Context(), r.PathValue("project")); err != nil {
		writeError(w, h.logger, "Error trying to reset configuration", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/service"
)

type IssueHandler struct {
	issueService *service.IssueService
	logger       *zap.Logger
}

func NewIssueHandler(issueService *service.IssueService, logger *zap.Logger) *IssueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueHandler{
		issueService: issueService,
		logger:       logger,
	}
}

// GetIssueForm describes the form for a new issue. title, description and
// tags query parameters pre-fill the fixed fields.
func (h *IssueHandler) GetIssueForm(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project")
	q := r.URL.Query()

	f, err := h.issueService.NewIssueForm(r.Context(), projectID, form.Initial{
		Title:       q.Get(form.FieldTitle),
		Description: q.Get(form.FieldDescription),
		Tags:        q.Get(form.FieldTags),
	})
	if err != nil {
		writeError(w, h.logger, "Error trying to build issue form", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"initial": f.Initial(),
		"fields":  f.Fields(),
	})
}

func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form body: " + err.Error()})
		return
	}
	projectID := r.PathValue("project")
	groupID := r.PathValue("group")

	result, err := h.issueService.CreateIssue(r.Context(), projectID, groupID, r.PostForm)
	if err != nil {
		writeError(w, h.logger, "Error trying to create issue", err)
		return
	}

	warnings := result.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submission_id": result.SubmissionID,
		"issue_id":      result.IssueID,
		"url":           result.IssueURL,
		"warnings":      warnings,
	})
}

func (h *IssueHandler) LinkIssue(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form body: " + err.Error()})
		return
	}
	groupID := r.PathValue("group")

	if err := h.issueService.LinkIssue(r.Context(), groupID, r.PostForm.Get("issue")); err != nil {
		writeError(w, h.logger, "Error trying to link issue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IssueHandler) GetLinkedIssue(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("project")
	groupID := r.PathValue("group")

	issueID, url, found, err := h.issueService.LinkedIssue(r.Context(), projectID, groupID)
	if err != nil {
		writeError(w, h.logger, "Error trying to get linked issue", err)
		return
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No issue linked"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"issue_id": issueID,
		"url":      url,
	})
}

func (h *IssueHandler) SearchIssues(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form body: " + err.Error()})
		return
	}
	projectID := r.PathValue("project")

	page, err := h.issueService.SearchIssues(r.Context(), projectID, r.Form.Get("q"), r.Form.Get("page"), r.Form.Get("page_limit"))
	if err != nil {
		writeError(w, h.logger, "Error trying to search issues", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *IssueHandler) SaveDefault(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid form body: " + err.Error()})
		return
	}
	projectID := r.PathValue("project")

	if err := h.issueService.SaveDefault(r.Context(), projectID, r.PostForm.Get("field"), r.PostForm.Get("value")); err != nil {
		writeError(w, h.logger, "Error trying to save default", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

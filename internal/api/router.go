package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/api/handlers"
	"github.com/TWRT/issue-bridge/internal/service"
)

func SetupRouter(issueService *service.IssueService, configService *service.ConfigurationService, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	mux := http.NewServeMux()

	issueHandler := handlers.NewIssueHandler(issueService, logger)
	configHandler := handlers.NewConfigHandler(configService, logger)

	mux.HandleFunc("GET /projects/{project}/groups/{group}/issue/form", issueHandler.GetIssueForm)
	mux.HandleFunc("POST /projects/{project}/groups/{group}/issue", issueHandler.CreateIssue)
	mux.HandleFunc("POST /projects/{project}/groups/{group}/issue/link", issueHandler.LinkIssue)
	mux.HandleFunc("GET /projects/{project}/groups/{group}/issue/link", issueHandler.GetLinkedIssue)
	mux.HandleFunc("POST /projects/{project}/issues/search", issueHandler.SearchIssues)
	mux.HandleFunc("POST /projects/{project}/defaults", issueHandler.SaveDefault)

	mux.HandleFunc("GET /projects/{project}/config", configHandler.GetConfig)
	mux.HandleFunc("PUT /projects/{project}/config", configHandler.PutConfig)
	mux.HandleFunc("DELETE /projects/{project}/config", configHandler.DeleteConfig)

	return logRequests(logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

package client

import (
	"context"

	"github.com/TWRT/issue-bridge/internal/models"
)

type FieldProvider interface {
	GetProjectFields(ctx context.Context, projectID string, ignoreFields []string) ([]models.FieldSchema, error)
}

type ProjectProvider interface {
	GetProjects(ctx context.Context) ([]models.Project, error)
}

type UserProvider interface {
	GetUser(ctx context.Context, username string) (*models.User, error)
}

type IssueWriter interface {
	CreateIssue(ctx context.Context, issue models.NewIssue) (*models.CreatedIssue, error)
	ExecuteFieldCommand(ctx context.Context, issueID string, command string) error
	AddTags(ctx context.Context, issueID string, tags []string) error
}

type IssueLister interface {
	GetProjectIssues(ctx context.Context, projectID string, offset, limit int, query string) ([]models.IssueSummary, error)
}

// TrackerClient is everything the bridge needs from the remote tracker.
type TrackerClient interface {
	FieldProvider
	ProjectProvider
	UserProvider
	IssueWriter
	IssueLister
}

// Credentials identify one tracker account. Token takes precedence over
// Username/Password when set.
type Credentials struct {
	URL      string
	Username string
	Password string
	Token    string
}

// Factory builds a client for a set of credentials. Credentials are stored
// per project, so clients are built per request.
type Factory func(creds Credentials) (TrackerClient, error)

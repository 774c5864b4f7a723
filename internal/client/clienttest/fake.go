// Package clienttest provides an in-memory tracker for tests of code that
// depends on client.TrackerClient.
package clienttest

import (
	"context"
	"sync"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

// Tracker serves canned schema, projects and issues, and records writes.
// CreateIssue always answers with IssueID.
type Tracker struct {
	mu sync.Mutex

	IssueID  string
	Fields   []models.FieldSchema
	Projects []models.Project
	Issues   []models.IssueSummary
	UserErr  error

	created  []models.NewIssue
	commands []string
	tags     [][]string
}

var _ client.TrackerClient = (*Tracker)(nil)

// Factory returns a client.Factory that always hands out t.
func (t *Tracker) Factory() client.Factory {
	return func(creds client.Credentials) (client.TrackerClient, error) { return t, nil }
}

func (t *Tracker) GetProjectFields(ctx context.Context, projectID string, ignoreFields []string) ([]models.FieldSchema, error) {
	return t.Fields, nil
}

func (t *Tracker) GetProjects(ctx context.Context) ([]models.Project, error) {
	return t.Projects, nil
}

func (t *Tracker) GetUser(ctx context.Context, username string) (*models.User, error) {
	if t.UserErr != nil {
		return nil, t.UserErr
	}
	return &models.User{Login: username}, nil
}

func (t *Tracker) CreateIssue(ctx context.Context, issue models.NewIssue) (*models.CreatedIssue, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.created = append(t.created, issue)
	return &models.CreatedIssue{ID: t.IssueID}, nil
}

func (t *Tracker) ExecuteFieldCommand(ctx context.Context, issueID string, command string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commands = append(t.commands, command)
	return nil
}

func (t *Tracker) AddTags(ctx context.Context, issueID string, tags []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tags = append(t.tags, tags)
	return nil
}

func (t *Tracker) GetProjectIssues(ctx context.Context, projectID string, offset, limit int, query string) ([]models.IssueSummary, error) {
	end := min(len(t.Issues), offset+limit)
	if offset >= end {
		return nil, nil
	}
	return t.Issues[offset:end], nil
}

func (t *Tracker) Created() []models.NewIssue {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]models.NewIssue(nil), t.created...)
}

func (t *Tracker) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.commands...)
}

func (t *Tracker) Tags() [][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([][]string(nil), t.tags...)
}

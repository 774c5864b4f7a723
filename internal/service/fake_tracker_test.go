package service

import (
	"context"
	"sync"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

type commandCall struct {
	IssueID string
	Command string
}

type tagsCall struct {
	IssueID string
	Tags    []string
}

type issuesCall struct {
	ProjectID string
	Offset    int
	Limit     int
	Query     string
}

// fakeTracker records every call and fails the ones configured to fail.
type fakeTracker struct {
	mu sync.Mutex

	fields   []models.FieldSchema
	projects []models.Project
	issues   []models.IssueSummary

	createErr   error
	commandErrs map[string]error
	tagsErr     error
	userErr     error
	fieldsErr   error
	projectsErr error

	fieldCalls   int
	creates      []models.NewIssue
	commands     []commandCall
	tagCalls     []tagsCall
	issueQueries []issuesCall
}

var _ client.TrackerClient = (*fakeTracker)(nil)

func (f *fakeTracker) GetProjectFields(ctx context.Context, projectID string, ignoreFields []string) ([]models.FieldSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fieldCalls++
	if f.fieldsErr != nil {
		return nil, f.fieldsErr
	}
	return f.fields, nil
}

func (f *fakeTracker) GetProjects(ctx context.Context) ([]models.Project, error) {
	if f.projectsErr != nil {
		return nil, f.projectsErr
	}
	return f.projects, nil
}

func (f *fakeTracker) GetUser(ctx context.Context, username string) (*models.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return &models.User{Login: username}, nil
}

func (f *fakeTracker) CreateIssue(ctx context.Context, issue models.NewIssue) (*models.CreatedIssue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, issue)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.CreatedIssue{ID: "SB-42"}, nil
}

func (f *fakeTracker) ExecuteFieldCommand(ctx context.Context, issueID string, command string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, commandCall{IssueID: issueID, Command: command})
	return f.commandErrs[command]
}

func (f *fakeTracker) AddTags(ctx context.Context, issueID string, tags []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls = append(f.tagCalls, tagsCall{IssueID: issueID, Tags: tags})
	return f.tagsErr
}

func (f *fakeTracker) GetProjectIssues(ctx context.Context, projectID string, offset, limit int, query string) ([]models.IssueSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issueQueries = append(f.issueQueries, issuesCall{ProjectID: projectID, Offset: offset, Limit: limit, Query: query})
	end := min(len(f.issues), offset+limit)
	if offset >= end {
		return nil, nil
	}
	return f.issues[offset:end], nil
}

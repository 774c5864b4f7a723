package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/repository"
)

var (
	ErrNotConfigured        = errors.New("tracker project is not configured")
	ErrSubmissionLogMissing = errors.New("submission log is not available")
)

type OptionStore interface {
	Get(ctx context.Context, projectID, key string, out any) (bool, error)
	Set(ctx context.Context, projectID, key string, value any) error
	Delete(ctx context.Context, projectID, key string) error
}

type GroupMetaStore interface {
	GetValue(ctx context.Context, groupID, key string) (string, bool, error)
	SetValue(ctx context.Context, groupID, key, value string) error
}

type SubmissionLog interface {
	Record(ctx context.Context, s *repository.Submission, steps []repository.SubmissionStep) error
	GetSubmission(ctx context.Context, id string) (repository.Submission, error)
	FindStepsBySubmissionID(ctx context.Context, submissionID string) ([]repository.SubmissionStep, error)
}

// ProjectOptions is the per-project configuration kept in the option store.
type ProjectOptions struct {
	URL           string        `json:"url"`
	Username      string        `json:"username"`
	Password      string        `json:"-"`
	Token         string        `json:"-"`
	Project       string        `json:"project"`
	DefaultTags   string        `json:"default_tags"`
	IgnoreFields  []string      `json:"ignore_fields"`
	DefaultFields form.Defaults `json:"-"`
}

func (o ProjectOptions) Credentials() client.Credentials {
	return client.Credentials{
		URL:      o.URL,
		Username: o.Username,
		Password: o.Password,
		Token:    o.Token,
	}
}

// IssueURL is the tracker's web address for issueID.
func (o ProjectOptions) IssueURL(issueID string) string {
	if o.URL == "" || issueID == "" {
		return ""
	}
	return strings.TrimRight(o.URL, "/") + "/issue/" + issueID
}

// withFallback uses the service-wide tracker connection for projects that
// have none of their own. A project with its own URL keeps its credentials.
func (o ProjectOptions) withFallback(fb ProjectOptions) ProjectOptions {
	if o.URL == "" {
		o.URL = fb.URL
		o.Username = fb.Username
		o.Password = fb.Password
		o.Token = fb.Token
	}
	if o.Project == "" {
		o.Project = fb.Project
	}
	return o
}

func LoadProjectOptions(ctx context.Context, store OptionStore, projectID string) (ProjectOptions, error) {
	var o ProjectOptions
	targets := []struct {
		key string
		out any
	}{
		{repository.OptionURL, &o.URL},
		{repository.OptionUsername, &o.Username},
		{repository.OptionPassword, &o.Password},
		{repository.OptionToken, &o.Token},
		{repository.OptionProject, &o.Project},
		{repository.OptionDefaultTags, &o.DefaultTags},
		{repository.OptionIgnoreFields, &o.IgnoreFields},
		{repository.OptionDefaultFields, &o.DefaultFields},
	}
	for _, t := range targets {
		if _, err := store.Get(ctx, projectID, t.key, t.out); err != nil {
			return ProjectOptions{}, fmt.Errorf("load project options: %w", err)
		}
	}
	return o, nil
}

func SaveProjectOptions(ctx context.Context, store OptionStore, projectID string, o ProjectOptions) error {
	values := []struct {
		key   string
		value any
	}{
		{repository.OptionURL, o.URL},
		{repository.OptionUsername, o.Username},
		{repository.OptionPassword, o.Password},
		{repository.OptionToken, o.Token},
		{repository.OptionProject, o.Project},
		{repository.OptionDefaultTags, o.DefaultTags},
		{repository.OptionIgnoreFields, o.IgnoreFields},
	}
	for _, v := range values {
		if err := store.Set(ctx, projectID, v.key, v.value); err != nil {
			return fmt.Errorf("save project options: %w", err)
		}
	}
	return nil
}

// ProjectSession is one request's view of a configured project: its
// options and a client built from its credentials.
type ProjectSession struct {
	ProjectID string
	Options   ProjectOptions
	Client    client.TrackerClient
}

// Tracker opens project sessions.
type Tracker struct {
	options  OptionStore
	factory  client.Factory
	fallback ProjectOptions
}

func NewTracker(options OptionStore, factory client.Factory, fallback ProjectOptions) *Tracker {
	return &Tracker{
		options:  options,
		factory:  factory,
		fallback: fallback,
	}
}

func (t *Tracker) Options(ctx context.Context, projectID string) (ProjectOptions, error) {
	o, err := LoadProjectOptions(ctx, t.options, projectID)
	if err != nil {
		return ProjectOptions{}, err
	}
	return o.withFallback(t.fallback), nil
}

func (t *Tracker) Open(ctx context.Context, projectID string) (*ProjectSession, error) {
	o, err := t.Options(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if o.Project == "" || o.URL == "" {
		return nil, fmt.Errorf("open project %s: %w", projectID, ErrNotConfigured)
	}

	c, err := t.factory(o.Credentials())
	if err != nil {
		return nil, fmt.Errorf("build tracker client: %w", err)
	}
	return &ProjectSession{ProjectID: projectID, Options: o, Client: c}, nil
}

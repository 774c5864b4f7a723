package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/models"
	"github.com/TWRT/issue-bridge/internal/repository"
	"github.com/TWRT/issue-bridge/internal/schemacache"
)

// ProjectChoices are the values a project configuration may pick from.
type ProjectChoices struct {
	Projects   []models.Project `json:"projects"`
	FieldNames []string         `json:"field_names"`
}

type ConfigurationService struct {
	options OptionStore
	tracker *Tracker
	factory client.Factory
	cache   *schemacache.Cache
	logger  *zap.Logger
}

func NewConfigurationService(options OptionStore, tracker *Tracker, factory client.Factory, cache *schemacache.Cache, logger *zap.Logger) *ConfigurationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConfigurationService{
		options: options,
		tracker: tracker,
		factory: factory,
		cache:   cache,
		logger:  logger,
	}
}

// ConnectionMessage turns a probe failure into the message shown to the
// person configuring the project.
func ConnectionMessage(err error) string {
	switch {
	case errors.Is(err, client.ErrRemoteAuth):
		return "User doesn't have Low-level Administration permissions."
	case errors.Is(err, client.ErrRemoteUnavailable):
		return "Unable to connect to YouTrack. " + err.Error()
	default:
		return err.Error()
	}
}

// Probe checks that creds reach the tracker with enough rights to read
// the user's own account.
func (s *ConfigurationService) Probe(ctx context.Context, creds client.Credentials) (client.TrackerClient, error) {
	c, err := s.factory(creds)
	if err != nil {
		return nil, fmt.Errorf("build tracker client: %w", err)
	}
	login := creds.Username
	if login == "" {
		login = "me"
	}
	if _, err := c.GetUser(ctx, login); err != nil {
		return nil, fmt.Errorf("probe tracker: %w", err)
	}
	return c, nil
}

// Choices fetches the tracker projects and, when project is set, the names
// of its custom fields. Both lookups run concurrently.
func (s *ConfigurationService) Choices(ctx context.Context, c client.TrackerClient, project string) (*ProjectChoices, error) {
	choices := &ProjectChoices{Projects: []models.Project{}, FieldNames: []string{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		projects, err := c.GetProjects(gctx)
		if err != nil {
			return fmt.Errorf("get projects: %w", err)
		}
		choices.Projects = projects
		return nil
	})
	if project != "" {
		g.Go(func() error {
			fields, err := c.GetProjectFields(gctx, project, nil)
			if err != nil {
				return fmt.Errorf("get project fields: %w", err)
			}
			names := make([]string, len(fields))
			for i, f := range fields {
				names[i] = f.Name
			}
			choices.FieldNames = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return choices, nil
}

// Load returns the stored options of projectID with the service-wide
// fallbacks applied, plus the tracker choices when the tracker is reachable.
func (s *ConfigurationService) Load(ctx context.Context, projectID string) (ProjectOptions, *ProjectChoices, error) {
	o, err := s.tracker.Options(ctx, projectID)
	if err != nil {
		return ProjectOptions{}, nil, err
	}
	if o.URL == "" {
		return o, nil, nil
	}

	c, err := s.Probe(ctx, o.Credentials())
	if err != nil {
		s.logger.Info("tracker probe failed", zap.String("project_id", projectID), zap.Error(err))
		return o, nil, err
	}
	choices, err := s.Choices(ctx, c, o.Project)
	if err != nil {
		return o, nil, err
	}
	return o, choices, nil
}

// Save validates in, probes the tracker with the resulting credentials and
// stores the options. An empty password keeps the stored one.
func (s *ConfigurationService) Save(ctx context.Context, projectID string, in ProjectOptions) (ProjectOptions, error) {
	current, err := LoadProjectOptions(ctx, s.options, projectID)
	if err != nil {
		return ProjectOptions{}, err
	}

	in.URL = strings.TrimSpace(in.URL)
	in.Username = strings.TrimSpace(in.Username)
	in.Project = strings.TrimSpace(in.Project)
	if in.Password == "" {
		in.Password = current.Password
	}
	if in.Token == "" {
		in.Token = current.Token
	}

	if err := validateOptions(in); err != nil {
		return ProjectOptions{}, err
	}

	if _, err := s.Probe(ctx, in.Credentials()); err != nil {
		if errors.Is(err, client.ErrRemoteAuth) || errors.Is(err, client.ErrRemoteUnavailable) {
			return ProjectOptions{}, form.Issues{{Field: "username", Code: "connection", Message: ConnectionMessage(err)}}
		}
		return ProjectOptions{}, err
	}

	if err := SaveProjectOptions(ctx, s.options, projectID, in); err != nil {
		return ProjectOptions{}, err
	}
	s.cache.Invalidate(projectID)

	s.logger.Info("project configuration saved", zap.String("project_id", projectID), zap.String("tracker_project", in.Project))
	return in, nil
}

// Reset forgets every stored option of projectID, saved field defaults
// included. The project falls back to the service-wide tracker connection.
func (s *ConfigurationService) Reset(ctx context.Context, projectID string) error {
	for _, key := range repository.AllOptions {
		if err := s.options.Delete(ctx, projectID, key); err != nil {
			return fmt.Errorf("reset project options: %w", err)
		}
	}
	s.cache.Invalidate(projectID)
	s.logger.Info("project configuration reset", zap.String("project_id", projectID))
	return nil
}

func validateOptions(o ProjectOptions) error {
	var iss form.Issues
	required := func(field, v string) {
		if v == "" {
			iss = append(iss, form.Issue{Field: field, Code: form.CodeRequired, Message: "This field is required."})
		}
	}

	required("url", o.URL)
	if o.URL != "" {
		if u, err := url.ParseRequestURI(o.URL); err != nil || u.Host == "" {
			iss = append(iss, form.Issue{Field: "url", Code: form.CodeInvalidFormat, Message: "Enter a valid URL."})
		}
	}
	if o.Token == "" {
		required("username", o.Username)
		required("password", o.Password)
	}
	required("project", o.Project)

	if len(iss) > 0 {
		return iss
	}
	return nil
}

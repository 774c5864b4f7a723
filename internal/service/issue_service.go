package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/models"
	"github.com/TWRT/issue-bridge/internal/repository"
	"github.com/TWRT/issue-bridge/internal/schemacache"
)

type CreateIssueResult struct {
	SubmissionID string
	IssueID      string
	IssueURL     string
	Steps        []StepOutcome
}

// Warnings returns one message per failed enrichment step.
func (r *CreateIssueResult) Warnings() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Failed() {
			out = append(out, fmt.Sprintf("%s %s: %v", s.Step, s.Target, s.Err))
		}
	}
	return out
}

type IssueService struct {
	tracker     *Tracker
	cache       *schemacache.Cache
	options     OptionStore
	submitter   *IssueSubmitter
	linker      *ExistingIssueLinker
	browser     *ProjectIssueBrowser
	submissions SubmissionLog
	logger      *zap.Logger
}

func NewIssueService(
	tracker *Tracker,
	cache *schemacache.Cache,
	options OptionStore,
	submitter *IssueSubmitter,
	linker *ExistingIssueLinker,
	browser *ProjectIssueBrowser,
	submissions SubmissionLog,
	logger *zap.Logger,
) *IssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		tracker:     tracker,
		cache:       cache,
		options:     options,
		submitter:   submitter,
		linker:      linker,
		browser:     browser,
		submissions: submissions,
		logger:      logger,
	}
}

func (s *IssueService) projectFields(ctx context.Context, session *ProjectSession) ([]form.MappedField, error) {
	o := session.Options
	key := schemacache.ProjectFieldsKey(session.ProjectID, o.URL, o.Project, o.IgnoreFields)
	schema, err := s.cache.Get(ctx, key, func(ctx context.Context) ([]models.FieldSchema, error) {
		s.logger.Debug("fetching project fields", zap.String("project", o.Project))
		return session.Client.GetProjectFields(ctx, o.Project, o.IgnoreFields)
	})
	if err != nil {
		return nil, fmt.Errorf("get project fields: %w", err)
	}

	fields := form.MapSchema(schema, o.DefaultFields)
	if skipped := len(schema) - len(fields); skipped > 0 {
		s.logger.Debug("skipped unmappable fields", zap.String("project", o.Project), zap.Int("count", skipped))
	}
	return fields, nil
}

// ProjectFields returns the mapped dynamic fields of projectID's tracker
// project, pre-populated with saved defaults.
func (s *IssueService) ProjectFields(ctx context.Context, projectID string) ([]form.MappedField, error) {
	session, err := s.tracker.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.projectFields(ctx, session)
}

// NewIssueForm builds an unbound form. Empty initial tags fall back to the
// project's default tags.
func (s *IssueService) NewIssueForm(ctx context.Context, projectID string, initial form.Initial) (*form.SubmissionForm, error) {
	session, err := s.tracker.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	fields, err := s.projectFields(ctx, session)
	if err != nil {
		return nil, err
	}
	if initial.Tags == "" {
		initial.Tags = session.Options.DefaultTags
	}
	return form.NewSubmissionForm(fields, initial), nil
}

// CreateIssue validates data against the project's form and, if valid,
// submits it. Validation failures are returned as form.Issues and no
// remote call is made. The created issue is linked to groupID.
func (s *IssueService) CreateIssue(ctx context.Context, projectID, groupID string, data url.Values) (*CreateIssueResult, error) {
	session, err := s.tracker.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	fields, err := s.projectFields(ctx, session)
	if err != nil {
		return nil, err
	}

	f := form.NewSubmissionForm(fields, form.Initial{})
	f.Bind(data)
	if err := f.Validate(); err != nil {
		return nil, err
	}

	submissionID := uuid.NewString()
	logger := s.logger.With(zap.String("submission_id", submissionID), zap.String("group_id", groupID))

	result, err := s.submitter.Submit(ctx, session.Client, Submission{
		ProjectRef:  session.Options.Project,
		Title:       f.Title(),
		Description: f.Description(),
		Tags:        f.Tags(),
		Values:      f.Values(),
	})
	if err != nil {
		logger.Error("issue creation failed", zap.Error(err))
		s.record(ctx, logger, &repository.Submission{
			ID:             submissionID,
			ProjectID:      projectID,
			GroupID:        groupID,
			TrackerProject: session.Options.Project,
			Status:         repository.SubmissionStatusFailed,
			ErrorMessage:   err.Error(),
		}, nil)
		return nil, err
	}

	if err := s.linker.Link(ctx, groupID, result.IssueID); err != nil {
		logger.Error("linking created issue failed", zap.String("issue_id", result.IssueID), zap.Error(err))
	}

	status := repository.SubmissionStatusCreated
	if len(result.Failures()) > 0 {
		status = repository.SubmissionStatusCreatedWithError
	}
	s.record(ctx, logger, &repository.Submission{
		ID:             submissionID,
		ProjectID:      projectID,
		GroupID:        groupID,
		TrackerProject: session.Options.Project,
		IssueID:        result.IssueID,
		Status:         status,
	}, result.Steps)

	return &CreateIssueResult{
		SubmissionID: submissionID,
		IssueID:      result.IssueID,
		IssueURL:     session.Options.IssueURL(result.IssueID),
		Steps:        result.Steps,
	}, nil
}

func (s *IssueService) record(ctx context.Context, logger *zap.Logger, sub *repository.Submission, steps []StepOutcome) {
	if s.submissions == nil {
		return
	}
	records := make([]repository.SubmissionStep, len(steps))
	for i, st := range steps {
		records[i] = repository.SubmissionStep{
			Step:   st.Step,
			Target: st.Target,
			Status: repository.StepStatusSuccess,
		}
		if st.Err != nil {
			records[i].Status = repository.StepStatusFailed
			records[i].ErrorMessage = st.Err.Error()
		}
	}
	if err := s.submissions.Record(ctx, sub, records); err != nil {
		logger.Warn("recording submission failed", zap.Error(err))
	}
}

// Submission returns a recorded submission and the outcome of each remote
// step it issued, in order.
func (s *IssueService) Submission(ctx context.Context, id string) (*repository.Submission, []repository.SubmissionStep, error) {
	if s.submissions == nil {
		return nil, nil, ErrSubmissionLogMissing
	}
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	steps, err := s.submissions.FindStepsBySubmissionID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return &sub, steps, nil
}

func (s *IssueService) SearchIssues(ctx context.Context, projectID, query, page, pageLimit string) (*IssuePage, error) {
	session, err := s.tracker.Open(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return s.browser.Search(ctx, session.Client, session.Options.Project, query, page, pageLimit)
}

func (s *IssueService) LinkIssue(ctx context.Context, groupID, issueID string) error {
	return s.linker.Link(ctx, groupID, issueID)
}

// LinkedIssue returns the issue linked to groupID and its tracker URL.
func (s *IssueService) LinkedIssue(ctx context.Context, projectID, groupID string) (string, string, bool, error) {
	issueID, found, err := s.linker.Linked(ctx, groupID)
	if err != nil || !found {
		return "", "", false, err
	}
	o, err := s.tracker.Options(ctx, projectID)
	if err != nil {
		return "", "", false, err
	}
	return issueID, o.IssueURL(issueID), true, nil
}

// SaveDefault stores value as the pre-filled value of field for future
// forms of projectID.
func (s *IssueService) SaveDefault(ctx context.Context, projectID, field, value string) error {
	field, value, err := form.ValidateDefault(field, value)
	if err != nil {
		return err
	}

	defaults := form.Defaults{}
	if _, err := s.options.Get(ctx, projectID, repository.OptionDefaultFields, &defaults); err != nil {
		return fmt.Errorf("load default fields: %w", err)
	}
	if defaults == nil {
		defaults = form.Defaults{}
	}
	defaults.Set(field, value)

	if err := s.options.Set(ctx, projectID, repository.OptionDefaultFields, defaults); err != nil {
		return fmt.Errorf("save default fields: %w", err)
	}
	s.logger.Debug("saved field default", zap.String("project_id", projectID), zap.String("field", field))
	return nil
}

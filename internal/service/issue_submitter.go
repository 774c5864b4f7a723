package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

const (
	StepCreateIssue  = "create_issue"
	StepFieldCommand = "field_command"
	StepAddTags      = "add_tags"
)

// StepOutcome records one remote call made for a submission. Err is nil on
// success.
type StepOutcome struct {
	Step   string `json:"step"`
	Target string `json:"target"`
	Err    error  `json:"-"`
}

func (o StepOutcome) Failed() bool { return o.Err != nil }

type IssueCreationResult struct {
	IssueID string
	Steps   []StepOutcome
}

// Failures returns the enrichment steps that did not succeed.
func (r *IssueCreationResult) Failures() []StepOutcome {
	var failed []StepOutcome
	for _, s := range r.Steps {
		if s.Failed() {
			failed = append(failed, s)
		}
	}
	return failed
}

type Submission struct {
	ProjectRef  string
	Title       string
	Description string
	Tags        []string
	Values      []models.FieldValue
}

// IssueSubmitter replays a validated submission against the tracker.
//
// Creating the issue is the only mandatory step; its failure aborts the
// submission before anything exists remotely. Field commands and tags are
// then applied one call at a time. Their failures are recorded in the
// result and never undo the created issue or skip later steps.
type IssueSubmitter struct {
	logger *zap.Logger
}

func NewIssueSubmitter(logger *zap.Logger) *IssueSubmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueSubmitter{logger: logger}
}

func (s *IssueSubmitter) Submit(ctx context.Context, tracker client.IssueWriter, sub Submission) (*IssueCreationResult, error) {
	created, err := tracker.CreateIssue(ctx, models.NewIssue{
		Project:     sub.ProjectRef,
		Summary:     sub.Title,
		Description: sub.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}

	result := &IssueCreationResult{
		IssueID: created.ID,
		Steps:   []StepOutcome{{Step: StepCreateIssue, Target: sub.ProjectRef}},
	}
	logger := s.logger.With(zap.String("issue_id", created.ID))

	for _, fv := range sub.Values {
		if len(fv.Values) == 0 {
			continue
		}
		err := tracker.ExecuteFieldCommand(ctx, created.ID, FieldCommand(fv.Name, fv.Values))
		if err != nil {
			logger.Warn("field command failed", zap.String("field", fv.Name), zap.Error(err))
		}
		result.Steps = append(result.Steps, StepOutcome{Step: StepFieldCommand, Target: fv.Name, Err: err})
	}

	if len(sub.Tags) > 0 {
		err := tracker.AddTags(ctx, created.ID, sub.Tags)
		if err != nil {
			logger.Warn("add tags failed", zap.Strings("tags", sub.Tags), zap.Error(err))
		}
		result.Steps = append(result.Steps, StepOutcome{Step: StepAddTags, Target: strings.Join(sub.Tags, ","), Err: err})
	}

	logger.Info("issue submitted",
		zap.String("project", sub.ProjectRef),
		zap.Int("steps", len(result.Steps)),
		zap.Int("failed_steps", len(result.Failures())),
	)
	return result, nil
}

// FieldCommand builds the command setting field to values: one
// "<field> <value>" fragment per value, joined by a space.
func FieldCommand(field string, values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = field + " " + v
	}
	return strings.Join(parts, " ")
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrSubmissionNotFound = errors.New("submission not found")

const (
	SubmissionStatusCreated          = "created"
	SubmissionStatusCreatedWithError = "created_with_errors"
	SubmissionStatusFailed           = "failed"

	StepStatusSuccess = "success"
	StepStatusFailed  = "failed"
)

type Submission struct {
	ID             string
	ProjectID      string
	GroupID        string
	TrackerProject string
	IssueID        string
	Status         string
	ErrorMessage   string
	CreatedAt      time.Time
}

type SubmissionStep struct {
	ID           int64
	SubmissionID string
	Step         string
	Target       string
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// SubmissionRepository keeps a log of issue submissions and the outcome of
// every remote step each one issued.
type SubmissionRepository struct {
	db *sql.DB
}

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Record stores a submission and its steps in one transaction.
func (r *SubmissionRepository) Record(ctx context.Context, s *Submission, steps []SubmissionStep) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record submission: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, project_id, group_id, tracker_project, issue_id, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID,
		s.ProjectID,
		s.GroupID,
		s.TrackerProject,
		nullString(s.IssueID),
		s.Status,
		nullString(s.ErrorMessage),
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	for _, step := range steps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO submission_steps (submission_id, step, target, status, error_message)
			VALUES (?, ?, ?, ?, ?)
		`,
			s.ID,
			step.Step,
			step.Target,
			step.Status,
			nullString(step.ErrorMessage),
		)
		if err != nil {
			return fmt.Errorf("create submission step: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepository) GetSubmission(ctx context.Context, id string) (Submission, error) {
	var s Submission
	var issueID, errMsg sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT id, project_id, group_id, tracker_project, issue_id, status, error_message, created_at
		FROM submissions WHERE id = ?
	`, id).Scan(
		&s.ID,
		&s.ProjectID,
		&s.GroupID,
		&s.TrackerProject,
		&issueID,
		&s.Status,
		&errMsg,
		&s.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, fmt.Errorf("%s: %w", id, ErrSubmissionNotFound)
	}
	if err != nil {
		return Submission{}, fmt.Errorf("get submission: %w", err)
	}
	s.IssueID = issueID.String
	s.ErrorMessage = errMsg.String
	return s, nil
}

func (r *SubmissionRepository) FindStepsBySubmissionID(ctx context.Context, submissionID string) ([]SubmissionStep, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, submission_id, step, target, status, error_message, created_at
		FROM submission_steps
		WHERE submission_id = ?
		ORDER BY id
	`, submissionID)
	if err != nil {
		return nil, fmt.Errorf("find submission steps: %w", err)
	}
	defer rows.Close()

	var steps []SubmissionStep
	for rows.Next() {
		var st SubmissionStep
		var errMsg sql.NullString
		if err := rows.Scan(
			&st.ID,
			&st.SubmissionID,
			&st.Step,
			&st.Target,
			&st.Status,
			&errMsg,
			&st.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan submission step: %w", err)
		}
		st.ErrorMessage = errMsg.String
		steps = append(steps, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submission steps: %w", err)
	}
	return steps, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// Option keys stored per project.
const (
	OptionURL           = "url"
	OptionUsername      = "username"
	OptionPassword      = "password"
	OptionToken         = "token"
	OptionProject       = "project"
	OptionDefaultTags   = "default_tags"
	OptionIgnoreFields  = "ignore_fields"
	OptionDefaultFields = "default_fields"
)

// AllOptions lists every key a project may store.
var AllOptions = []string{
	OptionURL,
	OptionUsername,
	OptionPassword,
	OptionToken,
	OptionProject,
	OptionDefaultTags,
	OptionIgnoreFields,
	OptionDefaultFields,
}

// ProjectOptionRepository is a per-project key/value store. Values are
// stored as JSON.
type ProjectOptionRepository struct {
	db *sql.DB
}

func NewProjectOptionRepository(db *sql.DB) *ProjectOptionRepository {
	return &ProjectOptionRepository{db: db}
}

// Get decodes the option into out. found is false when the option is unset.
func (r *ProjectOptionRepository) Get(ctx context.Context, projectID, key string, out any) (bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM project_options WHERE project_id = ? AND key = ?`,
		projectID, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get option %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode option %s: %w", key, err)
	}
	return true, nil
}

func (r *ProjectOptionRepository) Set(ctx context.Context, projectID, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode option %s: %w", key, err)
	}

	query := `
		INSERT INTO project_options (project_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (project_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, query, projectID, key, string(b)); err != nil {
		return fmt.Errorf("set option %s: %w", key, err)
	}
	return nil
}

func (r *ProjectOptionRepository) Delete(ctx context.Context, projectID, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM project_options WHERE project_id = ? AND key = ?`, projectID, key)
	if err != nil {
		return fmt.Errorf("delete option %s: %w", key, err)
	}
	return nil
}

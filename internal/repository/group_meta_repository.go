package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type GroupMetaRepository struct {
	db *sql.DB
}

func NewGroupMetaRepository(db *sql.DB) *GroupMetaRepository {
	return &GroupMetaRepository{db: db}
}

func (r *GroupMetaRepository) GetValue(ctx context.Context, groupID, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM group_meta WHERE group_id = ? AND key = ?`,
		groupID, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get group meta %s: %w", key, err)
	}
	return value, true, nil
}

// SetValue overwrites any previous value stored under key.
func (r *GroupMetaRepository) SetValue(ctx context.Context, groupID, key, value string) error {
	query := `
		INSERT INTO group_meta (group_id, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT (group_id, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := r.db.ExecContext(ctx, query, groupID, key, value); err != nil {
		return fmt.Errorf("set group meta %s: %w", key, err)
	}
	return nil
}

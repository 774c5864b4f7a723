package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/TWRT/issue-bridge/internal/form"
)

const linkKeySuffix = ":tid"

// ExistingIssueLinker binds a tracker issue id to a local error group. It
// only touches local state.
type ExistingIssueLinker struct {
	meta GroupMetaStore
	key  string
}

func NewExistingIssueLinker(meta GroupMetaStore, namespace string) *ExistingIssueLinker {
	return &ExistingIssueLinker{meta: meta, key: namespace + linkKeySuffix}
}

// Link stores issueID for groupID, replacing any previous link.
func (l *ExistingIssueLinker) Link(ctx context.Context, groupID, issueID string) error {
	issueID = strings.TrimSpace(issueID)
	if issueID == "" {
		return form.Issues{{Field: "issue", Code: form.CodeRequired, Message: "This field is required."}}
	}
	if err := l.meta.SetValue(ctx, groupID, l.key, issueID); err != nil {
		return fmt.Errorf("link issue: %w", err)
	}
	return nil
}

func (l *ExistingIssueLinker) Linked(ctx context.Context, groupID string) (string, bool, error) {
	v, found, err := l.meta.GetValue(ctx, groupID, l.key)
	if err != nil {
		return "", false, fmt.Errorf("get linked issue: %w", err)
	}
	return v, found, nil
}

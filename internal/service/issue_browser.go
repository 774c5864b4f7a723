package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

const (
	DefaultPage      = 1
	DefaultPageLimit = 15
	MaxPageLimit     = 100

	// MaxPage keeps (page-1)*limit+limit+1 within int.
	MaxPage = math.MaxInt/(MaxPageLimit+1) - 1
)

type IssuePage struct {
	More   bool                  `json:"more"`
	Issues []models.IssueSummary `json:"issues"`
}

// ProjectIssueBrowser pages through a project's issues for the "link to
// existing issue" search.
type ProjectIssueBrowser struct{}

func NewProjectIssueBrowser() *ProjectIssueBrowser {
	return &ProjectIssueBrowser{}
}

// ParsePagination reads untrusted page and page limit values. Anything that
// is not a positive integer falls back to the defaults; larger values are
// capped at MaxPage and MaxPageLimit.
func ParsePagination(page, pageLimit string) (int, int) {
	p := positiveInt(page, DefaultPage)
	l := positiveInt(pageLimit, DefaultPageLimit)
	return min(p, MaxPage), min(l, MaxPageLimit)
}

func positiveInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Search fetches one extra record beyond the page to learn whether another
// page exists, then trims it.
func (b *ProjectIssueBrowser) Search(ctx context.Context, lister client.IssueLister, projectRef, query, page, pageLimit string) (*IssuePage, error) {
	p, limit := ParsePagination(page, pageLimit)
	offset := (p - 1) * limit

	issues, err := lister.GetProjectIssues(ctx, projectRef, offset, limit+1, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search project issues: %w", err)
	}

	result := &IssuePage{
		More:   len(issues) > limit,
		Issues: make([]models.IssueSummary, 0, min(len(issues), limit)),
	}
	result.Issues = append(result.Issues, issues[:min(len(issues), limit)]...)
	return result, nil
}

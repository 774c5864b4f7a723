package mcptools

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/TWRT/issue-bridge/internal/service"
)

// SearchIssuesTool handles the tracker_search_issues MCP tool.
type SearchIssuesTool struct {
	issues *service.IssueService
}

func NewSearchIssuesTool(issues *service.IssueService) *SearchIssuesTool {
	return &SearchIssuesTool{issues: issues}
}

func (t *SearchIssuesTool) Definition() mcp.Tool {
	return mcp.NewTool("tracker_search_issues",
		mcp.WithDescription("Search the tracker project's issues page by page."),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Local project id whose tracker configuration to use"),
		),
		mcp.WithString("query",
			mcp.Description("Tracker search query appended to the project filter"),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number (default: 1)"),
		),
		mcp.WithNumber("page_limit",
			mcp.Description(fmt.Sprintf("Issues per page (default: %d, max: %d)", service.DefaultPageLimit, service.MaxPageLimit)),
		),
	)
}

func (t *SearchIssuesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}
	page := intArg(req.GetFloat("page", 0))
	pageLimit := intArg(req.GetFloat("page_limit", 0))

	result, err := t.issues.SearchIssues(ctx, project, req.GetString("query", ""), page, pageLimit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search issues: %s", service.ConnectionMessage(err))), nil
	}

	if len(result.Issues) == 0 {
		return mcp.NewToolResultText("No issues found."), nil
	}

	var b strings.Builder
	for _, issue := range result.Issues {
		fmt.Fprintf(&b, "%s [%s] %s\n", issue.ID, issue.State, issue.Summary)
	}
	if result.More {
		b.WriteString("More issues available on the next page.\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// intArg renders a numeric tool argument for service.ParsePagination.
// Values outside int range or below one become "" so the defaults apply.
func intArg(v float64) string {
	if math.IsNaN(v) || v < 1 {
		return ""
	}
	if v >= math.MaxInt64 {
		return strconv.Itoa(math.MaxInt)
	}
	return strconv.FormatInt(int64(v), 10)
}

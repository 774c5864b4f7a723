package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/service"
)

// LinkIssueTool handles the tracker_link_issue MCP tool.
type LinkIssueTool struct {
	issues *service.IssueService
}

func NewLinkIssueTool(issues *service.IssueService) *LinkIssueTool {
	return &LinkIssueTool{issues: issues}
}

func (t *LinkIssueTool) Definition() mcp.Tool {
	return mcp.NewTool("tracker_link_issue",
		mcp.WithDescription("Link an existing tracker issue to an error group, replacing any previous link."),
		mcp.WithString("group",
			mcp.Required(),
			mcp.Description("Error group id"),
		),
		mcp.WithString("issue",
			mcp.Required(),
			mcp.Description("Tracker issue id, e.g. SB-42"),
		),
	)
}

func (t *LinkIssueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	group := req.GetString("group", "")
	if group == "" {
		return mcp.NewToolResultError("'group' is required"), nil
	}

	issue := strings.TrimSpace(req.GetString("issue", ""))
	if err := t.issues.LinkIssue(ctx, group, issue); err != nil {
		if iss, ok := form.AsIssues(err); ok {
			return mcp.NewToolResultError(iss.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to link issue: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked group %s to %s", group, issue)), nil
}

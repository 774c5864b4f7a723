package mcptools

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/TWRT/issue-bridge/internal/service"
)

// ProjectFieldsTool handles the tracker_project_fields MCP tool.
type ProjectFieldsTool struct {
	issues *service.IssueService
}

func NewProjectFieldsTool(issues *service.IssueService) *ProjectFieldsTool {
	return &ProjectFieldsTool{issues: issues}
}

func (t *ProjectFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("tracker_project_fields",
		mcp.WithDescription(
			"List the custom fields an issue form shows for a project: key, kind, choices and saved default. "+
				"Submit values under the returned keys.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Local project id whose tracker configuration to use"),
		),
	)
}

func (t *ProjectFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := req.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}

	fields, err := t.issues.ProjectFields(ctx, project)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project fields: %s", service.ConnectionMessage(err))), nil
	}

	b, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// Package mcptools exposes the issue bridge as MCP tools.
package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/TWRT/issue-bridge/internal/service"
)

var Version = "dev"

// NewServer creates the MCP server with every tracker tool registered.
func NewServer(issues *service.IssueService) *server.MCPServer {
	s := server.NewMCPServer(
		"issue-bridge",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	fieldsTool := NewProjectFieldsTool(issues)
	s.AddTool(fieldsTool.Definition(), fieldsTool.Handle)

	searchTool := NewSearchIssuesTool(issues)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	linkTool := NewLinkIssueTool(issues)
	s.AddTool(linkTool.Definition(), linkTool.Handle)

	return s
}

package mcptools

import (
	"context"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/issue-bridge/internal/app"
	"github.com/TWRT/issue-bridge/internal/client/clienttest"
	"github.com/TWRT/issue-bridge/internal/config"
	"github.com/TWRT/issue-bridge/internal/models"
	"github.com/TWRT/issue-bridge/internal/repository"
)

func newTestApp(t *testing.T, tracker *clienttest.Tracker) *app.App {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	cfg.Tracker.URL = "https://tracker.example.com"
	cfg.Tracker.Token = "perm:abc"
	cfg.Tracker.Project = "SB"

	a := app.NewWithFactory(db, tracker.Factory(), cfg, nil)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDefinitions(t *testing.T) {
	a := newTestApp(t, &clienttest.Tracker{})

	assert.Equal(t, "tracker_project_fields", NewProjectFieldsTool(a.Issues).Definition().Name)
	assert.Equal(t, "tracker_search_issues", NewSearchIssuesTool(a.Issues).Definition().Name)
	assert.Equal(t, "tracker_link_issue", NewLinkIssueTool(a.Issues).Definition().Name)
	assert.NotNil(t, NewServer(a.Issues))
}

func TestProjectFieldsTool(t *testing.T) {
	a := newTestApp(t, &clienttest.Tracker{Fields: []models.FieldSchema{
		{Name: "Severity", Type: "enum[1]", Values: []string{"Low", "High"}},
		{Name: "Due", Type: "date"},
	}})
	tool := NewProjectFieldsTool(a.Issues)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"project": "p1"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	text := resultText(res)
	assert.Contains(t, text, `"key": "field_1"`)
	assert.Contains(t, text, `"kind": "date"`)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestSearchIssuesTool(t *testing.T) {
	a := newTestApp(t, &clienttest.Tracker{Issues: []models.IssueSummary{
		{ID: "SB-1", State: "Open", Summary: "first"},
		{ID: "SB-2", State: "Fixed", Summary: "second"},
	}})
	tool := NewSearchIssuesTool(a.Issues)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"project":    "p1",
		"page_limit": float64(1),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	text := resultText(res)
	assert.Contains(t, text, "SB-1 [Open] first")
	assert.NotContains(t, text, "SB-2")
	assert.Contains(t, text, "next page")

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"project": "p1", "page": float64(9)}))
	require.NoError(t, err)
	assert.Equal(t, "No issues found.", resultText(res))
}

func TestLinkIssueTool(t *testing.T) {
	a := newTestApp(t, &clienttest.Tracker{})
	tool := NewLinkIssueTool(a.Issues)

	res, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{"group": "g1", "issue": " SB-4 "}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	assert.Equal(t, "Linked group g1 to SB-4", resultText(res))

	id, _, found, err := a.Issues.LinkedIssue(context.Background(), "p1", "g1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "SB-4", id)

	res, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{"group": "g1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.True(t, strings.Contains(resultText(res), "required"))
}

func TestIntArg(t *testing.T) {
	assert.Equal(t, "", intArg(0))
	assert.Equal(t, "", intArg(-3))
	assert.Equal(t, "", intArg(math.NaN()))
	assert.Equal(t, "4", intArg(4.7))
	assert.Equal(t, strconv.Itoa(math.MaxInt), intArg(1e300))
	assert.Equal(t, strconv.Itoa(math.MaxInt), intArg(math.Inf(1)))
}

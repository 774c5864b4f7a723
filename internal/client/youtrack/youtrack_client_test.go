package youtrack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *YouTrackClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewYouTrackClient(client.Credentials{URL: srv.URL + "/", Token: "perm:abc"}, time.Second)
	require.NoError(t, err)
	return c
}

func TestNewYouTrackClient_RequiresURL(t *testing.T) {
	_, err := NewYouTrackClient(client.Credentials{}, 0)
	assert.Error(t, err)
}

func TestGetProjectFields_MapsSchemaAndSkipsIgnored(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/projects/SB/customFields", r.URL.Path)
		assert.Equal(t, "Bearer perm:abc", r.Header.Get("Authorization"))
		io.WriteString(w, `[
			{"field":{"name":"Severity","fieldType":{"id":"enum[1]"}},"bundle":{"values":[{"name":"Low"},{"name":"High"}]}},
			{"field":{"name":"Points","fieldType":{"id":"integer"}}},
			{"field":{"name":"Assignee","fieldType":{"id":"user[1]"}},"bundle":{"values":[{"name":"jane"}]}}
		]`)
	})

	fields, err := c.GetProjectFields(context.Background(), "SB", []string{"Assignee"})
	require.NoError(t, err)

	want := []models.FieldSchema{
		{Name: "Severity", Type: "enum[1]", Values: []string{"Low", "High"}},
		{Name: "Points", Type: "integer"},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("GetProjectFields() mismatch (-want +got):\n%s", diff)
	}
}

func TestGetUser_ForbiddenIsAuthError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `{"error":"Forbidden","error_description":"no admin rights"}`)
	})

	_, err := c.GetUser(context.Background(), "root")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrRemoteAuth))
	assert.False(t, errors.Is(err, client.ErrRemoteUnavailable))

	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "no admin rights", apiErr.Message)
}

func TestGetUser_ConnectionFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewYouTrackClient(client.Credentials{URL: url, Username: "root", Password: "secret"}, time.Second)
	require.NoError(t, err)

	_, err = c.GetUser(context.Background(), "root")
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrRemoteUnavailable))
	assert.False(t, errors.Is(err, client.ErrRemoteAuth))
}

func TestCreateIssue_ResolvesProjectAndReturnsReadableId(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/admin/projects":
			io.WriteString(w, `[{"id":"0-7","shortName":"SB","name":"Sandbox"}]`)
		case r.Method == http.MethodPost && r.URL.Path == "/api/issues":
			var body CreateIssueRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "0-7", body.Project.ID)
			assert.Equal(t, "Crash on save", body.Summary)
			io.WriteString(w, `{"id":"2-15","idReadable":"SB-15"}`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	created, err := c.CreateIssue(context.Background(), models.NewIssue{
		Project: "SB",
		Summary: "Crash on save",
	})
	require.NoError(t, err)
	assert.Equal(t, "SB-15", created.ID)
}

func TestAddTags_SendsSingleCommand(t *testing.T) {
	var got CommandRequest
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/commands", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	require.NoError(t, c.AddTags(context.Background(), "SB-1", []string{"sentry", "needs triage"}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "tag sentry tag {needs triage}", got.Query)
	assert.Equal(t, []IssueRef{{IdReadable: "SB-1"}}, got.Issues)
}

func TestGetProjectIssues_PaginationAndState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "project: SB crash", q.Get("query"))
		assert.Equal(t, "30", q.Get("$skip"))
		assert.Equal(t, "16", q.Get("$top"))
		io.WriteString(w, `[
			{"idReadable":"SB-1","summary":"first","customFields":[
				{"name":"Priority","value":{"name":"Major"}},
				{"name":"State","value":{"name":"Open"}}]},
			{"idReadable":"SB-2","summary":"second","customFields":[
				{"name":"Estimation","value":120},
				{"name":"State","value":null}]}
		]`)
	})

	issues, err := c.GetProjectIssues(context.Background(), "SB", 30, 16, "crash")
	require.NoError(t, err)

	want := []models.IssueSummary{
		{ID: "SB-1", State: "Open", Summary: "first"},
		{ID: "SB-2", State: "", Summary: "second"},
	}
	if diff := cmp.Diff(want, issues); diff != "" {
		t.Errorf("GetProjectIssues() mismatch (-want +got):\n%s", diff)
	}
}

func TestQuoteTerm(t *testing.T) {
	assert.Equal(t, "SB", quoteTerm("SB"))
	assert.Equal(t, "{My Project}", quoteTerm("My Project"))
}

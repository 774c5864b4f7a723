package youtrack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/models"
)

const stateFieldName = "State"

type YouTrackClient struct {
	baseUrl    string
	creds      client.Credentials
	httpClient *http.Client
}

func NewYouTrackClient(creds client.Credentials, timeout time.Duration) (*YouTrackClient, error) {
	if creds.URL == "" {
		return nil, fmt.Errorf("youtrack url is required")
	}
	if _, err := url.ParseRequestURI(creds.URL); err != nil {
		return nil, fmt.Errorf("parse youtrack url: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &YouTrackClient{
		baseUrl:    strings.TrimRight(creds.URL, "/") + "/api",
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// NewFactory returns a client.Factory producing YouTrack clients with the
// given HTTP timeout.
func NewFactory(timeout time.Duration) client.Factory {
	return func(creds client.Credentials) (client.TrackerClient, error) {
		c, err := NewYouTrackClient(creds, timeout)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

func (c *YouTrackClient) do(ctx context.Context, op, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseUrl + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s (youtrack): encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s (youtrack): build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	} else {
		req.SetBasicAuth(c.creds.Username, c.creds.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s (youtrack): %w: %w", op, client.ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s (youtrack): read body: %w: %w", op, client.ErrRemoteUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &client.APIError{Status: resp.StatusCode}
		var ytErr YouTrackError
		if err := json.Unmarshal(respBody, &ytErr); err == nil {
			apiErr.Message = ytErr.Description
			if apiErr.Message == "" {
				apiErr.Message = ytErr.Err
			}
		}
		return fmt.Errorf("%s (youtrack): %w", op, apiErr)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s (youtrack): parse response: %w", op, err)
	}
	return nil
}

func (c *YouTrackClient) GetProjects(ctx context.Context) ([]models.Project, error) {
	var ytProjects []YouTrackProject
	query := url.Values{"fields": {"id,shortName,name"}}
	if err := c.do(ctx, "get projects", http.MethodGet, "/admin/projects", query, nil, &ytProjects); err != nil {
		return nil, err
	}

	projects := make([]models.Project, len(ytProjects))
	for i, p := range ytProjects {
		projects[i] = models.Project{ShortName: p.ShortName, Name: p.Name}
	}
	return projects, nil
}

func (c *YouTrackClient) GetProjectFields(ctx context.Context, projectID string, ignoreFields []string) ([]models.FieldSchema, error) {
	var ytFields []YouTrackProjectCustomField
	query := url.Values{"fields": {"field(name,fieldType(id)),bundle(values(name))"}}
	path := "/admin/projects/" + url.PathEscape(projectID) + "/customFields"
	if err := c.do(ctx, "get project fields", http.MethodGet, path, query, nil, &ytFields); err != nil {
		return nil, err
	}

	fields := make([]models.FieldSchema, 0, len(ytFields))
	for _, f := range ytFields {
		if slices.Contains(ignoreFields, f.Field.Name) {
			continue
		}
		schema := models.FieldSchema{
			Name: f.Field.Name,
			Type: f.Field.FieldType.ID,
		}
		if f.Bundle != nil {
			for _, v := range f.Bundle.Values {
				schema.Values = append(schema.Values, v.Name)
			}
		}
		fields = append(fields, schema)
	}
	return fields, nil
}

func (c *YouTrackClient) GetUser(ctx context.Context, username string) (*models.User, error) {
	var ytUser YouTrackUser
	query := url.Values{"fields": {"login,fullName,email"}}
	if err := c.do(ctx, "get user", http.MethodGet, "/users/"+url.PathEscape(username), query, nil, &ytUser); err != nil {
		return nil, err
	}
	return &models.User{Login: ytUser.Login, FullName: ytUser.FullName, Email: ytUser.Email}, nil
}

func (c *YouTrackClient) projectID(ctx context.Context, shortName string) (string, error) {
	var ytProjects []YouTrackProject
	query := url.Values{"fields": {"id,shortName"}, "query": {shortName}}
	if err := c.do(ctx, "resolve project", http.MethodGet, "/admin/projects", query, nil, &ytProjects); err != nil {
		return "", err
	}
	for _, p := range ytProjects {
		if p.ShortName == shortName {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("resolve project (youtrack): project %q not found", shortName)
}

func (c *YouTrackClient) CreateIssue(ctx context.Context, issue models.NewIssue) (*models.CreatedIssue, error) {
	projectID, err := c.projectID(ctx, issue.Project)
	if err != nil {
		return nil, err
	}

	reqBody := CreateIssueRequest{
		Project:     ProjectRef{ID: projectID},
		Summary:     issue.Summary,
		Description: issue.Description,
	}
	var created YouTrackIssue
	query := url.Values{"fields": {"id,idReadable"}}
	if err := c.do(ctx, "create issue", http.MethodPost, "/issues", query, reqBody, &created); err != nil {
		return nil, err
	}

	id := created.IdReadable
	if id == "" {
		id = created.ID
	}
	return &models.CreatedIssue{ID: id}, nil
}

func (c *YouTrackClient) ExecuteFieldCommand(ctx context.Context, issueID string, command string) error {
	reqBody := CommandRequest{
		Query:  command,
		Issues: []IssueRef{{IdReadable: issueID}},
	}
	return c.do(ctx, "execute command", http.MethodPost, "/commands", nil, reqBody, nil)
}

func (c *YouTrackClient) AddTags(ctx context.Context, issueID string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}
	parts := make([]string, len(tags))
	for i, tag := range tags {
		parts[i] = "tag " + quoteTerm(tag)
	}
	reqBody := CommandRequest{
		Query:  strings.Join(parts, " "),
		Issues: []IssueRef{{IdReadable: issueID}},
	}
	return c.do(ctx, "add tags", http.MethodPost, "/commands", nil, reqBody, nil)
}

func (c *YouTrackClient) GetProjectIssues(ctx context.Context, projectID string, offset, limit int, query string) ([]models.IssueSummary, error) {
	search := "project: " + quoteTerm(projectID)
	if query != "" {
		search += " " + query
	}
	params := url.Values{
		"fields": {"id,idReadable,summary,customFields(name,value(name))"},
		"query":  {search},
		"$skip":  {strconv.Itoa(offset)},
		"$top":   {strconv.Itoa(limit)},
	}

	var ytIssues []YouTrackIssue
	if err := c.do(ctx, "get project issues", http.MethodGet, "/issues", params, nil, &ytIssues); err != nil {
		return nil, err
	}

	issues := make([]models.IssueSummary, len(ytIssues))
	for i, is := range ytIssues {
		id := is.IdReadable
		if id == "" {
			id = is.ID
		}
		issues[i] = models.IssueSummary{
			ID:      id,
			State:   issueState(is.CustomFields),
			Summary: is.Summary,
		}
	}
	return issues, nil
}

func issueState(fields []YouTrackIssueCustomField) string {
	for _, f := range fields {
		if f.Name != stateFieldName || len(f.Value) == 0 {
			continue
		}
		var v YouTrackIssueFieldValue
		if err := json.Unmarshal(f.Value, &v); err == nil {
			return v.Name
		}
	}
	return ""
}

// quoteTerm wraps multi-word values in braces, which is how the YouTrack
// query and command languages delimit them.
func quoteTerm(s string) string {
	if strings.ContainsAny(s, " \t") {
		return "{" + s + "}"
	}
	return s
}

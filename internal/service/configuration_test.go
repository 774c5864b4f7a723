package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/form"
	"github.com/TWRT/issue-bridge/internal/models"
	"github.com/TWRT/issue-bridge/internal/repository"
	"github.com/TWRT/issue-bridge/internal/schemacache"
)

type configFixture struct {
	tracker *fakeTracker
	creds   []client.Credentials
	options *repository.ProjectOptionRepository
	cache   *schemacache.Cache
	service *ConfigurationService
}

func newConfigFixture(t *testing.T) *configFixture {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "bridge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fx := &configFixture{
		tracker: &fakeTracker{
			projects: []models.Project{{ShortName: "SB", Name: "Sandbox"}},
			fields:   []models.FieldSchema{{Name: "Severity", Type: "enum[1]", Values: []string{"Low"}}},
		},
		options: repository.NewProjectOptionRepository(db),
		cache:   schemacache.New(0),
	}
	factory := func(creds client.Credentials) (client.TrackerClient, error) {
		fx.creds = append(fx.creds, creds)
		return fx.tracker, nil
	}
	fx.service = NewConfigurationService(fx.options, NewTracker(fx.options, factory, ProjectOptions{}), factory, fx.cache, nil)
	return fx
}

func TestConnectionMessage(t *testing.T) {
	assert.Equal(t, "User doesn't have Low-level Administration permissions.",
		ConnectionMessage(fmt.Errorf("probe: %w", &client.APIError{Status: 403})))

	unavailable := fmt.Errorf("%w: dial tcp: refused", client.ErrRemoteUnavailable)
	assert.Equal(t, "Unable to connect to YouTrack. "+unavailable.Error(), ConnectionMessage(unavailable))

	assert.Equal(t, "API error status: 500", ConnectionMessage(&client.APIError{Status: 500}))
}

func TestSave_ValidationIssues(t *testing.T) {
	fx := newConfigFixture(t)

	_, err := fx.service.Save(context.Background(), "p1", ProjectOptions{URL: "not a url"})

	iss, ok := form.AsIssues(err)
	require.True(t, ok)
	byField := iss.ByField()
	assert.Contains(t, byField, "url")
	assert.Contains(t, byField, "username")
	assert.Contains(t, byField, "password")
	assert.Contains(t, byField, "project")
	assert.Empty(t, fx.creds, "no probe on invalid input")
}

func TestSave_TokenReplacesUsernamePassword(t *testing.T) {
	fx := newConfigFixture(t)

	_, err := fx.service.Save(context.Background(), "p1", ProjectOptions{
		URL:     "https://tracker.example.com",
		Token:   "perm:abc",
		Project: "SB",
	})
	require.NoError(t, err)
	require.Len(t, fx.creds, 1)
	assert.Equal(t, "perm:abc", fx.creds[0].Token)
}

func TestSave_ProbeFailureBecomesFieldIssue(t *testing.T) {
	fx := newConfigFixture(t)
	fx.tracker.userErr = &client.APIError{Status: 403, Message: "Forbidden"}

	_, err := fx.service.Save(context.Background(), "p1", ProjectOptions{
		URL:      "https://tracker.example.com",
		Username: "root",
		Password: "secret",
		Project:  "SB",
	})

	iss, ok := form.AsIssues(err)
	require.True(t, ok)
	assert.Equal(t, []string{"User doesn't have Low-level Administration permissions."}, iss.ByField()["username"])

	o, err := LoadProjectOptions(context.Background(), fx.options, "p1")
	require.NoError(t, err)
	assert.Empty(t, o.URL, "nothing stored after a failed probe")
}

func TestSave_KeepsStoredPasswordAndInvalidatesCache(t *testing.T) {
	fx := newConfigFixture(t)
	ctx := context.Background()

	in := ProjectOptions{
		URL:      "https://tracker.example.com",
		Username: "root",
		Password: "secret",
		Project:  "SB",
	}
	_, err := fx.service.Save(ctx, "p1", in)
	require.NoError(t, err)

	_, err = fx.cache.Get(ctx, schemacache.ProjectFieldsKey("p1", in.URL, "SB", nil), func(ctx context.Context) ([]models.FieldSchema, error) {
		return fx.tracker.fields, nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, fx.cache.Len())

	in.Password = ""
	in.IgnoreFields = []string{"Severity"}
	saved, err := fx.service.Save(ctx, "p1", in)
	require.NoError(t, err)

	assert.Equal(t, "secret", saved.Password)
	assert.Equal(t, "secret", fx.creds[1].Password)
	assert.Equal(t, 0, fx.cache.Len())

	o, err := LoadProjectOptions(ctx, fx.options, "p1")
	require.NoError(t, err)
	assert.Equal(t, "secret", o.Password)
	assert.Equal(t, []string{"Severity"}, o.IgnoreFields)
}

func TestChoices_FetchesConcurrently(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	tracker := &fakeTracker{
		projects: []models.Project{{ShortName: "SB", Name: "Sandbox"}},
		fields:   []models.FieldSchema{{Name: "Severity", Type: "enum[1]", Values: []string{"Low"}}},
	}
	s := NewConfigurationService(nil, nil, nil, nil, nil)

	choices, err := s.Choices(context.Background(), tracker, "SB")
	require.NoError(t, err)
	assert.Equal(t, []models.Project{{ShortName: "SB", Name: "Sandbox"}}, choices.Projects)
	assert.Equal(t, []string{"Severity"}, choices.FieldNames)

	choices, err = s.Choices(context.Background(), tracker, "")
	require.NoError(t, err)
	assert.Empty(t, choices.FieldNames)
}

func TestChoices_Error(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	tracker := &fakeTracker{projectsErr: errors.New("boom")}

	_, err := NewConfigurationService(nil, nil, nil, nil, nil).Choices(context.Background(), tracker, "SB")
	assert.ErrorContains(t, err, "get projects: boom")
}

func TestLoad_UnconfiguredProjectHasNoChoices(t *testing.T) {
	fx := newConfigFixture(t)

	o, choices, err := fx.service.Load(context.Background(), "p1")
	require.NoError(t, err)
	assert.Empty(t, o.URL)
	assert.Nil(t, choices)
	assert.Empty(t, fx.creds)
}

func TestSave_InvalidatesEntryCachedThroughFallback(t *testing.T) {
	fx := newConfigFixture(t)
	ctx := context.Background()

	fallback := ProjectOptions{URL: "https://tracker.example.com", Token: "perm:env", Project: "SB"}
	factory := func(creds client.Credentials) (client.TrackerClient, error) { return fx.tracker, nil }
	issues := NewIssueService(NewTracker(fx.options, factory, fallback), fx.cache, fx.options, nil, nil, nil, nil, nil)

	_, err := issues.ProjectFields(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, fx.cache.Len())

	_, err = fx.service.Save(ctx, "p1", ProjectOptions{URL: "https://tracker.example.com", Token: "perm:own", Project: "OPS"})
	require.NoError(t, err)
	assert.Equal(t, 0, fx.cache.Len())
}

func TestReset_ForgetsOptionsAndCache(t *testing.T) {
	fx := newConfigFixture(t)
	ctx := context.Background()

	in := ProjectOptions{URL: "https://tracker.example.com", Token: "perm:abc", Project: "SB"}
	_, err := fx.service.Save(ctx, "p1", in)
	require.NoError(t, err)
	require.NoError(t, fx.options.Set(ctx, "p1", repository.OptionDefaultFields, form.Defaults{"abc": "High"}))
	_, err = fx.cache.Get(ctx, schemacache.ProjectFieldsKey("p1", in.URL, "SB", nil), func(ctx context.Context) ([]models.FieldSchema, error) {
		return fx.tracker.fields, nil
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Reset(ctx, "p1"))

	o, err := LoadProjectOptions(ctx, fx.options, "p1")
	require.NoError(t, err)
	assert.Equal(t, ProjectOptions{}, o)
	assert.Equal(t, 0, fx.cache.Len())
}

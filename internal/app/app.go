// Package app wires the storage, tracker client and services shared by the
// HTTP server, the MCP server and the CLI.
package app

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/client"
	"github.com/TWRT/issue-bridge/internal/client/youtrack"
	"github.com/TWRT/issue-bridge/internal/config"
	"github.com/TWRT/issue-bridge/internal/repository"
	"github.com/TWRT/issue-bridge/internal/schemacache"
	"github.com/TWRT/issue-bridge/internal/service"
)

// LinkNamespace prefixes the group metadata key holding a linked issue id.
const LinkNamespace = "youtrack"

type App struct {
	DB            *sql.DB
	Tracker       *service.Tracker
	Issues        *service.IssueService
	Configuration *service.ConfigurationService
}

// New opens the database at cfg.Database.Path and builds the services. The
// caller owns the returned App and must Close it.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	db, err := repository.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return NewWithFactory(db, youtrack.NewFactory(cfg.GetTrackerTimeout()), cfg, logger), nil
}

// NewWithFactory builds the services over an open database and a custom
// tracker client factory.
func NewWithFactory(db *sql.DB, factory client.Factory, cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	options := repository.NewProjectOptionRepository(db)
	groupMeta := repository.NewGroupMetaRepository(db)
	submissions := repository.NewSubmissionRepository(db)
	cache := schemacache.New(cfg.GetSchemaCacheTTL())

	tracker := service.NewTracker(options, factory, service.ProjectOptions{
		URL:      cfg.Tracker.URL,
		Username: cfg.Tracker.Username,
		Password: cfg.Tracker.Password,
		Token:    cfg.Tracker.Token,
		Project:  cfg.Tracker.Project,
	})

	issues := service.NewIssueService(
		tracker,
		cache,
		options,
		service.NewIssueSubmitter(logger.Named("submitter")),
		service.NewExistingIssueLinker(groupMeta, LinkNamespace),
		service.NewProjectIssueBrowser(),
		submissions,
		logger.Named("issues"),
	)
	configuration := service.NewConfigurationService(options, tracker, factory, cache, logger.Named("config"))

	return &App{
		DB:            db,
		Tracker:       tracker,
		Issues:        issues,
		Configuration: configuration,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}

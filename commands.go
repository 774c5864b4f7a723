package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TWRT/issue-bridge/internal/api"
	"github.com/TWRT/issue-bridge/internal/app"
	"github.com/TWRT/issue-bridge/internal/config"
	"github.com/TWRT/issue-bridge/internal/mcptools"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := &http.Server{
			Addr:    cfg.Server.Addr,
			Handler: api.SetupRouter(a.Issues, a.Configuration, logger.Named("http")),
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("http server listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tracker tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		logger.Info("mcp server starting on stdio")
		if err := server.ServeStdio(mcptools.NewServer(a.Issues)); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	},
}

var fieldsCmd = &cobra.Command{
	Use:   "fields <project>",
	Short: "Print the issue form fields of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		fields, err := a.Issues.ProjectFields(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tKIND\tDEFAULT\tCHOICES")
		for _, f := range fields {
			initial := ""
			if f.Initial != nil {
				initial = *f.Initial
			}
			choices := make([]string, 0, len(f.Choices))
			for _, c := range f.Choices {
				if c.Value != "" {
					choices = append(choices, c.Value)
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Key, f.SourceName, f.Kind, initial, strings.Join(choices, ", "))
		}
		return w.Flush()
	},
}

var projectsCmd = &cobra.Command{
	Use:   "projects <project>",
	Short: "List the tracker projects visible with a project's credentials",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.Tracker.Open(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		projects, err := session.Client.GetProjects(cmd.Context())
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SHORT NAME\tNAME")
		for _, p := range projects {
			fmt.Fprintf(w, "%s\t%s\n", p.ShortName, p.Name)
		}
		return w.Flush()
	},
}

var submissionsCmd = &cobra.Command{
	Use:   "submissions <id>",
	Short: "Show a recorded issue submission and the outcome of each step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		sub, steps, err := a.Issues.Submission(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Submission: %s\n", sub.ID)
		fmt.Fprintf(out, "Project:    %s (%s)\n", sub.ProjectID, sub.TrackerProject)
		fmt.Fprintf(out, "Group:      %s\n", sub.GroupID)
		fmt.Fprintf(out, "Issue:      %s\n", sub.IssueID)
		fmt.Fprintf(out, "Status:     %s\n", sub.Status)
		if sub.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:      %s\n", sub.ErrorMessage)
		}
		fmt.Fprintln(out)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "STEP\tTARGET\tSTATUS\tERROR")
		for _, st := range steps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", st.Step, st.Target, st.Status, st.ErrorMessage)
		}
		return w.Flush()
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(configPath); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
		if err := config.DefaultConfig().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
		return nil
	},
}

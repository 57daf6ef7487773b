package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/debug"
	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/telemetry"
	"github.com/jiratool/jiratool/internal/ui"
	"github.com/jiratool/jiratool/internal/workflow"
)

// dialJira builds the client from configuration and verifies access.
func dialJira(ctx context.Context) (*jira.Connection, error) {
	settings, err := config.Jira()
	if err != nil {
		return nil, err
	}

	client := jira.NewClient(settings.URL, settings.Email, settings.APIToken).WithTimeout(settings.Timeout)
	client.UserAgent = "jiratool/" + Version
	client.MaxRetries = uint64(settings.MaxRetries)

	conn, err := jira.Connect(ctx, telemetry.WrapGateway(client))
	if err != nil {
		return nil, err
	}

	status := os.Stdout
	if jsonOutput {
		status = os.Stderr
	}
	if !debug.IsQuiet() {
		fmt.Fprintf(status, "%s Connected to Jira: %s (REST API v3)\n", ui.RenderPassIcon(), settings.URL)
		if settings.Email != "" {
			fmt.Fprintf(status, "%s Authenticated as %s\n", ui.RenderPassIcon(), settings.Email)
		}
		if len(conn.Projects) > 0 {
			fmt.Fprintf(status, "%s Access to %d project(s)\n", ui.RenderPassIcon(), len(conn.Projects))
		}
	}
	return conn, nil
}

// mustConnect returns the session connection or exits with a diagnosis.
func mustConnect() *jira.Connection {
	conn, err := session.Connection(rootCtx)
	if err != nil {
		exitConnectError(err)
		return nil
	}
	return conn
}

func exitConnectError(err error) {
	var cfgErr *config.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		FatalErrorWithHint(cfgErr.Error(), cfgErr.Hint)
	case jira.IsUnauthorized(err):
		FatalErrorWithHint("Authentication failed. Please check your JIRA_EMAIL and JIRA_API_TOKEN.", jira.UnauthorizedHint)
	default:
		FatalError("%v", err)
	}
}

// newEnv builds the handler environment for a subcommand. Prompts are only
// offered on an interactive terminal.
func newEnv(conn *jira.Connection, out, errOut io.Writer) *workflow.Env {
	env := &workflow.Env{Conn: conn, Out: out, Err: errOut}
	if ui.IsInteractive() && !jsonOutput {
		env.Prompt = ui.NewPrompter()
	}
	return env
}

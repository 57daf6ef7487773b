package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/debug"
	"github.com/jiratool/jiratool/internal/initiatives"
	"github.com/jiratool/jiratool/internal/ui"
	"github.com/jiratool/jiratool/internal/workflow"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Start the interactive menu (default when no command is given)",
	Run: func(cmd *cobra.Command, args []string) {
		runMenu(cmd)
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

// newRegistry lists the menu workflows in display order.
func newRegistry() *workflow.Registry {
	reg := workflow.NewRegistry()
	mustRegister(reg, workflow.Workflow{
		ID:             "releases",
		Name:           "Release Manager",
		Description:    "Find releases with only Bug issues",
		ExampleProject: "PROJ",
		Run: func(ctx context.Context, env *workflow.Env, projectKey string) error {
			return runReleaseManager(ctx, env, projectKey, releaseOptions{Workers: config.GetInt(config.KeyScanWorkers)})
		},
	})
	mustRegister(reg, workflow.Workflow{
		ID:             "initiatives",
		Name:           "Initiative Exporter",
		Description:    "Export Initiatives to JSON",
		ExampleProject: "PMT",
		Run: func(ctx context.Context, env *workflow.Env, projectKey string) error {
			format, err := initiatives.ParseFormat(config.GetString(config.KeyExportFormat))
			if err != nil {
				return err
			}
			_, err = runInitiativeExporter(ctx, env, projectKey, exportOptions{
				Dir:    config.GetString(config.KeyExportDir),
				Format: format,
			})
			return err
		},
	})
	return reg
}

func mustRegister(reg *workflow.Registry, w workflow.Workflow) {
	if err := reg.Register(w); err != nil {
		panic(err)
	}
}

func runMenu(cmd *cobra.Command) {
	if jsonOutput {
		FatalErrorWithHint("the interactive menu has no JSON output", "Use 'jt releases --json' or 'jt initiatives export --json'")
		return
	}

	if config.GetBool(config.KeyWatchConfig) {
		watchConfig()
	}

	menu := &workflow.Menu{
		Registry:     newRegistry(),
		Session:      session,
		Prompt:       ui.NewPrompter(),
		Out:          cmd.OutOrStdout(),
		Err:          cmd.ErrOrStderr(),
		ProjectLimit: config.GetInt(config.KeyProjectLimit),
	}

	err := menu.Run(rootCtx)
	switch {
	case err == nil:
	case ui.IsAborted(err) || errors.Is(err, context.Canceled):
		fmt.Fprintln(cmd.OutOrStdout(), "\n\nOperation cancelled by user.")
	default:
		var connErr *workflow.ConnectError
		if errors.As(err, &connErr) {
			exitConnectError(connErr.Err)
			return
		}
		FatalError("%v", err)
	}
}

// watchConfig reconnects with fresh settings after the config or env file
// is edited while the menu is open.
func watchConfig() {
	opts := config.Options{ConfigFile: configFile, EnvFile: envFile}
	err := config.Watch(rootCtx, opts, func(err error) {
		if err != nil {
			WarnError("config reload failed: %v", err)
			return
		}
		session.Reset()
		debug.Logf("config: reloaded %s\n", strings.Join(config.Files(), ", "))
	})
	if err != nil {
		debug.Logf("config: not watching: %v\n", err)
	}
}

// requireProject returns key, or asks for it when a prompt is available.
// It exits when no key can be obtained.
func requireProject(env *workflow.Env, key, example string) string {
	key = strings.TrimSpace(key)
	if key != "" {
		return key
	}
	if env.Prompt == nil {
		FatalErrorWithHint("project key is required", "Pass --project <KEY>; 'jt projects' lists the available keys")
		return ""
	}
	answer, err := env.Prompt.Input(fmt.Sprintf("Enter your Jira project key (e.g., %s)", example), example, nil)
	if err != nil {
		if ui.IsAborted(err) {
			fmt.Fprintln(env.Out, "\n\nOperation cancelled by user.")
			osExit(0)
			return ""
		}
		FatalError("%v", err)
		return ""
	}
	key = strings.TrimSpace(answer)
	if key == "" {
		FatalError("project key is required")
	}
	return key
}

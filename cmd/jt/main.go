package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/debug"
	"github.com/jiratool/jiratool/internal/telemetry"
	"github.com/jiratool/jiratool/internal/workflow"
)

var (
	jsonOutput  bool
	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
	configFile  string
	envFile     string

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	// Jira session shared by every workflow of this process
	session *workflow.Session
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./.jiratool.yaml or $XDG_CONFIG_HOME/jiratool/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment variables from this file (default ./.env)")
	rootCmd.Flags().Bool("version", false, "Print version information")
}

var rootCmd = &cobra.Command{
	Use:   "jt",
	Short: "jt - Jira release and initiative tooling",
	Long: `jt finds releases that contain only Bug issues and exports open
Initiatives to JSON. Run without a subcommand for the interactive menu.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("jt version %s (%s)\n", Version, Build)
			return
		}
		runMenu(cmd)
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()
		loadConfig()

		// Commands that never talk to Jira stop here.
		if cmd == versionCmd {
			return
		}
		initTelemetry()
		session = workflow.NewSession(dialJira)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		telemetry.Shutdown(ctx)
		cancel()

		if rootCancel != nil {
			rootCancel()
		}
	},
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func applyVerbosityFlags() {
	debug.SetVerbose(verboseFlag)
	debug.SetQuiet(quietFlag)
}

func loadConfig() {
	if err := config.Initialize(config.Options{ConfigFile: configFile, EnvFile: envFile}); err != nil {
		FatalError("%v", err)
	}
	if path := config.ConfigFileUsed(); path != "" {
		debug.Logf("config: loaded %s\n", path)
	}
}

func initTelemetry() {
	if err := telemetry.Init(rootCtx, "jt", Version); err != nil {
		WarnError("telemetry disabled: %v", err)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

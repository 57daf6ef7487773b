package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/ui"
	"github.com/jiratool/jiratool/internal/workflow"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the projects visible to your account",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")
		noPager, _ := cmd.Flags().GetBool("no-pager")

		conn := mustConnect()
		if jsonOutput {
			outputJSON(cmd.OutOrStdout(), conn.Projects)
			return
		}

		if limit <= 0 {
			limit = config.GetInt(config.KeyProjectLimit)
		}
		if all {
			limit = len(conn.Projects)
		}
		var buf bytes.Buffer
		workflow.PrintProjects(&buf, conn.Projects, limit)
		if err := ui.ToPager(cmd.OutOrStdout(), buf.String(), ui.PagerOptions{NoPager: noPager}); err != nil {
			FatalError("%v", err)
		}
	},
}

func init() {
	projectsCmd.Flags().Int("limit", 0, "Number of projects to show (default projects.list_limit)")
	projectsCmd.Flags().Bool("all", false, "Show every project")
	projectsCmd.Flags().Bool("no-pager", false, "Disable the pager")
	rootCmd.AddCommand(projectsCmd)
}

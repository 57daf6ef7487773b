package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/initiatives"
	"github.com/jiratool/jiratool/internal/ui"
	"github.com/jiratool/jiratool/internal/workflow"
)

var initiativesCmd = &cobra.Command{
	Use:   "initiatives",
	Short: "Work with Initiative issues",
}

var initiativesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export open Initiatives to a JSON file",
	Long: `Export every Initiative of a project that is not Done or Canceled.

Each record holds the issue key, the description as plain text, the
requester, the linked issues and the fix/affected versions. The file is
written atomically; without --output it is named
initiatives_<KEY>_<YYYYMMDD_HHMMSS>.json in export.dir.`,
	Example: `  jt initiatives export --project PMT
  jt initiatives export -p PMT -o pmt.yaml --format yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		output, _ := cmd.Flags().GetString("output")
		formatFlag, _ := cmd.Flags().GetString("format")
		if formatFlag == "" {
			formatFlag = config.GetString(config.KeyExportFormat)
		}
		format, err := initiatives.ParseFormat(formatFlag)
		if err != nil {
			FatalError("%v", err)
		}

		conn := mustConnect()
		env := newEnv(conn, cmd.OutOrStdout(), cmd.ErrOrStderr())
		project = requireProject(env, project, "PMT")

		opts := exportOptions{
			Output: output,
			Dir:    config.GetString(config.KeyExportDir),
			Format: format,
			JSON:   jsonOutput,
		}
		if _, err := runInitiativeExporter(rootCtx, env, project, opts); err != nil {
			FatalError("%v", err)
		}
	},
}

func init() {
	initiativesExportCmd.Flags().StringP("project", "p", "", "Project key (prompted when omitted on a terminal)")
	initiativesExportCmd.Flags().StringP("output", "o", "", "Output file (default initiatives_<KEY>_<timestamp>.<format>)")
	initiativesExportCmd.Flags().String("format", "", "File format: json, yaml or toml (default from export.format)")
	initiativesCmd.AddCommand(initiativesExportCmd)
	rootCmd.AddCommand(initiativesCmd)
}

type exportOptions struct {
	Output string
	Dir    string
	Format initiatives.Format
	JSON   bool
}

// runInitiativeExporter fetches the project's open initiatives and writes
// them to a file. A fetch or write failure produces no file and is
// returned.
func runInitiativeExporter(ctx context.Context, env *workflow.Env, projectKey string, opts exportOptions) (*initiatives.Summary, error) {
	status := env.Out
	if opts.JSON {
		status = env.Err
	}
	fmt.Fprintf(status, "\n%s\n", ui.RenderHeader("Initiative Exporter - Project: "+projectKey))

	exp := initiatives.NewExporter(env.Conn)
	exp.Dir = opts.Dir
	exp.Format = opts.Format
	exp.OnMessage = func(msg string) { fmt.Fprintf(status, "%s %s\n", ui.RenderInfoIcon(), msg) }
	exp.OnWarning = func(msg string) { fmt.Fprintf(env.Err, "%s %s\n", ui.RenderWarnIcon(), msg) }

	sum, err := exp.Export(ctx, projectKey, opts.Output)
	if err != nil {
		fmt.Fprintf(env.Err, "%s No output produced.\n", ui.RenderFailIcon())
		return sum, err
	}

	if opts.JSON {
		outputJSON(env.Out, sum)
		return sum, nil
	}
	if sum.Path == "" {
		return sum, nil
	}

	fmt.Fprintf(env.Out, "\n%s Successfully exported %d Initiative(s) to: %s\n", ui.RenderPassIcon(), sum.Count, sum.Path)
	fmt.Fprintf(env.Out, "\n%s\n", ui.RenderHeader("Export Complete!"))
	fmt.Fprintf(env.Out, "\nFile: %s\n\nThe %s file contains:\n", sum.Path, sum.Format)
	rows := make([][]string, 0, len(initiatives.Legend))
	for _, entry := range initiatives.Legend {
		rows = append(rows, []string{"`" + entry[0] + "`", entry[1]})
	}
	fmt.Fprintln(env.Out, ui.RenderMarkdown(ui.MarkdownTable([]string{"Field", "Meaning"}, rows)))
	return sum, nil
}

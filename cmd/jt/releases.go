package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jiratool/jiratool/internal/config"
	"github.com/jiratool/jiratool/internal/debug"
	"github.com/jiratool/jiratool/internal/releases"
	"github.com/jiratool/jiratool/internal/timeparsing"
	"github.com/jiratool/jiratool/internal/ui"
	"github.com/jiratool/jiratool/internal/workflow"
)

var releasesCmd = &cobra.Command{
	Use:   "releases",
	Short: "Find releases that contain only Bug issues",
	Long: `Scan every release of a project and report the ones whose issues are all
of type "Bug" or "Customer bug". Each release is judged on at most 1000 issues.

The Investment Category field id is looked up so qualifying releases can be
classified by hand; jt never updates issues or releases.`,
	Example: `  jt releases --project PROJ
  jt releases -p PROJ --released-since "3 months ago" --concurrency 4
  jt releases -p PROJ --field-id customfield_10001 --json`,
	Run: func(cmd *cobra.Command, args []string) {
		project, _ := cmd.Flags().GetString("project")
		fieldID, _ := cmd.Flags().GetString("field-id")
		sinceFlag, _ := cmd.Flags().GetString("released-since")
		workers, _ := cmd.Flags().GetInt("concurrency")
		if !cmd.Flags().Changed("concurrency") {
			workers = config.GetInt(config.KeyScanWorkers)
		}

		var since time.Time
		if sinceFlag != "" {
			var err error
			since, err = timeparsing.ParseRelativeTime(sinceFlag, time.Now())
			if err != nil {
				FatalErrorWithHint(fmt.Sprintf("invalid --released-since: %v", err), "Examples: 2025-01-31, -6m, \"last monday\"")
			}
		}

		conn := mustConnect()
		env := newEnv(conn, cmd.OutOrStdout(), cmd.ErrOrStderr())
		project = requireProject(env, project, "PROJ")

		opts := releaseOptions{FieldID: fieldID, JSON: jsonOutput, Since: since, Workers: workers}
		if err := runReleaseManager(rootCtx, env, project, opts); err != nil {
			FatalError("%v", err)
		}
	},
}

func init() {
	releasesCmd.Flags().StringP("project", "p", "", "Project key (prompted when omitted on a terminal)")
	releasesCmd.Flags().String("field-id", "", "Investment Category field id; skips the lookup")
	releasesCmd.Flags().String("released-since", "", "Only releases dated on or after this day (2025-01-31, -6m, \"3 weeks ago\")")
	releasesCmd.Flags().Int("concurrency", 1, "Releases queried in parallel (default from releases.concurrency)")
	rootCmd.AddCommand(releasesCmd)
}

type releaseOptions struct {
	// FieldID skips resolution when set.
	FieldID string
	JSON    bool
	// Since skips releases dated before that day when non-zero.
	Since   time.Time
	Workers int
}

type releaseReport struct {
	Project    string            `json:"project"`
	FieldID    string            `json:"fieldId,omitempty"`
	Scanned    int               `json:"scanned"`
	Skipped    int               `json:"skipped,omitempty"`
	Qualifying []releases.Result `json:"qualifying"`
	Error      string            `json:"error,omitempty"`
}

// runReleaseManager resolves the Investment Category field, scans the
// project's releases and prints the qualifying ones.
func runReleaseManager(ctx context.Context, env *workflow.Env, projectKey string, opts releaseOptions) error {
	status := env.Out
	if opts.JSON {
		status = env.Err
	}

	fieldID := strings.TrimSpace(opts.FieldID)
	if fieldID == "" {
		var err error
		fieldID, err = resolveField(ctx, env, projectKey)
		if err != nil {
			return err
		}
	}

	scanner := releases.NewScanner(env.Conn)
	scanner.Workers = opts.Workers
	scanner.ReleasedSince = opts.Since
	scanner.OnMessage = func(msg string) { fmt.Fprintf(status, "\n%s %s\n", ui.RenderInfoIcon(), msg) }
	scanner.OnWarning = func(msg string) { fmt.Fprintf(env.Err, "%s %s\n", ui.RenderWarnIcon(), msg) }
	scanner.OnResult = func(r releases.Result) {
		if r.Qualifies {
			fmt.Fprintf(status, "  %s %s\n", ui.RenderPassIcon(), releases.FormatResult(r))
		} else {
			fmt.Fprintf(status, "  %s %s\n", ui.RenderFailIcon(), releases.FormatResult(r))
		}
	}

	report, scanErr := scanner.Scan(ctx, projectKey)
	if errors.Is(scanErr, context.Canceled) {
		return scanErr
	}
	out := releaseReport{Project: projectKey, FieldID: fieldID, Scanned: report.Scanned, Skipped: report.Skipped, Qualifying: report.Qualifying}
	if scanErr != nil {
		fmt.Fprintf(env.Err, "%s Error fetching releases: %v\n", ui.RenderFailIcon(), scanErr)
		out.Error = scanErr.Error()
	}

	if opts.JSON {
		outputJSON(env.Out, out)
		return nil
	}
	printReleaseSummary(env, out)
	return nil
}

// resolveField looks up the Investment Category field, falling back to
// asking the operator when a prompt is available. An empty id means the
// summary omits the next-step hint.
func resolveField(ctx context.Context, env *workflow.Env, projectKey string) (string, error) {
	id, err := releases.ResolveInvestmentCategoryField(ctx, env.Conn, projectKey)
	if err == nil {
		debug.Logf("releases: using field %s\n", id)
		return id, nil
	}
	if !errors.Is(err, releases.ErrFieldNotFound) {
		return "", err
	}
	debug.Logf("releases: field lookup: %v\n", err)
	fmt.Fprintf(env.Err, "\n%s %s\n", ui.RenderWarnIcon(), capitalizeFirst(releases.ErrFieldNotFound.Error()))

	if env.Prompt == nil {
		fmt.Fprintf(env.Err, "%s Continuing without custom field ID (will find releases only). Pass --field-id to set it.\n", ui.RenderWarnIcon())
		return "", nil
	}
	manual, err := env.Prompt.Input(
		"Do you know the custom field ID? Enter it (e.g., customfield_10001) or leave empty to skip",
		"customfield_10001", nil)
	if err != nil {
		return "", err
	}
	manual = strings.TrimSpace(manual)
	if manual == "" {
		fmt.Fprintf(env.Err, "%s Continuing without custom field ID (will find releases only)\n", ui.RenderWarnIcon())
		return "", nil
	}
	fmt.Fprintf(env.Out, "%s Using custom field: %s\n", ui.RenderPassIcon(), manual)
	return manual, nil
}

func printReleaseSummary(env *workflow.Env, r releaseReport) {
	fmt.Fprintf(env.Out, "\n%s\n", ui.RenderHeader(fmt.Sprintf("Summary: Found %d qualifying release(s)", len(r.Qualifying))))

	if len(r.Qualifying) == 0 {
		fmt.Fprintln(env.Out, "\nNo qualifying releases found.")
	} else {
		fmt.Fprintln(env.Out, "\nQualifying releases (contain only Bug/Customer bug issues):")
		rows := make([][]string, 0, len(r.Qualifying))
		for _, q := range r.Qualifying {
			rows = append(rows, []string{q.Release, strconv.Itoa(q.IssueCount), strings.Join(q.IssueTypes, ", ")})
		}
		fmt.Fprintln(env.Out, ui.RenderMarkdown(ui.MarkdownTable([]string{"Release", "Issues", "Issue types"}, rows)))
	}

	if r.FieldID != "" {
		fmt.Fprintf(env.Out, "\nNext step: These releases can be updated with Investment Category = '%s'\n", releases.SuggestedCategory)
		fmt.Fprintf(env.Out, "Investment Category field ID: %s\n", r.FieldID)
	}
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

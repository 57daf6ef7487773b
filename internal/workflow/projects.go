package workflow

import (
	"fmt"
	"io"

	"github.com/jiratool/jiratool/internal/jira"
	"github.com/jiratool/jiratool/internal/ui"
)

// DefaultProjectLimit is how many projects a listing shows.
const DefaultProjectLimit = 20

// maxProjectName keeps listing lines on one terminal row.
const maxProjectName = 60

// PrintProjects writes the first limit projects as "KEY: Name" followed by a
// count of the ones left out.
func PrintProjects(w io.Writer, projects []jira.Project, limit int) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found or unable to fetch projects.")
		return
	}
	if limit <= 0 {
		limit = DefaultProjectLimit
	}
	fmt.Fprintf(w, "\nFound %d project(s):\n", len(projects))
	for i, p := range projects {
		if i == limit {
			fmt.Fprintf(w, "  ... and %d more projects\n", len(projects)-limit)
			break
		}
		fmt.Fprintf(w, "  %s %s: %s\n", ui.RenderMuted(ui.IconItem), ui.RenderAccent(p.Key), ui.TruncateSimple(p.Name, maxProjectName))
	}
}

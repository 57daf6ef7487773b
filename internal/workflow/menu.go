package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jiratool/jiratool/internal/ui"
)

// ErrProjectKeyRequired is reported when the operator leaves the project key
// empty.
var ErrProjectKeyRequired = errors.New("project key is required")

// Menu is the interactive loop: pick a workflow, optionally list projects,
// enter a project key, run it, repeat until Exit.
type Menu struct {
	Title    string
	Registry *Registry
	Session  *Session
	Prompt   Prompter
	Out      io.Writer
	Err      io.Writer
	// ProjectLimit caps the optional project listing.
	ProjectLimit int
}

// Run loops until the operator picks Exit. It returns ui.ErrAborted when a
// prompt is interrupted, and any error from connecting to Jira; workflow
// failures are printed and the menu continues.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.printMenu()

		exitChoice := m.Registry.ExitChoice()
		input, err := m.Prompt.Input(
			fmt.Sprintf("Select an option (1-%d)", exitChoice), "", m.Registry.ValidateChoice)
		if err != nil {
			return err
		}

		w, exit, err := m.Registry.Choice(input)
		if err != nil {
			fmt.Fprintf(m.Out, "\n%s %s\n", ui.RenderWarnIcon(), capitalize(err.Error()))
			continue
		}
		if exit {
			fmt.Fprintln(m.Out, "\nGoodbye!")
			return nil
		}

		if err := m.RunWorkflow(ctx, w); err != nil {
			if ui.IsAborted(err) || errors.Is(err, context.Canceled) {
				return err
			}
			var connErr *ConnectError
			if errors.As(err, &connErr) {
				return err
			}
			fmt.Fprintf(m.errOut(), "\n%s Error: %s\n", ui.RenderFailIcon(), capitalize(err.Error()))
		}
	}
}

// ConnectError wraps a failure to open the Jira session.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }

// RunWorkflow performs the shared steps of every workflow (header, optional
// project listing, project key prompt) and then runs its handler.
func (m *Menu) RunWorkflow(ctx context.Context, w Workflow) error {
	conn, err := m.Session.Connection(ctx)
	if err != nil {
		return &ConnectError{Err: err}
	}

	fmt.Fprintf(m.Out, "\n%s\n", ui.RenderHeader(w.Name))

	list, err := m.Prompt.Confirm("Do you want to see a list of available projects?")
	if err != nil {
		return err
	}
	if list {
		fmt.Fprintln(m.Out, "\nFetching projects...")
		projects, err := conn.ListProjects(ctx)
		if err != nil {
			fmt.Fprintf(m.errOut(), "Error fetching projects: %v\n", err)
		}
		PrintProjects(m.Out, projects, m.ProjectLimit)
	}

	example := w.ExampleProject
	if example == "" {
		example = "PROJ"
	}
	key, err := m.Prompt.Input(fmt.Sprintf("Enter your Jira project key (e.g., %s)", example), example, nil)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrProjectKeyRequired
	}

	env := &Env{Conn: conn, Prompt: m.Prompt, Out: m.Out, Err: m.errOut()}
	return w.Run(ctx, env, key)
}

func (m *Menu) printMenu() {
	title := m.Title
	if title == "" {
		title = "Jira Management Tool"
	}
	fmt.Fprintf(m.Out, "\n%s\n\nAvailable Features:\n", ui.RenderHeader(title))
	workflows := m.Registry.List()
	for i, w := range workflows {
		fmt.Fprintf(m.Out, "  %d. %s - %s\n", i+1, w.Name, w.Description)
	}
	fmt.Fprintf(m.Out, "  %d. Exit\n\n", len(workflows)+1)
}

func (m *Menu) errOut() io.Writer {
	if m.Err != nil {
		return m.Err
	}
	return m.Out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

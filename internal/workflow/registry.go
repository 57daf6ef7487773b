// Package workflow holds the interactive workflows jt offers and the menu
// that dispatches to them.
package workflow

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/jiratool/jiratool/internal/jira"
)

// Prompter asks the operator for input. Input re-prompts until validate
// accepts the value; implementations return ui.ErrAborted on interrupt.
type Prompter interface {
	Confirm(title string) (bool, error)
	Input(title, placeholder string, validate func(string) error) (string, error)
}

// Env is what a workflow handler runs with.
type Env struct {
	Conn   *jira.Connection
	Prompt Prompter
	Out    io.Writer
	Err    io.Writer
}

// Handler runs a workflow for one project.
type Handler func(ctx context.Context, env *Env, projectKey string) error

// Workflow is one menu entry.
type Workflow struct {
	ID          string
	Name        string
	Description string
	// ExampleProject is shown in the project key prompt.
	ExampleProject string
	Run            Handler
}

// Registry keeps workflows in registration order, which is also the menu
// numbering.
type Registry struct {
	mu        sync.RWMutex
	workflows []Workflow
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a workflow. IDs must be unique and a handler is required.
func (r *Registry) Register(w Workflow) error {
	if w.ID == "" || w.Run == nil {
		return fmt.Errorf("workflow %q: id and handler are required", w.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.workflows {
		if existing.ID == w.ID {
			return fmt.Errorf("workflow %q already registered", w.ID)
		}
	}
	r.workflows = append(r.workflows, w)
	return nil
}

// List returns the workflows in menu order.
func (r *Registry) List() []Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Workflow(nil), r.workflows...)
}

// Get finds a workflow by ID.
func (r *Registry) Get(id string) (Workflow, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.workflows {
		if w.ID == id {
			return w, true
		}
	}
	return Workflow{}, false
}

// ExitChoice is the menu number that ends the session.
func (r *Registry) ExitChoice() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workflows) + 1
}

// Choice resolves a menu selection. exit is true for the exit entry.
func (r *Registry) Choice(input string) (w Workflow, exit bool, err error) {
	exitChoice := r.ExitChoice()
	n, convErr := strconv.Atoi(strings.TrimSpace(input))
	if convErr != nil || n < 1 || n > exitChoice {
		return Workflow{}, false, fmt.Errorf("invalid option, please select 1-%d", exitChoice)
	}
	if n == exitChoice {
		return Workflow{}, true, nil
	}
	return r.List()[n-1], false, nil
}

// ValidateChoice is a prompt validator for menu selections.
func (r *Registry) ValidateChoice(input string) error {
	_, _, err := r.Choice(input)
	return err
}

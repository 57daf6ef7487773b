package ui

import (
	"errors"
	"os"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned by prompts when the operator presses Ctrl+C.
var ErrAborted = huh.ErrUserAborted

// HuhPrompter asks questions with huh forms.
type HuhPrompter struct {
	// Accessible switches huh to plain line-based prompts (screen readers,
	// dumb terminals). Defaults to JT_ACCESSIBLE being set.
	Accessible bool
}

// NewPrompter returns a prompter configured from the environment.
func NewPrompter() *HuhPrompter {
	return &HuhPrompter{Accessible: os.Getenv("JT_ACCESSIBLE") != ""}
}

// Confirm asks a yes/no question. The default answer is no.
func (p *HuhPrompter) Confirm(title string) (bool, error) {
	var answer bool
	err := p.run(huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&answer))
	return answer, err
}

// Input asks for a single line of text. validate may be nil; when it returns
// an error huh shows the message and asks again.
func (p *HuhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	err := p.run(field)
	return value, err
}

func (p *HuhPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huh.ThemeDracula()).
		WithAccessible(p.Accessible)
	return form.Run()
}

// IsAborted reports whether err came from the operator cancelling a prompt.
func IsAborted(err error) bool {
	return errors.Is(err, huh.ErrUserAborted)
}

package input

import (
	apperrors "amcli/internal/core/errors"
	"io"
)

type Mode int

const (
	Interactive Mode = iota
	NonInteractive
)

// Resolve picks the input mode from the global flags. JSON output always
// disables prompting.
func Resolve(jsonMode, nonInteractive bool) Mode {
	if jsonMode || nonInteractive {
		return NonInteractive
	}
	return Interactive
}

// Validator rejects a candidate answer with a message shown under the prompt.
type Validator func(string) error

// Formatter changes how an accepted answer is echoed back.
type Formatter func(string) string

type TextOptions struct {
	Placeholder string
	Formatter   Formatter
	Validator   Validator
}

// Input asks the user for values a command was not given on the command line.
type Input interface {
	PromptText(prompt string, opts TextOptions) (string, error)
	Select(prompt string, options []string) (string, error)
	// Confirm asks a yes/no question. def, when set, is the answer to an
	// empty reply.
	Confirm(prompt string, def *bool) (bool, error)
}

// ErrCancelled is returned when the user aborts a prompt.
var ErrCancelled = apperrors.New(apperrors.CodeInputRequired,
	"Input cancelled",
	"The prompt was cancelled before an answer was given")

func New(mode Mode, in io.Reader, out io.Writer) Input {
	if mode == NonInteractive {
		return nonInteractive{}
	}
	return &interactive{in: in, out: out}
}

type nonInteractive struct{}

func (nonInteractive) PromptText(prompt string, _ TextOptions) (string, error) {
	return "", apperrors.InputRequired("prompt", prompt)
}

func (nonInteractive) Select(prompt string, _ []string) (string, error) {
	return "", apperrors.InputRequired("selection", prompt)
}

func (nonInteractive) Confirm(prompt string, _ *bool) (bool, error) {
	return false, apperrors.InputRequired("confirmation", prompt)
}

// SelectIndex asks for one of labels and returns its position.
func SelectIndex(in Input, prompt string, labels []string) (int, error) {
	if len(labels) == 0 {
		return 0, apperrors.ValidationField("selection", "There is nothing to choose from")
	}
	choice, err := in.Select(prompt, labels)
	if err != nil {
		return 0, err
	}
	for i, label := range labels {
		if label == choice {
			return i, nil
		}
	}
	return 0, apperrors.ValidationField("selection", "'"+choice+"' is not one of the options")
}

// Bool returns a pointer to v, for Confirm defaults.
func Bool(v bool) *bool {
	return &v
}

package output

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/shared/logging"
	"io"
)

type Mode int

const (
	Interactive Mode = iota
	JSON
)

func (m Mode) String() string {
	if m == JSON {
		return "json"
	}
	return "interactive"
}

// Output renders command results. The implementation is chosen once per
// process from the mode flag; handlers never branch on the concrete type.
type Output interface {
	Mode() Mode
	// Success reports the command's result value.
	Success(value any)
	// Error reports a failure. code is used when err carries none.
	Error(err error, code apperrors.ErrorCode)
	Progress(msg string)
	Table(title string, header []string, rows [][]string)
}

func New(mode Mode, stdout, stderr io.Writer, logger *logging.Logger) Output {
	if logger == nil {
		logger = logging.Discard()
	}
	if mode == JSON {
		return &jsonOutput{out: stdout, logger: logger}
	}
	return newInteractive(stdout, stderr, logger)
}

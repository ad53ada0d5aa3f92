package output

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/shared/logging"
	"encoding/json"
	"fmt"
	"io"
)

// SuccessEnvelope is written for a successful result. Value is always
// present, null included.
type SuccessEnvelope struct {
	OK    bool `json:"ok"`
	Value any  `json:"value"`
}

type ErrorEnvelope struct {
	OK    bool          `json:"ok"`
	Error *ErrorDetails `json:"error"`
}

type ErrorDetails struct {
	Code       apperrors.ErrorCode `json:"code"`
	Type       string              `json:"type"`
	Message    string              `json:"message"`
	Why        string              `json:"why"`
	Suggestion string              `json:"suggestion"`
	Context    string              `json:"context,omitempty"`
}

func BuildSuccess(value any) SuccessEnvelope {
	return SuccessEnvelope{OK: true, Value: value}
}

// BuildError describes err. Errors outside the taxonomy are reported under
// fallback, with their text as both message and cause.
func BuildError(err error, fallback apperrors.ErrorCode) ErrorEnvelope {
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	ce := apperrors.Classify(err)
	if ce.Code == apperrors.CodeUnknown {
		return ErrorEnvelope{Error: &ErrorDetails{
			Code:       fallback,
			Type:       apperrors.TypeName(fallback),
			Message:    err.Error(),
			Why:        err.Error(),
			Suggestion: apperrors.DefaultSuggestion(fallback),
		}}
	}
	return ErrorEnvelope{Error: &ErrorDetails{
		Code:       ce.Code,
		Type:       ce.TypeName(),
		Message:    ce.What,
		Why:        ce.Why,
		Suggestion: ce.Suggestion,
		Context:    ce.Context,
	}}
}

// WriteEnvelope writes env as one line.
func WriteEnvelope(w io.Writer, env any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(env)
}

type jsonOutput struct {
	out    io.Writer
	logger *logging.Logger
}

func (o *jsonOutput) Mode() Mode { return JSON }

func (o *jsonOutput) Success(value any) {
	o.write(BuildSuccess(value))
}

func (o *jsonOutput) Error(err error, code apperrors.ErrorCode) {
	o.write(BuildError(err, code))
}

func (o *jsonOutput) write(env any) {
	if err := WriteEnvelope(o.out, env); err != nil {
		o.logger.Debug("write json envelope", "error", err)
		fallback := BuildError(fmt.Errorf("encode result: %w", err), apperrors.CodeUnknown)
		_ = WriteEnvelope(o.out, fallback)
	}
}

func (o *jsonOutput) Progress(string) {}

func (o *jsonOutput) Table(string, []string, [][]string) {}

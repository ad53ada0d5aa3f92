package errors

import "errors"

type ErrorCode int

const (
	CodeUnknown ErrorCode = 0

	CodeSchemaValidation ErrorCode = -31001
	CodeFieldValidation  ErrorCode = -31002
	CodeFormatValidation ErrorCode = -31003
	CodeInputRequired    ErrorCode = -31004

	CodeAssetNotFound         ErrorCode = -30001
	CodeAssetAlreadyExists    ErrorCode = -30002
	CodeAssetInUse            ErrorCode = -30003
	CodeTemplateNotFound      ErrorCode = -30004
	CodeTemplateAlreadyExists ErrorCode = -30005

	CodeProjectNotInitialized ErrorCode = -29001
	CodeProjectNotRegistered  ErrorCode = -29002
	CodeProjectAlreadyExists  ErrorCode = -29003
	CodeTemplateCopyFailed    ErrorCode = -29004

	CodeSDKNotFound           ErrorCode = -28001
	CodeSchemaLoadFailed      ErrorCode = -28002
	CodeStorageUnavailable    ErrorCode = -28003
	CodeStorageFailure        ErrorCode = -28004
	CodeMigrationFailed       ErrorCode = -28005
	CodeMigrationDrift        ErrorCode = -28006
	CodeMigrationIrreversible ErrorCode = -28007
)

// Category partitions error codes into contiguous ranges.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryValidation
	CategoryAsset
	CategoryProject
	CategoryEnvironment
)

func (c Category) String() string {
	switch c {
	case CategoryValidation:
		return "validation"
	case CategoryAsset:
		return "asset"
	case CategoryProject:
		return "project"
	case CategoryEnvironment:
		return "environment"
	default:
		return "unknown"
	}
}

func CategoryOf(code ErrorCode) Category {
	switch {
	case code >= -31999 && code <= -31000:
		return CategoryValidation
	case code >= -30999 && code <= -30000:
		return CategoryAsset
	case code >= -29999 && code <= -29000:
		return CategoryProject
	case code >= -28999 && code <= -28000:
		return CategoryEnvironment
	default:
		return CategoryUnknown
	}
}

var typeNames = map[ErrorCode]string{
	CodeSchemaValidation:      "schema_validation_error",
	CodeFieldValidation:       "field_validation_error",
	CodeFormatValidation:      "format_validation_error",
	CodeInputRequired:         "input_required",
	CodeAssetNotFound:         "asset_not_found",
	CodeAssetAlreadyExists:    "asset_already_exists",
	CodeAssetInUse:            "asset_in_use",
	CodeTemplateNotFound:      "template_not_found",
	CodeTemplateAlreadyExists: "template_already_exists",
	CodeProjectNotInitialized: "project_not_initialized",
	CodeProjectNotRegistered:  "project_not_registered",
	CodeProjectAlreadyExists:  "project_already_exists",
	CodeTemplateCopyFailed:    "template_copy_failed",
	CodeSDKNotFound:           "sdk_not_found",
	CodeSchemaLoadFailed:      "schema_load_failed",
	CodeStorageUnavailable:    "storage_unavailable",
	CodeStorageFailure:        "storage_error",
	CodeMigrationFailed:       "migration_failed",
	CodeMigrationDrift:        "migration_checksum_mismatch",
	CodeMigrationIrreversible: "migration_not_reversible",
}

// TypeName maps a code to its stable type string. Codes without a specific
// name fall back to the name of their range.
func TypeName(code ErrorCode) string {
	if name, ok := typeNames[code]; ok {
		return name
	}
	switch CategoryOf(code) {
	case CategoryValidation:
		return "validation_error"
	case CategoryAsset:
		return "asset_error"
	case CategoryProject:
		return "project_error"
	case CategoryEnvironment:
		return "environment_error"
	default:
		return "unknown_error"
	}
}

var suggestions = map[ErrorCode]string{
	CodeInputRequired:         "Pass the value as a command-line argument or drop --non-interactive",
	CodeTemplateNotFound:      "List available templates with 'am template list'",
	CodeTemplateAlreadyExists: "Use a different template name or forget the existing one first",
	CodeProjectNotInitialized: "Initialize a project with 'am project init <name>'",
	CodeProjectNotRegistered:  "Register the project with 'am project register <path>'",
	CodeProjectAlreadyExists:  "Use a different name or remove the existing project first",
	CodeTemplateCopyFailed:    "Check file permissions and ensure the template path is correct",
	CodeStorageUnavailable:    "Check that the data directory is writable, or reset it with 'am db reset'",
	CodeMigrationFailed:       "Inspect the store with 'am db status'; the failed migration was rolled back",
	CodeMigrationDrift:        "The store was created by a different build; reset it with 'am db reset'",
	CodeMigrationIrreversible: "This migration has no rollback statements",
}

// DefaultSuggestion returns the remediation hint shown when an error does not
// carry its own.
func DefaultSuggestion(code ErrorCode) string {
	if s, ok := suggestions[code]; ok {
		return s
	}
	switch CategoryOf(code) {
	case CategoryValidation:
		return "Check your input values and try again"
	case CategoryAsset:
		return "Verify the asset exists or create it first"
	case CategoryProject:
		return "Initialize a project or register an existing one"
	case CategoryEnvironment:
		return "Check that the required tools are installed and the data directory is accessible"
	default:
		return "Check the error message for details"
	}
}

// Process exit codes.
const (
	ExitSuccess     = 0
	ExitUserError   = 1
	ExitSystemError = 2
)

// ExitCode maps an outcome to the process exit status. Environment failures,
// codes outside every range and plain errors are system errors; everything
// else is the user's to fix.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ce *CliError
	if !errors.As(err, &ce) {
		return ExitSystemError
	}
	switch ce.Category() {
	case CategoryValidation, CategoryAsset, CategoryProject:
		return ExitUserError
	default:
		return ExitSystemError
	}
}

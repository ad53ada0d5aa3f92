package errors

import "fmt"

func ProjectNotRegistered(name string) *CliError {
	return New(CodeProjectNotRegistered,
		fmt.Sprintf("Project '%s' not found", name),
		"The project is not registered in the database")
}

func ProjectAlreadyExists(name string) *CliError {
	return New(CodeProjectAlreadyExists,
		"Project already exists",
		fmt.Sprintf("A project named '%s' is already registered", name))
}

func ProjectNotInitialized(path string) *CliError {
	return New(CodeProjectNotInitialized,
		"Not a project directory",
		"No .amproject file found in the directory").WithContext(path)
}

func ValidationField(field, reason string) *CliError {
	return New(CodeFieldValidation,
		fmt.Sprintf("Invalid %s", field),
		reason)
}

func AssetNotFound(kind, name string) *CliError {
	return New(CodeAssetNotFound,
		fmt.Sprintf("%s not found", kind),
		fmt.Sprintf("%s '%s' does not exist", kind, name))
}

func AssetAlreadyExists(kind, name string) *CliError {
	return New(CodeAssetAlreadyExists,
		fmt.Sprintf("%s already exists", kind),
		fmt.Sprintf("%s '%s' already exists", kind, name))
}

func TemplateNotFound(name string) *CliError {
	return New(CodeTemplateNotFound,
		"Template not found",
		fmt.Sprintf("Template '%s' is not registered", name))
}

func TemplateAlreadyExists(name string) *CliError {
	return New(CodeTemplateAlreadyExists,
		"Template already exists",
		fmt.Sprintf("A template named '%s' is already registered", name))
}

func TemplateCopyFailed(src string, err error) *CliError {
	return New(CodeTemplateCopyFailed,
		"Failed to copy template",
		err.Error()).WithContext(src).WithCause(err)
}

func SDKNotFound(name string) *CliError {
	return New(CodeSDKNotFound,
		"Required tool not found",
		fmt.Sprintf("'%s' is not installed or not on PATH", name))
}

func StorageUnavailable(path string, err error) *CliError {
	return New(CodeStorageUnavailable,
		"Store unavailable",
		err.Error()).WithContext(path).WithCause(err)
}

func StorageFailure(op string, err error) *CliError {
	return New(CodeStorageFailure,
		"Storage operation failed",
		fmt.Sprintf("%s: %v", op, err)).WithCause(err)
}

func InputRequired(kind, prompt string) *CliError {
	return New(CodeInputRequired,
		"Input required",
		fmt.Sprintf("Interactive %s '%s' blocked: non-interactive mode is enabled. "+
			"Please provide the required input via command-line arguments instead.", kind, prompt))
}

package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"errors"
	"flag"
	"io"
	"strings"
)

type cliOptions struct {
	configPath     string
	json           bool
	nonInteractive bool
	verbose        bool
	version        bool
	help           bool
	args           []string
}

// globalFlags are accepted anywhere on the command line, before or after the
// command words. The value says whether the flag takes an argument.
var globalFlags = map[string]bool{
	"config":          true,
	"json":            false,
	"non-interactive": false,
	"verbose":         false,
	"v":               false,
	"version":         false,
	"help":            false,
	"h":               false,
}

// parseOptions pulls the global flags out of args and leaves the command words
// and command flags in opts.args.
func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("am", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&opts.configPath, "config", "", "Path to config file")
	fs.BoolVar(&opts.json, "json", false, "Print machine-readable JSON")
	fs.BoolVar(&opts.nonInteractive, "non-interactive", false, "Never prompt; fail when input is missing")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.verbose, "v", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&opts.help, "help", false, "Show usage")
	fs.BoolVar(&opts.help, "h", false, "Show usage")

	var globals, rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i:]...)
			break
		}
		name, hasValue := flagName(arg)
		takesValue, ok := globalFlags[name]
		if !ok {
			rest = append(rest, arg)
			continue
		}
		globals = append(globals, arg)
		if takesValue && !hasValue && i+1 < len(args) {
			i++
			globals = append(globals, args[i])
		}
	}

	if err := fs.Parse(globals); err != nil {
		return cliOptions{}, usageError("option", err)
	}
	opts.args = rest
	return opts, nil
}

// flagName returns the name of a "-x", "--x" or "--x=v" argument.
func flagName(arg string) (string, bool) {
	if len(arg) < 2 || arg[0] != '-' {
		return "", false
	}
	name := strings.TrimLeft(arg, "-")
	if i := strings.IndexByte(name, '='); i >= 0 {
		return name[:i], true
	}
	return name, false
}

// parseArgs parses command flags that may be mixed with positional arguments,
// e.g. "init sfx -t blank". Everything after "--" is positional.
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	fs.SetOutput(io.Discard)
	var positionals []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, usageError(fs.Name(), err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positionals, nil
		}
		if consumed := len(args) - len(rest); consumed > 0 && args[consumed-1] == "--" {
			return append(positionals, rest...), nil
		}
		positionals = append(positionals, rest[0])
		args = rest[1:]
	}
}

func usageError(field string, err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return apperrors.ValidationField(field, "help requested").
			WithSuggestion("Run 'am help' to see the available commands")
	}
	return apperrors.ValidationField(field, err.Error()).
		WithSuggestion("Run 'am help' to see the available commands")
}

// requireArgs checks the positional count of a command.
func requireArgs(command string, args []string, min, max int, usage string) error {
	if len(args) < min || (max >= 0 && len(args) > max) {
		return apperrors.ValidationField("arguments", "Usage: am "+usage).WithContext(command)
	}
	return nil
}

const usageText = `am - manage Amplitude projects and templates

Usage:
  am [--json] [--non-interactive] [--verbose] [--config path] <command> [args]

Project commands:
  project init [name] [-t template] [--no-register]   Create a project in ./<name>
  project register [path]                            Register an existing project
  project unregister <name> [--delete-files]         Forget a registered project
  project list [--filter glob]                       List registered projects
  project info [name]                                Show a project

Template commands:
  template register <name> <path>                    Register a project template
  template list [--filter glob]                      List templates
  template forget <name>                             Forget a template

Database commands:
  db status                                          Show schema version
  db migrate                                         Apply pending migrations
  db verify                                          Compare applied migrations with the catalog
  db rollback <version> [--yes]                      Undo the latest applied migration
  db reset [--yes]                                   Delete and recreate the database

Settings:
  settings list | get <key> | set <key> <value>

Other:
  version                                            Print the version
  help                                               Show this help
`

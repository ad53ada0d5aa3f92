package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/ui/output"
	"context"
	"fmt"
	"sort"
	"strings"
)

type handler func(a *app, ctx context.Context, args []string) error

var commands = map[string]map[string]handler{
	"project": {
		"init":       (*app).projectInit,
		"register":   (*app).projectRegister,
		"unregister": (*app).projectUnregister,
		"list":       (*app).projectList,
		"info":       (*app).projectInfo,
	},
	"template": {
		"register": (*app).templateRegister,
		"list":     (*app).templateList,
		"forget":   (*app).templateForget,
	},
	"db": {
		"status":   (*app).dbStatus,
		"migrate":  (*app).dbMigrate,
		"verify":   (*app).dbVerify,
		"rollback": (*app).dbRollback,
		"reset":    (*app).dbReset,
	},
	"settings": {
		"list": (*app).settingsList,
		"get":  (*app).settingsGet,
		"set":  (*app).settingsSet,
	},
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	group := args[0]
	switch group {
	case "version":
		return a.printVersion()
	case "help":
		return a.printUsage()
	}

	subs, ok := commands[group]
	if !ok {
		return apperrors.ValidationField("command", fmt.Sprintf("Unknown command '%s'", group)).
			WithSuggestion("Run 'am help' to see the available commands")
	}
	if len(args) < 2 {
		return apperrors.ValidationField("command", fmt.Sprintf("Missing subcommand for '%s'", group)).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(subcommandNames(subs), ", ")))
	}
	h, ok := subs[args[1]]
	if !ok {
		return apperrors.ValidationField("command", fmt.Sprintf("Unknown command '%s %s'", group, args[1])).
			WithSuggestion(fmt.Sprintf("Use one of: %s", strings.Join(subcommandNames(subs), ", ")))
	}
	return h(a, ctx, args[2:])
}

func subcommandNames(subs map[string]handler) []string {
	names := make([]string, 0, len(subs))
	for name := range subs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// succeed prints msg in interactive mode and value as the JSON payload.
func (a *app) succeed(msg string, value any) {
	if !a.interactiveOutput() {
		a.out.Success(value)
		return
	}
	a.out.Success(msg)
}

func (a *app) interactiveOutput() bool {
	return a.out.Mode() == output.Interactive
}

// confirm asks a yes/no question defaulting to no.
func (a *app) confirm(prompt string) (bool, error) {
	def := false
	return a.in.Confirm(prompt, &def)
}

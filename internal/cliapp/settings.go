package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"context"
	"fmt"
)

func (a *app) settingsList(ctx context.Context, args []string) error {
	if err := requireArgs("settings list", args, 0, 0, "settings list"); err != nil {
		return err
	}
	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	settings, err := reg.Settings(ctx)
	if err != nil {
		return err
	}
	if !a.interactiveOutput() {
		a.out.Success(settings)
		return nil
	}
	rows := make([][]string, 0, len(settings))
	for _, s := range settings {
		rows = append(rows, []string{s.Key, s.Value, s.Type, s.Description})
	}
	a.out.Table("Settings", []string{"Key", "Value", "Type", "Description"}, rows)
	return nil
}

func (a *app) settingsGet(ctx context.Context, args []string) error {
	if err := requireArgs("settings get", args, 1, 1, "settings get <key>"); err != nil {
		return err
	}
	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	s, found, err := reg.Setting(ctx, args[0])
	if err != nil {
		return err
	}
	if !found {
		return apperrors.ValidationField("setting", fmt.Sprintf("Unknown setting '%s'", args[0])).
			WithSuggestion("Use 'am settings list' to see the available settings")
	}
	if !a.interactiveOutput() {
		a.out.Success(s)
		return nil
	}
	a.out.Progress(fmt.Sprintf("%s = %s", s.Key, s.Value))
	return nil
}

func (a *app) settingsSet(ctx context.Context, args []string) error {
	if err := requireArgs("settings set", args, 2, 2, "settings set <key> <value>"); err != nil {
		return err
	}
	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	s, err := reg.SetSetting(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	a.succeed(fmt.Sprintf("Setting %s updated to %s", s.Key, s.Value), s)
	return nil
}

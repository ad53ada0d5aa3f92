package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/core/project"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

func (a *app) templateRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("template register", flag.ContinueOnError)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("template register", rest, 2, 2, "template register <name> <path>"); err != nil {
		return err
	}
	name := rest[0]
	if err := project.ValidateName(name); err != nil {
		return apperrors.ValidationField("template name", apperrors.Classify(err).Why)
	}
	name = project.NormalizeName(name)
	if name == builtinTemplate {
		return apperrors.TemplateAlreadyExists(name).
			WithSuggestion("The default template is built in; choose a different name")
	}

	dir, err := filepath.Abs(rest[1])
	if err != nil {
		return apperrors.ValidationField("path", err.Error()).WithContext(rest[1])
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return apperrors.ValidationField("path", "The template path must be an existing directory").WithContext(dir)
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	t, err := reg.CreateTemplate(ctx, name, dir)
	if err != nil {
		return err
	}
	a.succeed(fmt.Sprintf("Template %s registered successfully", t.Name), t)
	return nil
}

func (a *app) templateList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("template list", flag.ContinueOnError)
	filter := fs.String("filter", "", "Only list templates whose name matches this glob")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("template list", rest, 0, 0, "template list [--filter glob]"); err != nil {
		return err
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	templates, err := reg.Templates(ctx, *filter)
	if err != nil {
		return err
	}
	if !a.interactiveOutput() {
		a.out.Success(templates)
		return nil
	}

	rows := [][]string{{builtinTemplate, "(built-in)", ""}}
	for _, t := range templates {
		rows = append(rows, []string{t.Name, t.Path, humanize.Time(t.CreatedAt)})
	}
	a.out.Table("Project Templates", []string{"Name", "Path", "Registered"}, rows)
	return nil
}

func (a *app) templateForget(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("template forget", flag.ContinueOnError)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("template forget", rest, 1, 1, "template forget <name>"); err != nil {
		return err
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	if err := reg.ForgetTemplate(ctx, rest[0]); err != nil {
		return err
	}
	a.succeed(fmt.Sprintf("Template %s forgotten", rest[0]), map[string]string{"name": rest[0]})
	return nil
}

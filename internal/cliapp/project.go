package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/core/project"
	"amcli/internal/data/registry"
	"amcli/internal/ui/input"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
)

// builtinTemplate is scaffolded in place instead of being copied from disk.
const builtinTemplate = "default"

func (a *app) projectInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project init", flag.ContinueOnError)
	var template string
	var noRegister bool
	fs.StringVar(&template, "template", "", "Template to create the project from")
	fs.StringVar(&template, "t", "", "Template to create the project from")
	fs.BoolVar(&noRegister, "no-register", false, "Create the files without registering the project")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("project init", rest, 0, 1, "project init [name] [-t template] [--no-register]"); err != nil {
		return err
	}

	var name string
	if len(rest) == 1 {
		name = rest[0]
	} else {
		name, err = a.in.PromptText("Project Name", input.TextOptions{
			Placeholder: "my_project",
			Validator:   project.ValidateName,
			Formatter:   project.NormalizeName,
		})
		if err != nil {
			return err
		}
	}
	if err := project.ValidateName(name); err != nil {
		return err
	}
	name = project.NormalizeName(name)

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	if template == "" {
		if template, err = a.chooseTemplate(ctx, reg); err != nil {
			return err
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return apperrors.ValidationField("directory", err.Error())
	}
	dir := filepath.Join(cwd, name)

	existing, registered, err := reg.ProjectByName(ctx, name)
	if err != nil {
		return err
	}
	if registered && !noRegister {
		a.out.Progress(fmt.Sprintf("A project named '%s' is already registered at %s.", name, existing.Path))
		ok, err := a.confirm("Do you want to forget that project and create this new one?")
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ProjectAlreadyExists(name).
				WithSuggestion("Unregister the existing project first, or use a different name")
		}
	}

	empty, err := project.IsEmptyDir(dir)
	if err != nil {
		return apperrors.ValidationField("directory", err.Error()).WithContext(dir)
	}
	if !empty {
		ok, err := a.confirm("Do you want to overwrite the directory? All existing content will be deleted!")
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.New(apperrors.CodeProjectAlreadyExists,
				"Cannot create project",
				"The project directory already exists and is not empty").WithContext(dir)
		}
		if err := os.RemoveAll(dir); err != nil {
			return apperrors.ValidationField("directory", err.Error()).WithContext(dir)
		}
	}

	a.out.Progress(fmt.Sprintf("Initializing project %s using template %s...", name, template))
	marker := project.NewConfiguration(name)
	if template == builtinTemplate {
		if err := project.Scaffold(dir, marker); err != nil {
			return apperrors.New(apperrors.CodeTemplateCopyFailed,
				"Failed to create project files", err.Error()).WithContext(dir).WithCause(err)
		}
	} else {
		t, found, err := reg.TemplateByName(ctx, template)
		if err != nil {
			return err
		}
		if !found {
			return apperrors.TemplateNotFound(template)
		}
		if err := project.CopyTemplate(t.Path, dir, marker); err != nil {
			return err
		}
	}

	var p registry.Project
	switch {
	case noRegister:
		p = registry.Project{Name: name, Path: dir, Template: template}
	case registered:
		p, err = reg.ReplaceProject(ctx, existing.ID, name, dir, template)
	default:
		p, err = reg.CreateProject(ctx, name, dir, template)
	}
	if err != nil {
		return err
	}
	a.logger.Info("project created", "name", name, "path", dir, "template", template, "registered", !noRegister)

	a.succeed(fmt.Sprintf("Project %s created successfully", name), map[string]any{
		"project":    p,
		"registered": !noRegister,
	})
	return nil
}

// chooseTemplate offers the registered templates when a prompt is possible,
// and falls back to the configured default otherwise.
func (a *app) chooseTemplate(ctx context.Context, reg *registry.Registry) (string, error) {
	def := a.cfg.Project.DefaultTemplate
	if !a.prompts {
		return def, nil
	}
	templates, err := reg.Templates(ctx, "")
	if err != nil {
		return "", err
	}
	if len(templates) == 0 {
		return def, nil
	}
	options := []string{builtinTemplate}
	for _, t := range templates {
		if t.Name != builtinTemplate {
			options = append(options, t.Name)
		}
	}
	idx, err := input.SelectIndex(a.in, "Project Template", options)
	if err != nil {
		return "", err
	}
	return options[idx], nil
}

func (a *app) projectRegister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project register", flag.ContinueOnError)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("project register", rest, 0, 1, "project register [path]"); err != nil {
		return err
	}
	target := "."
	if len(rest) == 1 {
		target = rest[0]
	}
	dir, err := filepath.Abs(target)
	if err != nil {
		return apperrors.ValidationField("path", err.Error()).WithContext(target)
	}

	a.out.Progress(fmt.Sprintf("Registering project '%s'...", dir))
	marker, err := project.ReadMarker(dir)
	if err != nil {
		return err
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	existing, found, err := reg.ProjectByName(ctx, marker.Name)
	if err != nil {
		return err
	}

	var p registry.Project
	switch {
	case found && existing.Path == dir:
		p = existing
		a.logger.Debug("project already registered", "name", marker.Name, "path", dir)
	case found:
		a.out.Progress(fmt.Sprintf("A project named '%s' is already registered at %s.", marker.Name, existing.Path))
		ok, err := a.confirm("Do you want to forget that project and register this one?")
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ProjectAlreadyExists(marker.Name).
				WithSuggestion("Unregister the existing project first, or use a different name")
		}
		if p, err = reg.ReplaceProject(ctx, existing.ID, marker.Name, dir, existing.Template); err != nil {
			return err
		}
	default:
		if p, err = reg.CreateProject(ctx, marker.Name, dir, ""); err != nil {
			return err
		}
	}

	a.succeed(fmt.Sprintf("Project %s registered successfully", p.Name), p)
	return nil
}

func (a *app) projectUnregister(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project unregister", flag.ContinueOnError)
	deleteFiles := fs.Bool("delete-files", false, "Also delete the project directory")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("project unregister", rest, 1, 1, "project unregister <name> [--delete-files]"); err != nil {
		return err
	}
	name := rest[0]

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	a.out.Progress("Unregistering project...")
	p, found, err := reg.ProjectByName(ctx, name)
	if err != nil {
		return err
	}

	deleted := false
	if found {
		if err := reg.ForgetProject(ctx, p.ID); err != nil {
			return err
		}
		if *deleteFiles {
			if err := os.RemoveAll(p.Path); err != nil {
				return apperrors.ValidationField("path", fmt.Sprintf("Project was unregistered but its files could not be deleted: %v", err)).
					WithContext(p.Path)
			}
			deleted = true
			a.out.Progress(fmt.Sprintf("Deleted %s", p.Path))
		}
	} else {
		a.logger.Debug("project was not registered", "name", name)
	}

	a.succeed(fmt.Sprintf("Project %s unregistered successfully", name), map[string]any{
		"name":           name,
		"was_registered": found,
		"files_deleted":  deleted,
	})
	return nil
}

func (a *app) projectList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project list", flag.ContinueOnError)
	filter := fs.String("filter", "", "Only list projects whose name matches this glob")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("project list", rest, 0, 0, "project list [--filter glob]"); err != nil {
		return err
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}
	projects, err := reg.ListProjects(ctx, *filter)
	if err != nil {
		return err
	}

	if !a.interactiveOutput() {
		a.out.Success(projects)
		return nil
	}
	if len(projects) == 0 {
		a.out.Progress("No projects registered.")
		a.out.Progress("")
		a.out.Progress("To get started:")
		a.out.Progress("  • Create a new project: am project init <name>")
		a.out.Progress("  • Register an existing project: am project register <path>")
		return nil
	}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{p.Name, p.Path, p.Template, humanize.Time(p.RegisteredAt)})
	}
	a.out.Table("Registered Projects", []string{"Name", "Path", "Template", "Registered"}, rows)
	return nil
}

type projectPaths struct {
	Sources string `json:"sources"`
	Data    string `json:"data"`
	Build   string `json:"build"`
}

type projectInfo struct {
	Name         string         `json:"name"`
	Path         string         `json:"path"`
	Registered   bool           `json:"registered"`
	Paths        projectPaths   `json:"paths"`
	Assets       map[string]int `json:"assets"`
	RegisteredAt *time.Time     `json:"registered_at,omitempty"`
}

func (a *app) projectInfo(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("project info", flag.ContinueOnError)
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("project info", rest, 0, 1, "project info [name]"); err != nil {
		return err
	}

	reg, err := a.registry(ctx)
	if err != nil {
		return err
	}

	var (
		dir    string
		p      registry.Project
		found  bool
		byName = len(rest) == 1
	)
	if byName {
		p, found, err = reg.ProjectByName(ctx, rest[0])
		if err != nil {
			return err
		}
		if !found {
			return apperrors.ProjectNotRegistered(rest[0]).
				WithSuggestion("Use 'am project list' to see registered projects")
		}
		dir = p.Path
	} else {
		if dir, err = os.Getwd(); err != nil {
			return apperrors.ValidationField("directory", err.Error())
		}
		if !project.HasMarker(dir) {
			return apperrors.New(apperrors.CodeProjectNotInitialized,
				"No project found in current directory",
				"The current directory does not contain a .amproject file").
				WithContext(dir).
				WithSuggestion("Create a new project with 'am project init <name>' or provide a project name")
		}
	}

	marker, err := project.ReadMarker(dir)
	if err != nil {
		return err
	}
	if !byName {
		if p, found, err = reg.ProjectByPath(ctx, dir); err != nil {
			return err
		}
	}
	counts, err := project.CountAssets(dir, marker)
	if err != nil {
		a.logger.Warn("failed to count assets", "path", dir, "error", err)
	}

	info := projectInfo{
		Name:       marker.Name,
		Path:       dir,
		Registered: found,
		Paths: projectPaths{
			Sources: filepath.Join(dir, marker.SourcesDir),
			Data:    filepath.Join(dir, marker.DataDir),
			Build:   filepath.Join(dir, marker.BuildDir),
		},
		Assets: counts,
	}
	if found {
		at := p.RegisteredAt
		info.RegisteredAt = &at
	}

	if !a.interactiveOutput() {
		a.out.Success(info)
		return nil
	}

	registeredAt := "-"
	if info.RegisteredAt != nil {
		registeredAt = fmt.Sprintf("%s (%s)", info.RegisteredAt.Local().Format(time.DateTime), humanize.Time(*info.RegisteredAt))
	}
	a.out.Table("Project "+info.Name, []string{"Field", "Value"}, [][]string{
		{"Name", info.Name},
		{"Path", info.Path},
		{"Registered", fmt.Sprintf("%t", info.Registered)},
		{"Registered at", registeredAt},
		{"Sources", info.Paths.Sources},
		{"Data", info.Paths.Data},
		{"Build", info.Paths.Build},
	})
	assetRows := make([][]string, 0, len(project.AssetTypes))
	for _, kind := range project.AssetTypes {
		assetRows = append(assetRows, []string{kind, fmt.Sprintf("%d", counts[kind])})
	}
	a.out.Table("Assets", []string{"Type", "Count"}, assetRows)

	if found || !a.prompts {
		return nil
	}
	a.out.Progress("This project is not registered in the database.")
	ok, err := a.confirm("Would you like to register it now?")
	if err != nil {
		return err
	}
	if !ok {
		a.out.Progress("Run am project register to register this project")
		return nil
	}
	if _, err := reg.CreateProject(ctx, marker.Name, dir, ""); err != nil {
		return err
	}
	a.out.Success("Project registered successfully!")
	return nil
}

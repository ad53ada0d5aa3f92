package registry

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/data/store"
	"amcli/internal/shared/observability"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gobwas/glob"
)

type Project struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Template     string    `json:"template,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Template struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Registry reads and writes projects, templates and settings. Name
// uniqueness is enforced by the store; a violated constraint comes back as
// an "already exists" error.
type Registry struct {
	db      *store.DB
	metrics *observability.Metrics
	now     func() time.Time
}

func New(db *store.DB, metrics *observability.Metrics) *Registry {
	return &Registry{
		db:      db,
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *Registry) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}

type execer interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	QueryRow(ctx context.Context, query string, dest []any, args ...any) (bool, error)
}

// CreateProject inserts a project row and returns it with its new id.
func (r *Registry) CreateProject(ctx context.Context, name, path, template string) (Project, error) {
	var p Project
	err := store.WithTx(ctx, r.db, func(tx *store.Tx) error {
		var err error
		p, err = r.insertProject(ctx, tx, name, path, template)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	r.metrics.ObserveRegistryWrite("project", "create")
	return p, nil
}

// ReplaceProject forgets the project with id and registers a new one in a
// single transaction.
func (r *Registry) ReplaceProject(ctx context.Context, id int64, name, path, template string) (Project, error) {
	var p Project
	err := store.WithTx(ctx, r.db, func(tx *store.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
			return err
		}
		var err error
		p, err = r.insertProject(ctx, tx, name, path, template)
		return err
	})
	if err != nil {
		return Project{}, err
	}
	r.metrics.ObserveRegistryWrite("project", "replace")
	return p, nil
}

func (r *Registry) insertProject(ctx context.Context, tx execer, name, path, template string) (Project, error) {
	ts := r.timestamp()
	var tmpl any
	if template != "" {
		tmpl = template
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO projects (name, path, template, registered_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		name, path, tmpl, ts, ts); err != nil {
		if store.IsUniqueViolation(err) {
			return Project{}, apperrors.ProjectAlreadyExists(name)
		}
		return Project{}, err
	}

	var id int64
	if _, err := tx.QueryRow(ctx, `SELECT last_insert_rowid()`, []any{&id}); err != nil {
		return Project{}, err
	}
	return Project{ID: id, Name: name, Path: path, Template: template, RegisteredAt: parseTime(ts)}, nil
}

const projectColumns = `id, name, path, COALESCE(template, ''), registered_at`

func scanProject(scan func(dest ...any) error) (Project, error) {
	var (
		p  Project
		ts string
	)
	if err := scan(&p.ID, &p.Name, &p.Path, &p.Template, &ts); err != nil {
		return Project{}, err
	}
	p.RegisteredAt = parseTime(ts)
	return p, nil
}

func (r *Registry) projectWhere(ctx context.Context, clause string, arg any) (Project, bool, error) {
	var (
		p  Project
		ts string
	)
	found, err := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM projects WHERE %s LIMIT 1`, projectColumns, clause),
		[]any{&p.ID, &p.Name, &p.Path, &p.Template, &ts}, arg)
	if err != nil || !found {
		return Project{}, false, err
	}
	p.RegisteredAt = parseTime(ts)
	return p, true, nil
}

func (r *Registry) ProjectByName(ctx context.Context, name string) (Project, bool, error) {
	return r.projectWhere(ctx, "name = ?", name)
}

func (r *Registry) ProjectByPath(ctx context.Context, path string) (Project, bool, error) {
	return r.projectWhere(ctx, "path = ?", path)
}

// ListProjects returns projects sorted by name. A non-empty filter is a glob
// matched against project names.
func (r *Registry) ListProjects(ctx context.Context, filter string) ([]Project, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, 0)
	err = r.db.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM projects ORDER BY name`, projectColumns),
		func(rows *sql.Rows) error {
			p, err := scanProject(rows.Scan)
			if err != nil {
				return err
			}
			if match(p.Name) {
				projects = append(projects, p)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// ForgetProject removes the registration only; files on disk are untouched.
// Forgetting an id that does not exist succeeds.
func (r *Registry) ForgetProject(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return err
	}
	r.metrics.ObserveRegistryWrite("project", "forget")
	return nil
}

func (r *Registry) CreateTemplate(ctx context.Context, name, path string) (Template, error) {
	ts := r.timestamp()
	var t Template
	err := store.WithTx(ctx, r.db, func(tx *store.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO templates (name, path, created_at, updated_at) VALUES (?, ?, ?, ?)`,
			name, path, ts, ts); err != nil {
			if store.IsUniqueViolation(err) {
				return apperrors.TemplateAlreadyExists(name)
			}
			return err
		}
		var id int64
		if _, err := tx.QueryRow(ctx, `SELECT last_insert_rowid()`, []any{&id}); err != nil {
			return err
		}
		t = Template{ID: id, Name: name, Path: path, CreatedAt: parseTime(ts)}
		return nil
	})
	if err != nil {
		return Template{}, err
	}
	r.metrics.ObserveRegistryWrite("template", "create")
	return t, nil
}

func (r *Registry) Templates(ctx context.Context, filter string) ([]Template, error) {
	match, err := compileFilter(filter)
	if err != nil {
		return nil, err
	}
	templates := make([]Template, 0)
	err = r.db.Query(ctx, `SELECT id, name, path, created_at FROM templates ORDER BY name`,
		func(rows *sql.Rows) error {
			var (
				t  Template
				ts string
			)
			if err := rows.Scan(&t.ID, &t.Name, &t.Path, &ts); err != nil {
				return err
			}
			t.CreatedAt = parseTime(ts)
			if match(t.Name) {
				templates = append(templates, t)
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *Registry) TemplateByName(ctx context.Context, name string) (Template, bool, error) {
	var (
		t  Template
		ts string
	)
	found, err := r.db.QueryRow(ctx,
		`SELECT id, name, path, created_at FROM templates WHERE name = ?`,
		[]any{&t.ID, &t.Name, &t.Path, &ts}, name)
	if err != nil || !found {
		return Template{}, false, err
	}
	t.CreatedAt = parseTime(ts)
	return t, true, nil
}

// ForgetTemplate removes a template registration by name.
func (r *Registry) ForgetTemplate(ctx context.Context, name string) error {
	n, err := r.db.Exec(ctx, `DELETE FROM templates WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.TemplateNotFound(name)
	}
	r.metrics.ObserveRegistryWrite("template", "forget")
	return nil
}

func compileFilter(pattern string) (func(string) bool, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return func(string) bool { return true }, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeFormatValidation,
			"Invalid filter",
			fmt.Sprintf("'%s' is not a valid glob pattern: %v", pattern, err))
	}
	return g.Match, nil
}

func parseTime(raw string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

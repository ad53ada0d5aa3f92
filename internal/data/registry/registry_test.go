package registry

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/data/migrate"
	"amcli/internal/data/store"
	"amcli/internal/shared/observability"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, *observability.Metrics) {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, filepath.Join(t.TempDir(), "am.db"), store.Options{})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	engine, err := migrate.New(db, migrate.DefaultCatalog())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if _, err := engine.Run(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	metrics := observability.NewMetrics()
	r := New(db, metrics)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }
	return r, metrics
}

func TestCreateProject(t *testing.T) {
	r, metrics := newRegistry(t)
	ctx := context.Background()

	p, err := r.CreateProject(ctx, "sfx", "/work/sfx", "default")
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "default", p.Template)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), p.RegisteredAt)

	byName, found, err := r.ProjectByName(ctx, "sfx")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p, byName)

	byPath, found, err := r.ProjectByPath(ctx, "/work/sfx")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, p.ID, byPath.ID)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RegistryWritesTotal.WithLabelValues("project", "create")))
}

func TestCreateProject_DuplicateName(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	first, err := r.CreateProject(ctx, "sfx", "/a", "")
	require.NoError(t, err)

	_, err = r.CreateProject(ctx, "sfx", "/b", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeProjectAlreadyExists))

	require.NoError(t, r.ForgetProject(ctx, first.ID))
	again, err := r.CreateProject(ctx, "sfx", "/b", "")
	require.NoError(t, err)
	assert.Equal(t, "/b", again.Path)
}

func TestProjectLookups_Missing(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	_, found, err := r.ProjectByName(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = r.ProjectByPath(ctx, "/nowhere")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, r.ForgetProject(ctx, 999))
}

func TestListProjects_SortedAndFiltered(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"music_main", "sfx_weapons", "sfx_ambience"} {
		_, err := r.CreateProject(ctx, name, "/p/"+name, "")
		require.NoError(t, err)
	}

	all, err := r.ListProjects(ctx, "")
	require.NoError(t, err)
	names := make([]string, 0, len(all))
	for _, p := range all {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"music_main", "sfx_ambience", "sfx_weapons"}, names)

	sfx, err := r.ListProjects(ctx, "sfx_*")
	require.NoError(t, err)
	assert.Len(t, sfx, 2)

	_, err = r.ListProjects(ctx, "[")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeFormatValidation))
}

func TestListProjects_EmptyIsNotNil(t *testing.T) {
	r, _ := newRegistry(t)
	projects, err := r.ListProjects(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)
}

func TestReplaceProject(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	old, err := r.CreateProject(ctx, "sfx", "/old", "")
	require.NoError(t, err)
	_, err = r.CreateProject(ctx, "music", "/music", "")
	require.NoError(t, err)

	_, err = r.ReplaceProject(ctx, old.ID, "music", "/new", "")
	require.Error(t, err)
	_, found, err := r.ProjectByName(ctx, "sfx")
	require.NoError(t, err)
	assert.True(t, found, "failed replace must keep the original registration")

	replaced, err := r.ReplaceProject(ctx, old.ID, "sfx", "/new", "default")
	require.NoError(t, err)
	assert.NotEqual(t, old.ID, replaced.ID)
	got, _, err := r.ProjectByName(ctx, "sfx")
	require.NoError(t, err)
	assert.Equal(t, "/new", got.Path)
}

func TestTemplates(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	_, err := r.CreateTemplate(ctx, "default", "/tpl/default")
	require.NoError(t, err)
	_, err = r.CreateTemplate(ctx, "blank", "/tpl/blank")
	require.NoError(t, err)

	_, err = r.CreateTemplate(ctx, "default", "/elsewhere")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateAlreadyExists))

	list, err := r.Templates(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "blank", list[0].Name)

	tpl, found, err := r.TemplateByName(ctx, "default")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "/tpl/default", tpl.Path)

	require.NoError(t, r.ForgetTemplate(ctx, "default"))
	err = r.ForgetTemplate(ctx, "default")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTemplateNotFound))
}

func TestSettings(t *testing.T) {
	r, _ := newRegistry(t)
	ctx := context.Background()

	all, err := r.Settings(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	s, err := r.SetSetting(ctx, "telemetry_enabled", "true")
	require.NoError(t, err)
	assert.Equal(t, "boolean", s.Type)

	_, err = r.SetSetting(ctx, "auto_update", "sometimes")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeFieldValidation))

	_, err = r.SetSetting(ctx, "editor", "vim")
	require.NoError(t, err)
	got, found, err := r.Setting(ctx, "editor")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "string", got.Type)
	assert.Equal(t, "vim", got.Value)
}

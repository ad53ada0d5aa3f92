package observability

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.ObserveMigrationApplied()
	m.ObserveMigrationApplied()
	m.ObserveRegistryWrite("project", "create")
	m.ObserveCommand("project list", "ok", 0.01)

	if got := testutil.ToFloat64(m.MigrationsApplied); got != 2 {
		t.Fatalf("expected 2 migrations, got %v", got)
	}

	path := filepath.Join(t.TempDir(), "metrics", "am.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("write textfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(raw)
	for _, want := range []string{"am_migrations_applied_total 2", `am_registry_writes_total{entity="project",op="create"} 1`, "am_command_seconds"} {
		if !strings.Contains(text, want) {
			t.Errorf("textfile missing %q:\n%s", want, text)
		}
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.ObserveMigrationApplied()
	m.ObserveCommandError("unknown_error")
	if err := m.WriteTextfile("ignored"); err != nil {
		t.Fatalf("nil metrics should not write: %v", err)
	}
}

func TestSetupTracing_NoEndpoint(t *testing.T) {
	tp, err := SetupTracing(context.Background(), TracingConfig{})
	if err != nil {
		t.Fatalf("setup tracing: %v", err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	_, span := Tracer().Start(context.Background(), "noop")
	span.End()
}

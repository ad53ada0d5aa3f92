package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters of one process run. A CLI invocation is too
// short-lived to be scraped, so the registry is flushed to a node-exporter
// textfile at exit when a path is configured.
type Metrics struct {
	Registry *prometheus.Registry

	CommandDuration      *prometheus.HistogramVec
	CommandErrorsTotal   *prometheus.CounterVec
	MigrationsApplied    prometheus.Counter
	MigrationsRolledBack prometheus.Counter
	RegistryWritesTotal  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "am_command_seconds",
			Help:    "Time spent executing a command.",
			Buckets: prometheus.DefBuckets,
		}, []string{"command", "outcome"}),
		CommandErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "am_command_errors_total",
			Help: "Total number of failed commands by error type.",
		}, []string{"type"}),
		MigrationsApplied: factory.NewCounter(prometheus.CounterOpts{
			Name: "am_migrations_applied_total",
			Help: "Total number of schema migrations applied.",
		}),
		MigrationsRolledBack: factory.NewCounter(prometheus.CounterOpts{
			Name: "am_migrations_rolled_back_total",
			Help: "Total number of schema migrations rolled back.",
		}),
		RegistryWritesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "am_registry_writes_total",
			Help: "Total number of registry writes by entity and operation.",
		}, []string{"entity", "op"}),
	}
}

// WriteTextfile writes the registry in Prometheus text format to path.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metrics directory %q: %w", dir, err)
		}
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("write metrics textfile %q: %w", path, err)
	}
	return nil
}

func (m *Metrics) ObserveMigrationApplied() {
	if m != nil {
		m.MigrationsApplied.Inc()
	}
}

func (m *Metrics) ObserveMigrationRolledBack() {
	if m != nil {
		m.MigrationsRolledBack.Inc()
	}
}

func (m *Metrics) ObserveRegistryWrite(entity, op string) {
	if m != nil {
		m.RegistryWritesTotal.WithLabelValues(entity, op).Inc()
	}
}

func (m *Metrics) ObserveCommand(command, outcome string, seconds float64) {
	if m != nil {
		m.CommandDuration.WithLabelValues(command, outcome).Observe(seconds)
	}
}

func (m *Metrics) ObserveCommandError(errType string) {
	if m != nil {
		m.CommandErrorsTotal.WithLabelValues(errType).Inc()
	}
}

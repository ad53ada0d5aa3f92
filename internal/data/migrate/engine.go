package migrate

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/data/store"
	"amcli/internal/shared/observability"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const trackingTable = "schema_migrations"

// Migration is one step of the schema history. An empty Down marks the step
// as not reversible.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

func (m Migration) Reversible() bool {
	return strings.TrimSpace(m.Down) != ""
}

// Record is a row of the tracking table.
type Record struct {
	Version     int       `json:"version"`
	Description string    `json:"description"`
	AppliedAt   time.Time `json:"applied_at"`
	Checksum    string    `json:"checksum"`
}

// Mismatch describes an applied record that no longer matches the catalog.
type Mismatch struct {
	Version  int    `json:"version"`
	Expected string `json:"expected,omitempty"`
	Actual   string `json:"actual"`
	Unknown  bool   `json:"unknown,omitempty"`
}

func (m Mismatch) String() string {
	if m.Unknown {
		return fmt.Sprintf("unknown migration %d found in store", m.Version)
	}
	return fmt.Sprintf("checksum mismatch for version %d: got %q want %q", m.Version, m.Actual, m.Expected)
}

type Status struct {
	Current int         `json:"current_version"`
	Latest  int         `json:"latest_version"`
	Applied []Record    `json:"applied"`
	Pending []Migration `json:"-"`
}

type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine applies, verifies and rolls back catalog migrations against a store.
type Engine struct {
	db      *store.DB
	catalog []Migration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New validates the catalog: versions must start at 1 and increase by one.
func New(db *store.DB, catalog []Migration, opts ...Option) (*Engine, error) {
	sorted := append([]Migration(nil), catalog...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	for i, m := range sorted {
		if m.Version != i+1 {
			return nil, fmt.Errorf("migration catalog is not contiguous: expected version %d, found %d", i+1, m.Version)
		}
	}

	e := &Engine{
		db:      db,
		catalog: sorted,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Latest is the highest version in the catalog.
func (e *Engine) Latest() int {
	if len(e.catalog) == 0 {
		return 0
	}
	return e.catalog[len(e.catalog)-1].Version
}

func (e *Engine) lookup(version int) (Migration, bool) {
	if version < 1 || version > len(e.catalog) {
		return Migration{}, false
	}
	return e.catalog[version-1], true
}

func (e *Engine) trackingTableExists(ctx context.Context) (bool, error) {
	var n int
	if _, err := e.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
		[]any{&n}, trackingTable); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CurrentVersion is the highest applied version, or 0 on a fresh store.
func (e *Engine) CurrentVersion(ctx context.Context) (int, error) {
	exists, err := e.trackingTableExists(ctx)
	if err != nil || !exists {
		return 0, err
	}
	var current int
	if _, err := e.db.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`, []any{&current}); err != nil {
		return 0, err
	}
	return current, nil
}

// Pending lists catalog entries above the current version in ascending order.
func (e *Engine) Pending(ctx context.Context) ([]Migration, error) {
	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]Migration, 0, len(e.catalog))
	for _, m := range e.catalog {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Run applies every pending migration, each in its own transaction. It stops
// at the first failure; migrations applied before it stay committed.
func (e *Engine) Run(ctx context.Context) (applied []int, err error) {
	ctx, span := observability.Tracer().Start(ctx, "migrate.run")
	defer func() {
		span.SetAttributes(attribute.Int("migrate.applied", len(applied)))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}
	if latest := e.Latest(); current > latest {
		return nil, apperrors.New(apperrors.CodeMigrationDrift,
			"Store is newer than this build",
			fmt.Sprintf("store schema version %d is newer than supported version %d", current, latest))
	}

	for _, m := range e.catalog {
		if m.Version <= current {
			continue
		}
		if err := e.apply(ctx, m); err != nil {
			return applied, err
		}
		applied = append(applied, m.Version)
		e.metrics.ObserveMigrationApplied()
		e.logger.Info("applied migration", "version", m.Version, "description", m.Description)
	}
	if len(applied) == 0 {
		e.logger.Debug("schema up to date", "version", current)
	}
	return applied, nil
}

func (e *Engine) apply(ctx context.Context, m Migration) error {
	err := store.WithTx(ctx, e.db, func(tx *store.Tx) error {
		if strings.TrimSpace(m.Up) != "" {
			if err := tx.ExecBatch(ctx, m.Up); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, description, applied_at, checksum) VALUES (?, ?, ?, ?)`,
			m.Version, m.Description, time.Now().UTC().Format(time.RFC3339Nano), Checksum(m))
		return err
	})
	if err != nil {
		return migrationFailed(m, "apply", err)
	}
	return nil
}

// Applied returns the tracking table ordered by version.
func (e *Engine) Applied(ctx context.Context) ([]Record, error) {
	exists, err := e.trackingTableExists(ctx)
	if err != nil || !exists {
		return nil, err
	}
	var records []Record
	err = e.db.Query(ctx,
		`SELECT version, description, applied_at, checksum FROM schema_migrations ORDER BY version`,
		func(rows *sql.Rows) error {
			var (
				r  Record
				ts string
			)
			if err := rows.Scan(&r.Version, &r.Description, &ts, &r.Checksum); err != nil {
				return err
			}
			r.AppliedAt = parseTimestamp(ts)
			records = append(records, r)
			return nil
		})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Verify compares every applied record with the catalog. It never repairs
// anything; a non-empty result is also returned as an error.
func (e *Engine) Verify(ctx context.Context) ([]Mismatch, error) {
	records, err := e.Applied(ctx)
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, r := range records {
		m, ok := e.lookup(r.Version)
		if !ok {
			mismatches = append(mismatches, Mismatch{Version: r.Version, Actual: r.Checksum, Unknown: true})
			continue
		}
		if want := Checksum(m); want != r.Checksum {
			mismatches = append(mismatches, Mismatch{Version: r.Version, Expected: want, Actual: r.Checksum})
		}
	}
	if len(mismatches) == 0 {
		return nil, nil
	}

	versions := make([]string, 0, len(mismatches))
	for _, m := range mismatches {
		versions = append(versions, strconv.Itoa(m.Version))
		e.logger.Warn("migration drift", "detail", m.String())
	}
	return mismatches, apperrors.New(apperrors.CodeMigrationDrift,
		"Schema drift detected",
		fmt.Sprintf("applied migrations do not match this build: %s", mismatches[0].String())).
		WithContext("versions " + strings.Join(versions, ", "))
}

// Rollback reverts the most recently applied migration. Versions without
// reverse statements, or not at the top of the history, are refused.
func (e *Engine) Rollback(ctx context.Context, version int) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "migrate.rollback")
	span.SetAttributes(attribute.Int("migrate.version", version))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	m, ok := e.lookup(version)
	if !ok {
		return apperrors.ValidationField("version", fmt.Sprintf("no migration %d in this build", version))
	}
	if !m.Reversible() {
		return apperrors.New(apperrors.CodeMigrationIrreversible,
			"Migration cannot be rolled back",
			fmt.Sprintf("migration %d (%s) has no rollback statements", m.Version, m.Description))
	}

	current, err := e.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	if version > current {
		return apperrors.ValidationField("version", fmt.Sprintf("migration %d has not been applied", version))
	}
	if version != current {
		return apperrors.ValidationField("version",
			fmt.Sprintf("only the latest applied migration (%d) can be rolled back", current))
	}

	err = store.WithTx(ctx, e.db, func(tx *store.Tx) error {
		if err := tx.ExecBatch(ctx, m.Down); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version)
		return err
	})
	if err != nil {
		return migrationFailed(m, "roll back", err)
	}
	e.metrics.ObserveMigrationRolledBack()
	e.logger.Info("rolled back migration", "version", m.Version, "description", m.Description)
	return nil
}

// Status summarizes the tracking table against the catalog.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	applied, err := e.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	current := 0
	if len(applied) > 0 {
		current = applied[len(applied)-1].Version
	}
	var pending []Migration
	for _, m := range e.catalog {
		if m.Version > current {
			pending = append(pending, m)
		}
	}
	return Status{Current: current, Latest: e.Latest(), Applied: applied, Pending: pending}, nil
}

// Checksum fingerprints a migration. Fields are length-prefixed so moving
// text between them changes the result.
func Checksum(m Migration) string {
	h := sha256.New()
	for _, field := range []string{strconv.Itoa(m.Version), m.Description, m.Up, m.Down} {
		fmt.Fprintf(h, "%d:%s;", len(field), field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func migrationFailed(m Migration, op string, err error) error {
	return apperrors.New(apperrors.CodeMigrationFailed,
		"Migration failed",
		fmt.Sprintf("%s migration %d (%s): %v", op, m.Version, m.Description, err)).
		WithContext(fmt.Sprintf("version %d", m.Version)).
		WithCause(err)
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

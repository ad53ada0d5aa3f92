package cliapp

import (
	apperrors "amcli/internal/core/errors"
	"amcli/internal/data/migrate"
	"amcli/internal/data/store"
	"context"
	"flag"
	"fmt"
	"strconv"
	"time"
)

type pendingMigration struct {
	Version     int    `json:"version"`
	Description string `json:"description"`
	Reversible  bool   `json:"reversible"`
}

type statusReport struct {
	Path    string             `json:"path"`
	Current int                `json:"current_version"`
	Latest  int                `json:"latest_version"`
	Applied []migrate.Record   `json:"applied"`
	Pending []pendingMigration `json:"pending"`
}

// openEngine opens the store without migrating it, so the db commands can
// inspect the schema as it is.
func (a *app) openEngine(ctx context.Context) (*migrate.Engine, error) {
	db, err := a.openStore(ctx, false)
	if err != nil {
		return nil, err
	}
	return a.engine(db)
}

func (a *app) dbStatus(ctx context.Context, args []string) error {
	if err := requireArgs("db status", args, 0, 0, "db status"); err != nil {
		return err
	}
	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	st, err := engine.Status(ctx)
	if err != nil {
		return err
	}

	status := statusReport{
		Path:    a.paths.DBPath,
		Current: st.Current,
		Latest:  st.Latest,
		Applied: st.Applied,
		Pending: make([]pendingMigration, 0, len(st.Pending)),
	}
	if status.Applied == nil {
		status.Applied = []migrate.Record{}
	}
	for _, m := range st.Pending {
		status.Pending = append(status.Pending, pendingMigration{Version: m.Version, Description: m.Description, Reversible: m.Reversible()})
	}

	if !a.interactiveOutput() {
		a.out.Success(status)
		return nil
	}
	a.out.Progress(fmt.Sprintf("Database: %s", status.Path))
	a.out.Progress(fmt.Sprintf("Schema version: %d of %d", status.Current, status.Latest))
	rows := make([][]string, 0, len(status.Applied)+len(status.Pending))
	for _, r := range status.Applied {
		rows = append(rows, []string{strconv.Itoa(r.Version), r.Description, "applied", r.AppliedAt.Local().Format(time.DateTime)})
	}
	for _, m := range status.Pending {
		rows = append(rows, []string{strconv.Itoa(m.Version), m.Description, "pending", ""})
	}
	a.out.Table("Migrations", []string{"Version", "Description", "State", "Applied"}, rows)
	return nil
}

func (a *app) dbMigrate(ctx context.Context, args []string) error {
	if err := requireArgs("db migrate", args, 0, 0, "db migrate"); err != nil {
		return err
	}
	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	a.out.Progress("Applying migrations...")
	applied, err := engine.Run(ctx)
	if err != nil {
		return err
	}
	if applied == nil {
		applied = []int{}
	}

	msg := "Database schema is up to date"
	if len(applied) > 0 {
		msg = fmt.Sprintf("Applied %d migration(s); schema is at version %d", len(applied), applied[len(applied)-1])
	}
	a.succeed(msg, map[string]any{"applied": applied, "version": engine.Latest()})
	return nil
}

func (a *app) dbVerify(ctx context.Context, args []string) error {
	if err := requireArgs("db verify", args, 0, 0, "db verify"); err != nil {
		return err
	}
	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	mismatches, err := engine.Verify(ctx)
	if err != nil {
		for _, m := range mismatches {
			a.out.Progress("  • " + m.String())
		}
		return err
	}
	applied, err := engine.Applied(ctx)
	if err != nil {
		return err
	}
	a.succeed(fmt.Sprintf("All %d applied migrations match this build", len(applied)),
		map[string]any{"verified": len(applied), "mismatches": []migrate.Mismatch{}})
	return nil
}

func (a *app) dbRollback(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("db rollback", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("db rollback", rest, 1, 1, "db rollback <version> [--yes]"); err != nil {
		return err
	}
	version, err := strconv.Atoi(rest[0])
	if err != nil || version < 1 {
		return apperrors.ValidationField("version", fmt.Sprintf("'%s' is not a migration version", rest[0]))
	}

	engine, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	if !*yes {
		a.out.Progress(fmt.Sprintf("Rolling back migration %d removes the tables it created and their data.", version))
		ok, err := a.confirm("Do you want to continue?")
		if err != nil {
			return err
		}
		if !ok {
			a.succeed("Rollback cancelled.", map[string]any{"rolled_back": false, "version": version})
			return nil
		}
	}
	if err := engine.Rollback(ctx, version); err != nil {
		return err
	}
	a.succeed(fmt.Sprintf("Rolled back migration %d", version), map[string]any{"rolled_back": true, "version": version})
	return nil
}

func (a *app) dbReset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("db reset", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	rest, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if err := requireArgs("db reset", rest, 0, 0, "db reset [--yes]"); err != nil {
		return err
	}

	if !*yes {
		a.out.Progress("This operation will:")
		a.out.Progress("  • Delete ALL projects from the database")
		a.out.Progress("  • Clear ALL configuration settings")
		a.out.Progress("  • Reset the database to its initial state")
		a.out.Progress("")
		a.out.Progress("This action cannot be undone!")
		ok, err := a.confirm("Are you sure you want to reset the database?")
		if err != nil {
			return err
		}
		if !ok {
			a.succeed("Database reset cancelled.", map[string]any{"reset": false})
			return nil
		}
	}

	a.out.Progress("Resetting database...")
	if err := a.resetStore(); err != nil {
		a.logger.Warn("failed to close store before reset", "error", err)
	}
	if err := store.Remove(a.paths.DBPath); err != nil {
		return apperrors.StorageFailure("delete database", err).WithContext(a.paths.DBPath)
	}
	a.out.Progress("Database file deleted")

	a.out.Progress("Creating fresh database...")
	db, err := a.openStore(ctx, true)
	if err != nil {
		return err
	}
	a.logger.Info("database reset", "path", db.Path())
	a.succeed("Database has been reset successfully", map[string]any{
		"reset":   true,
		"path":    db.Path(),
		"version": len(migrate.DefaultCatalog()),
	})
	return nil
}

package cliapp

import (
	"amcli/internal/core/config"
	apperrors "amcli/internal/core/errors"
	"amcli/internal/data/migrate"
	"amcli/internal/data/registry"
	"amcli/internal/data/store"
	"amcli/internal/shared/logging"
	"amcli/internal/shared/observability"
	"amcli/internal/shared/version"
	"amcli/internal/ui/input"
	"amcli/internal/ui/output"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Streams are the process standard streams. Tests substitute buffers.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func Run(args []string) int {
	return RunWith(context.Background(), args, Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}

// RunWith executes one command line and returns the process exit code.
// Every outcome, including panics, is rendered through the active Output.
func RunWith(ctx context.Context, args []string, streams Streams) int {
	opts, err := parseOptions(args)
	if err != nil {
		out := output.New(outputMode(hasJSONFlag(args)), streams.Out, streams.Err, nil)
		out.Error(err, apperrors.CodeUnknown)
		return apperrors.ExitCode(err)
	}
	mode := outputMode(opts.json)

	cfg, paths, overrides, cfgErr := loadConfig(opts.configPath)
	logCfg := logging.Config{
		Verbose: opts.verbose,
		Version: version.Version,
	}
	if mode == output.Interactive {
		logCfg.Console = streams.Err
	}
	if cfgErr == nil {
		logCfg.BufferSize = cfg.Log.BufferSize
		logCfg.CrashDir = paths.CrashDir
	}
	logger := logging.New(logCfg)
	out := output.New(mode, streams.Out, streams.Err, logger)
	if cfgErr != nil {
		out.Error(cfgErr, apperrors.CodeUnknown)
		return apperrors.ExitCode(cfgErr)
	}

	if len(overrides) > 0 {
		logger.Debug("environment overrides applied", "vars", strings.Join(overrides, ","))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()
	tp, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Endpoint:       cfg.Observability.OTLPEndpoint,
		Insecure:       cfg.Observability.OTLPInsecure,
		ServiceVersion: version.Version,
		SampleRate:     cfg.Observability.SampleRate,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Debug("tracing shutdown failed", "error", err)
		}
		if err := metrics.WriteTextfile(cfg.Observability.MetricsFile); err != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.Observability.MetricsFile, "error", err)
		}
	}()

	inMode := input.Resolve(opts.json, opts.nonInteractive)
	a := &app{
		cfg:     cfg,
		paths:   paths,
		logger:  logger,
		out:     out,
		in:      input.New(inMode, streams.In, streams.Out),
		prompts: inMode == input.Interactive,
		stdout:  streams.Out,
		metrics: metrics,
	}
	defer a.close()

	if opts.version {
		return a.finish(ctx, "version", time.Now(), a.printVersion())
	}
	if opts.help || len(opts.args) == 0 {
		return a.finish(ctx, "help", time.Now(), a.printUsage())
	}

	name := commandName(opts.args)
	start := time.Now()
	return a.finish(ctx, name, start, a.execute(ctx, name, opts.args))
}

// execute runs the handler inside a span and turns a panic into an error
// carrying the crash log location.
func (a *app) execute(ctx context.Context, name string, args []string) (err error) {
	ctx, span := observability.Tracer().Start(ctx, "command "+name)
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic", "command", name, "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("am.command", name))
	a.logger.Debug("command start", "command", name, "run_id", a.logger.RunID())
	return a.dispatch(ctx, args)
}

// finish renders the result and maps it to an exit code.
func (a *app) finish(ctx context.Context, name string, start time.Time, err error) int {
	seconds := time.Since(start).Seconds()
	if err == nil {
		a.metrics.ObserveCommand(name, "ok", seconds)
		return apperrors.ExitSuccess
	}

	ce := apperrors.Classify(err)
	a.metrics.ObserveCommand(name, "error", seconds)
	a.metrics.ObserveCommandError(ce.TypeName())
	a.logger.Debug("command failed", "command", name, "type", ce.TypeName(), "error", err)

	a.out.Error(err, apperrors.CodeUnknown)
	if ce.Code == apperrors.CodeUnknown {
		path, crashErr := a.logger.WriteCrashLog(err.Error())
		if crashErr != nil {
			a.logger.Warn("failed to write crash log", "error", crashErr)
		} else {
			a.out.Progress("Crash log written to " + path)
		}
	}
	if ctx.Err() != nil {
		a.logger.Debug("command interrupted", "command", name)
	}
	return apperrors.ExitCode(err)
}

func (a *app) printVersion() error {
	if a.out.Mode() == output.JSON {
		a.out.Success(map[string]string{"version": version.Version})
		return nil
	}
	a.out.Progress(version.String())
	return nil
}

func (a *app) printUsage() error {
	if a.out.Mode() == output.JSON {
		a.out.Success(map[string]string{"usage": usageText})
		return nil
	}
	_, _ = io.WriteString(a.stdout, usageText)
	return nil
}

func loadConfig(explicit string) (*config.Config, config.ResolvedPaths, []string, error) {
	path := explicit
	load := config.Load
	if path == "" {
		path = config.DefaultConfigPath()
		load = config.LoadOrDefault
	}
	cfg, err := load(path)
	if err != nil {
		return nil, config.ResolvedPaths{}, nil, apperrors.New(apperrors.CodeFormatValidation,
			"Invalid configuration",
			err.Error()).WithContext(path).WithCause(err)
	}
	overrides := config.ApplyEnvOverrides(cfg)

	paths, err := config.ResolvePaths(cfg)
	if err != nil {
		return nil, config.ResolvedPaths{}, nil, apperrors.StorageUnavailable(cfg.Paths.DataDir, err)
	}
	return cfg, paths, overrides, nil
}

func outputMode(jsonMode bool) output.Mode {
	if jsonMode {
		return output.JSON
	}
	return output.Interactive
}

func hasJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "--json" || arg == "-json" || strings.HasPrefix(arg, "--json=true") {
			return true
		}
	}
	return false
}

// commandName is the first two command words, used for metrics and spans.
func commandName(args []string) string {
	if len(args) >= 2 && !strings.HasPrefix(args[1], "-") {
		if _, ok := commands[args[0]]; ok {
			return args[0] + " " + args[1]
		}
	}
	return args[0]
}

// app carries everything a command handler needs for one invocation.
type app struct {
	cfg     *config.Config
	paths   config.ResolvedPaths
	logger  *logging.Logger
	out     output.Output
	in      input.Input
	prompts bool
	stdout  io.Writer
	metrics *observability.Metrics

	shared   *store.Shared
	finished chan struct{}
	watchers chan struct{}
}

// openStore opens the database on first use. With autoMigrate set, pending
// migrations are applied before the handle is returned.
func (a *app) openStore(ctx context.Context, autoMigrate bool) (*store.DB, error) {
	if a.shared == nil {
		db, err := store.Open(ctx, a.paths.DBPath, store.Options{
			BusyTimeout:  a.cfg.DB.BusyTimeout,
			CacheSizeKiB: a.cfg.DB.CacheSizeKiB,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Debug("store opened", "path", db.Path())
		a.shared = store.NewShared(db)
		a.watchSignals(ctx)
	}
	db := a.shared.DB()
	if autoMigrate {
		if err := a.migrate(ctx, db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func (a *app) engine(db *store.DB) (*migrate.Engine, error) {
	engine, err := migrate.New(db, migrate.DefaultCatalog(),
		migrate.WithLogger(a.logger.Logger),
		migrate.WithMetrics(a.metrics))
	if err != nil {
		return nil, apperrors.New(apperrors.CodeMigrationFailed, "Invalid migration catalog", err.Error())
	}
	return engine, nil
}

func (a *app) migrate(ctx context.Context, db *store.DB) error {
	engine, err := a.engine(db)
	if err != nil {
		return err
	}
	if _, err := engine.Run(ctx); err != nil {
		return err
	}
	mismatches, err := engine.Verify(ctx)
	if err != nil && len(mismatches) > 0 {
		return apperrors.Classify(err).
			WithSuggestion("Run 'am db verify' for details, or 'am db reset' to start over")
	}
	return err
}

// registry opens the migrated store and returns the CRUD layer over it.
func (a *app) registry(ctx context.Context) (*registry.Registry, error) {
	db, err := a.openStore(ctx, true)
	if err != nil {
		return nil, err
	}
	return registry.New(db, a.metrics), nil
}

// watchSignals gives the signal goroutine its own reference to the store.
// On interrupt it lets go of that reference; the connection closes only if
// nothing else still holds it.
func (a *app) watchSignals(ctx context.Context) {
	held := a.shared.Retain()
	finished, done := make(chan struct{}), make(chan struct{})
	a.finished, a.watchers = finished, done
	go func() {
		defer close(done)
		select {
		case <-finished:
			_, _ = held.Release()
		case <-ctx.Done():
			a.logger.Info("interrupt received")
			closed, err := held.Release()
			switch {
			case err != nil:
				a.logger.Warn("failed to close store", "error", err)
			case !closed:
				a.logger.Info("connection still referenced; skipping close")
			}
		}
	}()
}

// resetStore drops the connection so the database file can be replaced.
func (a *app) resetStore() error {
	if a.shared == nil {
		return nil
	}
	err := a.releaseStore()
	a.shared = nil
	return err
}

func (a *app) releaseStore() error {
	if a.finished != nil {
		close(a.finished)
		<-a.watchers
		a.finished = nil
	}
	_, err := a.shared.Release()
	return err
}

func (a *app) close() {
	if a.shared == nil {
		return
	}
	if err := a.releaseStore(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
	a.shared = nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/slotmarks/internal/config"
	"github.com/roach88/slotmarks/internal/engine"
	"github.com/roach88/slotmarks/internal/slots"
	"github.com/roach88/slotmarks/internal/store"
)

// session is one opened workspace with an activated engine.
type session struct {
	cfg    config.Config
	store  *store.Store
	host   *fsHost
	engine *engine.Engine
	events []engine.Outcome
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	configureLogging(opts.Verbose, cmd.ErrOrStderr())
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// configureLogging routes slog to w. Each invocation is short-lived, so only
// warnings are shown unless verbose is set.
func configureLogging(verbose bool, w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// resolveConfig applies the config file, if any, over the defaults and the
// command-line flags over both.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := config.Config{
		Database:   opts.Database,
		Workspace:  opts.Workspace,
		StorageKey: opts.StorageKey,
	}
	if err := config.Validate(flags); err != nil {
		return config.Config{}, err
	}
	return cfg.Override(flags), nil
}

// openStore opens the configured database, creating its directory if needed.
func openStore(cfg config.Config) (*store.Store, error) {
	if dir := filepath.Dir(cfg.Database); dir != "." && cfg.Database != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return store.Open(cfg.Database)
}

// openSession opens the workspace and activates an engine over it. Failures
// are reported through f.
func openSession(ctx context.Context, opts *RootOptions, f *OutputFormatter, h *fsHost) (*session, error) {
	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
	}

	f.VerboseLog("opening %s (workspace %s, key %s)", cfg.Database, cfg.Workspace, cfg.StorageKey)
	st, err := openStore(cfg)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
	}

	s := &session{cfg: cfg, store: st, host: h}
	table := slots.New(st.Workspace(cfg.Workspace), slots.WithKey(cfg.StorageKey))
	s.engine = engine.New(table, h, engine.WithObserver(func(o engine.Outcome) {
		s.events = append(s.events, o)
	}))

	if err := s.engine.Activate(ctx); err != nil {
		s.Close()
		return nil, f.Fail(ExitFailure, errorCode(err), "failed to load slot table", err)
	}
	return s, nil
}

// Close closes the database.
func (s *session) Close() {
	if err := s.store.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// dispatch runs the given commands, and everything they enqueue, to completion.
func (s *session) dispatch(ctx context.Context, commandIDs ...string) error {
	for _, id := range commandIDs {
		s.engine.Dispatch(id)
	}
	return s.engine.Drain(ctx)
}

// report builds the command report from what the session recorded.
func (s *session) report() *commandReport {
	r := &commandReport{
		Events:        make([]eventReport, 0, len(s.events)),
		Notifications: s.host.notifications,
	}
	for _, o := range s.events {
		r.Events = append(r.Events, newEventReport(o))
	}
	return r
}

// errorCode returns the engine or slot store code of err, if it has one.
func errorCode(err error) string {
	var ce *engine.CommandError
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	var se *slots.StoreError
	if errors.As(err, &se) {
		return string(se.Code)
	}
	return "E_FAILED"
}

// finish outputs r, and for a failed command also the error, in the
// configured format.
func finish(f *OutputFormatter, r fmt.Stringer, err error) error {
	if err == nil {
		if f.Format == "json" {
			return f.Success(r)
		}
		_, werr := fmt.Fprint(f.Writer, r.String())
		return werr
	}

	if f.Format == "json" {
		if encErr := encodeJSON(f.Writer, CLIResponse{
			Status: "error",
			Data:   r,
			Error:  &CLIError{Code: errorCode(err), Message: err.Error()},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprint(f.Writer, r.String())
	}
	return WrapExitError(ExitFailure, "command failed", err)
}

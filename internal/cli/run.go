package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slotmarks/internal/harness"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Persist bool   // play against the configured SQLite workspace
	Filter  string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Events int      `json:"events"`
	Errors []string `json:"errors,omitempty"`
}

// RunResult holds the overall result of a run.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// String renders the summary line.
func (r *RunResult) String() string {
	return fmt.Sprintf("\n%d passed, %d failed, %d total\n", r.Passed, r.Failed, r.Total)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>...",
		Short: "Play bookmark scenarios against the engine",
		Long: `Play scenario files against the engine with a simulated editor and
check their assertions.

Scenarios start from empty slots in memory. With --persist they run against
the configured workspace instead, so slots saved by earlier commands are
visible and the scenario's changes are kept.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  slotmarks run ./scenarios
  slotmarks run ./scenarios --filter "toggle*"
  slotmarks run reload.yaml --persist -w editor-1`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Persist, "persist", false, "run against the configured SQLite workspace")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeScenario, "cannot read scenarios", err)
		}
		files = append(files, found...)
	}

	var harnessOpts []harness.Option
	if opts.Verbose {
		harnessOpts = append(harnessOpts, harness.WithLogger(slog.Default()))
	}
	if opts.Persist {
		cfg, err := resolveConfig(opts.RootOptions)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
		}
		st, err := openStore(cfg)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
		}
		defer st.Close()
		harnessOpts = append(harnessOpts,
			harness.WithKV(st.Workspace(cfg.Workspace)),
			harness.WithStorageKey(cfg.StorageKey),
		)
	}

	result := &RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr := runScenario(file, harnessOpts)
		if f.Format != "json" {
			writeScenarioText(f, sr)
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if f.Format == "json" {
		if err := f.Success(result); err != nil {
			return err
		}
	} else if len(files) == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return nil
	} else {
		fmt.Fprint(f.Writer, result.String())
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself if it is a file, or every YAML file
// under it if it is a directory.
func findScenarioFiles(path, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenario loads and plays one scenario file.
func runScenario(file string, opts []harness.Option) ScenarioResult {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := harness.Run(scenario, opts...)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	return ScenarioResult{
		Name:   scenario.Name,
		Pass:   result.Pass,
		Events: len(result.Trace),
		Errors: result.Errors,
	}
}

func writeScenarioText(f *OutputFormatter, sr ScenarioResult) {
	if sr.Pass {
		fmt.Fprintf(f.Writer, "✓ %s (%d events)\n", sr.Name, sr.Events)
		return
	}
	fmt.Fprintf(f.Writer, "✗ %s\n", sr.Name)
	for _, e := range sr.Errors {
		fmt.Fprintf(f.Writer, "  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
	}
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slotmarks/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// ConfigPath is an optional YAML config file. The remaining fields
	// override its values when set.
	ConfigPath string
	Database   string
	Workspace  string
	StorageKey string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slotmarks CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slotmarks",
		Short: "slotmarks - ten numbered bookmark slots",
		Long: `Ten numbered bookmark slots per workspace, persisted in SQLite.

Each slot holds at most one location (document, line, column). toggle saves
the location of a document into a slot, goto resolves it again, list shows
all ten slots. Slots survive across invocations.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return NewExitError(ExitCommandError, err.Error())
	})

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default \""+config.DefaultDatabase+"\")")
	cmd.PersistentFlags().StringVarP(&opts.Workspace, "workspace", "w", "", "workspace name (default \""+config.DefaultWorkspace+"\")")
	cmd.PersistentFlags().StringVar(&opts.StorageKey, "key", "", "storage key of the slot table")

	// Add subcommands
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))
	cmd.AddCommand(NewGotoCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewMarkersCommand(opts))
	cmd.AddCommand(NewWorkspacesCommand(opts))
	cmd.AddCommand(NewCommandsCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

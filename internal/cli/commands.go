package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slotmarks/internal/engine"
	"github.com/roach88/slotmarks/internal/host"
	"github.com/roach88/slotmarks/internal/ir"
)

// eventReport is one processed engine event.
type eventReport struct {
	Event   string `json:"event"`
	Status  string `json:"status"`
	Slot    *int   `json:"slot,omitempty"`
	Result  string `json:"result,omitempty"`
	Message string `json:"message,omitempty"`
}

func newEventReport(o engine.Outcome) eventReport {
	r := eventReport{
		Event:   o.Event,
		Status:  string(o.Status),
		Result:  o.Result,
		Message: o.Message,
	}
	if o.Slot >= 0 {
		slot := o.Slot
		r.Slot = &slot
	}
	return r
}

// listItem is one line of the slot list.
type listItem struct {
	Slot     string `json:"slot"`
	Location string `json:"location"`
}

// markerLine is a marker shown in a document, one-based.
type markerLine struct {
	Slot int `json:"slot"`
	Line int `json:"line"`
}

// commandReport is the output of every engine-backed command.
type commandReport struct {
	Events        []eventReport  `json:"events"`
	Notifications []notification `json:"notifications,omitempty"`
	Items         []listItem     `json:"items,omitempty"`
	Markers       []markerLine   `json:"markers,omitempty"`
	Location      string         `json:"location,omitempty"`
}

// String renders the report as text: list items, markers, then notifications.
func (r *commandReport) String() string {
	var b strings.Builder
	for _, item := range r.Items {
		fmt.Fprintf(&b, "%s  %s\n", item.Slot, item.Location)
	}
	for _, m := range r.Markers {
		fmt.Fprintf(&b, "slot %d: line %d\n", m.Slot, m.Line)
	}
	for _, n := range r.Notifications {
		fmt.Fprintf(&b, "%s: %s\n", n.Severity, n.Message)
	}
	if r.Location != "" {
		fmt.Fprintf(&b, "at %s\n", r.Location)
	}
	return b.String()
}

// parseSlot parses a slot argument.
func parseSlot(arg string) (int, error) {
	i, err := strconv.Atoi(arg)
	if err != nil || !ir.ValidIndex(i) {
		return 0, fmt.Errorf("slot must be a number from 0 to %d, got %q", ir.SlotCount-1, arg)
	}
	return i, nil
}

// slotArg validates the single slot argument of a command.
func slotArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	if _, err := parseSlot(args[0]); err != nil {
		return NewExitError(ExitCommandError, err.Error())
	}
	return nil
}

// ToggleOptions holds flags for the toggle command.
type ToggleOptions struct {
	*RootOptions
	Doc    string
	Line   int
	Column int
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ToggleOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "toggle <slot> --doc <file> [--line L] [--col C]",
		Aliases: []string{"add"},
		Short:   "Save a location into a slot, or clear it if it is already there",
		Long: `Save the location into the slot. If the slot already holds the same
document and line, the slot is cleared instead.

Line and column are one-based. Without --doc there is no active editor and
nothing is saved.

Example:
  slotmarks toggle 3 --doc ./main.go --line 42 --col 7`,
		Args:          slotArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "document path or URI")
	cmd.Flags().IntVar(&opts.Line, "line", 1, "one-based line")
	cmd.Flags().IntVar(&opts.Column, "col", 1, "one-based column")

	return cmd
}

func runToggle(opts *ToggleOptions, arg string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	slot, _ := parseSlot(arg)

	if opts.Line < 1 || opts.Column < 1 {
		return f.Fail(ExitCommandError, ErrCodeUsage, "line and column are one-based", nil)
	}

	h := newFSHost()
	if opts.Doc != "" {
		pos := host.Position{Line: opts.Line - 1, Column: opts.Column - 1}
		if err := h.focus(cmd.Context(), opts.Doc, pos); err != nil {
			return f.Fail(ExitCommandError, ErrCodeDocument, "cannot bookmark document", err)
		}
	}

	s, err := openSession(cmd.Context(), opts.RootOptions, f, h)
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.dispatch(cmd.Context(), engine.ToggleCommand(slot).ID())
	return finish(f, s.report(), err)
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clear <slot>",
		Short:         "Empty a slot",
		Args:          slotArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, _ := parseSlot(args[0])
			return runSlotCommand(rootOpts, cmd, engine.ClearCommand(slot))
		},
	}
}

// NewGotoCommand creates the goto command.
func NewGotoCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "goto <slot>",
		Short: "Resolve a slot to its location",
		Long: `Open the slot's document and print the bookmarked location.

Fails if the document no longer exists; the slot is kept either way.`,
		Args:          slotArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, _ := parseSlot(args[0])
			return runSlotCommand(rootOpts, cmd, engine.GotoCommand(slot))
		},
	}
}

// runSlotCommand runs a command that needs no active editor.
func runSlotCommand(opts *RootOptions, cmd *cobra.Command, c engine.Command) error {
	f := newFormatter(opts, cmd)

	s, err := openSession(cmd.Context(), opts, f, newFSHost())
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.dispatch(cmd.Context(), c.ID())
	r := s.report()
	if c.Kind == engine.CommandGoto && err == nil {
		r.Location = s.host.location()
	}
	return finish(f, r, err)
}

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Pick int
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list [--pick N]",
		Short: "Show all ten slots",
		Long: `Show every slot with the location it holds, or a dash when empty.

With --pick, the chosen slot is then resolved as by goto.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Pick, "pick", -1, "slot to go to after listing")

	return cmd
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	if opts.Pick != -1 && !ir.ValidIndex(opts.Pick) {
		return f.Fail(ExitCommandError, ErrCodeUsage,
			fmt.Sprintf("--pick must be a number from 0 to %d", ir.SlotCount-1), nil)
	}

	h := newFSHost()
	h.choice = opts.Pick

	s, err := openSession(cmd.Context(), opts.RootOptions, f, h)
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.dispatch(cmd.Context(), engine.ListCommand().ID())
	r := s.report()
	for _, item := range h.pickItems {
		r.Items = append(r.Items, listItem{Slot: item.Label, Location: item.Description})
	}
	if opts.Pick >= 0 && err == nil {
		r.Location = h.location()
	}
	return finish(f, r, err)
}

// MarkersOptions holds flags for the markers command.
type MarkersOptions struct {
	*RootOptions
	Doc string
}

// NewMarkersCommand creates the markers command.
func NewMarkersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MarkersOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "markers --doc <file>",
		Short: "Show the slot markers of a document",
		Long: `Show which lines of the document carry a slot marker, as an editor
would draw them. Lines past the end of the document are shown on its last line.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMarkers(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Doc, "doc", "", "document path or URI (required)")
	_ = cmd.MarkFlagRequired("doc")

	return cmd
}

func runMarkers(opts *MarkersOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd)
	h := newFSHost()

	s, err := openSession(cmd.Context(), opts.RootOptions, f, h)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := h.focus(cmd.Context(), opts.Doc, host.Position{}); err != nil {
		return f.Fail(ExitCommandError, ErrCodeDocument, "cannot show document", err)
	}
	s.engine.ViewChanged()
	err = s.engine.Drain(cmd.Context())

	r := s.report()
	shown := h.markersFor(ir.DocumentIDFromPath(opts.Doc))
	for slot, lines := range shown {
		for _, line := range lines {
			r.Markers = append(r.Markers, markerLine{Slot: slot, Line: line + 1})
		}
	}
	sort.Slice(r.Markers, func(i, j int) bool { return r.Markers[i].Slot < r.Markers[j].Slot })
	return finish(f, r, err)
}

// workspacesReport lists the workspaces holding a slot table.
type workspacesReport struct {
	Workspaces []string `json:"workspaces"`
}

func (r *workspacesReport) String() string {
	if len(r.Workspaces) == 0 {
		return "no workspaces\n"
	}
	return strings.Join(r.Workspaces, "\n") + "\n"
}

// NewWorkspacesCommand creates the workspaces command.
func NewWorkspacesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "workspaces",
		Short:         "List workspaces that have saved slots",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			cfg, err := resolveConfig(rootOpts)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeConfig, "invalid configuration", err)
			}
			st, err := openStore(cfg)
			if err != nil {
				return f.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err)
			}
			defer st.Close()

			names, err := st.Workspaces(cmd.Context(), cfg.StorageKey)
			if err != nil {
				return f.Fail(ExitFailure, ErrCodeDatabase, "failed to list workspaces", err)
			}
			r := &workspacesReport{Workspaces: names}
			if r.Workspaces == nil {
				r.Workspaces = []string{}
			}
			return finish(f, r, nil)
		},
	}
}

// commandsReport lists the registered command IDs.
type commandsReport struct {
	Commands []string `json:"commands"`
}

func (r *commandsReport) String() string {
	return strings.Join(r.Commands, "\n") + "\n"
}

// NewCommandsCommand creates the commands command.
func NewCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "commands",
		Short:         "List the editor command IDs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(rootOpts, cmd)
			return finish(f, &commandsReport{Commands: engine.CommandIDs()}, nil)
		},
	}
}

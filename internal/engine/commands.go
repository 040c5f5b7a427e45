package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/slotmarks/internal/ir"
)

// CommandPrefix namespaces every command ID.
const CommandPrefix = "numberedBookmarks."

// CommandKind is the action part of a command ID.
type CommandKind string

const (
	// CommandToggle adds or removes the bookmark at the cursor.
	CommandToggle CommandKind = "toggle"
	// CommandAdd is the older name of toggle, kept as an alias.
	CommandAdd CommandKind = "add"
	// CommandGoto jumps to a slot's bookmark.
	CommandGoto CommandKind = "goto"
	// CommandClear empties a slot.
	CommandClear CommandKind = "clear"
	// CommandList shows every slot in a picker.
	CommandList CommandKind = "list"
)

// slotKinds are the kinds registered once per slot index, in registration order.
var slotKinds = []CommandKind{CommandToggle, CommandAdd, CommandGoto, CommandClear}

// Command is a parsed command ID.
type Command struct {
	Kind CommandKind
	// Slot is the slot index, or -1 for CommandList.
	Slot int
}

// ID returns the command ID, e.g. "numberedBookmarks.goto7".
func (c Command) ID() string {
	if c.Kind == CommandList {
		return CommandPrefix + string(CommandList)
	}
	return fmt.Sprintf("%s%s%d", CommandPrefix, c.Kind, c.Slot)
}

// ToggleCommand returns the toggle command for slot i.
func ToggleCommand(i int) Command {
	ir.MustIndex(i)
	return Command{Kind: CommandToggle, Slot: i}
}

// GotoCommand returns the goto command for slot i.
func GotoCommand(i int) Command {
	ir.MustIndex(i)
	return Command{Kind: CommandGoto, Slot: i}
}

// ClearCommand returns the clear command for slot i.
func ClearCommand(i int) Command {
	ir.MustIndex(i)
	return Command{Kind: CommandClear, Slot: i}
}

// ListCommand returns the list command.
func ListCommand() Command {
	return Command{Kind: CommandList, Slot: -1}
}

// CommandIDs returns every registered command ID: the per-slot commands for
// slots 0..9 followed by list. Slot indices outside 0..9 are never registered,
// which is what keeps the Slot Store's index precondition true.
func CommandIDs() []string {
	ids := make([]string, 0, len(slotKinds)*ir.SlotCount+1)
	for i := 0; i < ir.SlotCount; i++ {
		for _, kind := range slotKinds {
			ids = append(ids, Command{Kind: kind, Slot: i}.ID())
		}
	}
	return append(ids, ListCommand().ID())
}

// ParseCommand parses a registered command ID.
func ParseCommand(id string) (Command, error) {
	name, ok := strings.CutPrefix(id, CommandPrefix)
	if !ok {
		return Command{}, NewUnknownCommandError(id)
	}
	if name == string(CommandList) {
		return ListCommand(), nil
	}

	for _, kind := range slotKinds {
		digits, ok := strings.CutPrefix(name, string(kind))
		if !ok || len(digits) != 1 {
			continue
		}
		i, err := strconv.Atoi(digits)
		if err != nil || !ir.ValidIndex(i) {
			continue
		}
		if kind == CommandAdd {
			kind = CommandToggle
		}
		return Command{Kind: kind, Slot: i}, nil
	}
	return Command{}, NewUnknownCommandError(id)
}

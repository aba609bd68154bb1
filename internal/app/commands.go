package app

import (
	"fmt"

	"github.com/castlebay/notedown/internal/blocks"
	"github.com/castlebay/notedown/internal/engine/schema"
)

// ExecuteKey runs the command bound to a key chord. Unbound chords
// return ErrUnboundKey so callers can fall through to text input.
func (a *Application) ExecuteKey(chord string) error {
	id := a.keymap.Resolve(chord)
	if id == "" {
		return fmt.Errorf("%w: %s", ErrUnboundKey, chord)
	}
	return a.ExecuteCommand(id)
}

// ExecuteCommand runs a bound operation by id. Both keymap operations
// and slash-menu commands resolve here; slash commands not covered by
// a built-in operation fall through to the catalog.
func (a *Application) ExecuteCommand(id string) error {
	switch id {
	case "toggle-bold":
		return resultErr(a.blocks.ToggleMark(schema.MarkBold, nil))
	case "toggle-italic":
		return resultErr(a.blocks.ToggleMark(schema.MarkItalic, nil))
	case "toggle-code":
		return resultErr(a.blocks.ToggleMark(schema.MarkCode, nil))
	case "toggle-strikethrough":
		return resultErr(a.blocks.ToggleMark(schema.MarkStrikethrough, nil))
	case "undo":
		return a.editor.Undo()
	case "redo":
		return a.editor.Redo()
	case "move-block-up":
		return resultErr(a.blocks.MoveUp())
	case "move-block-down":
		return resultErr(a.blocks.MoveDown())
	case "duplicate-block":
		return resultErr(a.blocks.Duplicate())
	case "delete-block":
		return resultErr(a.blocks.Delete())
	case "exit-block":
		return resultErr(a.blocks.ExitBlock())
	case "ai-reject":
		return a.session.Reject()
	case "ai-accept":
		return a.session.Accept()
	}

	if cmd, ok := a.catalog.Lookup(id); ok {
		return cmd.Handler()
	}
	return fmt.Errorf("%w: %s", ErrUnknownCommand, id)
}

// resultErr converts a block command result into an error. A no-op is
// not an error; the command simply had no eligible target.
func resultErr(res blocks.Result) error {
	return res.Error
}

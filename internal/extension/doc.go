// Package extension runs user Lua scripts that extend the editor.
//
// Scripts execute in a sandboxed interpreter with only the base,
// table, string, and math libraries available. A script declares
// slash-menu commands through the notedown module:
//
//	notedown.command{
//	  id = "divider-after",
//	  title = "Divider After",
//	  category = "blocks",
//	  keywords = {"hr", "rule"},
//	  run = function()
//	    notedown.insert("horizontal-rule")
//	  end,
//	}
//
// The module also exposes the block command library (insert,
// transform, move_up, move_down, duplicate, delete, exit_block,
// toggle_mark) and a read-only text accessor, so handlers can edit
// the document without leaving the sandbox.
package extension

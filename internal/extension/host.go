package extension

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/castlebay/notedown/internal/blocks"
	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/trigger"
)

// Host runs user extension scripts in a sandboxed Lua state and
// registers the slash commands they declare.
//
// The Lua state is not goroutine-safe; every entry into it goes
// through the host mutex, including command handlers fired later by
// the menu controller.
type Host struct {
	mu sync.Mutex

	L       *lua.LState
	ed      *engine.Editor
	cmds    *blocks.Commands
	catalog *trigger.Catalog
	logger  *slog.Logger

	commands []string
	closed   bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHost creates an extension host bound to an editor and a command
// catalog.
func NewHost(ed *engine.Editor, catalog *trigger.Catalog, opts ...Option) *Host {
	h := &Host{
		ed:      ed,
		cmds:    blocks.New(ed),
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.L = newSandboxedState()
	h.L.SetGlobal("notedown", h.module())
	return h
}

// newSandboxedState opens only the safe Lua libraries and strips the
// loaders that would reach the filesystem.
func newSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// LoadDir executes every .lua file in dir, in name order. A missing
// directory is not an error. A script that fails to run is skipped
// and logged; the remaining scripts still load.
func (h *Host) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read extension dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := h.LoadFile(path); err != nil {
			h.logger.Warn("extension failed to load", "path", path, "error", err)
		}
	}
	return nil
}

// LoadFile executes one extension script.
func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	if err := h.L.DoFile(path); err != nil {
		return fmt.Errorf("run %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadScript executes extension source directly. Used by tests and
// inline configuration.
func (h *Host) LoadScript(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	return h.L.DoString(src)
}

// Commands returns the ids of slash commands registered by loaded
// extensions, in registration order.
func (h *Host) Commands() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.commands))
	copy(out, h.commands)
	return out
}

// Close releases the Lua state. Registered commands stay in the
// catalog but fail with ErrHostClosed when run.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHostClosed
	}
	h.closed = true
	h.L.Close()
	return nil
}

// module builds the notedown table exposed to scripts.
func (h *Host) module() *lua.LTable {
	mod := h.L.NewTable()
	h.L.SetFuncs(mod, map[string]lua.LGFunction{
		"command":    h.luaCommand,
		"insert":     h.luaInsert,
		"transform":  h.luaTransform,
		"move_up":    h.blockFn(func() blocks.Result { return h.cmds.MoveUp() }),
		"move_down":  h.blockFn(func() blocks.Result { return h.cmds.MoveDown() }),
		"duplicate":  h.blockFn(func() blocks.Result { return h.cmds.Duplicate() }),
		"delete":     h.blockFn(func() blocks.Result { return h.cmds.Delete() }),
		"exit_block": h.blockFn(func() blocks.Result { return h.cmds.ExitBlock() }),
		"toggle_mark": func(L *lua.LState) int {
			mark := schema.MarkType(L.CheckString(1))
			return pushResult(L, h.cmds.ToggleMark(mark, nil))
		},
		"text": func(L *lua.LState) int {
			L.Push(lua.LString(h.ed.Doc().TextContent()))
			return 1
		},
	})
	return mod
}

// luaCommand registers a slash command declared by a script:
//
//	notedown.command{
//	  id = "word-count", title = "Word Count",
//	  category = "blocks", keywords = {"words"},
//	  run = function() ... end,
//	}
func (h *Host) luaCommand(L *lua.LState) int {
	tbl := L.CheckTable(1)

	id := stringField(L, tbl, "id")
	title := stringField(L, tbl, "title")
	if id == "" || title == "" {
		L.RaiseError("command requires id and title")
		return 0
	}
	runVal := L.GetField(tbl, "run")
	fn, ok := runVal.(*lua.LFunction)
	if !ok {
		L.RaiseError("command %q requires a run function", id)
		return 0
	}

	cmd := trigger.Command{
		ID:          id,
		Title:       title,
		Description: stringField(L, tbl, "description"),
		Category:    parseCategory(stringField(L, tbl, "category")),
		Keywords:    stringListField(L, tbl, "keywords"),
		Handler:     h.handlerFor(id, fn),
	}
	if err := h.catalog.Register(cmd); err != nil {
		L.RaiseError("register command %q: %s", id, err.Error())
		return 0
	}
	h.commands = append(h.commands, id)
	h.logger.Debug("extension command registered", "id", id)
	return 0
}

// handlerFor wraps a Lua function as a catalog handler. The handler
// re-enters the Lua state, so it takes the host lock.
func (h *Host) handlerFor(id string, fn *lua.LFunction) func() error {
	return func() error {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			return ErrHostClosed
		}
		h.L.Push(fn)
		if err := h.L.PCall(0, 0, nil); err != nil {
			return fmt.Errorf("extension command %q: %w", id, err)
		}
		return nil
	}
}

func (h *Host) luaInsert(L *lua.LState) int {
	t := schema.NodeType(L.CheckString(1))
	attrs := attrsArg(L, 2)
	return pushResult(L, h.cmds.Insert(t, attrs))
}

func (h *Host) luaTransform(L *lua.LState) int {
	t := schema.NodeType(L.CheckString(1))
	attrs := attrsArg(L, 2)
	return pushResult(L, h.cmds.Transform(t, attrs))
}

// blockFn adapts an argument-less block command.
func (h *Host) blockFn(run func() blocks.Result) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, run())
	}
}

// pushResult pushes (ok, message) for a block command result. Errors
// surface as Lua errors so scripts fail loudly.
func pushResult(L *lua.LState, res blocks.Result) int {
	if res.Error != nil {
		L.RaiseError("%s", res.Error.Error())
		return 0
	}
	L.Push(lua.LBool(res.IsOK()))
	L.Push(lua.LString(res.Message))
	return 2
}

func parseCategory(s string) trigger.Category {
	switch trigger.Category(s) {
	case trigger.CategoryText, trigger.CategoryLists, trigger.CategoryBlocks, trigger.CategoryAI:
		return trigger.Category(s)
	default:
		return trigger.CategoryBlocks
	}
}

func stringField(L *lua.LState, tbl *lua.LTable, key string) string {
	if v, ok := L.GetField(tbl, key).(lua.LString); ok {
		return string(v)
	}
	return ""
}

func stringListField(L *lua.LState, tbl *lua.LTable, key string) []string {
	list, ok := L.GetField(tbl, key).(*lua.LTable)
	if !ok {
		return nil
	}
	var out []string
	list.ForEach(func(_, v lua.LValue) {
		if s, ok := v.(lua.LString); ok {
			out = append(out, string(s))
		}
	})
	return out
}

// attrsArg converts an optional Lua table argument into node attrs.
func attrsArg(L *lua.LState, idx int) map[string]any {
	tbl := L.OptTable(idx, nil)
	if tbl == nil {
		return nil
	}
	attrs := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LString:
			attrs[string(key)] = string(val)
		case lua.LNumber:
			if f := float64(val); f == float64(int(f)) {
				attrs[string(key)] = int(f)
			} else {
				attrs[string(key)] = f
			}
		case lua.LBool:
			attrs[string(key)] = bool(val)
		}
	})
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

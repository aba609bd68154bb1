package extension

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/transaction"
	"github.com/castlebay/notedown/internal/trigger"
)

func setup(t *testing.T) (*engine.Editor, *trigger.Catalog, *Host) {
	t.Helper()
	ed := engine.New()
	if err := ed.SetSelection(transaction.Cursor(1)); err != nil {
		t.Fatal(err)
	}
	catalog := trigger.NewCatalog()
	h := NewHost(ed, catalog)
	t.Cleanup(func() { h.Close() })
	return ed, catalog, h
}

func TestCommandRegistration(t *testing.T) {
	_, catalog, h := setup(t)

	err := h.LoadScript(`
notedown.command{
  id = "insert-divider",
  title = "Insert Divider",
  description = "Adds a horizontal rule",
  category = "blocks",
  keywords = {"hr", "rule"},
  run = function()
    notedown.insert("horizontal-rule")
  end,
}
`)
	if err != nil {
		t.Fatal(err)
	}

	cmd, ok := catalog.Lookup("insert-divider")
	if !ok {
		t.Fatal("command not registered")
	}
	if cmd.Title != "Insert Divider" || cmd.Category != trigger.CategoryBlocks {
		t.Fatalf("cmd = %+v", cmd)
	}
	if len(cmd.Keywords) != 2 || cmd.Keywords[0] != "hr" {
		t.Fatalf("keywords = %v", cmd.Keywords)
	}
	if got := h.Commands(); len(got) != 1 || got[0] != "insert-divider" {
		t.Fatalf("Commands() = %v", got)
	}
}

func TestHandlerEditsDocument(t *testing.T) {
	ed, catalog, h := setup(t)

	err := h.LoadScript(`
notedown.command{
  id = "make-heading",
  title = "Make Heading",
  run = function()
    local ok = notedown.transform("heading", {level = 2})
    if not ok then error("transform refused") end
  end,
}
`)
	if err != nil {
		t.Fatal(err)
	}

	cmd, _ := catalog.Lookup("make-heading")
	if err := cmd.Handler(); err != nil {
		t.Fatal(err)
	}

	block := ed.Doc().Children[0]
	if block.Type != "heading" || block.IntAttr("level", 0) != 2 {
		t.Fatalf("block = %s attrs=%v", block.Type, block.Attrs)
	}
}

func TestHandlerErrorPropagates(t *testing.T) {
	_, catalog, h := setup(t)

	err := h.LoadScript(`
notedown.command{
  id = "boom",
  title = "Boom",
  run = function() error("no thanks") end,
}
`)
	if err != nil {
		t.Fatal(err)
	}

	cmd, _ := catalog.Lookup("boom")
	err = cmd.Handler()
	if err == nil || !strings.Contains(err.Error(), "no thanks") {
		t.Fatalf("err = %v", err)
	}
}

func TestTextAccessor(t *testing.T) {
	ed, _, h := setup(t)
	for _, r := range "hello" {
		if err := ed.InsertTyped(string(r)); err != nil {
			t.Fatal(err)
		}
	}

	if err := h.LoadScript(`snapshot = notedown.text()`); err != nil {
		t.Fatal(err)
	}
	got := h.L.GetGlobal("snapshot").String()
	if got != "hello" {
		t.Fatalf("text = %q", got)
	}
}

func TestInvalidDeclarations(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"missing id", `notedown.command{title = "X", run = function() end}`},
		{"missing title", `notedown.command{id = "x", run = function() end}`},
		{"missing run", `notedown.command{id = "x", title = "X"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, h := setup(t)
			if err := h.LoadScript(tt.script); err == nil {
				t.Fatal("declaration accepted")
			}
		})
	}

	t.Run("duplicate id rejected", func(t *testing.T) {
		_, _, h := setup(t)
		decl := `notedown.command{id = "x", title = "X", run = function() end}`
		if err := h.LoadScript(decl); err != nil {
			t.Fatal(err)
		}
		if err := h.LoadScript(decl); err == nil {
			t.Fatal("duplicate accepted")
		}
	})
}

func TestSandbox(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"no io", `io.open("/etc/passwd", "r")`},
		{"no os", `os.getenv("HOME")`},
		{"no dofile", `dofile("/tmp/x.lua")`},
		{"no load", `load("return 1")()`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, h := setup(t)
			if err := h.LoadScript(tt.script); err == nil {
				t.Fatal("sandbox escape")
			}
		})
	}

	t.Run("safe libraries available", func(t *testing.T) {
		_, _, h := setup(t)
		err := h.LoadScript(`
assert(string.upper("ab") == "AB")
assert(math.max(1, 2) == 2)
assert(#({1, 2, 3}) == 3)
`)
		if err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDir(t *testing.T) {
	t.Run("loads scripts in name order", func(t *testing.T) {
		dir := t.TempDir()
		write := func(name, src string) {
			if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		write("b.lua", `notedown.command{id = "two", title = "Two", run = function() end}`)
		write("a.lua", `notedown.command{id = "one", title = "One", run = function() end}`)
		write("notes.txt", `not lua`)

		_, _, h := setup(t)
		if err := h.LoadDir(dir); err != nil {
			t.Fatal(err)
		}
		got := h.Commands()
		if len(got) != 2 || got[0] != "one" || got[1] != "two" {
			t.Fatalf("Commands() = %v", got)
		}
	})

	t.Run("missing directory is fine", func(t *testing.T) {
		_, _, h := setup(t)
		if err := h.LoadDir(filepath.Join(t.TempDir(), "nope")); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("broken script does not block the rest", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`this is not lua (`), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`notedown.command{id = "ok", title = "OK", run = function() end}`), 0o644); err != nil {
			t.Fatal(err)
		}

		_, _, h := setup(t)
		if err := h.LoadDir(dir); err != nil {
			t.Fatal(err)
		}
		if got := h.Commands(); len(got) != 1 || got[0] != "ok" {
			t.Fatalf("Commands() = %v", got)
		}
	})
}

func TestClosedHost(t *testing.T) {
	_, catalog, h := setup(t)
	if err := h.LoadScript(`notedown.command{id = "x", title = "X", run = function() end}`); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	if err := h.LoadScript(`x = 1`); !errors.Is(err, ErrHostClosed) {
		t.Fatalf("LoadScript err = %v", err)
	}
	cmd, _ := catalog.Lookup("x")
	if err := cmd.Handler(); !errors.Is(err, ErrHostClosed) {
		t.Fatalf("Handler err = %v", err)
	}
	if err := h.Close(); !errors.Is(err, ErrHostClosed) {
		t.Fatalf("second Close err = %v", err)
	}
}

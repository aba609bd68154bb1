package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/castlebay/notedown/internal/config"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
	"github.com/castlebay/notedown/internal/trigger"
)

// newApp builds an application rooted in a temp directory, with the
// mock AI provider and an isolated document store.
func newApp(t *testing.T, configTOML string) *Application {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	if configTOML != "" {
		if err := os.WriteFile(cfgPath, []byte(configTOML), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	a, err := New(Options{
		ConfigPath: cfgPath,
		StorageDir: filepath.Join(dir, "documents"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func typeString(t *testing.T, a *Application, s string) {
	t.Helper()
	for _, r := range s {
		if err := a.Editor().InsertTyped(string(r)); err != nil {
			t.Fatalf("InsertTyped(%q): %v", r, err)
		}
	}
}

func TestDocumentLifecycle(t *testing.T) {
	a := newApp(t, "")

	id, err := a.NewDocument()
	if err != nil {
		t.Fatal(err)
	}
	if a.CurrentDocument() != id {
		t.Fatalf("current = %q, want %q", a.CurrentDocument(), id)
	}

	typeString(t, a, "meeting notes")
	if err := a.SaveDocument(); err != nil {
		t.Fatal(err)
	}

	// Reopen and confirm the content round-tripped.
	if err := a.OpenDocument(id); err != nil {
		t.Fatal(err)
	}
	if got := a.Editor().Doc().TextContent(); got != "meeting notes" {
		t.Fatalf("content = %q", got)
	}
	if a.Editor().CanUndo() {
		t.Fatal("undo history survived reopen")
	}

	metas, err := a.Documents()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].Title != "meeting notes" {
		t.Fatalf("metas = %+v", metas)
	}

	if err := a.DeleteDocument(id); err != nil {
		t.Fatal(err)
	}
	if a.CurrentDocument() != "" {
		t.Fatal("deleted document still open")
	}
}

func TestSaveWithoutDocument(t *testing.T) {
	a := newApp(t, "")
	if err := a.SaveDocument(); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("err = %v", err)
	}
}

func TestExecuteKey(t *testing.T) {
	t.Run("bold toggles on the selection", func(t *testing.T) {
		a := newApp(t, "")
		if _, err := a.NewDocument(); err != nil {
			t.Fatal(err)
		}
		typeString(t, a, "note")
		if err := a.Editor().SetSelection(transaction.NewSelection(1, 5)); err != nil {
			t.Fatal(err)
		}

		if err := a.ExecuteKey("mod+b"); err != nil {
			t.Fatal(err)
		}
		run := a.Editor().Doc().Children[0].Children[0]
		if len(run.Marks) != 1 || run.Marks[0].Type != schema.MarkBold {
			t.Fatalf("marks = %v", run.Marks)
		}
	})

	t.Run("undo reverts typing", func(t *testing.T) {
		a := newApp(t, "")
		if _, err := a.NewDocument(); err != nil {
			t.Fatal(err)
		}
		typeString(t, a, "x")
		if err := a.ExecuteKey("mod+z"); err != nil {
			t.Fatal(err)
		}
		if got := a.Editor().Doc().TextContent(); got != "" {
			t.Fatalf("content = %q", got)
		}
	})

	t.Run("unbound chord", func(t *testing.T) {
		a := newApp(t, "")
		if err := a.ExecuteKey("mod+q"); !errors.Is(err, ErrUnboundKey) {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown command id", func(t *testing.T) {
		a := newApp(t, "")
		if err := a.ExecuteCommand("frobnicate"); !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("err = %v", err)
		}
	})
}

func TestSlashMenuWiring(t *testing.T) {
	a := newApp(t, "")
	if _, err := a.NewDocument(); err != nil {
		t.Fatal(err)
	}
	if a.Menu() == nil {
		t.Fatal("menu disabled by default config")
	}

	typeString(t, a, "/")
	if a.Menu().State() != trigger.StateActive {
		t.Fatalf("menu state = %v", a.Menu().State())
	}
	if err := a.Menu().Commit("heading-1"); err != nil {
		t.Fatal(err)
	}
	if got := a.Editor().Doc().Children[0].Type; got != schema.NodeHeading {
		t.Fatalf("block = %s", got)
	}
}

func TestAICommandsRegistered(t *testing.T) {
	a := newApp(t, "")
	for _, id := range []string{"ai-continue", "ai-summarize", "ai-improve"} {
		cmd, ok := a.Catalog().Lookup(id)
		if !ok {
			t.Fatalf("%s not registered", id)
		}
		if cmd.Category != trigger.CategoryAI {
			t.Fatalf("%s category = %v", id, cmd.Category)
		}
	}
}

func TestAutoFormatFollowsConfig(t *testing.T) {
	a := newApp(t, "[editor]\nauto_format = false\n")
	if _, err := a.NewDocument(); err != nil {
		t.Fatal(err)
	}
	typeString(t, a, "# ")
	if got := a.Editor().Doc().Children[0].Type; got != schema.NodeParagraph {
		t.Fatalf("block = %s, want paragraph with rules disabled", got)
	}

	// A reload that turns formatting on takes effect immediately.
	next := config.Default()
	next.Editor.AutoFormat = true
	a.applyConfig(next)

	if _, err := a.NewDocument(); err != nil {
		t.Fatal(err)
	}
	typeString(t, a, "# ")
	if got := a.Editor().Doc().Children[0].Type; got != schema.NodeHeading {
		t.Fatalf("block = %s, want heading after reload", got)
	}
}

func TestExtensionCommandsLoad(t *testing.T) {
	dir := t.TempDir()
	extDir := filepath.Join(dir, "extensions")
	if err := os.MkdirAll(extDir, 0o755); err != nil {
		t.Fatal(err)
	}
	script := `notedown.command{id = "shrug", title = "Shrug", run = function() end}`
	if err := os.WriteFile(filepath.Join(extDir, "shrug.lua"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := New(Options{
		ConfigPath: filepath.Join(dir, "config.toml"),
		StorageDir: filepath.Join(dir, "documents"),
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })

	if _, ok := a.Catalog().Lookup("shrug"); !ok {
		t.Fatal("extension command missing from catalog")
	}
}

package trigger

import (
	"strings"
	"testing"

	"github.com/castlebay/notedown/internal/blocks"
	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

func setup(t *testing.T) (*engine.Editor, *Controller) {
	t.Helper()
	ed := engine.New()
	if err := ed.SetSelection(transaction.Cursor(1)); err != nil {
		t.Fatal(err)
	}
	catalog := NewCatalog()
	for _, cmd := range Builtin(blocks.New(ed)) {
		if err := catalog.Register(cmd); err != nil {
			t.Fatal(err)
		}
	}
	ctl := NewController(ed, catalog)
	ctl.Attach()
	return ed, ctl
}

func typeString(t *testing.T, ed *engine.Editor, s string) {
	t.Helper()
	for _, r := range s {
		if err := ed.InsertTyped(string(r)); err != nil {
			t.Fatalf("InsertTyped(%q): %v", r, err)
		}
	}
}

func TestActivation(t *testing.T) {
	t.Run("slash at block start opens the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		if ctl.State() != StateInactive {
			t.Fatal("menu open before typing")
		}
		typeString(t, ed, "/")
		if ctl.State() != StateActive || ctl.Query() != "" {
			t.Fatalf("state=%v query=%q", ctl.State(), ctl.Query())
		}
	})

	t.Run("slash after whitespace opens the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "a /")
		if ctl.State() != StateActive {
			t.Fatalf("state = %v", ctl.State())
		}
	})

	t.Run("slash mid-word stays closed", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "ab/")
		if ctl.State() != StateInactive {
			t.Fatalf("state = %v", ctl.State())
		}
	})
}

func TestQueryTracking(t *testing.T) {
	t.Run("typing narrows the query", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/tas")
		if ctl.Query() != "tas" {
			t.Fatalf("query = %q", ctl.Query())
		}
		groups, err := ctl.Results()
		if err != nil {
			t.Fatal(err)
		}
		var titles []string
		for _, g := range groups {
			for _, cmd := range g.Commands {
				titles = append(titles, cmd.Title)
			}
		}
		if len(titles) == 0 || !contains(titles, "To-do List") {
			t.Fatalf("results = %v, want To-do List via task keyword", titles)
		}
	})

	t.Run("space closes the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/hea ")
		if ctl.State() != StateInactive {
			t.Fatalf("state = %v", ctl.State())
		}
	})

	t.Run("cursor move away closes the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "abc /x")
		if ctl.State() != StateActive {
			t.Fatalf("state = %v", ctl.State())
		}
		if err := ed.SetSelection(transaction.Cursor(1)); err != nil {
			t.Fatal(err)
		}
		if ctl.State() != StateInactive {
			t.Fatalf("state = %v after cursor move", ctl.State())
		}
	})

	t.Run("deleting the trigger closes the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/ab")
		tr := ed.Tx()
		if err := tr.DeleteText(1, 2); err != nil {
			t.Fatal(err)
		}
		if err := ed.Apply(tr); err != nil {
			t.Fatal(err)
		}
		if ctl.State() != StateInactive {
			t.Fatalf("state = %v", ctl.State())
		}
	})

	t.Run("overlong query closes the menu", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/"+strings.Repeat("x", maxQueryRunes))
		if ctl.State() != StateActive {
			t.Fatalf("state = %v at slack limit", ctl.State())
		}
		typeString(t, ed, "x")
		if ctl.State() != StateInactive {
			t.Fatalf("state = %v past slack limit", ctl.State())
		}
	})
}

func TestCommit(t *testing.T) {
	t.Run("runs the command on the cleaned document", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/head")
		if err := ctl.Commit("heading-1"); err != nil {
			t.Fatal(err)
		}
		b := ed.Doc().Children[0]
		if b.Type != schema.NodeHeading {
			t.Fatalf("block = %q", b.Type)
		}
		if got := b.TextContent(); got != "" {
			t.Fatalf("leftover trigger text %q", got)
		}
		if ctl.State() != StateInactive {
			t.Fatal("menu still open after commit")
		}
	})

	t.Run("keeps surrounding text", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "note /quote")
		if err := ctl.Commit("quote"); err != nil {
			t.Fatal(err)
		}
		b := ed.Doc().Children[0]
		if b.Type != schema.NodeBlockquote || b.TextContent() != "note " {
			t.Fatalf("block = %q text %q", b.Type, b.TextContent())
		}
	})

	t.Run("inactive commit fails", func(t *testing.T) {
		_, ctl := setup(t)
		if err := ctl.Commit("quote"); err != ErrNotActive {
			t.Fatalf("err = %v", err)
		}
	})

	t.Run("unknown id fails and closes nothing", func(t *testing.T) {
		ed, ctl := setup(t)
		typeString(t, ed, "/x")
		if err := ctl.Commit("nope"); err != ErrUnknownCommand {
			t.Fatalf("err = %v", err)
		}
		if got := ed.Doc().Children[0].TextContent(); got != "/x" {
			t.Fatalf("text = %q", got)
		}
	})
}

func TestCancel(t *testing.T) {
	ed, ctl := setup(t)
	typeString(t, ed, "/ab")
	ctl.Cancel()
	if ctl.State() != StateInactive {
		t.Fatal("still active after cancel")
	}
	if got := ed.Doc().Children[0].TextContent(); got != "/ab" {
		t.Fatalf("cancel touched the document: %q", got)
	}
}

func TestCatalog(t *testing.T) {
	t.Run("duplicate id rejected", func(t *testing.T) {
		c := NewCatalog()
		cmd := Command{ID: "x", Title: "X", Category: CategoryText, Handler: func() error { return nil }}
		if err := c.Register(cmd); err != nil {
			t.Fatal(err)
		}
		if err := c.Register(cmd); err == nil {
			t.Fatal("duplicate registration accepted")
		}
	})

	t.Run("empty query returns everything", func(t *testing.T) {
		c := NewCatalog()
		ed := engine.New()
		for _, cmd := range Builtin(blocks.New(ed)) {
			if err := c.Register(cmd); err != nil {
				t.Fatal(err)
			}
		}
		if got, want := len(c.Filter("")), len(c.Commands()); got != want {
			t.Fatalf("filter(\"\") = %d, want %d", got, want)
		}
	})

	t.Run("title substring outranks keyword", func(t *testing.T) {
		c := NewCatalog()
		ed := engine.New()
		for _, cmd := range Builtin(blocks.New(ed)) {
			if err := c.Register(cmd); err != nil {
				t.Fatal(err)
			}
		}
		got := c.Filter("head")
		if len(got) == 0 || got[0].ID != "heading-1" {
			t.Fatalf("first match = %+v", got)
		}
	})

	t.Run("description substring matches", func(t *testing.T) {
		c := NewCatalog()
		cmds := []Command{
			{ID: "divider", Title: "Divider", Description: "Insert a horizontal rule",
				Category: CategoryBlocks, Handler: func() error { return nil }},
			{ID: "quote", Title: "Quote", Description: "Wrap in a blockquote",
				Category: CategoryBlocks, Handler: func() error { return nil }},
		}
		for _, cmd := range cmds {
			if err := c.Register(cmd); err != nil {
				t.Fatal(err)
			}
		}
		got := c.Filter("horizontal")
		if len(got) != 1 || got[0].ID != "divider" {
			t.Fatalf("filter(horizontal) = %+v", got)
		}
	})

	t.Run("groups follow fixed category order", func(t *testing.T) {
		c := NewCatalog()
		ed := engine.New()
		for _, cmd := range Builtin(blocks.New(ed)) {
			if err := c.Register(cmd); err != nil {
				t.Fatal(err)
			}
		}
		groups := c.Grouped("")
		if len(groups) < 3 {
			t.Fatalf("groups = %v", groups)
		}
		if groups[0].Category != CategoryText || groups[1].Category != CategoryLists {
			t.Fatalf("order = %v, %v", groups[0].Category, groups[1].Category)
		}
	})
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}

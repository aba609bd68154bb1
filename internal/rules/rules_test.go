package rules

import (
	"testing"

	"github.com/castlebay/notedown/internal/engine"
	"github.com/castlebay/notedown/internal/engine/schema"
	"github.com/castlebay/notedown/internal/engine/transaction"
)

func newEditor(t *testing.T) *engine.Editor {
	t.Helper()
	ed := engine.New()
	if err := ed.SetSelection(transaction.Cursor(1)); err != nil {
		t.Fatal(err)
	}
	eng := NewEngine(ed, Defaults())
	eng.Attach()
	return ed
}

func typeString(t *testing.T, ed *engine.Editor, s string) {
	t.Helper()
	for _, r := range s {
		if err := ed.InsertTyped(string(r)); err != nil {
			t.Fatalf("InsertTyped(%q): %v", r, err)
		}
	}
}

func firstBlock(ed *engine.Editor) *schema.Node {
	return ed.Doc().Children[0]
}

func TestBlockRules(t *testing.T) {
	tests := []struct {
		name  string
		typed string
		check func(t *testing.T, b *schema.Node)
	}{
		{"heading level 1", "# ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeHeading || b.IntAttr("level", 0) != 1 {
				t.Fatalf("got %q level %d", b.Type, b.IntAttr("level", 0))
			}
		}},
		{"heading level 3", "### ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeHeading || b.IntAttr("level", 0) != 3 {
				t.Fatalf("got %q level %d", b.Type, b.IntAttr("level", 0))
			}
		}},
		{"bullet list", "- ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeBulletList {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"star bullet", "* ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeBulletList {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"task unchecked", "- [ ] ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeTaskList {
				t.Fatalf("got %q", b.Type)
			}
			if b.Children[0].BoolAttr("checked", true) {
				t.Fatal("checked should be false")
			}
		}},
		{"task checked", "- [x] ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeTaskList {
				t.Fatalf("got %q", b.Type)
			}
			if !b.Children[0].BoolAttr("checked", false) {
				t.Fatal("checked should be true")
			}
		}},
		{"ordered list keeps start", "3. ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeOrderedList || b.IntAttr("start", 0) != 3 {
				t.Fatalf("got %q start %d", b.Type, b.IntAttr("start", 0))
			}
		}},
		{"blockquote", "> ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeBlockquote {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"toggle list", ">> ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeToggleList {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"code fence", "```", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeCodeBlock {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"horizontal rule", "---", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeHorizontalRule {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"callout", "!! ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeCallout {
				t.Fatalf("got %q", b.Type)
			}
		}},
		{"no marker stays paragraph", "#x ", func(t *testing.T, b *schema.Node) {
			if b.Type != schema.NodeParagraph {
				t.Fatalf("got %q", b.Type)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ed := newEditor(t)
			typeString(t, ed, tt.typed)
			tt.check(t, firstBlock(ed))
		})
	}
}

func TestTypingContinuesInsideConvertedBlock(t *testing.T) {
	ed := newEditor(t)
	typeString(t, ed, "- [ ] buy milk")
	list := firstBlock(ed)
	if list.Type != schema.NodeTaskList {
		t.Fatalf("got %q", list.Type)
	}
	if got := list.TextContent(); got != "buy milk" {
		t.Fatalf("text = %q", got)
	}
}

func TestTaskOutranksBullet(t *testing.T) {
	// "- [ ] " begins with "- "; only full typing must yield a task.
	ed := newEditor(t)
	typeString(t, ed, "- ")
	if got := firstBlock(ed).Type; got != schema.NodeBulletList {
		t.Fatalf("got %q, want bullet-list", got)
	}
}

func TestTaskMarkerInMultiItemList(t *testing.T) {
	// The list upgrade only applies to the single item a bullet rule
	// just created; typing the marker into a longer list is plain text.
	item := func(text string) *schema.Node {
		p := schema.NewNode(schema.NodeParagraph, nil)
		if text != "" {
			p = schema.NewNode(schema.NodeParagraph, nil, schema.NewText(text))
		}
		return schema.NewNode(schema.NodeListItem, nil, p)
	}
	d := schema.NewNode(schema.NodeDoc, nil,
		schema.NewNode(schema.NodeBulletList, nil, item(""), item("second")))
	ed := engine.New(engine.WithDocument(d))
	if err := ed.SetSelection(transaction.Cursor(3)); err != nil {
		t.Fatal(err)
	}
	eng := NewEngine(ed, Defaults())
	eng.Attach()

	typeString(t, ed, "[ ] ")
	b := firstBlock(ed)
	if b.Type != schema.NodeBulletList {
		t.Fatalf("got %q, want bullet-list", b.Type)
	}
	if got := b.Children[0].TextContent(); got != "[ ] " {
		t.Fatalf("first item text = %q", got)
	}
}

func TestInlineRules(t *testing.T) {
	t.Run("bold", func(t *testing.T) {
		ed := newEditor(t)
		typeString(t, ed, "say **hi**")
		runs := firstBlock(ed).Children
		if len(runs) != 2 {
			t.Fatalf("runs = %v", runs)
		}
		if runs[0].Text != "say " || len(runs[0].Marks) != 0 {
			t.Fatalf("first run = %q %v", runs[0].Text, runs[0].Marks)
		}
		if runs[1].Text != "hi" || !schema.ContainsMark(runs[1].Marks, schema.MarkBold) {
			t.Fatalf("second run = %q %v", runs[1].Text, runs[1].Marks)
		}
	})

	t.Run("italic", func(t *testing.T) {
		ed := newEditor(t)
		typeString(t, ed, "a *b*")
		runs := firstBlock(ed).Children
		if len(runs) != 2 || !schema.ContainsMark(runs[1].Marks, schema.MarkItalic) {
			t.Fatalf("runs = %v", runs)
		}
	})

	t.Run("italic does not fire mid-bold", func(t *testing.T) {
		ed := newEditor(t)
		typeString(t, ed, "**bold*")
		runs := firstBlock(ed).Children
		if len(runs) != 1 || len(runs[0].Marks) != 0 {
			t.Fatalf("premature conversion: %v", runs)
		}
	})

	t.Run("inline code", func(t *testing.T) {
		ed := newEditor(t)
		typeString(t, ed, "run `go`")
		runs := firstBlock(ed).Children
		if len(runs) != 2 || !schema.ContainsMark(runs[1].Marks, schema.MarkCode) {
			t.Fatalf("runs = %v", runs)
		}
	})

	t.Run("cursor lands after marked text", func(t *testing.T) {
		ed := newEditor(t)
		typeString(t, ed, "**hi**")
		// Content is now just "hi"; cursor sits after it.
		if got := ed.Selection().Head; got != 3 {
			t.Fatalf("cursor = %d, want 3", got)
		}
	})
}

func TestNoRulesInCodeBlock(t *testing.T) {
	ed := newEditor(t)
	typeString(t, ed, "```")
	if got := firstBlock(ed).Type; got != schema.NodeCodeBlock {
		t.Fatalf("got %q", got)
	}
	typeString(t, ed, "# ")
	b := firstBlock(ed)
	if b.Type != schema.NodeCodeBlock || b.TextContent() != "# " {
		t.Fatalf("got %q with text %q", b.Type, b.TextContent())
	}
}

func TestUndoDoesNotRetrigger(t *testing.T) {
	ed := newEditor(t)
	typeString(t, ed, "# ")
	if firstBlock(ed).Type != schema.NodeHeading {
		t.Fatal("rule did not fire")
	}
	if err := ed.Undo(); err != nil {
		t.Fatal(err)
	}
	b := firstBlock(ed)
	if b.Type != schema.NodeParagraph || b.TextContent() != "# " {
		t.Fatalf("after undo: %q text %q", b.Type, b.TextContent())
	}
}

func TestSetEnabled(t *testing.T) {
	ed := engine.New()
	if err := ed.SetSelection(transaction.Cursor(1)); err != nil {
		t.Fatal(err)
	}
	eng := NewEngine(ed, Defaults())
	eng.Attach()
	eng.SetEnabled(false)
	typeString(t, ed, "# ")
	if got := firstBlock(ed).Type; got != schema.NodeParagraph {
		t.Fatalf("rule fired while disabled: %q", got)
	}
}

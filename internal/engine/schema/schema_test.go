package schema

import (
	"errors"
	"testing"
)

func para(text string) *Node {
	if text == "" {
		return NewNode(NodeParagraph, nil)
	}
	return NewNode(NodeParagraph, nil, NewText(text))
}

func doc(children ...*Node) *Node {
	return NewNode(NodeDoc, nil, children...)
}

func TestValidate(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		node *Node
		ok   bool
	}{
		{
			"empty document",
			s.EmptyDocument(),
			true,
		},
		{
			"paragraphs and heading",
			doc(NewNode(NodeHeading, map[string]any{"level": 1}, NewText("t")), para("body")),
			true,
		},
		{
			"doc requires at least one block",
			NewNode(NodeDoc, nil),
			false,
		},
		{
			"text directly under doc",
			doc(NewText("loose")),
			false,
		},
		{
			"bullet list of items",
			doc(NewNode(NodeBulletList, nil,
				NewNode(NodeListItem, nil, para("a")),
				NewNode(NodeListItem, nil, para("b")),
			)),
			true,
		},
		{
			"empty bullet list",
			doc(NewNode(NodeBulletList, nil)),
			false,
		},
		{
			"list item must lead with a paragraph",
			doc(NewNode(NodeBulletList, nil,
				NewNode(NodeListItem, nil, NewNode(NodeCodeBlock, nil)),
			)),
			false,
		},
		{
			"list item with trailing nested blocks",
			doc(NewNode(NodeBulletList, nil,
				NewNode(NodeListItem, nil, para("a"),
					NewNode(NodeBulletList, nil, NewNode(NodeListItem, nil, para("b")))),
			)),
			true,
		},
		{
			"task list holds task items only",
			doc(NewNode(NodeTaskList, nil, NewNode(NodeListItem, nil, para("x")))),
			false,
		},
		{
			"leaf node with children",
			doc(NewNode(NodeHorizontalRule, nil, para("x"))),
			false,
		},
		{
			"callout wraps blocks",
			doc(NewNode(NodeCallout, map[string]any{"emoji": "💡"}, para("tip"))),
			true,
		},
		{
			"marked text in a paragraph",
			doc(NewNode(NodeParagraph, nil, NewText("b", Mark{Type: MarkBold}))),
			true,
		},
		{
			"marked text in a code block",
			doc(NewNode(NodeCodeBlock, nil, NewText("x := 1", Mark{Type: MarkBold}))),
			false,
		},
		{
			"unknown mark",
			doc(NewNode(NodeParagraph, nil, NewText("b", Mark{Type: "blink"}))),
			false,
		},
		{
			"marks on a non-text node",
			doc(&Node{Type: NodeParagraph, Marks: []Mark{{Type: MarkBold}}}),
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.node)
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Validate() = %v, want ValidationError", err)
				}
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	s := Default()

	if !s.IsBlock(NodeParagraph) || s.IsBlock(NodeListItem) || s.IsBlock(NodeText) {
		t.Error("IsBlock misclassifies")
	}
	if !s.IsTextblock(NodeHeading) || !s.IsTextblock(NodeCodeBlock) || s.IsTextblock(NodeBlockquote) {
		t.Error("IsTextblock misclassifies")
	}
	if !s.IsLeaf(NodeImage) || s.IsLeaf(NodeParagraph) {
		t.Error("IsLeaf misclassifies")
	}
	if !s.IsInline(NodeText) || s.IsInline(NodeParagraph) {
		t.Error("IsInline misclassifies")
	}
	if s.HasNode("table") {
		t.Error("unknown node type accepted")
	}
}

func TestNodeSize(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		size int
	}{
		{"text counts runes", NewText("héllo"), 5},
		{"empty paragraph", para(""), 2},
		{"paragraph wraps text", para("hi"), 4},
		{"leaf is two tokens", NewNode(NodeHorizontalRule, nil), 2},
		{
			"list nests",
			NewNode(NodeBulletList, nil, NewNode(NodeListItem, nil, para("ab"))),
			8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Size(); got != tt.size {
				t.Fatalf("Size() = %d, want %d", got, tt.size)
			}
		})
	}
}

func TestTextBetween(t *testing.T) {
	d := doc(para("hello"), para("world"))

	tests := []struct {
		name     string
		from, to int
		want     string
	}{
		{"inside one paragraph", 1, 6, "hello"},
		{"partial run", 2, 4, "el"},
		{"across blocks", 4, 10, "lowo"},
		{"empty range", 3, 3, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.TextBetween(tt.from, tt.to); got != tt.want {
				t.Fatalf("TextBetween(%d, %d) = %q, want %q", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	s := Default()

	docs := map[string]*Node{
		"empty": s.EmptyDocument(),
		"rich": doc(
			NewNode(NodeHeading, map[string]any{"level": 2}, NewText("Plan")),
			NewNode(NodeParagraph, nil,
				NewText("see "),
				NewText("docs", Mark{Type: MarkLink, Attrs: map[string]any{"href": "https://example.com"}}),
			),
			NewNode(NodeTaskList, nil,
				NewNode(NodeTaskItem, map[string]any{"checked": true}, para("done")),
				NewNode(NodeTaskItem, map[string]any{"checked": false}, para("next")),
			),
			NewNode(NodeCodeBlock, map[string]any{"language": "go"}, NewText("x := 1")),
			NewNode(NodeHorizontalRule, nil),
		),
	}

	for name, d := range docs {
		t.Run(name, func(t *testing.T) {
			data, err := Marshal(d)
			if err != nil {
				t.Fatal(err)
			}
			back, err := s.Unmarshal(data)
			if err != nil {
				t.Fatal(err)
			}
			if !d.Eq(back) {
				t.Fatalf("round trip changed tree:\n%s", data)
			}
		})
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	s := Default()

	tests := []struct {
		name string
		data string
	}{
		{"unknown node type", `{"type":"doc","content":[{"type":"spreadsheet"}]}`},
		{"unknown mark", `{"type":"doc","content":[{"type":"paragraph","content":[{"type":"text","text":"x","marks":[{"type":"blink"}]}]}]}`},
		{"grammar violation", `{"type":"doc","content":[{"type":"text","text":"loose"}]}`},
		{"not json", `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Unmarshal([]byte(tt.data)); err == nil {
				t.Fatal("invalid document accepted")
			}
		})
	}
}

func TestImmutableBuilders(t *testing.T) {
	orig := para("hi")
	bold := orig.Children[0].WithMarks([]Mark{{Type: MarkBold}})

	if len(orig.Children[0].Marks) != 0 {
		t.Fatal("WithMarks mutated the receiver")
	}
	if len(bold.Marks) != 1 {
		t.Fatal("WithMarks lost the mark")
	}

	grown := orig.WithChildren(NewText("hi"), NewText("!"))
	if len(orig.Children) != 1 || len(grown.Children) != 2 {
		t.Fatal("WithChildren mutated the receiver")
	}
}

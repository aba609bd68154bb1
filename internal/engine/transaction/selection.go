package transaction

// Selection is an (anchor, head) position pair over one document
// version. Anchor is the fixed end, head the moving end.
type Selection struct {
	Anchor int
	Head   int
}

// Cursor returns a collapsed selection at pos.
func Cursor(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

// NewSelection returns a selection with the given ends.
func NewSelection(anchor, head int) Selection {
	return Selection{Anchor: anchor, Head: head}
}

// Empty reports whether the selection is collapsed.
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// From returns the lower end.
func (s Selection) From() int {
	if s.Anchor < s.Head {
		return s.Anchor
	}
	return s.Head
}

// To returns the upper end.
func (s Selection) To() int {
	if s.Anchor > s.Head {
		return s.Anchor
	}
	return s.Head
}

// Map translates the selection through a mapping so it stays valid on
// the new document version.
func (s Selection) Map(m Mapping) Selection {
	return Selection{
		Anchor: m.Map(s.Anchor, 1),
		Head:   m.Map(s.Head, 1),
	}
}

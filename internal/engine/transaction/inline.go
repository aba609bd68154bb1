package transaction

import (
	"github.com/castlebay/notedown/internal/engine/schema"
)

// nodesSize returns the combined token size of a node list.
func nodesSize(nodes []*schema.Node) int {
	size := 0
	for _, n := range nodes {
		size += n.Size()
	}
	return size
}

// splitInline cuts the inline content of a textblock at offsets a and b
// (token offsets within the parent's content) and returns the three
// resulting run lists. Text nodes straddling a cut are split by rune.
func splitInline(parent *schema.Node, a, b int) (prefix, mid, suffix []*schema.Node) {
	off := 0
	for _, c := range parent.Children {
		size := c.Size()
		start, end := off, off+size
		off = end
		switch {
		case end <= a:
			prefix = append(prefix, c)
		case start >= b:
			suffix = append(suffix, c)
		default:
			runes := []rune(c.Text)
			lo, hi := maxInt(a-start, 0), minInt(b-start, size)
			if lo > 0 {
				prefix = append(prefix, c.WithText(string(runes[:lo])))
			}
			if hi > lo {
				mid = append(mid, c.WithText(string(runes[lo:hi])))
			}
			if hi < size {
				suffix = append(suffix, c.WithText(string(runes[hi:])))
			}
		}
	}
	return prefix, mid, suffix
}

// mergeInline joins adjacent text runs with identical mark sets and
// drops empty runs.
func mergeInline(runs []*schema.Node) []*schema.Node {
	out := make([]*schema.Node, 0, len(runs))
	for _, r := range runs {
		if r.IsText() && r.Text == "" {
			continue
		}
		if len(out) > 0 {
			last := out[len(out)-1]
			if last.IsText() && r.IsText() && schema.MarksEq(last.Marks, r.Marks) {
				out[len(out)-1] = last.WithText(last.Text + r.Text)
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

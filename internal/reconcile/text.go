package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/castlebay/notedown/internal/engine/schema"
)

var (
	headingLine = regexp.MustCompile(`^(#{1,3}) (.*)$`)
	taskLine    = regexp.MustCompile(`^- \[([ x])\] (.*)$`)
	bulletLine  = regexp.MustCompile(`^[-*+] (.*)$`)
	orderedLine = regexp.MustCompile(`^(\d{1,9})\. (.*)$`)
	quoteLine   = regexp.MustCompile(`^> ?(.*)$`)
	fenceLine   = regexp.MustCompile("^```([a-zA-Z0-9+#-]*)$")
	ruleLine    = regexp.MustCompile(`^(-{3,}|\*{3,})$`)

	inlineSpan = regexp.MustCompile("\\*\\*[^*]+\\*\\*|\\*[^*]+\\*|`[^`]+`|~~[^~]+~~")
)

// FromText converts markdown-flavored plain text into block nodes. It
// recognizes headings, bullet, numbered and task lists, blockquotes,
// fenced code blocks, and dividers; everything else becomes one
// paragraph per line. A blank line ends any run.
func FromText(text string) []*schema.Node {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var out []*schema.Node

	for i := 0; i < len(lines); {
		line := lines[i]
		switch {
		case strings.TrimSpace(line) == "":
			i++
		case fenceLine.MatchString(line):
			lang := fenceLine.FindStringSubmatch(line)[1]
			var body []string
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
				body = append(body, lines[i])
				i++
			}
			if i < len(lines) {
				i++ // closing fence
			}
			attrs := map[string]any{"language": lang}
			if code := strings.Join(body, "\n"); code != "" {
				out = append(out, schema.NewNode(schema.NodeCodeBlock, attrs, schema.NewText(code)))
			} else {
				out = append(out, schema.NewNode(schema.NodeCodeBlock, attrs))
			}
		case ruleLine.MatchString(line):
			out = append(out, schema.NewNode(schema.NodeHorizontalRule, nil))
			i++
		case headingLine.MatchString(line):
			m := headingLine.FindStringSubmatch(line)
			out = append(out, schema.NewNode(schema.NodeHeading,
				map[string]any{"level": len(m[1])}, inlineRuns(m[2])...))
			i++
		case taskLine.MatchString(line):
			var items []*schema.Node
			for i < len(lines) {
				m := taskLine.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				items = append(items, schema.NewNode(schema.NodeTaskItem,
					map[string]any{"checked": m[1] == "x"},
					schema.NewNode(schema.NodeParagraph, nil, inlineRuns(m[2])...)))
				i++
			}
			out = append(out, schema.NewNode(schema.NodeTaskList, nil, items...))
		case bulletLine.MatchString(line):
			var items []*schema.Node
			for i < len(lines) {
				m := bulletLine.FindStringSubmatch(lines[i])
				if m == nil || taskLine.MatchString(lines[i]) {
					break
				}
				items = append(items, schema.NewNode(schema.NodeListItem, nil,
					schema.NewNode(schema.NodeParagraph, nil, inlineRuns(m[1])...)))
				i++
			}
			out = append(out, schema.NewNode(schema.NodeBulletList, nil, items...))
		case orderedLine.MatchString(line):
			m := orderedLine.FindStringSubmatch(line)
			start, _ := strconv.Atoi(m[1])
			var items []*schema.Node
			for i < len(lines) {
				m := orderedLine.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				items = append(items, schema.NewNode(schema.NodeListItem, nil,
					schema.NewNode(schema.NodeParagraph, nil, inlineRuns(m[2])...)))
				i++
			}
			out = append(out, schema.NewNode(schema.NodeOrderedList,
				map[string]any{"start": start}, items...))
		case quoteLine.MatchString(line):
			var paras []*schema.Node
			for i < len(lines) {
				m := quoteLine.FindStringSubmatch(lines[i])
				if m == nil {
					break
				}
				paras = append(paras, schema.NewNode(schema.NodeParagraph, nil, inlineRuns(m[1])...))
				i++
			}
			out = append(out, schema.NewNode(schema.NodeBlockquote, nil, paras...))
		default:
			out = append(out, schema.NewNode(schema.NodeParagraph, nil, inlineRuns(line)...))
			i++
		}
	}
	if len(out) == 0 {
		out = append(out, schema.NewNode(schema.NodeParagraph, nil))
	}
	return out
}

// HasStructure reports whether converted output carries block structure
// beyond a single plain paragraph.
func HasStructure(nodes []*schema.Node) bool {
	if len(nodes) != 1 {
		return true
	}
	return nodes[0].Type != schema.NodeParagraph
}

// inlineRuns splits a line into text runs, converting marker-wrapped
// spans into marked text.
func inlineRuns(text string) []*schema.Node {
	if text == "" {
		return nil
	}
	var out []*schema.Node
	last := 0
	for _, loc := range inlineSpan.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			out = append(out, schema.NewText(text[last:loc[0]]))
		}
		out = append(out, markedRun(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	if last < len(text) {
		out = append(out, schema.NewText(text[last:]))
	}
	return out
}

// markedRun converts one marker-wrapped span into a marked text run.
func markedRun(span string) *schema.Node {
	switch {
	case strings.HasPrefix(span, "**"):
		return schema.NewText(span[2:len(span)-2], schema.Mark{Type: schema.MarkBold})
	case strings.HasPrefix(span, "~~"):
		return schema.NewText(span[2:len(span)-2], schema.Mark{Type: schema.MarkStrikethrough})
	case strings.HasPrefix(span, "*"):
		return schema.NewText(span[1:len(span)-1], schema.Mark{Type: schema.MarkItalic})
	default: // `code`
		return schema.NewText(span[1:len(span)-1], schema.Mark{Type: schema.MarkCode})
	}
}

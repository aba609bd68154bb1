package schema

import (
	"encoding/json"
	"fmt"
)

// jsonNode is the wire form of a node.
type jsonNode struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*jsonNode    `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []jsonMark     `json:"marks,omitempty"`
}

// jsonMark is the wire form of a mark.
type jsonMark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Marshal serializes a document tree. The format round-trips: Unmarshal
// of the output reproduces a structurally equal tree.
func Marshal(n *Node) ([]byte, error) {
	return json.Marshal(toJSON(n))
}

// MarshalIndent serializes a document tree with indentation.
func MarshalIndent(n *Node) ([]byte, error) {
	return json.MarshalIndent(toJSON(n), "", "  ")
}

// Unmarshal parses a serialized tree and validates it against the schema.
func (s *Schema) Unmarshal(data []byte) (*Node, error) {
	var jn jsonNode
	if err := json.Unmarshal(data, &jn); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	n, err := s.fromJSON(&jn)
	if err != nil {
		return nil, err
	}
	if err := s.Validate(n); err != nil {
		return nil, err
	}
	return n, nil
}

func toJSON(n *Node) *jsonNode {
	jn := &jsonNode{
		Type:  string(n.Type),
		Attrs: n.Attrs,
		Text:  n.Text,
	}
	for _, m := range n.Marks {
		jn.Marks = append(jn.Marks, jsonMark{Type: string(m.Type), Attrs: m.Attrs})
	}
	for _, c := range n.Children {
		jn.Content = append(jn.Content, toJSON(c))
	}
	return jn
}

func (s *Schema) fromJSON(jn *jsonNode) (*Node, error) {
	t := NodeType(jn.Type)
	if !s.HasNode(t) {
		return nil, &ValidationError{Node: t, Msg: "unknown node type"}
	}
	n := &Node{
		Type:  t,
		Attrs: normAttrs(jn.Attrs),
		Text:  jn.Text,
	}
	for _, jm := range jn.Marks {
		mt := MarkType(jm.Type)
		if !s.HasMark(mt) {
			return nil, &ValidationError{Node: t, Msg: fmt.Sprintf("unknown mark %q", jm.Type)}
		}
		n.Marks = append(n.Marks, Mark{Type: mt, Attrs: normAttrs(jm.Attrs)})
	}
	for _, jc := range jn.Content {
		c, err := s.fromJSON(jc)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, c)
	}
	return n, nil
}

// normAttrs rewrites integral float64 attribute values (the default JSON
// number decoding) back to ints so decoded trees compare equal.
func normAttrs(attrs map[string]any) map[string]any {
	if attrs == nil {
		return nil
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			out[k] = int(f)
			continue
		}
		out[k] = v
	}
	return out
}

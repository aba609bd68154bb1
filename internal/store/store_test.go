package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/castlebay/notedown/internal/engine/schema"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), schema.Default())
	require.NoError(t, err)
	return s
}

func TestCreateAndLoad(t *testing.T) {
	s := openStore(t)
	meta, err := s.Create("notes")
	require.NoError(t, err)
	assert.NotEmpty(t, meta.ID)
	assert.Equal(t, "notes", meta.Title)

	doc, err := s.Load(meta.ID)
	require.NoError(t, err)
	assert.True(t, schema.Default().EmptyDocument().Eq(doc))
}

func TestSaveRoundTrip(t *testing.T) {
	s := openStore(t)
	meta, err := s.Create("draft")
	require.NoError(t, err)

	doc := schema.NewNode(schema.NodeDoc, nil,
		schema.NewNode(schema.NodeHeading, map[string]any{"level": 1},
			schema.NewText("Trip Plan")),
		schema.NewNode(schema.NodeTaskList, nil,
			schema.NewNode(schema.NodeTaskItem, map[string]any{"checked": true},
				schema.NewNode(schema.NodeParagraph, nil,
					schema.NewText("book ", schema.Mark{Type: schema.MarkBold}),
					schema.NewText("flights")))))
	require.NoError(t, s.Save(meta.ID, doc))

	got, err := s.Load(meta.ID)
	require.NoError(t, err)
	assert.True(t, doc.Eq(got), "loaded document differs")

	// The title follows the leading text.
	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Trip Plan", list[0].Title)
}

func TestSaveUnknownID(t *testing.T) {
	s := openStore(t)
	err := s.Save("missing", schema.Default().EmptyDocument())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersByUpdate(t *testing.T) {
	s := openStore(t)
	first, err := s.Create("first")
	require.NoError(t, err)
	second, err := s.Create("second")
	require.NoError(t, err)

	// Touch the first document so it becomes the most recent.
	doc := schema.NewNode(schema.NodeDoc, nil,
		schema.NewNode(schema.NodeParagraph, nil, schema.NewText("updated")))
	require.NoError(t, s.Save(first.ID, doc))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestDelete(t *testing.T) {
	s := openStore(t)
	meta, err := s.Create("gone")
	require.NoError(t, err)

	require.NoError(t, s.Delete(meta.ID))
	_, err = s.Load(meta.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(meta.ID), ErrNotFound)

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRename(t *testing.T) {
	s := openStore(t)
	meta, err := s.Create("old name")
	require.NoError(t, err)
	require.NoError(t, s.Rename(meta.ID, "new name"))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new name", list[0].Title)
}

func TestLoadRejectsInvalidBody(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, schema.Default())
	require.NoError(t, err)
	meta, err := s.Create("bad")
	require.NoError(t, err)

	// A document violating the grammar must not load.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, meta.ID+".json"),
		[]byte(`{"type":"doc","content":[{"type":"text","text":"x"}]}`), 0o644))
	_, err = s.Load(meta.ID)
	assert.Error(t, err)
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		doc  *schema.Node
		want string
	}{
		{
			"first non-empty block",
			schema.NewNode(schema.NodeDoc, nil,
				schema.NewNode(schema.NodeParagraph, nil),
				schema.NewNode(schema.NodeParagraph, nil, schema.NewText("hello"))),
			"hello",
		},
		{
			"empty document",
			schema.Default().EmptyDocument(),
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveTitle(tt.doc))
		})
	}
}

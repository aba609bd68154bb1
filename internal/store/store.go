package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/castlebay/notedown/internal/engine/schema"
)

// ErrNotFound indicates an unknown document id.
var ErrNotFound = errors.New("document not found")

const manifestName = "manifest.json"

// Meta describes one stored document.
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store persists documents as JSON files in a directory, with a
// manifest carrying per-document metadata. All operations are safe for
// concurrent use.
type Store struct {
	dir    string
	schema *schema.Schema
	logger *slog.Logger

	mu sync.Mutex
}

// Option configures a store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens (creating if needed) a document store rooted at dir.
func Open(dir string, sch *schema.Schema, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	s := &Store{dir: dir, schema: sch}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	manifest := filepath.Join(dir, manifestName)
	if _, err := os.Stat(manifest); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(manifest, []byte(`{"documents":{}}`), 0o644); err != nil {
			return nil, fmt.Errorf("create manifest: %w", err)
		}
	}
	return s, nil
}

// Create allocates a new document with an empty body and returns its
// metadata.
func (s *Store) Create(title string) (Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta := Meta{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.writeDoc(meta.ID, s.schema.EmptyDocument()); err != nil {
		return Meta{}, err
	}
	if err := s.patchManifest(meta); err != nil {
		return Meta{}, err
	}
	s.logger.Info("document created", "id", meta.ID, "title", title)
	return meta, nil
}

// Save writes the document body and bumps its updated timestamp. The
// manifest title follows the document's leading text.
func (s *Store) Save(id string, doc *schema.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	entry := gjson.GetBytes(manifest, "documents."+id)
	if !entry.Exists() {
		return ErrNotFound
	}
	if err := s.writeDoc(id, doc); err != nil {
		return err
	}

	meta := metaFrom(id, entry)
	meta.UpdatedAt = time.Now().UTC()
	if title := DeriveTitle(doc); title != "" {
		meta.Title = title
	}
	return s.patchManifest(meta)
}

// Load reads and validates a stored document body.
func (s *Store) Load(id string) (*schema.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.docPath(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", id, err)
	}
	doc, err := s.schema.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	return doc, nil
}

// List returns metadata for every stored document, most recently
// updated first.
func (s *Store) List() ([]Meta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.readManifest()
	if err != nil {
		return nil, err
	}
	var out []Meta
	gjson.GetBytes(manifest, "documents").ForEach(func(id, entry gjson.Result) bool {
		out = append(out, metaFrom(id.String(), entry))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// Delete removes a document and its manifest entry.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	if !gjson.GetBytes(manifest, "documents."+id).Exists() {
		return ErrNotFound
	}
	patched, err := sjson.DeleteBytes(manifest, "documents."+id)
	if err != nil {
		return fmt.Errorf("patch manifest: %w", err)
	}
	if err := s.writeManifest(patched); err != nil {
		return err
	}
	if err := os.Remove(s.docPath(id)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove document %s: %w", id, err)
	}
	s.logger.Info("document deleted", "id", id)
	return nil
}

// Rename changes a document's title without touching its body.
func (s *Store) Rename(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	entry := gjson.GetBytes(manifest, "documents."+id)
	if !entry.Exists() {
		return ErrNotFound
	}
	meta := metaFrom(id, entry)
	meta.Title = title
	meta.UpdatedAt = time.Now().UTC()
	return s.patchManifest(meta)
}

// DeriveTitle returns the document's leading text, truncated to a
// title-sized line.
func DeriveTitle(doc *schema.Node) string {
	const maxTitle = 80
	for _, b := range doc.Children {
		text := b.TextContent()
		if text == "" {
			continue
		}
		rs := []rune(text)
		if len(rs) > maxTitle {
			return string(rs[:maxTitle])
		}
		return text
	}
	return ""
}

func (s *Store) docPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func (s *Store) writeDoc(id string, doc *schema.Node) error {
	data, err := schema.MarshalIndent(doc)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", id, err)
	}
	if err := os.WriteFile(s.docPath(id), data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", id, err)
	}
	return nil
}

func (s *Store) readManifest() ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return data, nil
}

func (s *Store) writeManifest(data []byte) error {
	if err := os.WriteFile(filepath.Join(s.dir, manifestName), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// patchManifest upserts one manifest entry in place.
func (s *Store) patchManifest(meta Meta) error {
	manifest, err := s.readManifest()
	if err != nil {
		return err
	}
	patched, err := sjson.SetBytes(manifest, "documents."+meta.ID, map[string]any{
		"title":      meta.Title,
		"created_at": meta.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": meta.UpdatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("patch manifest: %w", err)
	}
	return s.writeManifest(patched)
}

// metaFrom decodes one manifest entry.
func metaFrom(id string, entry gjson.Result) Meta {
	created, _ := time.Parse(time.RFC3339Nano, entry.Get("created_at").String())
	updated, _ := time.Parse(time.RFC3339Nano, entry.Get("updated_at").String())
	return Meta{
		ID:        id,
		Title:     entry.Get("title").String(),
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

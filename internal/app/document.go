package app

import (
	"fmt"

	"github.com/castlebay/notedown/internal/store"
)

// CurrentDocument returns the id of the open document, "" when none.
func (a *Application) CurrentDocument() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.docID
}

// NewDocument creates an empty document, opens it, and returns its id.
func (a *Application) NewDocument() (string, error) {
	meta, err := a.store.Create("")
	if err != nil {
		return "", err
	}
	if err := a.OpenDocument(meta.ID); err != nil {
		return "", err
	}
	return meta.ID, nil
}

// OpenDocument loads a stored document into the editor. The undo
// history starts fresh.
func (a *Application) OpenDocument(id string) error {
	doc, err := a.store.Load(id)
	if err != nil {
		return fmt.Errorf("open document %s: %w", id, err)
	}
	if err := a.editor.SetContent(doc); err != nil {
		return fmt.Errorf("open document %s: %w", id, err)
	}
	if err := a.cursorIntoDoc(); err != nil {
		return err
	}
	a.mu.Lock()
	a.docID = id
	a.mu.Unlock()
	a.logger.Info("document opened", "id", id)
	return nil
}

// SaveDocument persists the current editor content.
func (a *Application) SaveDocument() error {
	a.mu.Lock()
	id := a.docID
	a.mu.Unlock()
	if id == "" {
		return ErrNoDocument
	}
	return a.store.Save(id, a.editor.Doc())
}

// CloseDocument saves and detaches the current document.
func (a *Application) CloseDocument() error {
	if err := a.SaveDocument(); err != nil {
		return err
	}
	a.mu.Lock()
	a.docID = ""
	a.mu.Unlock()
	return nil
}

// Documents lists stored documents, most recently updated first.
func (a *Application) Documents() ([]store.Meta, error) {
	return a.store.List()
}

// DeleteDocument removes a stored document. Deleting the open
// document detaches it first.
func (a *Application) DeleteDocument(id string) error {
	a.mu.Lock()
	if a.docID == id {
		a.docID = ""
	}
	a.mu.Unlock()
	return a.store.Delete(id)
}

// RenameDocument sets a document's title in the manifest.
func (a *Application) RenameDocument(id, title string) error {
	return a.store.Rename(id, title)
}

package main

import (
	"fmt"
	"os"

	"github.com/sketchflow-xyz/go-sketchflow/history"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

// loadDoc reads a document file. A missing file yields an empty document.
func loadDoc(path string) (*scene.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return scene.NewStore(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := scene.FromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return doc, nil
}

// saveDoc writes the document back to its file.
func saveDoc(doc *scene.Store, path string) error {
	data, err := doc.ToJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// openHistory opens a SQLite-backed undo store, or an in-memory one when
// no path is given.
func openHistory(path string) (history.Store, error) {
	if path == "" {
		return history.NewMemoryStore(), nil
	}
	return history.NewSQLiteStore(path)
}

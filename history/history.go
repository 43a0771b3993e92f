// Package history stores undo snapshots of whole documents. The batch
// executor pushes exactly one snapshot per successful batch, taken before
// any working-copy mutation, so popping always restores the document to the
// state just before the most recent batch.
package history

import (
	"errors"

	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

// ErrEmpty is returned when popping from an empty history.
var ErrEmpty = errors.New("undo history is empty")

// Store persists undo snapshots in push/pop order.
type Store interface {
	// Push records a pre-batch document snapshot.
	Push(doc *scene.Store) error

	// Pop removes and returns the most recent snapshot.
	Pop() (*scene.Store, error)

	// Len reports the number of stored snapshots.
	Len() int

	// Close releases any underlying resources.
	Close() error
}

// MemoryStore keeps snapshots in memory. Suitable for a single editor
// session; use SQLiteStore when history must survive restarts.
type MemoryStore struct {
	stack []*scene.Store
}

// NewMemoryStore creates an empty in-memory history.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Push records a snapshot.
func (m *MemoryStore) Push(doc *scene.Store) error {
	m.stack = append(m.stack, doc)
	return nil
}

// Pop removes and returns the most recent snapshot.
func (m *MemoryStore) Pop() (*scene.Store, error) {
	if len(m.stack) == 0 {
		return nil, ErrEmpty
	}
	doc := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return doc, nil
}

// Len reports the number of stored snapshots.
func (m *MemoryStore) Len() int {
	return len(m.stack)
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}

package scene

import "errors"

// Error types for the scene package.
var (
	// ErrNodeNotFound is returned when a node id is not present in the store.
	ErrNodeNotFound = errors.New("node not found")

	// ErrNodeExists is returned when inserting a subtree whose id is already taken.
	ErrNodeExists = errors.New("node id already exists")

	// ErrNotContainer is returned when a child is attached to a non-container node.
	ErrNotContainer = errors.New("node cannot hold children")

	// ErrCycle is returned when a move would place a node inside its own subtree.
	ErrCycle = errors.New("move would create a cycle")
)

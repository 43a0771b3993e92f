// Package layout defines the auto-layout collaborator consumed by the
// mutation engine. The engine never does layout math itself; it hands a
// materialized container to a Solver when the container uses fit_content
// sizing.
package layout

import "github.com/sketchflow-xyz/go-sketchflow/scene"

// Solver arranges the children of a container in place and sizes the
// container around them.
type Solver interface {
	Arrange(container *scene.Tree)
}

// Stack is a minimal vertical-stack solver: children keep their own sizes,
// are placed top to bottom with a fixed gap, and the container shrinks to
// fit. Real editors supply a full box-model solver through the same
// interface.
type Stack struct {
	Gap float64
}

// Arrange lays the container's children out in a vertical stack.
func (s Stack) Arrange(container *scene.Tree) {
	if container == nil || len(container.Children) == 0 {
		return
	}
	y := 0.0
	maxW := 0.0
	for _, child := range container.Children {
		child.Node.X = 0
		child.Node.Y = y
		y += child.Node.Height + s.Gap
		if child.Node.Width > maxW {
			maxW = child.Node.Width
		}
	}
	container.Node.Width = maxW
	container.Node.Height = y - s.Gap
}

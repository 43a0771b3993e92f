package layout_test

import (
	"testing"

	"github.com/sketchflow-xyz/go-sketchflow/layout"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
)

func TestStackArrange(t *testing.T) {
	container := &scene.Tree{
		Node: &scene.Node{ID: "f", Type: scene.KindFrame, Sizing: "fit_content"},
		Children: []*scene.Tree{
			{Node: &scene.Node{ID: "a", Type: scene.KindRect, Width: 30, Height: 10}},
			{Node: &scene.Node{ID: "b", Type: scene.KindRect, Width: 50, Height: 20}},
		},
	}
	layout.Stack{Gap: 8}.Arrange(container)

	if container.Children[0].Node.Y != 0 || container.Children[1].Node.Y != 18 {
		t.Errorf("unexpected child offsets %g, %g",
			container.Children[0].Node.Y, container.Children[1].Node.Y)
	}
	if container.Node.Width != 50 || container.Node.Height != 38 {
		t.Errorf("expected container 50x38, got %gx%g",
			container.Node.Width, container.Node.Height)
	}
}

func TestStackArrangeEmpty(t *testing.T) {
	container := &scene.Tree{Node: &scene.Node{ID: "f", Type: scene.KindFrame, Width: 7}}
	layout.Stack{}.Arrange(container)
	if container.Node.Width != 7 {
		t.Error("empty container must be left alone")
	}
	layout.Stack{}.Arrange(nil)
}

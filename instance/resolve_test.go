package instance_test

import (
	"reflect"
	"testing"

	"github.com/sketchflow-xyz/go-sketchflow/instance"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/theme"
)

// cardStore builds a store with a reusable "card" frame (a rect and a
// nested frame holding a text) plus one detached-style instance node.
func cardStore(t *testing.T) (*scene.Store, *scene.Node) {
	t.Helper()
	s := scene.NewStore()
	comp := map[string]any{
		"id": "card", "type": "frame", "reusable": true, "width": 200, "height": 120, "fill": "#eee",
		"children": []any{
			map[string]any{"id": "icon", "type": "rect", "width": 24, "height": 24, "fill": "#000"},
			map[string]any{"id": "body", "type": "frame", "children": []any{
				map[string]any{"id": "label", "type": "text", "content": "Card", "fontSize": 12},
			}},
		},
	}
	tr, err := scene.FromMap(comp)
	if err != nil {
		t.Fatalf("building component: %v", err)
	}
	if err := s.Insert(tr, ""); err != nil {
		t.Fatalf("inserting component: %v", err)
	}
	inst := &scene.Node{ID: "inst", Type: scene.KindRef, ComponentID: "card", X: 50, Y: 60}
	if err := s.Insert(&scene.Tree{Node: inst}, ""); err != nil {
		t.Fatalf("inserting instance: %v", err)
	}
	return s, inst
}

func TestResolveBasic(t *testing.T) {
	s, inst := cardStore(t)
	got := instance.Resolve(s, inst)
	if got == nil {
		t.Fatal("expected a resolved tree")
	}
	if got.Node.ID != "inst" || got.Node.Type != scene.KindFrame {
		t.Errorf("expected instance id with component type, got %s/%s", got.Node.ID, got.Node.Type)
	}
	if got.Node.Reusable {
		t.Error("resolved instance must not itself be a component")
	}
	if got.Node.X != 50 || got.Node.Y != 60 {
		t.Errorf("placement must come from the instance, got %g,%g", got.Node.X, got.Node.Y)
	}
	if got.Node.Width != 200 || got.Node.Fill != "#eee" {
		t.Error("unset instance fields must inherit component defaults")
	}
	if len(got.Children) != 2 || got.Children[0].Node.ID != "icon" {
		t.Fatalf("expected component children in order, got %+v", got.Children)
	}
	if got.Children[1].Children[0].Node.Content != "Card" {
		t.Error("nested component content missing")
	}
}

func TestResolveInstanceWins(t *testing.T) {
	s, inst := cardStore(t)
	inst.Width = 300
	inst.Fill = "#f00"
	got := instance.Resolve(s, inst)
	if got.Node.Width != 300 || got.Node.Fill != "#f00" {
		t.Errorf("instance props must win: %g / %s", got.Node.Width, got.Node.Fill)
	}
	if got.Node.Height != 120 {
		t.Error("untouched fields must keep component defaults")
	}
}

func TestResolveOverrides(t *testing.T) {
	s, inst := cardStore(t)
	inst.Overrides = map[string]*scene.Override{
		"icon": {Props: map[string]any{"fill": "#fff"}},
		"body": {Descendants: map[string]*scene.Override{
			"label": {Props: map[string]any{"content": "Hello"}},
		}},
	}

	got := instance.Resolve(s, inst)
	if got.Children[0].Node.Fill != "#fff" {
		t.Errorf("descendant override not applied: %s", got.Children[0].Node.Fill)
	}
	if got.Children[1].Children[0].Node.Content != "Hello" {
		t.Error("nested descendant override not applied")
	}

	t.Run("ComponentUntouched", func(t *testing.T) {
		if s.Get("icon").Fill != "#000" || s.Get("label").Content != "Card" {
			t.Error("resolution leaked overrides into the shared component")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		again := instance.Resolve(s, inst)
		a := scene.TreeView(got)
		b := scene.TreeView(again)
		if !reflect.DeepEqual(a, b) {
			t.Error("resolving twice produced different trees")
		}
	})
}

func TestResolveSlots(t *testing.T) {
	s, inst := cardStore(t)
	slot, err := scene.FromMap(map[string]any{"id": "swap", "type": "ellipse", "width": 40, "height": 40})
	if err != nil {
		t.Fatalf("building slot content: %v", err)
	}
	inst.Slots = map[string]*scene.Tree{"icon": slot}
	// An override addressed at a substituted child is dead; substitution wins.
	inst.Overrides = map[string]*scene.Override{"icon": {Props: map[string]any{"fill": "#123"}}}

	got := instance.Resolve(s, inst)
	first := got.Children[0].Node
	if first.Type != scene.KindEllipse || first.Width != 40 {
		t.Errorf("slot substitution not applied, got %s/%g", first.Type, first.Width)
	}
	if first.Fill == "#123" {
		t.Error("override must not apply to substituted slot content")
	}
	if s.Get("icon").Type != scene.KindRect {
		t.Error("substitution leaked into the shared component")
	}
}

func TestResolveNestedRef(t *testing.T) {
	s := scene.NewStore()
	inner := map[string]any{
		"id": "inner", "type": "frame", "reusable": true, "width": 10,
		"children": []any{map[string]any{"id": "dot", "type": "rect", "width": 2}},
	}
	outer := map[string]any{
		"id": "outer", "type": "frame", "reusable": true,
		"children": []any{map[string]any{"id": "use", "type": "ref", "componentId": "inner"}},
	}
	for _, m := range []map[string]any{inner, outer} {
		tr, err := scene.FromMap(m)
		if err != nil {
			t.Fatalf("building: %v", err)
		}
		if err := s.Insert(tr, ""); err != nil {
			t.Fatalf("inserting: %v", err)
		}
	}
	inst := &scene.Node{ID: "inst", Type: scene.KindRef, ComponentID: "outer"}
	if err := s.Insert(&scene.Tree{Node: inst}, ""); err != nil {
		t.Fatalf("inserting instance: %v", err)
	}

	got := instance.Resolve(s, inst)
	if got == nil || len(got.Children) != 1 {
		t.Fatal("expected one resolved child")
	}
	child := got.Children[0]
	if child.Node.Type != scene.KindFrame || child.Node.Width != 10 {
		t.Errorf("nested instance not expanded, got %s/%g", child.Node.Type, child.Node.Width)
	}
	if len(child.Children) != 1 || child.Children[0].Node.ID != "dot" {
		t.Error("nested instance children missing")
	}
}

func TestResolveCycleDegrades(t *testing.T) {
	s := scene.NewStore()
	comp := map[string]any{
		"id": "loop", "type": "frame", "reusable": true,
		"children": []any{map[string]any{"id": "again", "type": "ref", "componentId": "loop"}},
	}
	tr, err := scene.FromMap(comp)
	if err != nil {
		t.Fatalf("building: %v", err)
	}
	if err := s.Insert(tr, ""); err != nil {
		t.Fatalf("inserting: %v", err)
	}
	inst := &scene.Node{ID: "inst", Type: scene.KindRef, ComponentID: "loop"}
	if err := s.Insert(&scene.Tree{Node: inst}, ""); err != nil {
		t.Fatalf("inserting instance: %v", err)
	}
	// Must terminate; the cyclic tail renders as the unexpanded ref node.
	if got := instance.Resolve(s, inst); got == nil {
		t.Fatal("expected a bounded resolution, got nil")
	}
}

func TestResolveDangling(t *testing.T) {
	s := scene.NewStore()
	inst := &scene.Node{ID: "inst", Type: scene.KindRef, ComponentID: "gone"}
	if err := s.Insert(&scene.Tree{Node: inst}, ""); err != nil {
		t.Fatalf("inserting instance: %v", err)
	}
	if got := instance.Resolve(s, inst); got != nil {
		t.Errorf("expected nil for dangling component id, got %+v", got)
	}
	if got := instance.Resolve(s, s.Get("nope")); got != nil {
		t.Error("expected nil for missing node")
	}
}

func TestResolveThemeBindings(t *testing.T) {
	s, inst := cardStore(t)
	s.Get("icon").FillRef = "$accent"
	r := instance.Resolver{Themes: theme.NewStatic(map[string]string{"accent": "#00f"})}
	got := r.Resolve(s, inst)
	icon := got.Children[0].Node
	if icon.Fill != "#00f" {
		t.Errorf("expected binding resolved to #00f, got %s", icon.Fill)
	}
	if icon.FillRef != "$accent" {
		t.Error("binding itself must stay on the node")
	}
}

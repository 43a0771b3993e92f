// Package instance computes the effective subtree of a component instance.
// Resolution is a pure overlay: component defaults, then per-descendant
// override patches, then instance-level properties, with slot substitutions
// replacing whole component subtrees. The shared component is never touched.
package instance

import (
	"github.com/sketchflow-xyz/go-sketchflow/layout"
	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/theme"
)

// maxDepth bounds nested instance resolution so a component cycle degrades
// to an empty render instead of unbounded recursion.
const maxDepth = 16

// Resolver resolves instances against a store. The zero value works; theme
// and layout collaborators are optional.
type Resolver struct {
	Themes      theme.Resolver
	ActiveTheme string
	Layout      layout.Solver
}

// Resolve computes the effective rendered subtree for a ref node.
// Returns nil when the component id is dangling: the instance renders as
// empty, which is a valid document state and never an error.
func Resolve(st *scene.Store, ref *scene.Node) *scene.Tree {
	var r Resolver
	return r.Resolve(st, ref)
}

// Resolve computes the effective rendered subtree for a ref node.
func (r *Resolver) Resolve(st *scene.Store, ref *scene.Node) *scene.Tree {
	if ref == nil || ref.Type != scene.KindRef {
		return nil
	}
	return r.resolveRef(st, ref, 0)
}

func (r *Resolver) resolveRef(st *scene.Store, ref *scene.Node, depth int) *scene.Tree {
	if depth > maxDepth {
		return nil
	}
	comp := st.Component(ref.ComponentID)
	if comp == nil {
		return nil
	}

	top := comp.Clone()
	top.ID = ref.ID
	top.Reusable = false
	r.mergeInstanceProps(top, ref)

	t := &scene.Tree{Node: top}
	for _, cid := range st.Children[comp.ID] {
		if child := r.resolveDescendant(st, ref.Slots, ref.Overrides, cid, depth); child != nil {
			t.Children = append(t.Children, child)
		}
	}

	r.finalizeNode(top)
	r.arrange(t)
	return t
}

// resolveDescendant applies the two-step rule for one component-side child:
// slot substitution wins outright, otherwise the matching override patch is
// applied and the rule recurses through the nested descendants sub-map.
func (r *Resolver) resolveDescendant(st *scene.Store, slots map[string]*scene.Tree, overrides map[string]*scene.Override, cid string, depth int) *scene.Tree {
	if slot, ok := slots[cid]; ok {
		// Substitution is total: the slot's subtree replaces the
		// component child, and any override addressed at it is ignored.
		return r.finalizeSubtree(st, slot.Clone(), depth)
	}

	n := st.Get(cid)
	if n == nil {
		return nil
	}
	eff := n.Clone()
	ov := overrides[cid]
	if ov != nil && len(ov.Props) > 0 {
		scene.ApplyPatch(eff, ov.Props)
	}

	if eff.Type == scene.KindRef {
		if rt := r.resolveRef(st, eff, depth+1); rt != nil {
			return rt
		}
		return &scene.Tree{Node: eff}
	}

	t := &scene.Tree{Node: eff}
	var childOverrides map[string]*scene.Override
	if ov != nil {
		childOverrides = ov.Descendants
	}
	for _, gcid := range st.Children[cid] {
		if child := r.resolveDescendant(st, slots, childOverrides, gcid, depth); child != nil {
			t.Children = append(t.Children, child)
		}
	}

	r.finalizeNode(eff)
	r.arrange(t)
	return t
}

// finalizeSubtree walks caller-supplied content (slot substitutions),
// resolving any nested refs and theme bindings it contains.
func (r *Resolver) finalizeSubtree(st *scene.Store, t *scene.Tree, depth int) *scene.Tree {
	if t.Node.Type == scene.KindRef {
		if rt := r.resolveRef(st, t.Node, depth+1); rt != nil {
			return rt
		}
		return &scene.Tree{Node: t.Node}
	}
	for i, c := range t.Children {
		t.Children[i] = r.finalizeSubtree(st, c, depth)
	}
	r.finalizeNode(t.Node)
	r.arrange(t)
	return t
}

// mergeInstanceProps overlays instance-level properties onto the component
// defaults: instance wins over component, component wins over nothing.
// Placement (position, rotation, flips) always comes from the instance.
func (r *Resolver) mergeInstanceProps(top, ref *scene.Node) {
	top.X = ref.X
	top.Y = ref.Y
	top.Rotation = ref.Rotation
	top.FlipX = ref.FlipX
	top.FlipY = ref.FlipY

	if ref.Name != "" {
		top.Name = ref.Name
	}
	if ref.Width != 0 {
		top.Width = ref.Width
	}
	if ref.Height != 0 {
		top.Height = ref.Height
	}
	if ref.Fill != "" {
		top.Fill = ref.Fill
	}
	if ref.FillRef != "" {
		top.FillRef = ref.FillRef
	}
	if ref.Stroke != "" {
		top.Stroke = ref.Stroke
	}
	if ref.StrokeRef != "" {
		top.StrokeRef = ref.StrokeRef
	}
	if ref.StrokeWidth != 0 {
		top.StrokeWidth = ref.StrokeWidth
	}
	if ref.Opacity != nil {
		v := *ref.Opacity
		top.Opacity = &v
	}
	if ref.Visible != nil {
		v := *ref.Visible
		top.Visible = &v
	}
	if ref.Enabled != nil {
		v := *ref.Enabled
		top.Enabled = &v
	}
	if ref.Sizing != "" {
		top.Sizing = ref.Sizing
	}
}

// finalizeNode resolves a fill binding to a concrete snapshot value for the
// active theme. The binding itself stays on the node.
func (r *Resolver) finalizeNode(n *scene.Node) {
	if r.Themes == nil {
		return
	}
	if n.FillRef != "" {
		if v, ok := r.Themes.Resolve(n.FillRef, r.ActiveTheme); ok {
			n.Fill = v
		}
	}
	if n.StrokeRef != "" {
		if v, ok := r.Themes.Resolve(n.StrokeRef, r.ActiveTheme); ok {
			n.Stroke = v
		}
	}
}

// arrange hands fit_content containers to the layout solver.
func (r *Resolver) arrange(t *scene.Tree) {
	if r.Layout == nil || t.Node.Sizing != "fit_content" || !t.Node.Type.IsContainer() {
		return
	}
	r.Layout.Arrange(t)
}

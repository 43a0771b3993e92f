package batch

import (
	"fmt"
	"strings"

	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/script"
	"github.com/sketchflow-xyz/go-sketchflow/theme"
)

// applyInsert handles I(parent, nodeData): build a subtree from the data
// and splice it under the resolved parent, or into an instance slot when
// the parent is a slash path.
func (e *Executor) applyInsert(ctx *execContext, op *script.Op) error {
	if len(op.Args) != 2 {
		return fmt.Errorf("%w: I(parent, nodeData)", ErrBadArity)
	}
	base, path, err := resolveTarget(ctx, op.Args[0])
	if err != nil {
		return err
	}
	obj, err := objArg(op, 1)
	if err != nil {
		return err
	}
	tree, err := scene.FromMap(obj)
	if err != nil {
		return err
	}
	e.mapBindingsTree(tree)

	if len(path) > 0 {
		if err := installSlotChild(ctx, base, path, tree); err != nil {
			return err
		}
	} else {
		if err := ctx.work.Insert(tree, base); err != nil {
			return err
		}
		ctx.created = append(ctx.created, tree.Node.ID)
	}
	bind(ctx, op, tree.Node.ID)
	return nil
}

// applyCopy handles C(source, parent, patch?, direction?, gap?): deep-clone
// the source subtree with fresh ids, optionally patch and auto-place the
// clone, and splice it in like an insert.
func (e *Executor) applyCopy(ctx *execContext, op *script.Op) error {
	if len(op.Args) < 2 || len(op.Args) > 5 {
		return fmt.Errorf("%w: C(source, parent, patch?, direction?, gap?)", ErrBadArity)
	}
	srcID, err := resolveNode(ctx, op.Args[0])
	if err != nil {
		return err
	}
	src := ctx.work.Get(srcID)
	parent, ppath, err := resolveTarget(ctx, op.Args[1])
	if err != nil {
		return err
	}
	if len(ppath) > 0 {
		return fmt.Errorf("C: parent cannot be a slot path")
	}

	tree, idMap := cloneFresh(ctx.work.BuildNode(srcID))

	if len(op.Args) > 3 {
		dir, err := strArg(op, 3)
		if err != nil {
			return err
		}
		gap := 20.0
		if len(op.Args) > 4 {
			if op.Args[4].Kind != script.ArgNumber {
				return fmt.Errorf("%w: C gap must be a number", ErrBadArity)
			}
			gap = op.Args[4].Num
		}
		if err := autoPlace(tree.Node, src, dir, gap); err != nil {
			return err
		}
	}

	if len(op.Args) > 2 && op.Args[2].Kind != script.ArgNull {
		patch, err := objArg(op, 2)
		if err != nil {
			return err
		}
		e.applyClonePatch(tree, idMap, patch)
	}

	if err := ctx.work.Insert(tree, parent); err != nil {
		return err
	}
	ctx.created = append(ctx.created, tree.Node.ID)
	bind(ctx, op, tree.Node.ID)
	return nil
}

// applyClonePatch applies a direct property patch to a clone's root and
// per-descendant patches remapped through the old-to-new id map. For a
// cloned instance the descendant keys address the shared component, so
// they merge into the clone's override map unremapped.
func (e *Executor) applyClonePatch(tree *scene.Tree, idMap map[string]string, patch map[string]any) {
	direct := make(map[string]any, len(patch))
	var descendants map[string]any
	for k, v := range patch {
		if k == "descendants" {
			descendants, _ = v.(map[string]any)
			continue
		}
		direct[k] = v
	}
	scene.ApplyPatch(tree.Node, direct)
	e.mapBindings(tree.Node)

	for oldID, raw := range descendants {
		dp, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if tree.Node.Type == scene.KindRef {
			scene.SetDescendantOverride(tree.Node, []string{oldID}, dp)
			continue
		}
		if target := findInTree(tree, idMap[oldID]); target != nil {
			scene.ApplyPatch(target.Node, dp)
			e.mapBindings(target.Node)
		}
	}
}

// applyUpdate handles U(path, patch): a slash path merges the patch into an
// instance's override map; a plain path patches the node directly.
func (e *Executor) applyUpdate(ctx *execContext, op *script.Op) error {
	if len(op.Args) != 2 {
		return fmt.Errorf("%w: U(path, patch)", ErrBadArity)
	}
	base, path, err := resolveTarget(ctx, op.Args[0])
	if err != nil {
		return err
	}
	patch, err := objArg(op, 1)
	if err != nil {
		return err
	}

	n := ctx.work.Get(base)
	if n == nil {
		return fmt.Errorf("U: %s: %w", base, ErrUnresolvedRef)
	}

	if len(path) > 0 {
		if n.Type != scene.KindRef {
			return fmt.Errorf("U: %s: %w", base, ErrNotInstance)
		}
		scene.SetDescendantOverride(n, path, patch)
		return nil
	}

	scene.ApplyPatch(n, patch)
	e.mapBindings(n)
	if n.Type == scene.KindText {
		remeasureText(n, patch)
	}
	return nil
}

// applyReplace handles R(path, nodeData): a slash path installs a slot
// substitution on an instance; a plain path swaps the node's whole subtree
// in place.
func (e *Executor) applyReplace(ctx *execContext, op *script.Op) error {
	if len(op.Args) != 2 {
		return fmt.Errorf("%w: R(path, nodeData)", ErrBadArity)
	}
	base, path, err := resolveTarget(ctx, op.Args[0])
	if err != nil {
		return err
	}
	obj, err := objArg(op, 1)
	if err != nil {
		return err
	}
	tree, err := scene.FromMap(obj)
	if err != nil {
		return err
	}
	e.mapBindingsTree(tree)

	if len(path) > 0 {
		if len(path) > 1 {
			return fmt.Errorf("R: nested slot path %q not supported", strings.Join(path, "/"))
		}
		n := ctx.work.Get(base)
		if n == nil {
			return fmt.Errorf("R: %s: %w", base, ErrUnresolvedRef)
		}
		if n.Type != scene.KindRef {
			return fmt.Errorf("R: %s: %w", base, ErrNotInstance)
		}
		if n.Slots == nil {
			n.Slots = make(map[string]*scene.Tree)
		}
		n.Slots[path[0]] = tree
	} else {
		if ctx.work.Get(base) == nil {
			return fmt.Errorf("R: %s: %w", base, ErrUnresolvedRef)
		}
		if err := ctx.work.Replace(base, tree); err != nil {
			return err
		}
		ctx.created = append(ctx.created, tree.Node.ID)
	}
	bind(ctx, op, tree.Node.ID)
	return nil
}

// applyMove handles M(node, parent, index?).
func (e *Executor) applyMove(ctx *execContext, op *script.Op) error {
	if len(op.Args) < 2 || len(op.Args) > 3 {
		return fmt.Errorf("%w: M(node, parent, index?)", ErrBadArity)
	}
	id, err := resolveNode(ctx, op.Args[0])
	if err != nil {
		return err
	}
	parent, ppath, err := resolveTarget(ctx, op.Args[1])
	if err != nil {
		return err
	}
	if len(ppath) > 0 {
		return fmt.Errorf("M: parent cannot be a slot path")
	}
	index := -1
	if len(op.Args) == 3 && op.Args[2].Kind != script.ArgNull {
		if op.Args[2].Kind != script.ArgNumber {
			return fmt.Errorf("%w: M index must be a number", ErrBadArity)
		}
		index = int(op.Args[2].Num)
	}
	if err := ctx.work.Move(id, parent, index); err != nil {
		return err
	}
	bind(ctx, op, id)
	return nil
}

// applyDelete handles D(node).
func (e *Executor) applyDelete(ctx *execContext, op *script.Op) error {
	if len(op.Args) != 1 {
		return fmt.Errorf("%w: D(node)", ErrBadArity)
	}
	id, err := resolveNode(ctx, op.Args[0])
	if err != nil {
		return err
	}
	return ctx.work.Remove(id)
}

// applyGenerate handles G(node, kind, prompt): a stub that stamps a
// placeholder image reference and a derived name on the target and records
// a notice. The stub itself never fails the batch.
func (e *Executor) applyGenerate(ctx *execContext, op *script.Op) error {
	if len(op.Args) != 3 {
		return fmt.Errorf("%w: G(node, kind, prompt)", ErrBadArity)
	}
	id, err := resolveNode(ctx, op.Args[0])
	if err != nil {
		return err
	}
	kind, err := strArg(op, 1)
	if err != nil {
		return err
	}
	prompt, err := strArg(op, 2)
	if err != nil {
		return err
	}

	n := ctx.work.Get(id)
	n.ImageRef = fmt.Sprintf("placeholder://%s/%s", kind, id)
	if name := deriveName(prompt); name != "" {
		n.Name = name
	}
	ctx.issues = append(ctx.issues, fmt.Sprintf(
		"line %d: image generation is stubbed; node %s received a placeholder for %q", op.Line, id, prompt))
	bind(ctx, op, id)
	return nil
}

// installSlotChild appends a built subtree into an instance's slot content,
// or installs it as the slot content when the slot is still empty.
func installSlotChild(ctx *execContext, base string, path []string, tree *scene.Tree) error {
	if len(path) > 1 {
		return fmt.Errorf("I: nested slot path %q not supported", strings.Join(path, "/"))
	}
	n := ctx.work.Get(base)
	if n == nil {
		return fmt.Errorf("I: %s: %w", base, ErrUnresolvedRef)
	}
	if n.Type != scene.KindRef {
		return fmt.Errorf("I: %s: %w", base, ErrNotInstance)
	}
	if n.Slots == nil {
		n.Slots = make(map[string]*scene.Tree)
	}
	if existing, ok := n.Slots[path[0]]; ok {
		existing.Children = append(existing.Children, tree)
	} else {
		n.Slots[path[0]] = tree
	}
	return nil
}

// autoPlace repositions a clone relative to its source in one of four
// directions with a gap.
func autoPlace(clone, src *scene.Node, dir string, gap float64) error {
	switch dir {
	case "right":
		clone.X = src.X + src.Width + gap
		clone.Y = src.Y
	case "left":
		clone.X = src.X - clone.Width - gap
		clone.Y = src.Y
	case "top":
		clone.X = src.X
		clone.Y = src.Y - clone.Height - gap
	case "bottom":
		clone.X = src.X
		clone.Y = src.Y + src.Height + gap
	default:
		return fmt.Errorf("C: unknown placement direction %q", dir)
	}
	return nil
}

// remeasureText re-derives text dimensions after a content or style change,
// unless the patch set explicit dimensions.
func remeasureText(n *scene.Node, patch map[string]any) {
	_, hasContent := patch["content"]
	_, hasSize := patch["fontSize"]
	_, hasFamily := patch["fontFamily"]
	if !hasContent && !hasSize && !hasFamily {
		return
	}
	_, hasW := patch["width"]
	_, hasH := patch["height"]
	if hasW || hasH {
		return
	}
	n.Width, n.Height = scene.MeasureText(n.Content, n.FontSize)
}

// deriveName trims a generation prompt into a short node name.
func deriveName(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ")
}

// mapBindings converts fill/stroke variable references into binding plus
// snapshot pairs. The binding stays the source of truth; the snapshot is
// whatever the active theme resolves it to right now.
func (e *Executor) mapBindings(n *scene.Node) {
	if theme.IsBinding(n.Fill) {
		n.FillRef = n.Fill
		n.Fill = ""
		if e.Themes != nil {
			if v, ok := e.Themes.Resolve(n.FillRef, e.ActiveTheme); ok {
				n.Fill = v
			}
		}
	}
	if theme.IsBinding(n.Stroke) {
		n.StrokeRef = n.Stroke
		n.Stroke = ""
		if e.Themes != nil {
			if v, ok := e.Themes.Resolve(n.StrokeRef, e.ActiveTheme); ok {
				n.Stroke = v
			}
		}
	}
}

func (e *Executor) mapBindingsTree(t *scene.Tree) {
	t.Walk(func(n *scene.Tree) {
		e.mapBindings(n.Node)
	})
}

// bind records the id produced or addressed by a line under its binding
// name, visible to every later line in the same script.
func bind(ctx *execContext, op *script.Op, id string) {
	if op.Binding != "" {
		ctx.bindings[op.Binding] = id
	}
}

package batch

import (
	"fmt"

	"github.com/sketchflow-xyz/go-sketchflow/scene"
	"github.com/sketchflow-xyz/go-sketchflow/script"
)

// resolveTarget resolves a path-bearing argument to a base node id plus any
// slash-path remainder. The base is looked up first among the script's
// bindings (which includes the root sentinel), then as a literal node id in
// the working copy. An empty base addresses the document root.
func resolveTarget(ctx *execContext, arg script.Arg) (string, []string, error) {
	var head string
	var path []string

	switch arg.Kind {
	case script.ArgNull:
		return "", nil, nil
	case script.ArgRef, script.ArgString:
		raw := arg.Ref
		if arg.Kind == script.ArgString {
			raw = arg.Str
		}
		parts := splitPath(raw)
		if len(parts) == 0 {
			return "", nil, fmt.Errorf("empty reference: %w", ErrUnresolvedRef)
		}
		head, path = parts[0], parts[1:]
	case script.ArgConcat:
		head = arg.Ref
		path = splitPath(arg.Suffix)
	default:
		return "", nil, fmt.Errorf("%w: expected a reference, got %s", ErrBadArity, arg.Kind)
	}

	if id, ok := ctx.bindings[head]; ok {
		return id, path, nil
	}
	if ctx.work.Get(head) != nil {
		return head, path, nil
	}
	return "", nil, fmt.Errorf("%q: %w", head, ErrUnresolvedRef)
}

// resolveNode resolves an argument that must name an existing node, with no
// path remainder.
func resolveNode(ctx *execContext, arg script.Arg) (string, error) {
	id, path, err := resolveTarget(ctx, arg)
	if err != nil {
		return "", err
	}
	if len(path) > 0 {
		return "", fmt.Errorf("unexpected slash path on node reference")
	}
	if id == "" {
		return "", fmt.Errorf("document root is not a node: %w", ErrUnresolvedRef)
	}
	if ctx.work.Get(id) == nil {
		return "", fmt.Errorf("%q: %w", id, ErrUnresolvedRef)
	}
	return id, nil
}

// splitPath splits a slash path into non-empty segments.
func splitPath(raw string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '/' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// objArg extracts a required object argument.
func objArg(op *script.Op, i int) (map[string]any, error) {
	if i >= len(op.Args) || op.Args[i].Kind != script.ArgObject {
		return nil, fmt.Errorf("%w: argument %d of %s must be an object", ErrBadArity, i+1, op.Code)
	}
	return op.Args[i].Obj, nil
}

// strArg extracts a string-ish argument: a quoted literal or a bare word.
func strArg(op *script.Op, i int) (string, error) {
	if i >= len(op.Args) {
		return "", fmt.Errorf("%w: argument %d of %s must be a string", ErrBadArity, i+1, op.Code)
	}
	switch op.Args[i].Kind {
	case script.ArgString:
		return op.Args[i].Str, nil
	case script.ArgRef:
		return op.Args[i].Ref, nil
	}
	return "", fmt.Errorf("%w: argument %d of %s must be a string", ErrBadArity, i+1, op.Code)
}

// cloneFresh deep-copies a built subtree, assigning a fresh id to every
// node and returning the old-to-new id map for remapping override paths.
func cloneFresh(src *scene.Tree) (*scene.Tree, map[string]string) {
	idMap := make(map[string]string)
	clone := src.Clone()
	clone.Walk(func(t *scene.Tree) {
		fresh := scene.NewID()
		idMap[t.Node.ID] = fresh
		t.Node.ID = fresh
	})
	return clone, idMap
}

// findInTree locates the subtree whose root has the given id.
func findInTree(t *scene.Tree, id string) *scene.Tree {
	if id == "" {
		return nil
	}
	var found *scene.Tree
	t.Walk(func(n *scene.Tree) {
		if found == nil && n.Node.ID == id {
			found = n
		}
	})
	return found
}

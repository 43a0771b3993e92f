package scene

// View serializes the node at id plus its children, down to depth levels,
// into plain structured data. Children below the cutoff are replaced by the
// "…" marker so callers can tell truncation from emptiness. A negative
// depth means unlimited. Returns nil for a dangling id.
func (s *Store) View(id string, depth int) map[string]any {
	n := s.Nodes[id]
	if n == nil {
		return nil
	}
	out := nodeToMap(n)
	kids := s.Children[id]
	if len(kids) == 0 {
		return out
	}
	if depth == 0 {
		out["children"] = "…"
		return out
	}
	children := make([]any, 0, len(kids))
	for _, cid := range kids {
		if cv := s.View(cid, depth-1); cv != nil {
			children = append(children, cv)
		}
	}
	out["children"] = children
	return out
}

// nodeToMap flattens one node record, omitting zero-valued fields.
func nodeToMap(n *Node) map[string]any {
	out := map[string]any{
		"id":   n.ID,
		"type": string(n.Type),
	}
	if n.Name != "" {
		out["name"] = n.Name
	}
	if n.X != 0 {
		out["x"] = n.X
	}
	if n.Y != 0 {
		out["y"] = n.Y
	}
	if n.Width != 0 {
		out["width"] = n.Width
	}
	if n.Height != 0 {
		out["height"] = n.Height
	}
	if n.Rotation != 0 {
		out["rotation"] = n.Rotation
	}
	if n.FlipX {
		out["flipX"] = true
	}
	if n.FlipY {
		out["flipY"] = true
	}
	if n.Fill != "" {
		out["fill"] = n.Fill
	}
	if n.FillRef != "" {
		out["fillRef"] = n.FillRef
	}
	if n.Stroke != "" {
		out["stroke"] = n.Stroke
	}
	if n.StrokeRef != "" {
		out["strokeRef"] = n.StrokeRef
	}
	if n.StrokeWidth != 0 {
		out["strokeWidth"] = n.StrokeWidth
	}
	if n.Opacity != nil {
		out["opacity"] = *n.Opacity
	}
	if n.Visible != nil {
		out["visible"] = *n.Visible
	}
	if n.Enabled != nil {
		out["enabled"] = *n.Enabled
	}
	if n.Reusable {
		out["reusable"] = true
	}
	if n.Sizing != "" {
		out["sizing"] = n.Sizing
	}
	if n.Content != "" {
		out["content"] = n.Content
	}
	if n.FontSize != 0 {
		out["fontSize"] = n.FontSize
	}
	if n.FontFamily != "" {
		out["fontFamily"] = n.FontFamily
	}
	if n.Points != "" {
		out["points"] = n.Points
	}
	if n.ImageRef != "" {
		out["imageRef"] = n.ImageRef
	}
	if n.ComponentID != "" {
		out["componentId"] = n.ComponentID
	}
	if len(n.Overrides) > 0 {
		desc := make(map[string]any, len(n.Overrides))
		for id, ov := range n.Overrides {
			desc[id] = overrideToMap(ov)
		}
		out["descendants"] = desc
	}
	if len(n.Slots) > 0 {
		slots := make(map[string]any, len(n.Slots))
		for id, t := range n.Slots {
			slots[id] = treeToMap(t)
		}
		out["slotContent"] = slots
	}
	return out
}

func overrideToMap(ov *Override) map[string]any {
	out := make(map[string]any, len(ov.Props)+1)
	for k, v := range ov.Props {
		out[k] = v
	}
	if len(ov.Descendants) > 0 {
		desc := make(map[string]any, len(ov.Descendants))
		for id, d := range ov.Descendants {
			desc[id] = overrideToMap(d)
		}
		out["descendants"] = desc
	}
	return out
}

// TreeView serializes a detached subtree (a resolved instance, slot
// content) at full depth.
func TreeView(t *Tree) map[string]any {
	if t == nil {
		return nil
	}
	return treeToMap(t)
}

// treeToMap serializes a detached subtree (slot content, built nodes) at
// full depth.
func treeToMap(t *Tree) map[string]any {
	out := nodeToMap(t.Node)
	if len(t.Children) > 0 {
		children := make([]any, 0, len(t.Children))
		for _, c := range t.Children {
			children = append(children, treeToMap(c))
		}
		out["children"] = children
	}
	return out
}

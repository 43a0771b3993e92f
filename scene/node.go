// Package scene implements the flat, id-indexed document model for the editor.
// Nodes never hold pointers to their parents or children; all relationships
// live in the Store's side indices, which keeps the graph acyclic and makes
// transactional copy-and-swap commits cheap.
package scene

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind identifies the type of a scene node.
type Kind string

const (
	KindFrame   Kind = "frame"
	KindGroup   Kind = "group"
	KindRect    Kind = "rect"
	KindEllipse Kind = "ellipse"
	KindText    Kind = "text"
	KindPath    Kind = "path"
	KindRef     Kind = "ref" // instance of a reusable frame
)

// IsContainer reports whether nodes of this kind own children.
func (k Kind) IsContainer() bool {
	return k == KindFrame || k == KindGroup
}

// Valid reports whether k is a known node kind.
func (k Kind) Valid() bool {
	switch k {
	case KindFrame, KindGroup, KindRect, KindEllipse, KindText, KindPath, KindRef:
		return true
	}
	return false
}

// Node is one scene element. Child relationships are not stored here; they
// live in the owning Store's Children index.
type Node struct {
	ID   string `json:"id"`
	Type Kind   `json:"type"`
	Name string `json:"name,omitempty"`

	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Rotation float64 `json:"rotation,omitempty"`
	FlipX    bool    `json:"flipX,omitempty"`
	FlipY    bool    `json:"flipY,omitempty"`

	Fill        string   `json:"fill,omitempty"`
	FillRef     string   `json:"fillRef,omitempty"` // variable binding, kept alongside the snapshot value
	Stroke      string   `json:"stroke,omitempty"`
	StrokeRef   string   `json:"strokeRef,omitempty"`
	StrokeWidth float64  `json:"strokeWidth,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	Visible     *bool    `json:"visible,omitempty"`
	Enabled     *bool    `json:"enabled,omitempty"`

	Reusable bool   `json:"reusable,omitempty"` // frame doubles as a component
	Sizing   string `json:"sizing,omitempty"`   // "fixed" or "fit_content"

	Content    string  `json:"content,omitempty"` // text nodes
	FontSize   float64 `json:"fontSize,omitempty"`
	FontFamily string  `json:"fontFamily,omitempty"`

	Points   string `json:"points,omitempty"`   // path nodes
	ImageRef string `json:"imageRef,omitempty"` // placeholder image stamped by generate

	// Instance fields (Type == KindRef only).
	ComponentID string               `json:"componentId,omitempty"`
	Overrides   map[string]*Override `json:"descendants,omitempty"`
	Slots       map[string]*Tree     `json:"slotContent,omitempty"`
}

// Override is a sparse property patch for one descendant inside an instance.
// Nested containers chain through the Descendants sub-map.
type Override struct {
	Props       map[string]any       `json:"props,omitempty"`
	Descendants map[string]*Override `json:"descendants,omitempty"`
}

// Tree is a nested, directly traversable projection of a node and its
// children. It is a read/build convenience, never the system of record.
type Tree struct {
	Node     *Node   `json:"node"`
	Children []*Tree `json:"children,omitempty"`
}

// NewID returns a fresh node id.
func NewID() string {
	return uuid.New().String()
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	out := *n
	if n.Opacity != nil {
		v := *n.Opacity
		out.Opacity = &v
	}
	if n.Visible != nil {
		v := *n.Visible
		out.Visible = &v
	}
	if n.Enabled != nil {
		v := *n.Enabled
		out.Enabled = &v
	}
	if n.Overrides != nil {
		out.Overrides = make(map[string]*Override, len(n.Overrides))
		for k, ov := range n.Overrides {
			out.Overrides[k] = ov.Clone()
		}
	}
	if n.Slots != nil {
		out.Slots = make(map[string]*Tree, len(n.Slots))
		for k, t := range n.Slots {
			out.Slots[k] = t.Clone()
		}
	}
	return &out
}

// Clone returns a deep copy of the override patch.
func (o *Override) Clone() *Override {
	if o == nil {
		return nil
	}
	out := &Override{}
	if o.Props != nil {
		out.Props = make(map[string]any, len(o.Props))
		for k, v := range o.Props {
			out.Props[k] = copyValue(v)
		}
	}
	if o.Descendants != nil {
		out.Descendants = make(map[string]*Override, len(o.Descendants))
		for k, d := range o.Descendants {
			out.Descendants[k] = d.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the whole subtree.
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	out := &Tree{Node: t.Node.Clone()}
	for _, c := range t.Children {
		out.Children = append(out.Children, c.Clone())
	}
	return out
}

// Walk visits the subtree depth-first, parents before children.
func (t *Tree) Walk(visit func(*Tree)) {
	if t == nil {
		return
	}
	visit(t)
	for _, c := range t.Children {
		c.Walk(visit)
	}
}

// copyValue deep-copies the nested map/slice values used in patches.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// FromMap builds a node subtree from permissively-typed structured data,
// the shape produced by the script parser's object literals. A missing id
// is assigned a fresh one; a missing type is an error.
func FromMap(data map[string]any) (*Tree, error) {
	kindStr, _ := data["type"].(string)
	if kindStr == "" {
		return nil, fmt.Errorf("node data missing \"type\"")
	}
	kind := Kind(kindStr)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown node type %q", kindStr)
	}

	n := &Node{ID: NewID(), Type: kind}
	if id, ok := data["id"].(string); ok && id != "" {
		n.ID = id
	}
	ApplyPatch(n, data)

	if n.Type == KindText && n.Width == 0 && n.Height == 0 {
		n.Width, n.Height = MeasureText(n.Content, n.FontSize)
	}

	t := &Tree{Node: n}
	if rawChildren, ok := data["children"].([]any); ok {
		if !kind.IsContainer() {
			return nil, fmt.Errorf("node type %q cannot have children", kindStr)
		}
		for _, rc := range rawChildren {
			cm, ok := rc.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("child of %q must be an object", n.ID)
			}
			child, err := FromMap(cm)
			if err != nil {
				return nil, err
			}
			t.Children = append(t.Children, child)
		}
	}
	return t, nil
}

// ApplyPatch merges a property bag onto the node. Unknown keys and the
// structural keys ("id", "type", "children") are ignored, so a patch can be
// the same object shape that FromMap accepts.
func ApplyPatch(n *Node, patch map[string]any) {
	for key, raw := range patch {
		switch key {
		case "name":
			if s, ok := raw.(string); ok {
				n.Name = s
			}
		case "x":
			if f, ok := asFloat64(raw); ok {
				n.X = f
			}
		case "y":
			if f, ok := asFloat64(raw); ok {
				n.Y = f
			}
		case "width":
			if f, ok := asFloat64(raw); ok {
				n.Width = f
			}
		case "height":
			if f, ok := asFloat64(raw); ok {
				n.Height = f
			}
		case "rotation":
			if f, ok := asFloat64(raw); ok {
				n.Rotation = f
			}
		case "flipX":
			if b, ok := raw.(bool); ok {
				n.FlipX = b
			}
		case "flipY":
			if b, ok := raw.(bool); ok {
				n.FlipY = b
			}
		case "fill":
			if s, ok := raw.(string); ok {
				n.Fill = s
			}
		case "fillRef":
			if s, ok := raw.(string); ok {
				n.FillRef = s
			}
		case "stroke":
			if s, ok := raw.(string); ok {
				n.Stroke = s
			}
		case "strokeRef":
			if s, ok := raw.(string); ok {
				n.StrokeRef = s
			}
		case "strokeWidth":
			if f, ok := asFloat64(raw); ok {
				n.StrokeWidth = f
			}
		case "opacity":
			if f, ok := asFloat64(raw); ok {
				n.Opacity = &f
			}
		case "visible":
			if b, ok := raw.(bool); ok {
				n.Visible = &b
			}
		case "enabled":
			if b, ok := raw.(bool); ok {
				n.Enabled = &b
			}
		case "reusable":
			if b, ok := raw.(bool); ok {
				n.Reusable = b
			}
		case "sizing":
			if s, ok := raw.(string); ok {
				n.Sizing = s
			}
		case "content":
			if s, ok := raw.(string); ok {
				n.Content = s
			}
		case "fontSize":
			if f, ok := asFloat64(raw); ok {
				n.FontSize = f
			}
		case "fontFamily":
			if s, ok := raw.(string); ok {
				n.FontFamily = s
			}
		case "points":
			if s, ok := raw.(string); ok {
				n.Points = s
			}
		case "imageRef":
			if s, ok := raw.(string); ok {
				n.ImageRef = s
			}
		case "componentId":
			if s, ok := raw.(string); ok {
				n.ComponentID = s
			}
		case "descendants":
			if m, ok := raw.(map[string]any); ok {
				if n.Overrides == nil {
					n.Overrides = make(map[string]*Override)
				}
				for id, od := range m {
					if om, ok := od.(map[string]any); ok {
						n.Overrides[id] = overrideFromMap(om)
					}
				}
			}
		case "slotContent", "slots":
			if m, ok := raw.(map[string]any); ok {
				for id, sd := range m {
					sm, ok := sd.(map[string]any)
					if !ok {
						continue
					}
					slot, err := FromMap(sm)
					if err != nil {
						continue
					}
					if n.Slots == nil {
						n.Slots = make(map[string]*Tree)
					}
					n.Slots[id] = slot
				}
			}
		}
	}
}

// overrideFromMap converts a permissive object into an Override, pulling the
// nested "descendants" key out of the property bag.
func overrideFromMap(m map[string]any) *Override {
	ov := &Override{Props: make(map[string]any)}
	for k, v := range m {
		if k == "descendants" {
			if dm, ok := v.(map[string]any); ok {
				ov.Descendants = make(map[string]*Override, len(dm))
				for id, dv := range dm {
					if dvm, ok := dv.(map[string]any); ok {
						ov.Descendants[id] = overrideFromMap(dvm)
					}
				}
			}
			continue
		}
		ov.Props[k] = copyValue(v)
	}
	return ov
}

// SetDescendantOverride merges a property patch into an instance's sparse
// override map at the addressed descendant path, creating intermediate
// levels as needed. The referenced component is never touched.
func SetDescendantOverride(ref *Node, path []string, patch map[string]any) {
	if len(path) == 0 {
		return
	}
	if ref.Overrides == nil {
		ref.Overrides = make(map[string]*Override)
	}
	m := ref.Overrides
	for i, seg := range path {
		if i == len(path)-1 {
			m[seg] = MergeOverride(m[seg], overrideFromMap(patch))
			return
		}
		ov := m[seg]
		if ov == nil {
			ov = &Override{}
			m[seg] = ov
		}
		if ov.Descendants == nil {
			ov.Descendants = make(map[string]*Override)
		}
		m = ov.Descendants
	}
}

// MergeOverride merges src into dst, src winning on conflicts. Nested
// descendant maps merge recursively. Applying the same patch twice is a
// no-op the second time.
func MergeOverride(dst, src *Override) *Override {
	if dst == nil {
		return src.Clone()
	}
	out := dst.Clone()
	if src == nil {
		return out
	}
	if len(src.Props) > 0 && out.Props == nil {
		out.Props = make(map[string]any, len(src.Props))
	}
	for k, v := range src.Props {
		out.Props[k] = copyValue(v)
	}
	for id, child := range src.Descendants {
		if out.Descendants == nil {
			out.Descendants = make(map[string]*Override)
		}
		out.Descendants[id] = MergeOverride(out.Descendants[id], child)
	}
	return out
}

// MeasureText derives box dimensions for a text node from its content.
// Renderers re-measure with real font metrics; this keeps the stored
// geometry plausible for layout until they do.
func MeasureText(content string, fontSize float64) (w, h float64) {
	if fontSize <= 0 {
		fontSize = 14
	}
	lines := strings.Split(content, "\n")
	longest := 0
	for _, line := range lines {
		if len([]rune(line)) > longest {
			longest = len([]rune(line))
		}
	}
	w = float64(longest) * fontSize * 0.6
	h = float64(len(lines)) * fontSize * 1.2
	return w, h
}

// asFloat64 attempts to convert a value to float64.
func asFloat64(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	default:
		return 0, false
	}
}

package scene

import "fmt"

// Store holds the whole document as four parallel, id-keyed indices.
// Relationships are looked up by id only; nothing in the store points at
// anything else directly. Pass the store explicitly into anything that
// reads or mutates the document so transactional copies stay testable.
type Store struct {
	Nodes    map[string]*Node
	Parent   map[string]string // parent id, "" for top-level nodes
	Children map[string][]string
	Roots    []string
}

// NewStore creates an empty document store.
func NewStore() *Store {
	return &Store{
		Nodes:    make(map[string]*Node),
		Parent:   make(map[string]string),
		Children: make(map[string][]string),
	}
}

// Get returns the node for id, or nil if absent.
func (s *Store) Get(id string) *Node {
	return s.Nodes[id]
}

// Component resolves a component id to its reusable frame.
// Returns nil if the id is dangling or the target is not a component;
// callers treat that as "render nothing", not as corruption.
func (s *Store) Component(id string) *Node {
	n := s.Nodes[id]
	if n == nil || n.Type != KindFrame || !n.Reusable {
		return nil
	}
	return n
}

// Insert splices a whole subtree under parentID ("" for root), appending it
// as the last child. Every node in the subtree is registered in one pass.
func (s *Store) Insert(t *Tree, parentID string) error {
	return s.InsertAt(t, parentID, -1)
}

// InsertAt splices a subtree at the given sibling index (-1 appends).
func (s *Store) InsertAt(t *Tree, parentID string, index int) error {
	if parentID != "" {
		parent := s.Nodes[parentID]
		if parent == nil {
			return fmt.Errorf("parent %s: %w", parentID, ErrNodeNotFound)
		}
		if !parent.Type.IsContainer() {
			return fmt.Errorf("parent %s: %w", parentID, ErrNotContainer)
		}
	}
	var dup error
	t.Walk(func(n *Tree) {
		if dup == nil && s.Nodes[n.Node.ID] != nil {
			dup = fmt.Errorf("%s: %w", n.Node.ID, ErrNodeExists)
		}
	})
	if dup != nil {
		return dup
	}
	s.register(t, parentID)
	s.attach(t.Node.ID, parentID, index)
	return nil
}

// register records the subtree in Nodes/Parent/Children without touching
// the parent's own child list.
func (s *Store) register(t *Tree, parentID string) {
	id := t.Node.ID
	s.Nodes[id] = t.Node
	s.Parent[id] = parentID
	childIDs := make([]string, 0, len(t.Children))
	for _, c := range t.Children {
		s.register(c, id)
		childIDs = append(childIDs, c.Node.ID)
	}
	s.Children[id] = childIDs
}

// attach places id into its parent's child list (or Roots) at index.
// Index -1 or anything past the end appends.
func (s *Store) attach(id, parentID string, index int) {
	list := s.Roots
	if parentID != "" {
		list = s.Children[parentID]
	}
	if index < 0 || index > len(list) {
		index = len(list)
	}
	list = append(list, "")
	copy(list[index+1:], list[index:])
	list[index] = id
	if parentID == "" {
		s.Roots = list
	} else {
		s.Children[parentID] = list
	}
	s.Parent[id] = parentID
}

// Detach removes id from its parent's child list (or Roots) but leaves the
// subtree registered. Returns the old sibling index.
func (s *Store) Detach(id string) (int, error) {
	if s.Nodes[id] == nil {
		return 0, fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	parentID := s.Parent[id]
	list := s.Roots
	if parentID != "" {
		list = s.Children[parentID]
	}
	for i, cid := range list {
		if cid == id {
			list = append(list[:i], list[i+1:]...)
			if parentID == "" {
				s.Roots = list
			} else {
				s.Children[parentID] = list
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s not in child list of %q", id, parentID)
}

// Remove deletes id and every transitive descendant from all four indices.
func (s *Store) Remove(id string) error {
	if _, err := s.Detach(id); err != nil {
		return err
	}
	s.removeSubtree(id)
	return nil
}

func (s *Store) removeSubtree(id string) {
	for _, cid := range s.Children[id] {
		s.removeSubtree(cid)
	}
	delete(s.Nodes, id)
	delete(s.Parent, id)
	delete(s.Children, id)
}

// Replace removes the subtree at id and splices t into the same parent at
// the same sibling index, preserving sibling order.
func (s *Store) Replace(id string, t *Tree) error {
	parentID := s.Parent[id]
	idx, err := s.Detach(id)
	if err != nil {
		return err
	}
	s.removeSubtree(id)
	return s.InsertAt(t, parentID, idx)
}

// Move detaches id and re-inserts it under newParent ("" for root) at index.
func (s *Store) Move(id, newParent string, index int) error {
	if s.Nodes[id] == nil {
		return fmt.Errorf("%s: %w", id, ErrNodeNotFound)
	}
	if newParent != "" {
		target := s.Nodes[newParent]
		if target == nil {
			return fmt.Errorf("parent %s: %w", newParent, ErrNodeNotFound)
		}
		if !target.Type.IsContainer() {
			return fmt.Errorf("parent %s: %w", newParent, ErrNotContainer)
		}
		for p := newParent; p != ""; p = s.Parent[p] {
			if p == id {
				return fmt.Errorf("%s into %s: %w", id, newParent, ErrCycle)
			}
		}
	}
	if _, err := s.Detach(id); err != nil {
		return err
	}
	s.attach(id, newParent, index)
	return nil
}

// Clone returns a deep structural copy of all four indices. Working copies
// for batch execution are taken with this; the original is never aliased.
func (s *Store) Clone() *Store {
	out := &Store{
		Nodes:    make(map[string]*Node, len(s.Nodes)),
		Parent:   make(map[string]string, len(s.Parent)),
		Children: make(map[string][]string, len(s.Children)),
		Roots:    append([]string(nil), s.Roots...),
	}
	for id, n := range s.Nodes {
		out.Nodes[id] = n.Clone()
	}
	for id, p := range s.Parent {
		out.Parent[id] = p
	}
	for id, kids := range s.Children {
		out.Children[id] = append([]string(nil), kids...)
	}
	return out
}

// BuildNode materializes the nested tree rooted at id.
// Dangling child ids are skipped, never an error: a reader may hit the
// store between partial edits made elsewhere in the editor.
func (s *Store) BuildNode(id string) *Tree {
	n := s.Nodes[id]
	if n == nil {
		return nil
	}
	t := &Tree{Node: n}
	for _, cid := range s.Children[id] {
		if child := s.BuildNode(cid); child != nil {
			t.Children = append(t.Children, child)
		}
	}
	return t
}

// BuildTree materializes nested trees for the given root ids.
func (s *Store) BuildTree(ids []string) []*Tree {
	out := make([]*Tree, 0, len(ids))
	for _, id := range ids {
		if t := s.BuildNode(id); t != nil {
			out = append(out, t)
		}
	}
	return out
}

// Check verifies referential integrity of the four indices: every child id
// resolves and points back at its owner, no id is owned twice, and nothing
// reachable is missing from Nodes.
func (s *Store) Check() error {
	owned := make(map[string]string)
	verify := func(owner string, kids []string) error {
		for _, cid := range kids {
			if s.Nodes[cid] == nil {
				return fmt.Errorf("child %s of %q: %w", cid, owner, ErrNodeNotFound)
			}
			if prev, ok := owned[cid]; ok {
				return fmt.Errorf("%s owned by both %q and %q", cid, prev, owner)
			}
			owned[cid] = owner
			if s.Parent[cid] != owner {
				return fmt.Errorf("%s: parent index says %q, child list says %q", cid, s.Parent[cid], owner)
			}
		}
		return nil
	}
	if err := verify("", s.Roots); err != nil {
		return err
	}
	for id, kids := range s.Children {
		if s.Nodes[id] == nil {
			return fmt.Errorf("children index entry %s: %w", id, ErrNodeNotFound)
		}
		if err := verify(id, kids); err != nil {
			return err
		}
	}
	return nil
}

// Equal reports whether two stores hold identical indices. Used by tests
// to prove a rolled-back batch left the primary store untouched.
func Equal(a, b *Store) bool {
	if len(a.Nodes) != len(b.Nodes) || len(a.Roots) != len(b.Roots) {
		return false
	}
	for i, id := range a.Roots {
		if b.Roots[i] != id {
			return false
		}
	}
	for id := range a.Nodes {
		if b.Nodes[id] == nil {
			return false
		}
		if a.Parent[id] != b.Parent[id] {
			return false
		}
		ak, bk := a.Children[id], b.Children[id]
		if len(ak) != len(bk) {
			return false
		}
		for i := range ak {
			if ak[i] != bk[i] {
				return false
			}
		}
	}
	return true
}

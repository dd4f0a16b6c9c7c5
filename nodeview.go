package vault

import (
	"sync/atomic"

	"vault/concurrent"
)

// NodeView is an overlay node: it observes zero or more underlying Nodes
// (normally one per loaded volume that has a node at this path) and
// mirrors their subnode structure, resolving name collisions among
// observed nodes by descending volume priority.
type NodeView struct {
	name     string
	fullPath string
	depth    int
	parent   *NodeView

	subviews *concurrent.StripedMap[string, *NodeView]
	nodes    *concurrent.SortedList[*Node]

	expired atomic.Bool
}

func newNodeView(name, fullPath string, depth int, parent *NodeView) *NodeView {
	return &NodeView{
		name:     name,
		fullPath: fullPath,
		depth:    depth,
		parent:   parent,
		subviews: concurrent.NewStripedMapN[string, *NodeView](stripedMapBuckets, hashName),
		nodes:    concurrent.NewSortedList(nodeLess),
	}
}

// nodeLess orders a view's observed nodes by (priority DESC, identity):
// the node with the highest owning-volume priority is always Front().
func nodeLess(a, b *Node) bool {
	if a.volumePriority != b.volumePriority {
		return a.volumePriority > b.volumePriority
	}
	return a.id > b.id
}

// Name returns the view's own path segment.
func (v *NodeView) Name() string { return v.name }

// Path returns the absolute dotted path from the vault root.
func (v *NodeView) Path() string { return v.fullPath }

// Depth returns the view's distance from the vault's synthetic root.
func (v *NodeView) Depth() int { return v.depth }

// Expired reports whether the view has been torn down, by an unload or by
// the deletion of its last observed node. The vault's synthetic root
// observes no nodes and is never expired.
func (v *NodeView) Expired() bool { return v.expired.Load() }

// primary returns the highest-priority observed node, if any.
func (v *NodeView) primary() (*Node, bool) {
	return v.nodes.Front()
}

// CreateSubnode creates the node view at path, creating the matching
// subview chain and the underlying node(s) as needed. If a subview already
// exists for the first segment, the call recurses into it; otherwise a
// node is created on the primary observed node, and the resulting
// on_create_subnode callback (fired synchronously, before this call
// returns) builds the matching subview.
func (v *NodeView) CreateSubnode(path string) (*NodeView, bool) {
	p := NewPath(path)
	if !p.Valid() || v.expired.Load() {
		return nil, false
	}
	return v.createAlongPath(p)
}

func (v *NodeView) createAlongPath(p Path) (*NodeView, bool) {
	name, _ := p.Front()

	if sub, ok := v.subviews.Find(name); ok && !sub.expired.Load() {
		if p.Composite() {
			return sub.createAlongPath(p.PopFront())
		}
		return sub, true
	}

	primary, ok := v.primary()
	if !ok {
		return nil, false
	}
	if _, ok := primary.CreateSubnode(name); !ok {
		return nil, false
	}

	sub, ok := v.subviews.Find(name)
	if !ok {
		return nil, false
	}

	if p.Composite() {
		return sub.createAlongPath(p.PopFront())
	}
	return sub, true
}

// OpenSubnode descends through subviews, returning the view at path's end.
func (v *NodeView) OpenSubnode(path string) (*NodeView, bool) {
	p := NewPath(path)
	if !p.Valid() || v.expired.Load() {
		return nil, false
	}
	return v.openAlongPath(p)
}

func (v *NodeView) openAlongPath(p Path) (*NodeView, bool) {
	name, _ := p.Front()
	sub, ok := v.subviews.Find(name)
	if !ok || sub.expired.Load() {
		return nil, false
	}
	if p.Composite() {
		return sub.openAlongPath(p.PopFront())
	}
	return sub, true
}

// LoadSubnodeTree attaches node (and, recursively, its whole live subtree)
// to v: it creates a subview named after node, recursively loads node's
// subnodes into that subview first, and only then pushes node into the
// subview's observed-nodes list and registers the subview as node's
// observer — so node's own children are fully mirrored before node itself
// becomes observable through the new subview. If any recursive step fails,
// the partially-built subview is torn down.
func (v *NodeView) LoadSubnodeTree(node *Node) (*NodeView, bool) {
	if v.expired.Load() || node == nil || node.Deleted() {
		return nil, false
	}
	if v.depth+1 > vaultMaxDepth {
		return nil, false
	}

	name := node.Name()
	sub, ok := v.subviews.FindOrInsertWithLimit(name, newNodeView(name, v.fullPath+"."+name, v.depth+1, v), maxSubviews)
	if !ok {
		return nil, false
	}
	sub.expired.Store(false)

	for _, childName := range node.SubnodeNames() {
		child, ok := node.OpenSubnode(childName)
		if !ok {
			continue
		}
		if _, ok := sub.LoadSubnodeTree(child); !ok {
			v.UnloadSubnodeTree(name)
			return nil, false
		}
	}

	sub.nodes.Push(node)
	node.RegisterObserver(sub)
	return sub, true
}

// UnloadSubnodeTree marks the named subview (and every descendant) expired
// and unregisters it from every node it observes, without deleting the
// underlying volume data. Returns false if no such subview exists.
func (v *NodeView) UnloadSubnodeTree(name string) bool {
	sub, ok := v.subviews.Find(name)
	if !ok {
		return false
	}
	sub.unloadSelf()
	v.subviews.Erase(name)
	return true
}

// UnloadSubnodeTreeAll unloads every direct subview of v.
func (v *NodeView) UnloadSubnodeTreeAll() bool {
	any := false
	for _, name := range v.subviews.Keys() {
		if v.UnloadSubnodeTree(name) {
			any = true
		}
	}
	return any
}

func (v *NodeView) unloadSelf() {
	for _, name := range v.subviews.Keys() {
		if sub, ok := v.subviews.Find(name); ok {
			sub.unloadSelf()
		}
	}
	v.nodes.ForEach(func(n *Node) {
		n.UnregisterObserver(v)
	})
	v.nodes.RemoveIf(func(*Node) bool { return true })
	v.expired.Store(true)
}

// DeleteSubviewTree issues delete_subnode_tree(name) on every node v
// observes; the resulting on_delete_subnode callbacks prune the
// corresponding subview(s) on this and every sibling view. Returns true if
// any observed node actually deleted a child by that name.
func (v *NodeView) DeleteSubviewTree(name string) bool {
	deletedAny := false
	v.nodes.ForEach(func(n *Node) {
		if n.DeleteSubnodeTree(name) {
			deletedAny = true
		}
	})
	return deletedAny
}

// DeleteSubviewTreeAll issues delete_subnode_tree() on every observed node,
// removing every child of every observed node.
func (v *NodeView) DeleteSubviewTreeAll() {
	v.nodes.ForEach(func(n *Node) {
		n.DeleteAllSubnodeTrees()
	})
}

// SetValue writes to the primary (highest-priority) observed node only.
func (v *NodeView) SetValue(name string, val Value) bool {
	primary, ok := v.primary()
	if !ok {
		return false
	}
	return primary.SetValue(name, val)
}

// GetValue returns the first matching value found scanning observed nodes
// from highest to lowest priority.
func (v *NodeView) GetValue(name string) (Value, bool) {
	result, found := v.nodes.FindFirstIf(func(n *Node) bool {
		_, ok := n.GetValue(name)
		return ok
	})
	if !found {
		return Value{}, false
	}
	return result.GetValue(name)
}

// GetValueKind returns the kind of the first matching value, scanning
// observed nodes from highest to lowest priority.
func (v *NodeView) GetValueKind(name string) (Kind, bool) {
	val, ok := v.GetValue(name)
	if !ok {
		return 0, false
	}
	return val.Kind(), true
}

// DeleteValue deletes the named attribute from the first observed node
// that has it.
func (v *NodeView) DeleteValue(name string) bool {
	deleted := false
	v.nodes.ForEach(func(n *Node) {
		if deleted {
			return
		}
		if n.DeleteValue(name) {
			deleted = true
		}
	})
	return deleted
}

// DeleteValues deletes every attribute from every observed node.
func (v *NodeView) DeleteValues() int {
	total := 0
	v.nodes.ForEach(func(n *Node) {
		total += n.DeleteValues()
	})
	return total
}

// ForEachSubnode applies f to every live direct subview.
func (v *NodeView) ForEachSubnode(f func(name string, sub *NodeView)) {
	v.subviews.ForEach(f)
}

// ForEachValue merges the attributes of every observed node into a
// name -> Value map (higher priority wins on collision, since nodes is
// walked highest-priority first and map writes only happen on first sight)
// and dispatches f over the merged result. Must not be called while any
// caller-held lock from a concurrent ForEachSubnode on the same view is
// still held — the two traversals lock in incompatible orders (§5).
func (v *NodeView) ForEachValue(f func(name string, val Value)) {
	merged := make(map[string]Value)
	v.nodes.ForEach(func(n *Node) {
		n.ForEachValue(func(name string, val Value) {
			if _, seen := merged[name]; !seen {
				merged[name] = val
			}
		})
	})
	for name, val := range merged {
		f(name, val)
	}
}

// SubviewNames returns a snapshot of direct subview names.
func (v *NodeView) SubviewNames() []string {
	return v.subviews.Keys()
}

// onCreateSubnode is the observer callback fired by an observed Node when
// it gains a direct child. It finds-or-inserts the matching subview, pushes
// subnode into its observed-nodes list, and registers the subview as an
// observer on subnode.
func (v *NodeView) onCreateSubnode(subnode *Node) {
	name := subnode.Name()
	sub, ok := v.subviews.FindOrInsertWithLimit(name, newNodeView(name, v.fullPath+"."+name, v.depth+1, v), maxSubviews)
	if !ok {
		return
	}
	sub.expired.Store(false)
	sub.nodes.Push(subnode)
	subnode.RegisterObserver(sub)
}

// onDeleteSubnode is the observer callback fired by an observed Node,
// before the corresponding structural change becomes visible, when one of
// its direct children is deleted. It removes subnode from the matching
// subview's observed list, and if that empties the list, expires and
// removes the subview.
func (v *NodeView) onDeleteSubnode(subnode *Node) {
	name := subnode.Name()
	sub, ok := v.subviews.Find(name)
	if !ok {
		return
	}
	sub.nodes.RemoveIf(func(n *Node) bool { return n == subnode })
	if sub.nodes.Size() == 0 {
		sub.expired.Store(true)
		v.subviews.Erase(name)
	}
}

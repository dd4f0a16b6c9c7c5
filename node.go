package vault

import (
	"hash/fnv"
	"sync/atomic"
	"weak"

	"vault/concurrent"
)

func hashName(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

var nodeSeq atomic.Uint64

// nextNodeID hands out a process-wide monotonic identity stamp, used as the
// tie-break for node views' priority-ordered node lists (P3: "sorted by
// (priority DESC, identity), no duplicates by identity").
func nextNodeID() uint64 { return nodeSeq.Add(1) }

// Node is one element of a volume's tree: a named subtree carrying typed
// attributes and a list of views that want to hear about its subnode
// creations and deletions. Nodes are reference-counted by ordinary Go
// garbage collection — the parent's subnodes map holds the strong
// reference that keeps a child alive, and external callers may retain
// additional strong references safely, even past a tombstone.
type Node struct {
	id             uint64
	name           string
	fullPath       string
	volumePriority Priority
	depth          int

	subnodes   *concurrent.StripedMap[string, *Node]
	attributes *concurrent.StripedMap[string, Value]
	observers  *concurrent.SortedList[weak.Pointer[NodeView]]

	deleted atomic.Bool
}

func newNode(name, fullPath string, priority Priority, depth int) *Node {
	return &Node{
		id:             nextNodeID(),
		name:           name,
		fullPath:       fullPath,
		volumePriority: priority,
		depth:          depth,
		subnodes:       concurrent.NewStripedMapN[string, *Node](stripedMapBuckets, hashName),
		attributes:     concurrent.NewStripedMapN[string, Value](stripedMapBuckets, hashName),
		observers:      concurrent.NewSortedList(neverLess[weak.Pointer[NodeView]]),
	}
}

// neverLess is used for lists whose element order carries no meaning (the
// observer list reuses the same fine-grained-locked primitive as the
// priority-ordered node lists, but its own ordering is irrelevant): Push
// always inserts right after the head.
func neverLess[V any](_, _ V) bool { return false }

// Name returns the node's own path segment.
func (n *Node) Name() string { return n.name }

// Path returns the absolute dotted path from the volume root.
func (n *Node) Path() string { return n.fullPath }

// Priority returns the owning volume's priority, fixed at construction.
func (n *Node) Priority() Priority { return n.volumePriority }

// Depth returns the node's distance from the volume root (root is 0).
func (n *Node) Depth() int { return n.depth }

// Deleted reports whether the node has been tombstoned.
func (n *Node) Deleted() bool { return n.deleted.Load() }

// CreateSubnode creates (or, for an already-existing leaf, returns) the
// node at the given path relative to n, creating every missing
// intermediate segment along the way. Only the terminal segment's creation
// fires an observer notification (§4.5.1); intermediate segments created
// as a side effect of a composite path are silent, matching the pinned
// protocol.
func (n *Node) CreateSubnode(path string) (*Node, bool) {
	p := NewPath(path)
	if !p.Valid() {
		return nil, false
	}
	return n.createAlongPath(p)
}

func (n *Node) createAlongPath(p Path) (*Node, bool) {
	if n.deleted.Load() {
		return nil, false
	}
	if n.depth+1 > volumeMaxDepth {
		return nil, false
	}

	name, _ := p.Front()
	candidate := newNode(name, n.fullPath+"."+name, n.volumePriority, n.depth+1)
	got, ok := n.subnodes.FindOrInsertWithLimit(name, candidate, maxSubnodes)
	if !ok {
		return nil, false
	}
	inserted := got == candidate

	if p.Composite() {
		return got.createAlongPath(p.PopFront())
	}

	if inserted {
		n.notifyCreate(got)
	}
	return got, true
}

// OpenSubnode descends along path, returning the node at its end, or
// (nil, false) if any segment is missing, invalid, or tombstoned.
func (n *Node) OpenSubnode(path string) (*Node, bool) {
	p := NewPath(path)
	if !p.Valid() || n.deleted.Load() {
		return nil, false
	}
	return n.openAlongPath(p)
}

func (n *Node) openAlongPath(p Path) (*Node, bool) {
	name, _ := p.Front()
	child, ok := n.subnodes.Find(name)
	if !ok || child.deleted.Load() {
		return nil, false
	}
	if p.Composite() {
		return child.openAlongPath(p.PopFront())
	}
	return child, true
}

// DeleteSubnodeTree removes the direct child named name, tombstoning it and
// its entire subtree. Observers are notified bottom-up, strictly before
// the child becomes unreachable from the tree, so a view that observes a
// descendant unbinds itself before the structural change takes effect.
// Returns false if name is invalid/composite or no such child exists.
func (n *Node) DeleteSubnodeTree(name string) bool {
	if n.deleted.Load() || !isValidSegment(name) {
		return false
	}
	child, ok := n.subnodes.Find(name)
	if !ok {
		return false
	}

	notifyDeleteBottomUp(n, child)
	n.subnodes.Erase(name)
	return true
}

// DeleteAllSubnodeTrees tombstones every direct child, in the same
// bottom-up-notified manner as DeleteSubnodeTree.
func (n *Node) DeleteAllSubnodeTrees() {
	if n.deleted.Load() {
		return
	}
	for _, name := range n.subnodes.Keys() {
		n.DeleteSubnodeTree(name)
	}
}

// notifyDeleteBottomUp notifies parent's observers about child only after
// every descendant of child has already had its own deletion notified to
// child's observers, then tombstones child.
func notifyDeleteBottomUp(parent *Node, child *Node) {
	for _, gcName := range child.subnodes.Keys() {
		gc, ok := child.subnodes.Find(gcName)
		if !ok {
			continue
		}
		notifyDeleteBottomUp(child, gc)
	}
	parent.notifyDelete(child)
	child.deleted.Store(true)
}

// SetValue inserts or overwrites the named attribute. Fails if the node is
// tombstoned, the name exceeds maxValueNameSize, the payload exceeds its
// own size bound, or the node is already at maxValues and name is new.
func (n *Node) SetValue(name string, v Value) bool {
	if n.deleted.Load() {
		return false
	}
	if name == "" || len(name) > maxValueNameSize {
		return false
	}
	if !v.withinLimits() {
		return false
	}
	return n.attributes.InsertWithLimitOrAssign(name, v, maxValues)
}

// GetValue returns the named attribute's Value, or (zero, false) if
// missing or the node is tombstoned.
func (n *Node) GetValue(name string) (Value, bool) {
	if n.deleted.Load() {
		return Value{}, false
	}
	return n.attributes.Find(name)
}

// GetValueKind returns the named attribute's kind, or (0, false) if
// missing.
func (n *Node) GetValueKind(name string) (Kind, bool) {
	v, ok := n.GetValue(name)
	if !ok {
		return 0, false
	}
	return v.Kind(), true
}

// DeleteValue removes the named attribute, returning whether it existed.
func (n *Node) DeleteValue(name string) bool {
	if n.deleted.Load() {
		return false
	}
	return n.attributes.Erase(name)
}

// DeleteValues removes every attribute, returning the count removed.
func (n *Node) DeleteValues() int {
	if n.deleted.Load() {
		return 0
	}
	names := n.attributes.Keys()
	for _, name := range names {
		n.attributes.Erase(name)
	}
	return len(names)
}

// ForEachSubnode applies f to every live direct child. f must not call back
// into n's subnodes map (re-entrant iteration self-deadlocks, §5).
func (n *Node) ForEachSubnode(f func(name string, child *Node)) {
	n.subnodes.ForEach(f)
}

// ForEachValue applies f to every attribute. f must not call back into n's
// attributes map.
func (n *Node) ForEachValue(f func(name string, v Value)) {
	n.attributes.ForEach(f)
}

// SubnodeNames returns a snapshot of direct child names, safe to iterate
// even if the tree mutates concurrently.
func (n *Node) SubnodeNames() []string {
	return n.subnodes.Keys()
}

// RegisterObserver attaches view as a weak observer of n's subnode
// creation/deletion events. Idempotent: registering the same view twice is
// a no-op.
func (n *Node) RegisterObserver(view *NodeView) {
	if n.deleted.Load() || view == nil {
		return
	}
	already := false
	n.observers.ForEach(func(w weak.Pointer[NodeView]) {
		if w.Value() == view {
			already = true
		}
	})
	if already {
		return
	}
	n.observers.Push(weak.Make(view))
}

// UnregisterObserver detaches view, by identity. Also lazily prunes any
// weak handles whose target has already been collected.
func (n *Node) UnregisterObserver(view *NodeView) {
	n.observers.RemoveIf(func(w weak.Pointer[NodeView]) bool {
		val := w.Value()
		return val == nil || val == view
	})
}

func (n *Node) notifyCreate(child *Node) {
	n.pruneExpiredObservers()
	n.observers.ForEach(func(w weak.Pointer[NodeView]) {
		if view := w.Value(); view != nil {
			view.onCreateSubnode(child)
		}
	})
}

func (n *Node) notifyDelete(child *Node) {
	n.pruneExpiredObservers()
	n.observers.ForEach(func(w weak.Pointer[NodeView]) {
		if view := w.Value(); view != nil {
			view.onDeleteSubnode(child)
		}
	})
}

func (n *Node) pruneExpiredObservers() {
	n.observers.RemoveIf(func(w weak.Pointer[NodeView]) bool {
		return w.Value() == nil
	})
}

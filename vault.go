package vault

import (
	"fmt"
	"strings"
)

// Vault is the root of a node-view tree: it owns a synthetic root view
// with full_path "root" and no observed nodes. All I/O into a vault flows
// through the root view's LoadSubnodeTree / CreateSubnode.
type Vault struct {
	root *NodeView
}

// NewVault builds an empty vault.
func NewVault() *Vault {
	return &Vault{root: newNodeView("root", "root", 0, nil)}
}

// Root returns the vault's synthetic root view.
func (va *Vault) Root() *NodeView {
	return va.root
}

// Debug renders a human-readable dump of the live view tree: every
// observed node's values, annotated with the owning volume's priority, at
// every path currently reachable from the root. Callers that want logging
// feed the returned string to whatever logger they use — the engine itself
// never logs.
func (va *Vault) Debug() string {
	var b strings.Builder
	debugView(&b, va.root)
	return b.String()
}

func debugView(b *strings.Builder, v *NodeView) {
	v.nodes.ForEach(func(n *Node) {
		n.ForEachValue(func(name string, val Value) {
			fmt.Fprintf(b, "--> %d: %s.%s = ", n.Priority(), v.Path(), name)
			writeDebugValue(b, val)
			b.WriteByte('\n')
		})
	})
	for _, name := range v.SubviewNames() {
		if sub, ok := v.subviews.Find(name); ok {
			debugView(b, sub)
		}
	}
}

// Package vault implements an in-process hierarchical configuration store:
// standalone, serializable volumes holding a tree of typed attributes, and
// vaults that overlay one or more volumes into a single logical tree,
// resolving name collisions by priority and keeping overlay views
// consistent with their underlying volumes as the volumes mutate.
//
// A Volume owns a tree of *Node values, each holding named Value attributes
// and named child nodes. A Vault owns a tree of *NodeView values; a view
// observes zero or more nodes (one per loaded volume) and mirrors their
// subnode structure as volumes are mutated, resolving attribute and subnode
// lookups by descending volume priority.
//
// Every mutating operation is safe for concurrent use. Nodes and node views
// use fine-grained, bucket- and link-level locking (see the concurrent
// subpackage) rather than a single tree-wide mutex, so unrelated subtrees
// never contend with each other.
//
//	vol := vault.NewVolume("app", vault.PriorityMedium)
//	n, _ := vol.Root().CreateSubnode("server.port")
//	n.SetValue("value", vault.NewU32Value(8080))
//
//	v := vault.NewVault()
//	v.Root().LoadSubnodeTree(vol.Root())
//	sub, _ := v.Root().OpenSubnode("app.server.port")
package vault

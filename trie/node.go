// Package trie implements an in-memory Merkle Patricia Trie with nested
// checkpoint/commit/revert support. Nodes are persistent: mutation paths
// copy, so an old root pointer remains a valid snapshot of the trie, which
// makes a checkpoint a single pointer push.
package trie

// node is the interface implemented by all trie node types.
type node interface {
	// cache returns the cached hash and dirty flag for this node.
	cache() (hashNode, bool)
}

// fullNode is a branch node with 16 children (one per hex nibble) plus a
// value slot at index 16.
type fullNode struct {
	Children [17]node
	flags    nodeFlag
}

// shortNode is an extension or leaf node. A key carrying the terminator
// nibble (via HP encoding) marks a leaf.
type shortNode struct {
	Key   []byte // hex nibble key, possibly ending in the terminator 0x10
	Val   node
	flags nodeFlag
}

// hashNode is a 32-byte hash reference to a node hashed out of the tree.
type hashNode []byte

// valueNode is the raw value stored in a leaf.
type valueNode []byte

// nodeFlag carries hash caching state.
type nodeFlag struct {
	hash  hashNode
	dirty bool
}

func (n *fullNode) cache() (hashNode, bool)  { return n.flags.hash, n.flags.dirty }
func (n *shortNode) cache() (hashNode, bool) { return n.flags.hash, n.flags.dirty }
func (n hashNode) cache() (hashNode, bool)   { return nil, true }
func (n valueNode) cache() (hashNode, bool)  { return nil, true }

func (n *fullNode) copy() *fullNode {
	cp := *n
	return &cp
}

func (n *shortNode) copy() *shortNode {
	cp := *n
	return &cp
}

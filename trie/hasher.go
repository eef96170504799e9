package trie

import (
	"github.com/hearthvm/hearth/crypto"
	"github.com/hearthvm/hearth/rlp"
)

// hasher folds a trie into its Keccak-256 root. Nodes whose RLP encoding
// is shorter than 32 bytes are inlined into their parent instead of being
// replaced by a hash reference.
type hasher struct{}

func newHasher() *hasher {
	return &hasher{}
}

// hash computes the hash of n. force hashes the node even when its
// encoding is shorter than 32 bytes (used for the root). It returns the
// hashed form and a cached form with hashes memoized on the node flags.
func (h *hasher) hash(n node, force bool) (node, node) {
	if hash, dirty := n.cache(); hash != nil && !dirty {
		return hash, n
	}
	collapsed, cached := h.hashChildren(n)
	hashed := h.store(collapsed, force)
	cachedHash, _ := hashed.(hashNode)
	switch cn := cached.(type) {
	case *shortNode:
		cn.flags.hash = cachedHash
		cn.flags.dirty = false
	case *fullNode:
		cn.flags.hash = cachedHash
		cn.flags.dirty = false
	}
	return hashed, cached
}

// hashChildren replaces children with their hashed or inline forms,
// returning the collapsed version for encoding and the cached version for
// keeping in the trie.
func (h *hasher) hashChildren(original node) (node, node) {
	switch n := original.(type) {
	case *shortNode:
		collapsed, cached := n.copy(), n.copy()
		collapsed.Key = hexToCompact(n.Key)
		if _, ok := n.Val.(valueNode); !ok {
			childH, childC := h.hash(n.Val, false)
			collapsed.Val = childH
			cached.Val = childC
		}
		return collapsed, cached
	case *fullNode:
		collapsed, cached := n.copy(), n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				childH, childC := h.hash(n.Children[i], false)
				collapsed.Children[i] = childH
				cached.Children[i] = childC
			}
		}
		return collapsed, cached
	default:
		return n, n
	}
}

// store encodes a collapsed node and returns either the node itself
// (inline form, < 32 bytes) or its hash reference.
func (h *hasher) store(n node, force bool) node {
	switch n.(type) {
	case hashNode, valueNode:
		return n
	}
	enc := encodeNode(n)
	if len(enc) < 32 && !force {
		return n
	}
	return hashNode(crypto.Keccak256(enc))
}

// encodeNode RLP-encodes a collapsed node:
// shortNode => [compactKey, val]; fullNode => 17-element list.
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		return encodeShortNode(n)
	case *fullNode:
		return encodeFullNode(n)
	case hashNode:
		return []byte(n)
	case valueNode:
		enc, _ := rlp.EncodeToBytes([]byte(n))
		return enc
	default:
		return nil
	}
}

func encodeShortNode(n *shortNode) []byte {
	keyEnc, _ := rlp.EncodeToBytes(n.Key)
	payload := append(keyEnc, encodeChild(n.Val)...)
	return rlp.WrapList(payload)
}

func encodeFullNode(n *fullNode) []byte {
	var payload []byte
	for i := 0; i < 17; i++ {
		payload = append(payload, encodeChild(n.Children[i])...)
	}
	return rlp.WrapList(payload)
}

// encodeChild encodes a node for inclusion in its parent: nil becomes the
// empty string, values and hash references become RLP strings, and small
// nodes are inlined verbatim.
func encodeChild(n node) []byte {
	if n == nil {
		return []byte{0x80}
	}
	switch n := n.(type) {
	case valueNode:
		enc, _ := rlp.EncodeToBytes([]byte(n))
		return enc
	case hashNode:
		enc, _ := rlp.EncodeToBytes([]byte(n))
		return enc
	case *shortNode:
		return encodeShortNode(n)
	case *fullNode:
		return encodeFullNode(n)
	default:
		return []byte{0x80}
	}
}

package trie

import (
	"errors"

	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/crypto"
	"github.com/hearthvm/hearth/rlp"
)

var (
	// ErrNotFound is returned when a key is not present in the trie.
	ErrNotFound = errors.New("trie: key not found")
)

// emptyRoot is the root hash of an empty trie: Keccak256(rlp("")).
var emptyRoot = crypto.Keccak256Hash(func() []byte {
	b, _ := rlp.EncodeToBytes([]byte{})
	return b
}())

// Trie is an in-memory Merkle Patricia Trie with a stack of checkpoints.
type Trie struct {
	root        node
	checkpoints []node
}

// New creates a new, empty trie.
func New() *Trie {
	return &Trie{}
}

// Get retrieves the value stored under key, or ErrNotFound.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, found := t.get(t.root, keybytesToHex(key), 0)
	if !found {
		return nil, ErrNotFound
	}
	return value, nil
}

func (t *Trie) get(n node, key []byte, pos int) ([]byte, bool) {
	switch n := n.(type) {
	case nil:
		return nil, false
	case valueNode:
		return []byte(n), true
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytesEqual(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, false
		}
		return t.get(n.Val, key, pos+len(n.Key))
	case *fullNode:
		if pos >= len(key) {
			return t.get(n.Children[16], key, pos)
		}
		return t.get(n.Children[key[pos]], key, pos+1)
	default:
		return nil, false
	}
}

// Put inserts or updates key with value. An empty value deletes the key.
func (t *Trie) Put(key, value []byte) error {
	if len(value) == 0 {
		return t.Delete(key)
	}
	n, err := t.insert(t.root, keybytesToHex(key), valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) insert(n node, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}

	switch n := n.(type) {
	case nil:
		return &shortNode{Key: key, Val: value, flags: nodeFlag{dirty: true}}, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen == len(n.Key) {
			nn, err := t.insert(n.Val, key[matchLen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: nn, flags: nodeFlag{dirty: true}}, nil
		}
		// Paths diverge: split into a branch.
		branch := &fullNode{flags: nodeFlag{dirty: true}}
		existing, err := t.insert(nil, n.Key[matchLen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[n.Key[matchLen]] = existing
		inserted, err := t.insert(nil, key[matchLen+1:], value)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchLen]] = inserted
		if matchLen > 0 {
			return &shortNode{Key: key[:matchLen], Val: branch, flags: nodeFlag{dirty: true}}, nil
		}
		return branch, nil

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		child, err := t.insert(n.Children[key[0]], key[1:], value)
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child
		return nn, nil

	case valueNode:
		// Replacing a value that terminates above the new key cannot
		// happen with terminator-suffixed keys.
		return nil, errors.New("trie: insert below value node")

	default:
		return nil, errors.New("trie: unknown node type")
	}
}

// Delete removes key from the trie. Deleting an absent key is a no-op.
func (t *Trie) Delete(key []byte) error {
	n, err := t.delete(t.root, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

func (t *Trie) delete(n node, key []byte) (node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil

	case *shortNode:
		matchLen := prefixLen(key, n.Key)
		if matchLen < len(n.Key) {
			return n, nil
		}
		if matchLen == len(key) {
			return nil, nil
		}
		child, err := t.delete(n.Val, key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		switch child := child.(type) {
		case nil:
			return nil, nil
		case *shortNode:
			return &shortNode{Key: concat(n.Key, child.Key), Val: child.Val, flags: nodeFlag{dirty: true}}, nil
		default:
			return &shortNode{Key: n.Key, Val: child, flags: nodeFlag{dirty: true}}, nil
		}

	case *fullNode:
		nn := n.copy()
		nn.flags = nodeFlag{dirty: true}
		child, err := t.delete(n.Children[key[0]], key[1:])
		if err != nil {
			return nil, err
		}
		nn.Children[key[0]] = child

		remaining := -1
		for i := 0; i < 17; i++ {
			if nn.Children[i] != nil {
				if remaining >= 0 {
					return nn, nil
				}
				remaining = i
			}
		}
		if remaining < 0 {
			return nil, nil
		}
		// One child left: collapse the branch into a short node.
		if remaining == 16 {
			return &shortNode{Key: []byte{terminatorByte}, Val: nn.Children[16], flags: nodeFlag{dirty: true}}, nil
		}
		if cnode, ok := nn.Children[remaining].(*shortNode); ok {
			return &shortNode{Key: concat([]byte{byte(remaining)}, cnode.Key), Val: cnode.Val, flags: nodeFlag{dirty: true}}, nil
		}
		return &shortNode{Key: []byte{byte(remaining)}, Val: nn.Children[remaining], flags: nodeFlag{dirty: true}}, nil

	case valueNode:
		if len(key) == 0 {
			return nil, nil
		}
		return n, nil

	default:
		return nil, errors.New("trie: unknown node type")
	}
}

// Hash computes the Keccak-256 root hash of the trie.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		return emptyRoot
	}
	h := newHasher()
	hashed, cached := h.hash(t.root, true)
	t.root = cached
	if hn, ok := hashed.(hashNode); ok {
		return types.BytesToHash(hn)
	}
	return crypto.Keccak256Hash(encodeNode(hashed))
}

// Checkpoint pushes the current trie contents onto the checkpoint stack.
// Nodes are persistent, so this records only the root pointer.
func (t *Trie) Checkpoint() {
	t.checkpoints = append(t.checkpoints, t.root)
}

// Commit discards the most recent checkpoint, keeping all changes made
// since it was taken.
func (t *Trie) Commit() {
	if len(t.checkpoints) == 0 {
		return
	}
	t.checkpoints = t.checkpoints[:len(t.checkpoints)-1]
}

// Revert pops the most recent checkpoint and restores the trie to the
// contents it had when the checkpoint was taken.
func (t *Trie) Revert() {
	if len(t.checkpoints) == 0 {
		return
	}
	t.root = t.checkpoints[len(t.checkpoints)-1]
	t.checkpoints = t.checkpoints[:len(t.checkpoints)-1]
}

// CheckpointDepth returns the number of open checkpoints.
func (t *Trie) CheckpointDepth() int {
	return len(t.checkpoints)
}

// Empty reports whether the trie holds no entries.
func (t *Trie) Empty() bool {
	return t.root == nil
}

// Len counts the key-value pairs in the trie. O(n).
func (t *Trie) Len() int {
	return countValues(t.root)
}

func countValues(n node) int {
	switch n := n.(type) {
	case valueNode:
		return 1
	case *shortNode:
		return countValues(n.Val)
	case *fullNode:
		count := 0
		for i := 0; i < 17; i++ {
			count += countValues(n.Children[i])
		}
		return count
	default:
		return 0
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func concat(a, b []byte) []byte {
	r := make([]byte, len(a)+len(b))
	copy(r, a)
	copy(r[len(a):], b)
	return r
}

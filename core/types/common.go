// Package types defines the core data structures of the Hearth execution
// core: hashes, addresses, accounts, logs, blooms, receipts, and blocks.
package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
)

// Hash represents the 32-byte Keccak256 hash of data.
type Hash [HashLength]byte

// Address represents the 20-byte address of an account.
type Address [AddressLength]byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Big returns the hash interpreted as a big-endian integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// BytesToAddress converts bytes to Address, left-padding if shorter than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string { return fmt.Sprintf("0x%x", a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Hash returns the address left-padded to 32 bytes.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// Account is the state-trie representation of an account:
// [nonce, balance, storageRoot, codeHash].
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     Hash   // storage trie root (EmptyRootHash for no storage)
	CodeHash []byte // keccak256 of code (EmptyCodeHash for plain accounts)
}

// NewAccount creates a fresh account with zero balance and no storage.
func NewAccount() Account {
	return Account{
		Balance:  new(big.Int),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

// IsEmpty reports whether the account is empty: zero nonce, zero balance,
// and the empty-code hash.
func (a *Account) IsEmpty() bool {
	if a.Nonce != 0 {
		return false
	}
	if a.Balance != nil && a.Balance.Sign() != 0 {
		return false
	}
	ch := BytesToHash(a.CodeHash)
	return ch == EmptyCodeHash || ch == (Hash{})
}

// IsContract reports whether the account holds code.
func (a *Account) IsContract() bool {
	ch := BytesToHash(a.CodeHash)
	return ch != EmptyCodeHash && ch != (Hash{})
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() Account {
	cp := Account{
		Nonce: a.Nonce,
		Root:  a.Root,
	}
	if a.Balance != nil {
		cp.Balance = new(big.Int).Set(a.Balance)
	} else {
		cp.Balance = new(big.Int)
	}
	cp.CodeHash = make([]byte, len(a.CodeHash))
	copy(cp.CodeHash, a.CodeHash)
	return cp
}

// Log represents a contract log event emitted by a LOG opcode.
type Log struct {
	Address Address
	Topics  []Hash
	Data    []byte

	// Filled in by the block processor, not by the VM.
	BlockNumber uint64
	TxIndex     uint
	Index       uint
}

var (
	// EmptyRootHash is the hash of an empty state trie.
	EmptyRootHash = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyCodeHash is the keccak256 hash of empty bytecode.
	EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

	// EmptyUncleHash is the keccak256 hash of the RLP of an empty uncle list.
	EmptyUncleHash = HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
)

// fromHex decodes a hex string, stripping an optional "0x" prefix.
func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

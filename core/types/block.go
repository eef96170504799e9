package types

import (
	"math/big"
)

// Header holds the block fields the execution core consumes. Proof-of-work
// fields (mixhash, nonce) are validated outside the core and omitted here.
type Header struct {
	ParentHash  Hash
	UncleHash   Hash
	Coinbase    Address
	Root        Hash
	TxHash      Hash
	ReceiptHash Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
}

// Copy returns a deep copy of the header.
func (h *Header) Copy() *Header {
	cp := *h
	if h.Difficulty != nil {
		cp.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cp.Number = new(big.Int).Set(h.Number)
	}
	cp.Extra = make([]byte, len(h.Extra))
	copy(cp.Extra, h.Extra)
	return &cp
}

// Block pairs a header with its transactions and uncle headers.
type Block struct {
	header       *Header
	transactions []*Transaction
	uncles       []*Header
}

// NewBlock assembles a block from its parts. The header is copied.
func NewBlock(header *Header, txs []*Transaction, uncles []*Header) *Block {
	return &Block{
		header:       header.Copy(),
		transactions: txs,
		uncles:       uncles,
	}
}

// Header returns the block header.
func (b *Block) Header() *Header { return b.header }

// Transactions returns the block's transaction list.
func (b *Block) Transactions() []*Transaction { return b.transactions }

// Uncles returns the block's uncle headers.
func (b *Block) Uncles() []*Header { return b.uncles }

// Number returns the block number.
func (b *Block) Number() *big.Int { return b.header.Number }

// NumberU64 returns the block number as a uint64.
func (b *Block) NumberU64() uint64 { return b.header.Number.Uint64() }

// GasLimit returns the block gas limit.
func (b *Block) GasLimit() uint64 { return b.header.GasLimit }

// Coinbase returns the beneficiary address.
func (b *Block) Coinbase() Address { return b.header.Coinbase }

// Time returns the block timestamp.
func (b *Block) Time() uint64 { return b.header.Time }

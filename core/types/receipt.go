package types

import (
	"github.com/hearthvm/hearth/rlp"
)

// Receipt is the post-transaction record: the intermediate state root,
// cumulative gas used in the block so far, the log bloom, and the logs.
type Receipt struct {
	PostState         []byte
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log
}

// NewReceipt creates a receipt for a transaction that left the state at
// root after consuming cumulativeGasUsed in the block.
func NewReceipt(root []byte, cumulativeGasUsed uint64) *Receipt {
	return &Receipt{PostState: root, CumulativeGasUsed: cumulativeGasUsed}
}

// rlpLog is the consensus RLP form of a log: [address, topics, data].
// The block-position fields of Log are derived and stay out of the encoding.
type rlpLog struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// rlpReceipt is the consensus RLP form of a receipt.
type rlpReceipt struct {
	PostState         []byte
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []rlpLog
}

// EncodeRLP returns the consensus encoding of the receipt.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	enc := rlpReceipt{
		PostState:         r.PostState,
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              make([]rlpLog, len(r.Logs)),
	}
	for i, l := range r.Logs {
		enc.Logs[i] = rlpLog{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return rlp.EncodeToBytes(enc)
}

// DecodeReceiptRLP decodes a consensus-encoded receipt.
func DecodeReceiptRLP(data []byte) (*Receipt, error) {
	var dec rlpReceipt
	if err := rlp.DecodeBytes(data, &dec); err != nil {
		return nil, err
	}
	r := &Receipt{
		PostState:         dec.PostState,
		CumulativeGasUsed: dec.CumulativeGasUsed,
		Bloom:             dec.Bloom,
		Logs:              make([]*Log, len(dec.Logs)),
	}
	for i, l := range dec.Logs {
		r.Logs[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return r, nil
}

package types

import (
	"math/big"
)

// Transaction is a message to be applied against the state. Signature
// recovery happens outside the execution core, so the sender travels with
// the transaction explicitly.
type Transaction struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *Address // nil means contract creation
	Value    *big.Int
	Data     []byte

	From Address // recovered sender, set by the caller
}

// NewTransaction creates a message call transaction.
func NewTransaction(from Address, to Address, nonce uint64, value *big.Int, gas uint64, gasPrice *big.Int, data []byte) *Transaction {
	dst := to
	return &Transaction{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(gasPrice),
		Gas:      gas,
		To:       &dst,
		Value:    new(big.Int).Set(value),
		Data:     data,
		From:     from,
	}
}

// NewContractCreation creates a contract-creation transaction whose Data
// is the init code.
func NewContractCreation(from Address, nonce uint64, value *big.Int, gas uint64, gasPrice *big.Int, data []byte) *Transaction {
	return &Transaction{
		Nonce:    nonce,
		GasPrice: new(big.Int).Set(gasPrice),
		Gas:      gas,
		Value:    new(big.Int).Set(value),
		Data:     data,
		From:     from,
	}
}

// IsContractCreation reports whether the transaction has no destination.
func (tx *Transaction) IsContractCreation() bool {
	return tx.To == nil
}

// Cost returns gasPrice * gas + value, the maximum wei the sender can spend.
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(tx.Gas))
	return total.Add(total, tx.Value)
}

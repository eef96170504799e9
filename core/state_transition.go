package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hearthvm/hearth/core/state"
	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/core/vm"
	"github.com/hearthvm/hearth/log"
)

var (
	// ErrNonceTooHigh is returned when the transaction nonce is ahead of
	// the sender account.
	ErrNonceTooHigh = errors.New("nonce too high")

	// ErrNonceTooLow is returned when the transaction nonce has already
	// been used.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrInsufficientFunds is returned when the sender cannot cover the
	// up-front gas purchase plus value.
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

	// ErrIntrinsicGas is returned when the gas limit is below the
	// transaction's intrinsic cost.
	ErrIntrinsicGas = errors.New("intrinsic gas too low")
)

var txLogger = log.Default().Module("core")

// ExecutionResult carries the outcome of one applied transaction.
type ExecutionResult struct {
	UsedGas         uint64
	ReturnData      []byte
	ContractAddress types.Address // set for contract creations
	VMErr           error         // in-frame failure, nil on success
}

// IntrinsicGas computes the up-front gas of a transaction: the flat fee
// (raised for contract creations) plus the per-byte calldata cost.
func IntrinsicGas(data []byte, isCreate bool) uint64 {
	gas := vm.TxGas
	if isCreate {
		gas = vm.TxGasContractCreation
	}
	for _, b := range data {
		if b == 0 {
			gas += vm.TxDataZeroGas
		} else {
			gas += vm.TxDataNonZeroGas
		}
	}
	return gas
}

// ApplyTransaction runs tx against statedb in the given block context:
// it buys gas, increments the sender nonce, dispatches through the EVM,
// pays the capped refund back, credits the coinbase, and produces the
// receipt with the intermediate state root. usedGas accumulates the
// block's running total.
func ApplyTransaction(config *ChainConfig, blockCtx vm.BlockContext, statedb *state.StateDB, tx *types.Transaction, gp *GasPool, usedGas *uint64, cfg vm.Config) (*types.Receipt, *ExecutionResult, error) {
	sender := tx.From

	// Nonce sanity.
	stNonce := statedb.GetNonce(sender)
	if stNonce < tx.Nonce {
		return nil, nil, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooHigh, sender, tx.Nonce, stNonce)
	} else if stNonce > tx.Nonce {
		return nil, nil, fmt.Errorf("%w: address %s, tx %d, state %d", ErrNonceTooLow, sender, tx.Nonce, stNonce)
	}

	// Block gas allowance.
	if err := gp.SubGas(tx.Gas); err != nil {
		return nil, nil, err
	}

	intrinsic := IntrinsicGas(tx.Data, tx.IsContractCreation())
	if tx.Gas < intrinsic {
		return nil, nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas, intrinsic)
	}

	// Buy gas.
	mgval := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(tx.Gas))
	if statedb.GetBalance(sender).Cmp(new(big.Int).Add(mgval, tx.Value)) < 0 {
		return nil, nil, fmt.Errorf("%w: address %s", ErrInsufficientFunds, sender)
	}
	statedb.SubBalance(sender, mgval)

	gas := tx.Gas - intrinsic

	txCtx := vm.TxContext{Origin: sender, GasPrice: tx.GasPrice}
	evm := vm.NewEVM(blockCtx, txCtx, statedb, cfg)

	result := &ExecutionResult{}
	var gasLeft uint64
	if tx.IsContractCreation() {
		// Create advances the sender nonce itself; the new address
		// derives from the pre-increment value.
		var created types.Address
		result.ReturnData, created, gasLeft, result.VMErr = evm.Create(sender, tx.Data, gas, tx.Value)
		result.ContractAddress = created
	} else {
		statedb.SetNonce(sender, stNonce+1)
		result.ReturnData, gasLeft, result.VMErr = evm.Call(sender, *tx.To, tx.Data, gas, tx.Value)
	}
	if result.VMErr != nil {
		txLogger.Debug("transaction execution failed", "err", result.VMErr)
	}

	// Refund, capped at half the gas consumed, paid only on success.
	gasUsed := tx.Gas - gasLeft
	if result.VMErr == nil {
		refund := statedb.Refund()
		if refund > gasUsed/2 {
			refund = gasUsed / 2
		}
		gasLeft += refund
		gasUsed -= refund
	}

	// Return unused gas at the purchase price and refill the block pool.
	remaining := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(gasLeft))
	statedb.AddBalance(sender, remaining)
	gp.AddGas(gasLeft)

	// The coinbase collects the fee for the gas actually burned.
	fee := new(big.Int).Mul(tx.GasPrice, new(big.Int).SetUint64(gasUsed))
	statedb.AddBalance(blockCtx.Coinbase, fee)

	result.UsedGas = gasUsed
	*usedGas += gasUsed

	// Receipt: logs survive only the successful path; the VM reverts its
	// checkpoint on failure, dropping them before we get here.
	logs := append([]*types.Log(nil), statedb.Logs()...)
	statedb.Finalise()
	root := statedb.Flush()

	receipt := types.NewReceipt(root.Bytes(), *usedGas)
	receipt.Logs = logs
	receipt.Bloom = types.LogsBloom(logs)
	return receipt, result, nil
}

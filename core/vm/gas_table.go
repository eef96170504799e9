package vm

import (
	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/types"
)

// memoryGasCost computes the charge for growing memory to newMemSize
// bytes: cost(w) = w*Gmemory + w*w/Gquadcoeff, charged as the difference
// from the frame's current high-water mark. Memory never shrinks, so the
// charge is monotone within a frame.
func memoryGasCost(mem *Memory, newMemSize uint64) (uint64, error) {
	if newMemSize == 0 {
		return 0, nil
	}
	// Past this size the square term overflows uint64.
	if newMemSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	newWords := toWordSize(newMemSize)
	newCost := newWords*MemoryGas + newWords*newWords/QuadCoeffDiv

	oldWords := toWordSize(uint64(mem.Len()))
	oldCost := oldWords*MemoryGas + oldWords*oldWords/QuadCoeffDiv

	if newCost > oldCost {
		return newCost - oldCost, nil
	}
	return 0, nil
}

// gasMemExpansion is the dynamic gas of operations whose only variable
// cost is memory growth.
func gasMemExpansion(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

// gasExp charges per byte of the exponent on top of the EXP base cost.
func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expByteLen := uint64((stack.Back(1).BitLen() + 7) / 8)
	return expByteLen * ExpByteGas, nil
}

// gasSha3 charges memory growth plus a per-word hashing cost.
func gasSha3(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	length := stack.Back(1)
	if !length.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	words := toWordSize(length.Uint64())
	if words > (1<<64-1)/Sha3WordGas {
		return 0, ErrGasUintOverflow
	}
	return safeAdd(gas, words*Sha3WordGas)
}

// gasCopy prices CALLDATACOPY and CODECOPY: memory growth plus a per-word
// copy cost over the 32-byte word count of the length operand.
func gasCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(2))
}

// gasExtCodeCopy is gasCopy with EXTCODECOPY's stack layout.
func gasExtCodeCopy(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return copyGas(mem, memorySize, stack.Back(3))
}

func copyGas(mem *Memory, memorySize uint64, length *uint256.Int) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	if !length.IsUint64() {
		return 0, ErrGasUintOverflow
	}
	words := toWordSize(length.Uint64())
	if words > (1<<64-1)/CopyGas {
		return 0, ErrGasUintOverflow
	}
	return safeAdd(gas, words*CopyGas)
}

// gasSstore implements the Homestead SSTORE pricing and refund table:
//
//	zero     -> zero:     Gsreset
//	non-zero -> zero:     Gsreset, +Gsrefund
//	zero     -> non-zero: Gsset
//	non-zero -> non-zero: Gsreset
func gasSstore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	key, value := stack.Back(0), stack.Back(1)
	current := evm.StateDB.GetState(contract.Address, types.Hash(key.Bytes32()))
	switch {
	case current == (types.Hash{}) && !value.IsZero():
		return SstoreSetGas, nil
	case current != (types.Hash{}) && value.IsZero():
		evm.StateDB.AddRefund(SstoreRefundGas)
		return SstoreResetGas, nil
	default:
		return SstoreResetGas, nil
	}
}

// makeGasLog prices LOGn: memory growth plus per-topic and per-byte costs.
func makeGasLog(numTopics uint64) gasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		length := stack.Back(1)
		if !length.IsUint64() {
			return 0, ErrGasUintOverflow
		}
		if length.Uint64() > (1<<64-1)/LogDataGas {
			return 0, ErrGasUintOverflow
		}
		gas, err = safeAdd(gas, numTopics*LogTopicGas)
		if err != nil {
			return 0, err
		}
		return safeAdd(gas, length.Uint64()*LogDataGas)
	}
}

// callGasCap applies the 63/64 rule: the gas actually forwarded to a child
// frame is min(requested, available - available/64).
func callGasCap(available uint64, requested *uint256.Int) uint64 {
	cap := available - available/64
	if !requested.IsUint64() || requested.Uint64() > cap {
		return cap
	}
	return requested.Uint64()
}

// gasCall prices CALL: memory growth, the value transfer and new-account
// surcharges, and the forwarded gas. The forwarded amount and the
// surcharge are stashed on the EVM for opCall to consume.
func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var surcharge uint64
	transfersValue := !stack.Back(2).IsZero()
	if transfersValue {
		surcharge += CallValueTransferGas
		addr := types.BytesToAddress(stack.Back(1).Bytes())
		if evm.StateDB.Empty(addr) {
			surcharge += CallNewAccountGas
		}
	}
	gas, err = safeAdd(gas, surcharge)
	if err != nil {
		return 0, err
	}
	if contract.Gas < gas {
		return 0, ErrOutOfGas
	}
	callGas := callGasCap(contract.Gas-gas, stack.Back(0))
	evm.callGasTemp = callGas
	evm.callSurchargeTemp = surcharge
	return safeAdd(gas, callGas)
}

// gasCallCode is gasCall without the new-account surcharge: the code runs
// against the caller's own account.
func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	var surcharge uint64
	if !stack.Back(2).IsZero() {
		surcharge = CallValueTransferGas
	}
	gas, err = safeAdd(gas, surcharge)
	if err != nil {
		return 0, err
	}
	if contract.Gas < gas {
		return 0, ErrOutOfGas
	}
	callGas := callGasCap(contract.Gas-gas, stack.Back(0))
	evm.callGasTemp = callGas
	evm.callSurchargeTemp = surcharge
	return safeAdd(gas, callGas)
}

// gasDelegateCall prices DELEGATECALL: no value moves, so only memory
// growth and the forwarded gas.
func gasDelegateCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	if contract.Gas < gas {
		return 0, ErrOutOfGas
	}
	callGas := callGasCap(contract.Gas-gas, stack.Back(0))
	evm.callGasTemp = callGas
	evm.callSurchargeTemp = 0
	return safeAdd(gas, callGas)
}

func safeAdd(a, b uint64) (uint64, error) {
	if a+b < a {
		return 0, ErrGasUintOverflow
	}
	return a + b, nil
}

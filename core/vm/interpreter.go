package vm

import (
	"errors"
)

// Run executes the contract's bytecode until it stops, returns, or fails.
// Per step: validate the stack bounds, charge constant gas, compute the
// memory reach, charge dynamic gas (which includes the memory expansion
// cost), grow memory, then dispatch the handler. Any error terminates the
// frame immediately; the caller consumes the remaining gas and reverts.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	evm.depth++
	defer func() { evm.depth-- }()

	contract.Input = input

	var (
		pc    uint64
		stack = NewStack()
		mem   = NewMemory()
		debug = evm.Config.Debug && evm.Config.Tracer != nil
	)

	for {
		op := contract.GetOp(pc)
		operation := evm.jumpTable[op]
		if operation == nil {
			return nil, ErrInvalidOpCode
		}

		if sLen := stack.Len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}

		gasBefore := contract.Gas

		if operation.constantGas > 0 {
			if !contract.UseGas(operation.constantGas) {
				return nil, ErrOutOfGas
			}
		}

		var memorySize uint64
		if operation.memorySize != nil {
			memSize, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrOutOfGas
			}
			if memSize > 0x1FFFFFFFE0 {
				return nil, ErrOutOfGas
			}
			if memSize > 0 {
				// Memory grows in 32-byte words.
				memorySize = toWordSize(memSize) * 32
			}
		}

		if operation.dynamicGas != nil {
			cost, err := operation.dynamicGas(evm, contract, stack, mem, memorySize)
			if err != nil {
				return nil, ErrOutOfGas
			}
			if !contract.UseGas(cost) {
				return nil, ErrOutOfGas
			}
		}

		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		if debug {
			evm.Config.Tracer.CaptureState(pc, op, gasBefore, gasBefore-contract.Gas, stack, mem, evm.depth, nil)
		}

		ret, err := operation.execute(&pc, evm, contract, mem, stack)
		if err != nil {
			if debug {
				evm.Config.Tracer.CaptureFault(pc, op, contract.Gas, evm.depth, err)
			}
			return nil, err
		}
		if operation.halts {
			return ret, nil
		}
		if !operation.jumps {
			pc++
		}
	}
}

// IsExecutionError reports whether err is one of the in-frame failure
// kinds, as opposed to a host-level fault.
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrOutOfGas) ||
		errors.Is(err, ErrStackUnderflow) ||
		errors.Is(err, ErrStackOverflow) ||
		errors.Is(err, ErrInvalidOpCode) ||
		errors.Is(err, ErrInvalidJump) ||
		errors.Is(err, ErrMaxCallDepthExceeded) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrMaxCodeSizeExceeded) ||
		errors.Is(err, ErrCodeStoreOutOfGas) ||
		errors.Is(err, ErrGasUintOverflow)
}

package vm

import "errors"

var (
	ErrOutOfGas             = errors.New("out of gas")
	ErrStackOverflow        = errors.New("stack overflow")
	ErrStackUnderflow       = errors.New("stack underflow")
	ErrInvalidJump          = errors.New("invalid jump destination")
	ErrInvalidOpCode        = errors.New("invalid opcode")
	ErrMaxCallDepthExceeded = errors.New("max call depth exceeded")
	ErrInsufficientBalance  = errors.New("insufficient balance for transfer")
	ErrMaxCodeSizeExceeded  = errors.New("max code size exceeded")
	ErrCodeStoreOutOfGas    = errors.New("contract creation code storage out of gas")
	ErrGasUintOverflow      = errors.New("gas uint64 overflow")
	ErrInternal             = errors.New("internal error")
)

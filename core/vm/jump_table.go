package vm

import "github.com/holiman/uint256"

type (
	executionFunc func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error)

	// gasFunc computes the dynamic gas of an operation, including the
	// memory expansion charge for memorySize bytes.
	gasFunc func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error)

	// memorySizeFunc returns the memory size in bytes (offset plus length)
	// the operation needs, and whether the computation overflowed.
	memorySizeFunc func(stack *Stack) (uint64, bool)
)

// operation is one jump-table entry.
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  gasFunc
	minStack    int // operands required on the stack
	maxStack    int // largest stack the op may run against (1024 - pushed + popped)
	memorySize  memorySizeFunc
	halts       bool // STOP, RETURN, SELFDESTRUCT
	jumps       bool // JUMP, JUMPI manage the pc themselves
	writes      bool // mutates state
}

// JumpTable maps every opcode byte to its operation.
type JumpTable [256]*operation

func minStack(pops, pushes int) int { return pops }

func maxStack(pops, pushes int) int { return StackLimit + pops - pushes }

// calcMemSize computes offset+length, flagging overflow past uint64.
func calcMemSize(offset, length *uint256.Int) (uint64, bool) {
	if length.IsZero() {
		return 0, false
	}
	if !offset.IsUint64() || !length.IsUint64() {
		return 0, true
	}
	sum := offset.Uint64() + length.Uint64()
	return sum, sum < offset.Uint64()
}

func memoryMload(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), u256_32)
}

func memoryMstore(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), u256_32)
}

func memoryMstore8(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), u256_1)
}

func memorySha3(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memoryReturn(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memoryLog(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(1))
}

func memoryCalldataCopy(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(2))
}

func memoryCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(0), stack.Back(2))
}

func memoryExtCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(1), stack.Back(3))
}

// memoryCall covers CALL and CALLCODE:
// gas, addr, value, inOffset, inSize, retOffset, retSize.
func memoryCall(stack *Stack) (uint64, bool) {
	in, overflow := calcMemSize(stack.Back(3), stack.Back(4))
	if overflow {
		return 0, true
	}
	ret, overflow := calcMemSize(stack.Back(5), stack.Back(6))
	if overflow {
		return 0, true
	}
	if in > ret {
		return in, false
	}
	return ret, false
}

// memoryDelegateCall: gas, addr, inOffset, inSize, retOffset, retSize.
func memoryDelegateCall(stack *Stack) (uint64, bool) {
	in, overflow := calcMemSize(stack.Back(2), stack.Back(3))
	if overflow {
		return 0, true
	}
	ret, overflow := calcMemSize(stack.Back(4), stack.Back(5))
	if overflow {
		return 0, true
	}
	if in > ret {
		return in, false
	}
	return ret, false
}

// memoryCreate: value, offset, length.
func memoryCreate(stack *Stack) (uint64, bool) {
	return calcMemSize(stack.Back(1), stack.Back(2))
}

var (
	u256_1  = uint256.NewInt(1)
	u256_32 = uint256.NewInt(32)
)

// NewFrontierInstructionSet returns the genesis instruction set.
func NewFrontierInstructionSet() JumpTable {
	var tbl JumpTable

	tbl[STOP] = &operation{execute: opStop, constantGas: 0, minStack: minStack(0, 0), maxStack: maxStack(0, 0), halts: true}
	tbl[ADD] = &operation{execute: opAdd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[MUL] = &operation{execute: opMul, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SUB] = &operation{execute: opSub, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[DIV] = &operation{execute: opDiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SDIV] = &operation{execute: opSdiv, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[MOD] = &operation{execute: opMod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SMOD] = &operation{execute: opSmod, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[ADDMOD] = &operation{execute: opAddmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	tbl[MULMOD] = &operation{execute: opMulmod, constantGas: GasMidStep, minStack: minStack(3, 1), maxStack: maxStack(3, 1)}
	tbl[EXP] = &operation{execute: opExp, constantGas: GasSlowStep, dynamicGas: gasExp, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SIGNEXTEND] = &operation{execute: opSignExtend, constantGas: GasFastStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}

	tbl[LT] = &operation{execute: opLt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[GT] = &operation{execute: opGt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SLT] = &operation{execute: opSlt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[SGT] = &operation{execute: opSgt, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[EQ] = &operation{execute: opEq, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[ISZERO] = &operation{execute: opIsZero, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[AND] = &operation{execute: opAnd, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[OR] = &operation{execute: opOr, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[XOR] = &operation{execute: opXor, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}
	tbl[NOT] = &operation{execute: opNot, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[BYTE] = &operation{execute: opByte, constantGas: GasFastestStep, minStack: minStack(2, 1), maxStack: maxStack(2, 1)}

	tbl[SHA3] = &operation{execute: opSha3, constantGas: Sha3Gas, dynamicGas: gasSha3, minStack: minStack(2, 1), maxStack: maxStack(2, 1), memorySize: memorySha3}

	tbl[ADDRESS] = &operation{execute: opAddress, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[BALANCE] = &operation{execute: opBalance, constantGas: BalanceGas, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[ORIGIN] = &operation{execute: opOrigin, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLER] = &operation{execute: opCaller, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLVALUE] = &operation{execute: opCallValue, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLDATALOAD] = &operation{execute: opCalldataLoad, constantGas: GasFastestStep, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[CALLDATASIZE] = &operation{execute: opCalldataSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CALLDATACOPY] = &operation{execute: opCalldataCopy, constantGas: GasFastestStep, dynamicGas: gasCopy, minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memoryCalldataCopy}
	tbl[CODESIZE] = &operation{execute: opCodeSize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[CODECOPY] = &operation{execute: opCodeCopy, constantGas: GasFastestStep, dynamicGas: gasCopy, minStack: minStack(3, 0), maxStack: maxStack(3, 0), memorySize: memoryCodeCopy}
	tbl[GASPRICE] = &operation{execute: opGasPrice, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[EXTCODESIZE] = &operation{execute: opExtCodeSize, constantGas: ExtcodeSizeGas, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[EXTCODECOPY] = &operation{execute: opExtCodeCopy, constantGas: ExtcodeCopyGas, dynamicGas: gasExtCodeCopy, minStack: minStack(4, 0), maxStack: maxStack(4, 0), memorySize: memoryExtCodeCopy}

	tbl[BLOCKHASH] = &operation{execute: opBlockhash, constantGas: BlockhashGas, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[COINBASE] = &operation{execute: opCoinbase, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[TIMESTAMP] = &operation{execute: opTimestamp, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[NUMBER] = &operation{execute: opNumber, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[DIFFICULTY] = &operation{execute: opDifficulty, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[GASLIMIT] = &operation{execute: opGasLimit, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}

	tbl[POP] = &operation{execute: opPop, constantGas: GasQuickStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0)}
	tbl[MLOAD] = &operation{execute: opMload, constantGas: GasFastestStep, dynamicGas: gasMemExpansion, minStack: minStack(1, 1), maxStack: maxStack(1, 1), memorySize: memoryMload}
	tbl[MSTORE] = &operation{execute: opMstore, constantGas: GasFastestStep, dynamicGas: gasMemExpansion, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryMstore}
	tbl[MSTORE8] = &operation{execute: opMstore8, constantGas: GasFastestStep, dynamicGas: gasMemExpansion, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryMstore8}
	tbl[SLOAD] = &operation{execute: opSload, constantGas: SloadGas, minStack: minStack(1, 1), maxStack: maxStack(1, 1)}
	tbl[SSTORE] = &operation{execute: opSstore, constantGas: 0, dynamicGas: gasSstore, minStack: minStack(2, 0), maxStack: maxStack(2, 0), writes: true}
	tbl[JUMP] = &operation{execute: opJump, constantGas: GasMidStep, minStack: minStack(1, 0), maxStack: maxStack(1, 0), jumps: true}
	tbl[JUMPI] = &operation{execute: opJumpi, constantGas: GasSlowStep, minStack: minStack(2, 0), maxStack: maxStack(2, 0), jumps: true}
	tbl[PC] = &operation{execute: opPc, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[MSIZE] = &operation{execute: opMsize, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[GAS] = &operation{execute: opGas, constantGas: GasQuickStep, minStack: minStack(0, 1), maxStack: maxStack(0, 1)}
	tbl[JUMPDEST] = &operation{execute: opJumpdest, constantGas: JumpdestGas, minStack: minStack(0, 0), maxStack: maxStack(0, 0)}

	for i := 0; i < 32; i++ {
		tbl[PUSH1+OpCode(i)] = &operation{
			execute:     makePush(uint64(i + 1)),
			constantGas: GasFastestStep,
			minStack:    minStack(0, 1),
			maxStack:    maxStack(0, 1),
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[DUP1+OpCode(i-1)] = &operation{
			execute:     makeDup(i),
			constantGas: GasFastestStep,
			minStack:    minStack(i, i+1),
			maxStack:    maxStack(i, i+1),
		}
	}
	for i := 1; i <= 16; i++ {
		tbl[SWAP1+OpCode(i-1)] = &operation{
			execute:     makeSwap(i),
			constantGas: GasFastestStep,
			minStack:    minStack(i+1, i+1),
			maxStack:    maxStack(i+1, i+1),
		}
	}
	for i := 0; i <= 4; i++ {
		n := i
		tbl[LOG0+OpCode(i)] = &operation{
			execute:     makeLog(n),
			constantGas: LogGas,
			dynamicGas:  makeGasLog(uint64(n)),
			minStack:    minStack(2+n, 0),
			maxStack:    maxStack(2+n, 0),
			memorySize:  memoryLog,
			writes:      true,
		}
	}

	tbl[CREATE] = &operation{execute: opCreate, constantGas: CreateGas, dynamicGas: gasMemExpansion, minStack: minStack(3, 1), maxStack: maxStack(3, 1), memorySize: memoryCreate, writes: true}
	tbl[CALL] = &operation{execute: opCall, constantGas: CallGas, dynamicGas: gasCall, minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memoryCall}
	tbl[CALLCODE] = &operation{execute: opCallCode, constantGas: CallGas, dynamicGas: gasCallCode, minStack: minStack(7, 1), maxStack: maxStack(7, 1), memorySize: memoryCall}
	tbl[RETURN] = &operation{execute: opReturn, constantGas: 0, dynamicGas: gasMemExpansion, minStack: minStack(2, 0), maxStack: maxStack(2, 0), memorySize: memoryReturn, halts: true}
	tbl[SELFDESTRUCT] = &operation{execute: opSelfdestruct, constantGas: 0, minStack: minStack(1, 0), maxStack: maxStack(1, 0), halts: true, writes: true}

	return tbl
}

// NewHomesteadInstructionSet returns the Homestead instruction set:
// Frontier plus DELEGATECALL.
func NewHomesteadInstructionSet() JumpTable {
	tbl := NewFrontierInstructionSet()
	tbl[DELEGATECALL] = &operation{execute: opDelegateCall, constantGas: CallGas, dynamicGas: gasDelegateCall, minStack: minStack(6, 1), maxStack: maxStack(6, 1), memorySize: memoryDelegateCall}
	return tbl
}

package vm

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/crypto"
)

func opAdd(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Add(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Sub(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Mul(&x, y)
	return nil, nil
}

func opDiv(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Div(&x, y)
	return nil, nil
}

func opSdiv(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.SMod(&x, y)
	return nil, nil
}

func opAddmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y, z := stack.Pop(), stack.Pop(), stack.Peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y, z := stack.Pop(), stack.Pop(), stack.Peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	base, exponent := stack.Pop(), stack.Peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	back, num := stack.Pop(), stack.Peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

func opLt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIsZero(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.Pop(), stack.Peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	th, val := stack.Pop(), stack.Peek()
	val.Byte(&th)
	return nil, nil
}

func opSha3(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, size := stack.Pop(), stack.Peek()
	data := memory.GetPtr(offset.Uint64(), size.Uint64())
	hash := crypto.Keccak256(data)
	size.SetBytes(hash)
	return nil, nil
}

func opAddress(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(contract.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	slot := stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	balance, _ := uint256.FromBig(evm.StateDB.GetBalance(addr))
	slot.Set(balance)
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int)
	if contract.Value != nil {
		v.SetFromBig(contract.Value)
	}
	stack.Push(v)
	return nil, nil
}

func opCalldataLoad(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.Peek()
	data := make([]byte, 32)
	if x.IsUint64() {
		if offset := x.Uint64(); offset < uint64(len(contract.Input)) {
			copy(data, contract.Input[offset:])
		}
	}
	x.SetBytes(data)
	return nil, nil
}

func opCalldataSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(len(contract.Input))))
	return nil, nil
}

func opCalldataCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	memOffset, dataOffset, length := stack.Pop(), stack.Pop(), stack.Pop()
	if length.IsZero() {
		return nil, nil
	}
	memory.Set(memOffset.Uint64(), length.Uint64(), paddedSlice(contract.Input, &dataOffset, length.Uint64()))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(len(contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	memOffset, codeOffset, length := stack.Pop(), stack.Pop(), stack.Pop()
	if length.IsZero() {
		return nil, nil
	}
	memory.Set(memOffset.Uint64(), length.Uint64(), paddedSlice(contract.Code, &codeOffset, length.Uint64()))
	return nil, nil
}

func opGasPrice(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int)
	if evm.TxContext.GasPrice != nil {
		v.SetFromBig(evm.TxContext.GasPrice)
	}
	stack.Push(v)
	return nil, nil
}

func opExtCodeSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	slot := stack.Peek()
	addr := types.BytesToAddress(slot.Bytes())
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(addr)))
	return nil, nil
}

func opExtCodeCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	a, memOffset, codeOffset, length := stack.Pop(), stack.Pop(), stack.Pop(), stack.Pop()
	if length.IsZero() {
		return nil, nil
	}
	addr := types.BytesToAddress(a.Bytes())
	code := evm.StateDB.GetCode(addr)
	memory.Set(memOffset.Uint64(), length.Uint64(), paddedSlice(code, &codeOffset, length.Uint64()))
	return nil, nil
}

// paddedSlice returns length bytes of data starting at offset, zero-padded
// past the end of data. Offsets beyond data yield all zeros.
func paddedSlice(data []byte, offset *uint256.Int, length uint64) []byte {
	out := make([]byte, length)
	if offset.IsUint64() {
		if off := offset.Uint64(); off < uint64(len(data)) {
			copy(out, data[off:])
		}
	}
	return out
}

func opBlockhash(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	num := stack.Peek()
	if !num.IsUint64() {
		num.Clear()
		return nil, nil
	}
	n := num.Uint64()
	current := evm.Context.BlockNumber
	var lower uint64
	if current > 256 {
		lower = current - 256
	}
	if n >= lower && n < current && evm.Context.GetHash != nil {
		hash := evm.Context.GetHash(n)
		num.SetBytes(hash.Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetBytes(evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.Context.BlockNumber))
	return nil, nil
}

func opDifficulty(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v := new(uint256.Int)
	if evm.Context.Difficulty != nil {
		v.SetFromBig(evm.Context.Difficulty)
	}
	stack.Push(v)
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

func opPop(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v := stack.Peek()
	offset := v.Uint64()
	v.SetBytes(memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, val := stack.Pop(), stack.Pop()
	memory.Set32(offset.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, val := stack.Pop(), stack.Pop()
	memory.Set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	loc := stack.Peek()
	val := evm.StateDB.GetState(contract.Address, types.Hash(loc.Bytes32()))
	loc.SetBytes(val.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	loc, val := stack.Pop(), stack.Pop()
	evm.StateDB.SetState(contract.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	pos := stack.Pop()
	if !contract.validJumpdest(&pos) {
		return nil, ErrInvalidJump
	}
	*pc = pos.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	pos, cond := stack.Pop(), stack.Pop()
	if !cond.IsZero() {
		if !contract.validJumpdest(&pos) {
			return nil, ErrInvalidJump
		}
		*pc = pos.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(uint64(memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Push(new(uint256.Int).SetUint64(contract.Gas))
	return nil, nil
}

// makePush reads size immediate bytes following the opcode, zero-extended
// when the code ends early, and advances the pc past them.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		start := *pc + 1
		end := start + size
		codeLen := uint64(len(contract.Code))

		var data []byte
		switch {
		case start >= codeLen:
			data = make([]byte, size)
		case end > codeLen:
			data = make([]byte, size)
			copy(data, contract.Code[start:codeLen])
		default:
			data = contract.Code[start:end]
		}
		stack.Push(new(uint256.Int).SetBytes(data))
		*pc += size
		return nil, nil
	}
}

func makeDup(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		stack.Dup(n)
		return nil, nil
	}
}

func makeSwap(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		stack.Swap(n)
		return nil, nil
	}
}

// makeLog pops memory bounds and n topic words, then appends the log entry.
func makeLog(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		offset, size := stack.Pop(), stack.Pop()
		topics := make([]types.Hash, n)
		for i := 0; i < n; i++ {
			t := stack.Pop()
			topics[i] = types.Hash(t.Bytes32())
		}
		data := memory.Get(offset.Uint64(), size.Uint64())
		evm.StateDB.AddLog(&types.Log{
			Address: contract.Address,
			Topics:  topics,
			Data:    data,
		})
		return nil, nil
	}
}

func opStop(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

func opReturn(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, size := stack.Pop(), stack.Pop()
	return memory.Get(offset.Uint64(), size.Uint64()), nil
}

func opSelfdestruct(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	b := stack.Pop()
	beneficiary := types.BytesToAddress(b.Bytes())
	if !evm.StateDB.HasSelfDestructed(contract.Address) {
		evm.StateDB.AddRefund(SelfdestructRefundGas)
	}
	balance := evm.StateDB.GetBalance(contract.Address)
	evm.StateDB.AddBalance(beneficiary, balance)
	evm.StateDB.SelfDestruct(contract.Address, beneficiary)
	return nil, nil
}

func opCall(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	// Pop the gas operand; the forwarded amount was fixed by gasCall.
	stack.Pop()
	a, value := stack.Pop(), stack.Pop()
	inOffset, inSize := stack.Pop(), stack.Pop()
	retOffset, retSize := stack.Pop(), stack.Pop()

	addr := types.BytesToAddress(a.Bytes())
	args := memory.Get(inOffset.Uint64(), inSize.Uint64())

	childGas := evm.callGasTemp
	if !value.IsZero() {
		childGas += CallStipend
	}
	ret, returnGas, err := evm.Call(contract.Address, addr, args, childGas, value.ToBig())
	integrateCallResult(evm, contract, memory, stack, ret, returnGas, err, &retOffset, &retSize)
	return nil, nil
}

func opCallCode(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Pop()
	a, value := stack.Pop(), stack.Pop()
	inOffset, inSize := stack.Pop(), stack.Pop()
	retOffset, retSize := stack.Pop(), stack.Pop()

	addr := types.BytesToAddress(a.Bytes())
	args := memory.Get(inOffset.Uint64(), inSize.Uint64())

	childGas := evm.callGasTemp
	if !value.IsZero() {
		childGas += CallStipend
	}
	ret, returnGas, err := evm.CallCode(contract.Address, addr, args, childGas, value.ToBig())
	integrateCallResult(evm, contract, memory, stack, ret, returnGas, err, &retOffset, &retSize)
	return nil, nil
}

func opDelegateCall(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.Pop()
	a := stack.Pop()
	inOffset, inSize := stack.Pop(), stack.Pop()
	retOffset, retSize := stack.Pop(), stack.Pop()

	addr := types.BytesToAddress(a.Bytes())
	args := memory.Get(inOffset.Uint64(), inSize.Uint64())

	ret, returnGas, err := evm.DelegateCall(contract, addr, args, evm.callGasTemp)
	integrateCallResult(evm, contract, memory, stack, ret, returnGas, err, &retOffset, &retSize)
	return nil, nil
}

// integrateCallResult folds a child frame's outcome back into the parent:
// unused gas is returned, the child's return data is copied into parent
// memory capped at retSize, and the success flag is pushed. Cheap failures
// (depth exhaustion, insufficient balance) also hand back the forwarded
// gas and value surcharges, leaving the parent charged only the base cost.
func integrateCallResult(evm *EVM, contract *Contract, memory *Memory, stack *Stack, ret []byte, returnGas uint64, err error, retOffset, retSize *uint256.Int) {
	switch {
	case err == nil:
		contract.RefundGas(returnGas)
		stack.Push(u256_1)
	case errors.Is(err, ErrMaxCallDepthExceeded) || errors.Is(err, ErrInsufficientBalance):
		contract.RefundGas(evm.callGasTemp + evm.callSurchargeTemp)
		stack.Push(new(uint256.Int))
	default:
		stack.Push(new(uint256.Int))
	}
	if err == nil && len(ret) > 0 && !retSize.IsZero() {
		n := retSize.Uint64()
		if uint64(len(ret)) < n {
			n = uint64(len(ret))
		}
		memory.Set(retOffset.Uint64(), n, ret)
	}
}

func opCreate(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	value := stack.Pop()
	offset, size := stack.Pop(), stack.Pop()
	initCode := memory.Get(offset.Uint64(), size.Uint64())

	// CREATE forwards the frame's entire remaining budget.
	callGas := contract.Gas
	contract.Gas = 0

	_, addr, returnGas, err := evm.Create(contract.Address, initCode, callGas, value.ToBig())
	contract.RefundGas(returnGas)

	if err != nil {
		stack.Push(new(uint256.Int))
	} else {
		stack.Push(new(uint256.Int).SetBytes(addr.Bytes()))
	}
	return nil, nil
}

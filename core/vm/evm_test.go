package vm

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/state"
	"github.com/hearthvm/hearth/core/types"
)

var (
	addrA = types.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = types.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	addrL = types.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func newTestEVMWithState() (*EVM, *state.StateDB) {
	statedb := state.New()
	evm := NewEVM(
		BlockContext{
			Coinbase:    types.HexToAddress("0x0000000000000000000000000000000000c0ffee"),
			BlockNumber: 100,
			Time:        1463000000,
			Difficulty:  big.NewInt(131072),
			GasLimit:    4712388,
		},
		TxContext{Origin: addrA, GasPrice: big.NewInt(1)},
		statedb,
		Config{},
	)
	return evm, statedb
}

func TestCallValueTransfer(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	_, gasLeft, err := evm.Call(addrA, addrB, nil, 50000, big.NewInt(100))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gasLeft != 50000 {
		t.Errorf("codeless call consumed gas: left %d", gasLeft)
	}
	if got := statedb.GetBalance(addrA); got.Cmp(big.NewInt(900)) != 0 {
		t.Errorf("sender balance = %v, want 900", got)
	}
	if got := statedb.GetBalance(addrB); got.Cmp(big.NewInt(100)) != 0 {
		t.Errorf("recipient balance = %v, want 100", got)
	}
	if !statedb.Exist(addrB) {
		t.Errorf("recipient was not materialized")
	}
}

func TestCallInsufficientBalance(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(50))

	_, gasLeft, err := evm.Call(addrA, addrB, nil, 50000, big.NewInt(100))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
	if gasLeft != 50000 {
		t.Errorf("cheap failure consumed gas: left %d", gasLeft)
	}
	if got := statedb.GetBalance(addrA); got.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("sender balance changed: %v", got)
	}
	if statedb.CheckpointDepth() != 0 {
		t.Errorf("checkpoint leaked: depth %d", statedb.CheckpointDepth())
	}
}

func TestCallDepthLimit(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))
	evm.depth = CallCreateDepth

	_, gasLeft, err := evm.Call(addrA, addrB, nil, 50000, nil)
	if !errors.Is(err, ErrMaxCallDepthExceeded) {
		t.Fatalf("err = %v, want ErrMaxCallDepthExceeded", err)
	}
	if gasLeft != 50000 {
		t.Errorf("depth failure consumed gas: left %d", gasLeft)
	}
}

func TestCallRevertsStateOnError(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))
	// Callee stores 1 at slot 0 then runs an invalid opcode.
	statedb.SetCode(addrB, []byte{
		0x60, 0x01, 0x60, 0x00, byte(SSTORE),
		0xfe,
	})

	_, gasLeft, err := evm.Call(addrA, addrB, nil, 50000, big.NewInt(7))
	if !errors.Is(err, ErrInvalidOpCode) {
		t.Fatalf("err = %v, want ErrInvalidOpCode", err)
	}
	if gasLeft != 0 {
		t.Errorf("failed frame kept gas: %d", gasLeft)
	}
	if got := statedb.GetState(addrB, types.Hash{}); got != (types.Hash{}) {
		t.Errorf("storage write survived revert: %x", got)
	}
	if got := statedb.GetBalance(addrA); got.Cmp(big.NewInt(1000)) != 0 {
		t.Errorf("value transfer survived revert: sender = %v", got)
	}
}

// TestNestedCallOutOfGas is the child-OOG scenario: the child burns its
// forwarded allotment, the parent sees a 0 and keeps running.
func TestNestedCallOutOfGas(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	// Child: JUMPDEST; PUSH1 0; JUMP -- an infinite loop.
	statedb.SetCode(addrB, []byte{byte(JUMPDEST), 0x60, 0x00, byte(JUMP)})

	// Parent: CALL B forwarding far more than remains, then return the
	// success flag.
	code := []byte{
		0x60, 0x00, // retSize
		0x60, 0x00, // retOffset
		0x60, 0x00, // inSize
		0x60, 0x00, // inOffset
		0x60, 0x00, // value
		byte(PUSH20),
	}
	code = append(code, addrB.Bytes()...)
	code = append(code, 0x61, 0xff, 0xff, byte(CALL)) // PUSH2 0xffff gas
	code = append(code, returnTop...)

	statedb.SetCode(addrA, code)
	ret, _, err := evm.Call(addrA, addrA, nil, 5000, nil)
	if err != nil {
		t.Fatalf("parent failed: %v", err)
	}
	if got := new(uint256.Int).SetBytes(ret); !got.IsZero() {
		t.Errorf("parent saw child success flag %d, want 0", got.Uint64())
	}
}

func TestCallStipendRunsFallback(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))
	// Callee does trivial work: the 2300 stipend must cover it even when
	// the parent forwards zero gas.
	statedb.SetCode(addrB, []byte{0x60, 0x01, 0x50, byte(STOP)}) // PUSH1 1, POP

	code := []byte{
		0x60, 0x00, // retSize
		0x60, 0x00, // retOffset
		0x60, 0x00, // inSize
		0x60, 0x00, // inOffset
		0x60, 0x01, // value = 1
		byte(PUSH20),
	}
	code = append(code, addrB.Bytes()...)
	code = append(code, 0x60, 0x00, byte(CALL)) // forward 0 gas
	code = append(code, returnTop...)

	statedb.SetCode(addrA, code)
	ret, _, err := evm.Call(addrA, addrA, nil, 60000, nil)
	if err != nil {
		t.Fatalf("parent failed: %v", err)
	}
	if got := new(uint256.Int).SetBytes(ret); got.Uint64() != 1 {
		t.Errorf("stipended call flag = %d, want 1", got.Uint64())
	}
	if got := statedb.GetBalance(addrB); got.Cmp(big.NewInt(1)) != 0 {
		t.Errorf("callee balance = %v, want 1", got)
	}
}

// TestDelegateCallContext checks that the library code observes the
// parent's address, caller, and value, and writes the parent's storage.
func TestDelegateCallContext(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	// Library: SSTORE(0, CALLER); SSTORE(1, ADDRESS); SSTORE(2, CALLVALUE)
	statedb.SetCode(addrL, []byte{
		byte(CALLER), 0x60, 0x00, byte(SSTORE),
		byte(ADDRESS), 0x60, 0x01, byte(SSTORE),
		byte(CALLVALUE), 0x60, 0x02, byte(SSTORE),
		byte(STOP),
	})

	// Parent at B delegatecalls L.
	code := []byte{
		0x60, 0x00, // retSize
		0x60, 0x00, // retOffset
		0x60, 0x00, // inSize
		0x60, 0x00, // inOffset
		byte(PUSH20),
	}
	code = append(code, addrL.Bytes()...)
	code = append(code, 0x62, 0x01, 0x00, 0x00, byte(DELEGATECALL), byte(STOP))
	statedb.SetCode(addrB, code)

	// A calls B with value 55.
	if _, _, err := evm.Call(addrA, addrB, nil, 200000, big.NewInt(55)); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	slot := func(n byte) types.Hash {
		return statedb.GetState(addrB, types.BytesToHash([]byte{n}))
	}
	if got := slot(0); got != addrA.Hash() {
		t.Errorf("CALLER inside library = %x, want %x", got, addrA.Hash())
	}
	if got := slot(1); got != addrB.Hash() {
		t.Errorf("ADDRESS inside library = %x, want %x", got, addrB.Hash())
	}
	if got := slot(2); got != types.BytesToHash([]byte{55}) {
		t.Errorf("CALLVALUE inside library = %x, want 55", got)
	}
	// The library's own storage stays untouched.
	if got := statedb.GetState(addrL, types.BytesToHash([]byte{0})); got != (types.Hash{}) {
		t.Errorf("library storage written: %x", got)
	}
}

func TestCreateDeploysCode(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))
	statedb.SetNonce(addrA, 3)

	// Init code returning the 2-byte runtime {STOP, STOP}: fresh memory
	// is zero, so RETURN 2 bytes from offset 0.
	initCode := []byte{0x60, 0x02, 0x60, 0x00, 0xf3} // PUSH1 2, PUSH1 0, RETURN

	ret, addr, gasLeft, err := evm.Create(addrA, initCode, 100000, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := CreateAddress(addrA, 3); addr != want {
		t.Errorf("created address = %s, want %s", addr, want)
	}
	if len(ret) != 2 {
		t.Errorf("deployed %d bytes, want 2", len(ret))
	}
	if !bytes.Equal(statedb.GetCode(addr), ret) {
		t.Errorf("stored code %x != returned %x", statedb.GetCode(addr), ret)
	}
	if statedb.GetNonce(addrA) != 4 {
		t.Errorf("creator nonce = %d, want 4", statedb.GetNonce(addrA))
	}
	// Charged: two pushes and RETURN (3+3+0) + memory (1 word) + deposit.
	used := 100000 - gasLeft
	wantUsed := uint64(3+3) + 3 + 2*CreateDataGas
	if used != wantUsed {
		t.Errorf("gasUsed = %d, want %d", used, wantUsed)
	}
}

func TestCreateOversizeReturn(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	// Init code returns MaxCodeSize+1 bytes of zeros.
	initCode := []byte{
		0x61, 0x60, 0x01, // PUSH2 24577
		0x60, 0x00, // PUSH1 0
		0xf3, // RETURN
	}
	_, addr, gasLeft, err := evm.Create(addrA, initCode, 1000000, nil)
	if !errors.Is(err, ErrMaxCodeSizeExceeded) {
		t.Fatalf("err = %v, want ErrMaxCodeSizeExceeded", err)
	}
	if gasLeft != 0 {
		t.Errorf("oversize creation kept gas: %d", gasLeft)
	}
	if code := statedb.GetCode(addr); len(code) != 0 {
		t.Errorf("code persisted after failed creation: %d bytes", len(code))
	}
	if statedb.Exist(addr) {
		t.Errorf("created account persisted after revert")
	}
}

func TestCreateCodeDepositOutOfGas(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	// Return 32 bytes; give just enough to run the init code (6 gas plus
	// one memory word) but not the 6400-gas deposit.
	initCode := []byte{0x60, 0x20, 0x60, 0x00, 0xf3}
	_, _, gasLeft, err := evm.Create(addrA, initCode, 200, nil)
	if !errors.Is(err, ErrCodeStoreOutOfGas) {
		t.Fatalf("err = %v, want ErrCodeStoreOutOfGas", err)
	}
	if gasLeft != 0 {
		t.Errorf("failed creation kept gas: %d", gasLeft)
	}
}

func TestSstoreRefund(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))
	statedb.SetState(addrB, types.Hash{}, types.BytesToHash([]byte{1}))
	// PUSH1 0, PUSH1 0, SSTORE
	statedb.SetCode(addrB, []byte{0x60, 0x00, 0x60, 0x00, byte(SSTORE), byte(STOP)})

	_, gasLeft, err := evm.Call(addrA, addrB, nil, 20000, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if used := 20000 - gasLeft; used != 3+3+SstoreResetGas {
		t.Errorf("gasUsed = %d, want %d", used, 3+3+SstoreResetGas)
	}
	if statedb.Refund() != SstoreRefundGas {
		t.Errorf("refund = %d, want %d", statedb.Refund(), SstoreRefundGas)
	}
	if got := statedb.GetState(addrB, types.Hash{}); got != (types.Hash{}) {
		t.Errorf("slot not cleared: %x", got)
	}
}

func TestCreateAddressDerivation(t *testing.T) {
	// keccak256(rlp([sender, nonce]))[12:] with the canonical geth vector:
	// sender 0x970e8128ab834e8eac17ab8e3812f010678cf791, nonce 0
	sender := types.HexToAddress("0x970e8128ab834e8eac17ab8e3812f010678cf791")
	want := types.HexToAddress("0x333c3310824b7c685133f2bedb2ca4b8b4df633d")
	if got := CreateAddress(sender, 0); got != want {
		t.Errorf("CreateAddress(nonce 0) = %s, want %s", got, want)
	}
}

func TestCallToPrecompileIdentity(t *testing.T) {
	evm, statedb := newTestEVMWithState()
	statedb.AddBalance(addrA, big.NewInt(1000))

	input := []byte{1, 2, 3, 4}
	ret, gasLeft, err := evm.Call(addrA, types.BytesToAddress([]byte{4}), input, 1000, nil)
	if err != nil {
		t.Fatalf("identity call: %v", err)
	}
	if !bytes.Equal(ret, input) {
		t.Errorf("identity returned %x, want %x", ret, input)
	}
	if used := 1000 - gasLeft; used != IdentityBaseGas+IdentityPerWordGas {
		t.Errorf("identity gas = %d, want %d", used, IdentityBaseGas+IdentityPerWordGas)
	}
}

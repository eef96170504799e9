package vm

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/state"
	"github.com/hearthvm/hearth/core/types"
)

func newTestEVM() *EVM {
	return NewEVM(
		BlockContext{
			Coinbase:    types.HexToAddress("0x0000000000000000000000000000000000c0ffee"),
			BlockNumber: 100,
			Time:        1463000000,
			Difficulty:  big.NewInt(131072),
			GasLimit:    4712388,
		},
		TxContext{
			Origin:   types.HexToAddress("0x1111111111111111111111111111111111111111"),
			GasPrice: big.NewInt(1),
		},
		state.New(),
		Config{},
	)
}

// push32 appends a PUSH32 instruction for val to code.
func push32(code []byte, val *uint256.Int) []byte {
	b32 := val.Bytes32()
	code = append(code, byte(PUSH32))
	return append(code, b32[:]...)
}

// returnTop stores the stack top at memory 0 and returns it.
var returnTop = []byte{
	byte(PUSH1), 0, byte(MSTORE),
	byte(PUSH1), 32, byte(PUSH1), 0, byte(RETURN),
}

// runBinaryOp executes "x <op> y" and returns the 32-byte result.
func runBinaryOp(t *testing.T, op OpCode, x, y *uint256.Int) []byte {
	t.Helper()
	evm := newTestEVM()
	code := push32(nil, y)
	code = push32(code, x)
	code = append(code, byte(op))
	code = append(code, returnTop...)

	ret, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil)
	if err != nil {
		t.Fatalf("RunCode(%v): %v", op, err)
	}
	return ret
}

func u256FromHex(t *testing.T, s string) *uint256.Int {
	t.Helper()
	v, err := uint256.FromHex(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return v
}

func TestArithmeticOps(t *testing.T) {
	maxWord := u256FromHex(t, "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")
	minusOne := maxWord
	minusTwo := u256FromHex(t, "0xfffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffe")

	tests := []struct {
		name string
		op   OpCode
		x, y *uint256.Int
		want *uint256.Int
	}{
		{"add", ADD, uint256.NewInt(2), uint256.NewInt(3), uint256.NewInt(5)},
		{"add wraps", ADD, maxWord, uint256.NewInt(1), uint256.NewInt(0)},
		{"sub", SUB, uint256.NewInt(10), uint256.NewInt(4), uint256.NewInt(6)},
		{"sub wraps", SUB, uint256.NewInt(0), uint256.NewInt(1), maxWord},
		{"mul", MUL, uint256.NewInt(6), uint256.NewInt(7), uint256.NewInt(42)},
		{"div", DIV, uint256.NewInt(42), uint256.NewInt(6), uint256.NewInt(7)},
		{"div by zero", DIV, uint256.NewInt(42), uint256.NewInt(0), uint256.NewInt(0)},
		{"mod", MOD, uint256.NewInt(43), uint256.NewInt(6), uint256.NewInt(1)},
		{"mod by zero", MOD, uint256.NewInt(43), uint256.NewInt(0), uint256.NewInt(0)},
		{"sdiv", SDIV, minusTwo, uint256.NewInt(2), minusOne},
		{"sdiv by zero", SDIV, minusTwo, uint256.NewInt(0), uint256.NewInt(0)},
		{"smod", SMOD, minusOne, uint256.NewInt(2), minusOne},
		{"exp", EXP, uint256.NewInt(2), uint256.NewInt(10), uint256.NewInt(1024)},
		{"exp zero exponent", EXP, uint256.NewInt(99), uint256.NewInt(0), uint256.NewInt(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runBinaryOp(t, tt.op, tt.x, tt.y)
			want := tt.want.Bytes32()
			if !bytes.Equal(got, want[:]) {
				t.Errorf("%s: got %x, want %x", tt.name, got, want)
			}
		})
	}
}

func TestAddmodMulmod(t *testing.T) {
	evm := newTestEVM()
	// ADDMOD(10, 10, 8) = 4
	code := push32(nil, uint256.NewInt(8))
	code = push32(code, uint256.NewInt(10))
	code = push32(code, uint256.NewInt(10))
	code = append(code, byte(ADDMOD))
	code = append(code, returnTop...)
	ret, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil)
	if err != nil {
		t.Fatalf("ADDMOD: %v", err)
	}
	if got := new(uint256.Int).SetBytes(ret); got.Uint64() != 4 {
		t.Errorf("ADDMOD(10,10,8) = %d, want 4", got.Uint64())
	}

	// MULMOD(10, 10, 8) = 4
	evm = newTestEVM()
	code = push32(nil, uint256.NewInt(8))
	code = push32(code, uint256.NewInt(10))
	code = push32(code, uint256.NewInt(10))
	code = append(code, byte(MULMOD))
	code = append(code, returnTop...)
	ret, _, err = evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil)
	if err != nil {
		t.Fatalf("MULMOD: %v", err)
	}
	if got := new(uint256.Int).SetBytes(ret); got.Uint64() != 4 {
		t.Errorf("MULMOD(10,10,8) = %d, want 4", got.Uint64())
	}
}

func TestComparisonOps(t *testing.T) {
	minusOne := u256FromHex(t, "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff")

	tests := []struct {
		name string
		op   OpCode
		x, y *uint256.Int
		want uint64
	}{
		{"lt true", LT, uint256.NewInt(1), uint256.NewInt(2), 1},
		{"lt false", LT, uint256.NewInt(2), uint256.NewInt(1), 0},
		{"gt true", GT, uint256.NewInt(2), uint256.NewInt(1), 1},
		{"slt signed", SLT, minusOne, uint256.NewInt(0), 1},
		{"sgt signed", SGT, uint256.NewInt(0), minusOne, 1},
		{"eq true", EQ, uint256.NewInt(5), uint256.NewInt(5), 1},
		{"eq false", EQ, uint256.NewInt(5), uint256.NewInt(6), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := runBinaryOp(t, tt.op, tt.x, tt.y)
			if got := new(uint256.Int).SetBytes(ret); got.Uint64() != tt.want {
				t.Errorf("%s: got %d, want %d", tt.name, got.Uint64(), tt.want)
			}
		})
	}
}

func TestSignExtend(t *testing.T) {
	// SIGNEXTEND(0, 0xff) = -1 (all ones).
	ret := runBinaryOp(t, SIGNEXTEND, uint256.NewInt(0), uint256.NewInt(0xff))
	want := u256FromHex(t, "0xffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff").Bytes32()
	if !bytes.Equal(ret, want[:]) {
		t.Errorf("SIGNEXTEND(0, 0xff) = %x, want %x", ret, want)
	}

	// SIGNEXTEND(0, 0x7f) stays positive.
	ret = runBinaryOp(t, SIGNEXTEND, uint256.NewInt(0), uint256.NewInt(0x7f))
	want2 := uint256.NewInt(0x7f).Bytes32()
	if !bytes.Equal(ret, want2[:]) {
		t.Errorf("SIGNEXTEND(0, 0x7f) = %x, want %x", ret, want2)
	}

	// k >= 31 leaves the word untouched.
	v := u256FromHex(t, "0xff00000000000000000000000000000000000000000000000000000000000001")
	ret = runBinaryOp(t, SIGNEXTEND, uint256.NewInt(31), v)
	want3 := v.Bytes32()
	if !bytes.Equal(ret, want3[:]) {
		t.Errorf("SIGNEXTEND(31, v) = %x, want %x", ret, want3)
	}
}

func TestByteOp(t *testing.T) {
	v := u256FromHex(t, "0x102030405060708090a0b0c0d0e0f0102030405060708090a0b0c0d0e0f01020")
	ret := runBinaryOp(t, BYTE, uint256.NewInt(0), v)
	if got := new(uint256.Int).SetBytes(ret); got.Uint64() != 0x10 {
		t.Errorf("BYTE(0) = %#x, want 0x10", got.Uint64())
	}
	ret = runBinaryOp(t, BYTE, uint256.NewInt(31), v)
	if got := new(uint256.Int).SetBytes(ret); got.Uint64() != 0x20 {
		t.Errorf("BYTE(31) = %#x, want 0x20", got.Uint64())
	}
	ret = runBinaryOp(t, BYTE, uint256.NewInt(32), v)
	if got := new(uint256.Int).SetBytes(ret); !got.IsZero() {
		t.Errorf("BYTE(32) = %#x, want 0", got.Uint64())
	}
}

func TestBitwiseOps(t *testing.T) {
	x := uint256.NewInt(0b1100)
	y := uint256.NewInt(0b1010)
	if got := new(uint256.Int).SetBytes(runBinaryOp(t, AND, x, y)); got.Uint64() != 0b1000 {
		t.Errorf("AND = %b, want 1000", got.Uint64())
	}
	if got := new(uint256.Int).SetBytes(runBinaryOp(t, OR, x, y)); got.Uint64() != 0b1110 {
		t.Errorf("OR = %b, want 1110", got.Uint64())
	}
	if got := new(uint256.Int).SetBytes(runBinaryOp(t, XOR, x, y)); got.Uint64() != 0b0110 {
		t.Errorf("XOR = %b, want 0110", got.Uint64())
	}
}

func TestSha3Op(t *testing.T) {
	evm := newTestEVM()
	// Hash 32 zero bytes: MSTORE 0 at 0 expands memory, then SHA3(0, 32).
	code := []byte{
		byte(PUSH1), 0, byte(PUSH1), 0, byte(MSTORE),
		byte(PUSH1), 32, byte(PUSH1), 0, byte(SHA3),
	}
	code = append(code, returnTop...)
	ret, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil)
	if err != nil {
		t.Fatalf("SHA3: %v", err)
	}
	// keccak256 of 32 zero bytes.
	want := types.HexToHash("290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e563")
	if !bytes.Equal(ret, want.Bytes()) {
		t.Errorf("SHA3(zeros) = %x, want %x", ret, want)
	}
}

func TestCalldataOps(t *testing.T) {
	evm := newTestEVM()
	// Return CALLDATALOAD(0).
	code := []byte{byte(PUSH1), 0, byte(CALLDATALOAD)}
	code = append(code, returnTop...)
	input := bytes.Repeat([]byte{0xab}, 32)
	ret, _, err := evm.RunCode(types.Address{}, types.Address{}, code, input, 100000, nil)
	if err != nil {
		t.Fatalf("CALLDATALOAD: %v", err)
	}
	if !bytes.Equal(ret, input) {
		t.Errorf("CALLDATALOAD(0) = %x, want %x", ret, input)
	}

	// Short calldata is zero-extended.
	ret, _, err = evm.RunCode(types.Address{}, types.Address{}, code, []byte{0xff}, 100000, nil)
	if err != nil {
		t.Fatalf("CALLDATALOAD short: %v", err)
	}
	want := make([]byte, 32)
	want[0] = 0xff
	if !bytes.Equal(ret, want) {
		t.Errorf("CALLDATALOAD(0) short = %x, want %x", ret, want)
	}
}

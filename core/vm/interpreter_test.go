package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/types"
)

func TestRunStop(t *testing.T) {
	evm := newTestEVM()
	ret, gasLeft, err := evm.RunCode(types.Address{}, types.Address{}, []byte{byte(STOP)}, nil, 100000, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if ret != nil {
		t.Errorf("STOP returned %x, want nil", ret)
	}
	if gasLeft != 100000 {
		t.Errorf("STOP consumed gas: left %d, want 100000", gasLeft)
	}
}

func TestRunImplicitStop(t *testing.T) {
	evm := newTestEVM()
	// Running past the end of code is an implicit STOP.
	code := []byte{byte(PUSH1), 1, byte(PUSH1), 2, byte(ADD)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("implicit STOP: %v", err)
	}
}

func TestRunAddReturnGas(t *testing.T) {
	evm := newTestEVM()
	// PUSH1 2, PUSH1 3, ADD, PUSH1 0, MSTORE, PUSH1 32, PUSH1 0, RETURN
	code := []byte{
		0x60, 0x02, 0x60, 0x03, 0x01,
		0x60, 0x00, 0x52,
		0x60, 0x20, 0x60, 0x00, 0xf3,
	}
	ret, gasLeft, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := uint256.NewInt(5).Bytes32()
	if !bytes.Equal(ret, want[:]) {
		t.Errorf("return = %x, want %x", ret, want)
	}
	// Seven 3-gas steps (five PUSH1, ADD, MSTORE), a free RETURN, plus one
	// word of memory expansion.
	if used := 100000 - gasLeft; used != 24 {
		t.Errorf("gasUsed = %d, want 24", used)
	}
}

func TestRunOutOfGas(t *testing.T) {
	evm := newTestEVM()
	code := []byte{0x60, 0x02, 0x60, 0x03, 0x01}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 8, nil); !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("err = %v, want ErrOutOfGas", err)
	}
}

func TestRunExactGas(t *testing.T) {
	evm := newTestEVM()
	code := []byte{0x60, 0x02, 0x60, 0x03, 0x01} // 9 gas
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 9, nil); err != nil {
		t.Fatalf("exact-gas run failed: %v", err)
	}
	evm = newTestEVM()
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 8, nil); !errors.Is(err, ErrOutOfGas) {
		t.Fatalf("limit-1 err = %v, want ErrOutOfGas", err)
	}
}

func TestRunStackUnderflow(t *testing.T) {
	evm := newTestEVM()
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, []byte{byte(ADD)}, nil, 100000, nil); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("err = %v, want ErrStackUnderflow", err)
	}
}

func TestRunStackOverflow(t *testing.T) {
	evm := newTestEVM()
	// 1025 pushes overflow the 1024-entry stack.
	var code []byte
	for i := 0; i < 1025; i++ {
		code = append(code, byte(PUSH1), 0)
	}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("err = %v, want ErrStackOverflow", err)
	}
}

func TestRunInvalidOpcode(t *testing.T) {
	evm := newTestEVM()
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, []byte{0xfe}, nil, 100000, nil); !errors.Is(err, ErrInvalidOpCode) {
		t.Fatalf("err = %v, want ErrInvalidOpCode", err)
	}
}

func TestRunJump(t *testing.T) {
	evm := newTestEVM()
	// PUSH1 4, JUMP, INVALID, JUMPDEST, STOP
	code := []byte{0x60, 0x04, byte(JUMP), 0xfe, byte(JUMPDEST), byte(STOP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("valid jump failed: %v", err)
	}
}

func TestRunInvalidJump(t *testing.T) {
	evm := newTestEVM()
	// Jump target 3 is not a JUMPDEST.
	code := []byte{0x60, 0x03, byte(JUMP), byte(STOP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("err = %v, want ErrInvalidJump", err)
	}
}

func TestRunJumpIntoPushData(t *testing.T) {
	evm := newTestEVM()
	// The 0x5b at offset 1 is PUSH1 immediate data, not a JUMPDEST.
	code := []byte{0x60, 0x5b, 0x60, 0x01, byte(JUMP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); !errors.Is(err, ErrInvalidJump) {
		t.Fatalf("err = %v, want ErrInvalidJump", err)
	}
}

func TestRunJumpiBranches(t *testing.T) {
	evm := newTestEVM()
	// Condition 0 falls through to STOP.
	code := []byte{0x60, 0x00, 0x60, 0x07, byte(JUMPI), byte(STOP), 0xfe, byte(JUMPDEST), byte(STOP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("JUMPI false branch: %v", err)
	}
	// Condition 1 jumps over the INVALID at 6.
	evm = newTestEVM()
	code = []byte{0x60, 0x01, 0x60, 0x07, byte(JUMPI), byte(STOP), 0xfe, byte(JUMPDEST), byte(STOP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("JUMPI true branch: %v", err)
	}
}

func TestRunPushTruncatedCode(t *testing.T) {
	evm := newTestEVM()
	// PUSH32 with only 2 immediate bytes: zero-extended, then implicit STOP.
	code := []byte{byte(PUSH32), 0xaa, 0xbb}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("truncated PUSH32: %v", err)
	}
}

func TestStepTracer(t *testing.T) {
	tracer := NewStructLogger()
	evm := newTestEVM()
	evm.Config = Config{Debug: true, Tracer: tracer}

	code := []byte{0x60, 0x01, 0x60, 0x02, 0x01, byte(STOP)}
	if _, _, err := evm.RunCode(types.Address{}, types.Address{}, code, nil, 100000, nil); err != nil {
		t.Fatalf("traced run: %v", err)
	}
	logs := tracer.StructLogs()
	if len(logs) != 4 {
		t.Fatalf("trace length = %d, want 4", len(logs))
	}
	wantOps := []OpCode{PUSH1, PUSH1, ADD, STOP}
	for i, l := range logs {
		if l.Op != wantOps[i] {
			t.Errorf("step %d op = %v, want %v", i, l.Op, wantOps[i])
		}
	}
	if logs[2].GasCost != GasFastestStep {
		t.Errorf("ADD cost = %d, want %d", logs[2].GasCost, GasFastestStep)
	}
}

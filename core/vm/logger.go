package vm

import (
	"math/big"

	"github.com/hearthvm/hearth/core/types"
)

// EVMLogger receives per-step and call-boundary events from the
// interpreter when tracing is enabled.
type EVMLogger interface {
	CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *big.Int)
	CaptureState(pc uint64, op OpCode, gas, cost uint64, stack *Stack, mem *Memory, depth int, err error)
	CaptureFault(pc uint64, op OpCode, gas uint64, depth int, err error)
	CaptureEnd(output []byte, gasUsed uint64, err error)
}

// StructLog is one traced step.
type StructLog struct {
	Pc         uint64
	Op         OpCode
	Gas        uint64
	GasCost    uint64
	Depth      int
	Stack      []string
	MemorySize int
	Err        error
}

// StructLogger collects an execution trace step by step.
type StructLogger struct {
	logs   []StructLog
	output []byte
	err    error
}

// NewStructLogger creates an empty trace collector.
func NewStructLogger() *StructLogger {
	return &StructLogger{}
}

// CaptureStart implements EVMLogger.
func (l *StructLogger) CaptureStart(from, to types.Address, create bool, input []byte, gas uint64, value *big.Int) {
}

// CaptureState implements EVMLogger.
func (l *StructLogger) CaptureState(pc uint64, op OpCode, gas, cost uint64, stack *Stack, mem *Memory, depth int, err error) {
	entry := StructLog{
		Pc:         pc,
		Op:         op,
		Gas:        gas,
		GasCost:    cost,
		Depth:      depth,
		MemorySize: mem.Len(),
		Err:        err,
	}
	for _, w := range stack.Data() {
		entry.Stack = append(entry.Stack, w.Hex())
	}
	l.logs = append(l.logs, entry)
}

// CaptureFault implements EVMLogger.
func (l *StructLogger) CaptureFault(pc uint64, op OpCode, gas uint64, depth int, err error) {
	l.logs = append(l.logs, StructLog{Pc: pc, Op: op, Gas: gas, Depth: depth, Err: err})
}

// CaptureEnd implements EVMLogger.
func (l *StructLogger) CaptureEnd(output []byte, gasUsed uint64, err error) {
	l.output = output
	l.err = err
}

// StructLogs returns the collected trace.
func (l *StructLogger) StructLogs() []StructLog {
	return l.logs
}

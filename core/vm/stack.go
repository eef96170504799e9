package vm

import "github.com/holiman/uint256"

// Stack is the 256-bit operand stack of a frame, bounded at 1024 entries.
// Bounds are enforced by the interpreter's per-opcode stack validation, so
// the accessors themselves do not re-check.
type Stack struct {
	data []uint256.Int
}

// NewStack returns an empty stack.
func NewStack() *Stack {
	return &Stack{data: make([]uint256.Int, 0, 16)}
}

// Push pushes a copy of val onto the stack.
func (st *Stack) Push(val *uint256.Int) {
	st.data = append(st.data, *val)
}

// Pop removes and returns the top element.
func (st *Stack) Pop() (ret uint256.Int) {
	ret = st.data[len(st.data)-1]
	st.data = st.data[:len(st.data)-1]
	return
}

// Peek returns a pointer to the top element.
func (st *Stack) Peek() *uint256.Int {
	return &st.data[len(st.data)-1]
}

// Back returns a pointer to the nth element from the top (0 = top).
func (st *Stack) Back(n int) *uint256.Int {
	return &st.data[len(st.data)-1-n]
}

// Swap exchanges the top element with the nth below it.
func (st *Stack) Swap(n int) {
	top := len(st.data) - 1
	st.data[top], st.data[top-n] = st.data[top-n], st.data[top]
}

// Dup pushes a copy of the nth element from the top (1 = top).
func (st *Stack) Dup(n int) {
	st.data = append(st.data, st.data[len(st.data)-n])
}

// Len returns the number of elements on the stack.
func (st *Stack) Len() int {
	return len(st.data)
}

// Data returns the backing slice, bottom to top.
func (st *Stack) Data() []uint256.Int {
	return st.data
}

package vm

import "github.com/holiman/uint256"

// Memory is the byte-addressable frame memory. It only ever grows; the
// expansion charge is levied by the gas functions before Resize is called.
type Memory struct {
	store []byte
}

// NewMemory returns an empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Resize grows the memory to size bytes. Shrinking never happens.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) < size {
		m.store = append(m.store, make([]byte, size-uint64(len(m.store)))...)
	}
}

// Set copies value into memory at offset. The region must already exist.
func (m *Memory) Set(offset, size uint64, value []byte) {
	if size == 0 {
		return
	}
	if offset+size > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	copy(m.store[offset:offset+size], value)
}

// Set32 writes val at offset as a 32-byte big-endian word.
func (m *Memory) Set32(offset uint64, val *uint256.Int) {
	if offset+32 > uint64(len(m.store)) {
		panic("vm: memory write out of bounds")
	}
	b32 := val.Bytes32()
	copy(m.store[offset:offset+32], b32[:])
}

// Get returns a copy of memory at [offset, offset+size).
func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	out := make([]byte, size)
	copy(out, m.store[offset:offset+size])
	return out
}

// GetPtr returns a direct reference into memory at [offset, offset+size).
func (m *Memory) GetPtr(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	return m.store[offset : offset+size]
}

// Len returns the current memory size in bytes.
func (m *Memory) Len() int {
	return len(m.store)
}

// Data returns the full backing slice.
func (m *Memory) Data() []byte {
	return m.store
}

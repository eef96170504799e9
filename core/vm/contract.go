package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/hearthvm/hearth/core/types"
)

// Contract holds the code and gas budget of one call frame.
type Contract struct {
	CallerAddress types.Address
	Address       types.Address
	Code          []byte
	CodeHash      types.Hash
	Input         []byte
	Gas           uint64
	Value         *big.Int

	jumpdests map[uint64]bool // lazily built valid-JUMPDEST set
}

// NewContract creates a contract frame record. value may be nil for
// DELEGATECALL frames, which inherit the parent's value for CALLVALUE.
func NewContract(caller, addr types.Address, value *big.Int, gas uint64) *Contract {
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
	}
}

// GetOp returns the opcode at position n; past the end of code it reads
// as STOP.
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas deducts gas from the frame budget, reporting false on exhaustion.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// RefundGas returns gas to the frame budget.
func (c *Contract) RefundGas(gas uint64) {
	c.Gas += gas
}

// validJumpdest reports whether dest is a JUMPDEST byte that lies outside
// any PUSH immediate.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	if !dest.IsUint64() {
		return false
	}
	udest := dest.Uint64()
	if udest >= uint64(len(c.Code)) || OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	return c.isCode(udest)
}

// isCode reports whether pos is an opcode position rather than PUSH data.
func (c *Contract) isCode(pos uint64) bool {
	if c.jumpdests == nil {
		c.jumpdests = analyzeJumpdests(c.Code)
	}
	return c.jumpdests[pos]
}

// analyzeJumpdests scans code once, recording every JUMPDEST byte that is
// not part of a PUSH immediate.
func analyzeJumpdests(code []byte) map[uint64]bool {
	dests := make(map[uint64]bool)
	for i := uint64(0); i < uint64(len(code)); i++ {
		op := OpCode(code[i])
		if op == JUMPDEST {
			dests[i] = true
		} else if op.IsPush() {
			i += uint64(op - PUSH1 + 1)
		}
	}
	return dests
}

package core

import (
	"errors"
	"fmt"
)

// ErrGasLimitReached is returned when a transaction's gas limit does not
// fit in the block's remaining gas allowance.
var ErrGasLimitReached = errors.New("tx has a higher gas limit than the block")

// GasPool tracks the gas still available to transactions in one block.
type GasPool uint64

// AddGas puts gas back into the pool (used to seed it with the block
// limit and to return a transaction's unused gas).
func (gp *GasPool) AddGas(amount uint64) *GasPool {
	if uint64(*gp) > (1<<64-1)-amount {
		panic("gas pool pushed above uint64")
	}
	*gp += GasPool(amount)
	return gp
}

// SubGas removes gas from the pool, failing when not enough remains.
func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return ErrGasLimitReached
	}
	*gp -= GasPool(amount)
	return nil
}

// Gas returns the remaining gas in the pool.
func (gp *GasPool) Gas() uint64 {
	return uint64(*gp)
}

func (gp *GasPool) String() string {
	return fmt.Sprintf("%d", uint64(*gp))
}

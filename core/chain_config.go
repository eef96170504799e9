// Package core applies transactions and blocks against the world state:
// up-front gas accounting, EVM dispatch, refunds, receipts, and block
// rewards.
package core

import "math/big"

// ChainConfig pins the chain identity and fork schedule. The execution
// core implements the rules in force at the Homestead fork.
type ChainConfig struct {
	ChainID        *big.Int
	HomesteadBlock *big.Int // block at which Homestead rules activate
}

// DefaultChainConfig is a config with Homestead active from genesis.
var DefaultChainConfig = &ChainConfig{
	ChainID:        big.NewInt(1),
	HomesteadBlock: big.NewInt(0),
}

// IsHomestead reports whether Homestead rules are active at blockNum.
func (c *ChainConfig) IsHomestead(blockNum *big.Int) bool {
	if c.HomesteadBlock == nil || blockNum == nil {
		return false
	}
	return c.HomesteadBlock.Cmp(blockNum) <= 0
}

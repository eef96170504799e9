package core

import (
	"errors"
	"math/big"

	"github.com/hearthvm/hearth/core/state"
	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/core/vm"
	"github.com/hearthvm/hearth/log"
	"github.com/hearthvm/hearth/rlp"
	"github.com/hearthvm/hearth/trie"
)

// Block validation failures, surfaced with stable strings.
var (
	ErrInvalidStateRoot   = errors.New("invalid stateRoot")
	ErrInvalidReceiptTrie = errors.New("invalid receiptTrie")
	ErrInvalidBloom       = errors.New("invalid bloom")
	ErrInvalidGasUsed     = errors.New("invalid gasUsed")
)

// Block reward schedule: 5 ether to the miner, an extra 1/32 per included
// ommer, and (8 - heightDiff)/8 of the base reward to each ommer miner.
var (
	BlockReward  = new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18))
	niblingDenom = big.NewInt(32)
	ommerRewardD = big.NewInt(8)
)

// BlockHashReader resolves historic block hashes for the BLOCKHASH opcode.
type BlockHashReader interface {
	GetBlockHash(number uint64) types.Hash
}

// Hooks let callers observe block processing. Any hook may be nil.
type Hooks struct {
	BeforeBlock func(block *types.Block)
	AfterBlock  func(block *types.Block, receipts []*types.Receipt)
	BeforeTx    func(tx *types.Transaction)
	AfterTx     func(tx *types.Transaction, receipt *types.Receipt)
}

// BlockProcessor applies full blocks against the world state.
type BlockProcessor struct {
	config *ChainConfig
	hashes BlockHashReader
	Hooks  Hooks

	logger *log.Logger
}

// NewBlockProcessor creates a processor for the given chain config. The
// hash reader may be nil when BLOCKHASH is not exercised.
func NewBlockProcessor(config *ChainConfig, hashes BlockHashReader) *BlockProcessor {
	if config == nil {
		config = DefaultChainConfig
	}
	return &BlockProcessor{
		config: config,
		hashes: hashes,
		logger: log.Default().Module("processor"),
	}
}

// ProcessResult aggregates the outputs of one processed block.
type ProcessResult struct {
	Receipts  []*types.Receipt
	Logs      []*types.Log
	GasUsed   uint64
	StateRoot types.Hash
	Bloom     types.Bloom
}

// NewEVMBlockContext builds the VM's block context from a header.
func NewEVMBlockContext(header *types.Header, hashes BlockHashReader) vm.BlockContext {
	getHash := vm.GetHashFunc(nil)
	if hashes != nil {
		getHash = hashes.GetBlockHash
	}
	return vm.BlockContext{
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		BlockNumber: header.Number.Uint64(),
		Time:        header.Time,
		Difficulty:  header.Difficulty,
		GasLimit:    header.GasLimit,
	}
}

// Process runs every transaction in the block, pays the mining rewards,
// and either validates the header's state root, receipt root, bloom, and
// gas figure (generate=false) or reports the computed values for block
// assembly (generate=true).
func (p *BlockProcessor) Process(block *types.Block, statedb *state.StateDB, cfg vm.Config, generate bool) (*ProcessResult, error) {
	header := block.Header()
	blockCtx := NewEVMBlockContext(header, p.hashes)
	gp := new(GasPool).AddGas(header.GasLimit)

	if p.Hooks.BeforeBlock != nil {
		p.Hooks.BeforeBlock(block)
	}

	var (
		receipts []*types.Receipt
		allLogs  []*types.Log
		usedGas  uint64
	)
	for i, tx := range block.Transactions() {
		if p.Hooks.BeforeTx != nil {
			p.Hooks.BeforeTx(tx)
		}
		receipt, _, err := ApplyTransaction(p.config, blockCtx, statedb, tx, gp, &usedGas, cfg)
		if err != nil {
			return nil, err
		}
		for j, l := range receipt.Logs {
			l.BlockNumber = header.Number.Uint64()
			l.TxIndex = uint(i)
			l.Index = uint(len(allLogs) + j)
		}
		receipts = append(receipts, receipt)
		allLogs = append(allLogs, receipt.Logs...)
		if p.Hooks.AfterTx != nil {
			p.Hooks.AfterTx(tx, receipt)
		}
	}

	AccumulateRewards(statedb, header, block.Uncles())
	root := statedb.Flush()
	bloom := types.CreateBloom(receipts)

	if !generate {
		if header.Root != root {
			return nil, ErrInvalidStateRoot
		}
		receiptRoot := DeriveReceiptsRoot(receipts)
		if header.ReceiptHash != receiptRoot {
			return nil, ErrInvalidReceiptTrie
		}
		if header.Bloom != bloom {
			return nil, ErrInvalidBloom
		}
		if header.GasUsed != usedGas {
			return nil, ErrInvalidGasUsed
		}
	}

	if p.Hooks.AfterBlock != nil {
		p.Hooks.AfterBlock(block, receipts)
	}
	p.logger.Debug("processed block", "number", header.Number, "txs", len(block.Transactions()), "gasUsed", usedGas)

	return &ProcessResult{
		Receipts:  receipts,
		Logs:      allLogs,
		GasUsed:   usedGas,
		StateRoot: root,
		Bloom:     bloom,
	}, nil
}

// AccumulateRewards credits the coinbase with the block reward plus a
// nibling reward per ommer, and each ommer's miner with a reward scaled
// down by how far back the ommer sits.
func AccumulateRewards(statedb *state.StateDB, header *types.Header, uncles []*types.Header) {
	reward := new(big.Int).Set(BlockReward)
	nibling := new(big.Int).Div(BlockReward, niblingDenom)
	for _, uncle := range uncles {
		// (uncleNumber + 8 - blockNumber) * reward / 8
		r := new(big.Int).Add(uncle.Number, ommerRewardD)
		r.Sub(r, header.Number)
		r.Mul(r, BlockReward)
		r.Div(r, ommerRewardD)
		statedb.AddBalance(uncle.Coinbase, r)

		reward.Add(reward, nibling)
	}
	statedb.AddBalance(header.Coinbase, reward)
}

// DeriveReceiptsRoot builds the receipt trie over rlp(index) -> receipt
// encoding and returns its root.
func DeriveReceiptsRoot(receipts []*types.Receipt) types.Hash {
	t := trie.New()
	for i, receipt := range receipts {
		key := rlp.AppendUint64(nil, uint64(i))
		enc, err := receipt.EncodeRLP()
		if err != nil {
			continue
		}
		t.Put(key, enc)
	}
	return t.Hash()
}

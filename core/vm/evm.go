package vm

import (
	"math/big"

	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/crypto"
	"github.com/hearthvm/hearth/rlp"
)

// GetHashFunc returns the hash of the block with the given number. It is
// only consulted for the 256 blocks preceding the current one.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the EVM with block-level information.
type BlockContext struct {
	GetHash     GetHashFunc
	Coinbase    types.Address
	BlockNumber uint64
	Time        uint64
	Difficulty  *big.Int
	GasLimit    uint64
}

// TxContext provides the EVM with transaction-level information.
type TxContext struct {
	Origin   types.Address
	GasPrice *big.Int
}

// StateDB is the journaled world-state surface the EVM executes against.
// It is declared here to avoid a cycle with core/state; *state.StateDB
// satisfies it. Checkpoint/Commit/Revert follow strict stack discipline
// mirroring the call-frame nesting.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)

	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	SelfDestruct(addr, beneficiary types.Address)
	HasSelfDestructed(addr types.Address) bool

	AddLog(log *types.Log)
	AddRefund(gas uint64)
	Refund() uint64

	Checkpoint()
	Commit()
	Revert()
}

// Config holds optional EVM settings.
type Config struct {
	Debug  bool
	Tracer EVMLogger
}

// EVM drives the interpreter for one transaction's tree of call frames.
// It is not safe for concurrent use; one EVM serves one transaction.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	StateDB   StateDB
	Config    Config

	depth     int
	jumpTable JumpTable

	// Scratch values passed from the CALL-family gas functions to their
	// execution handlers within a single step.
	callGasTemp       uint64
	callSurchargeTemp uint64
}

// NewEVM creates an EVM bound to the given state and contexts, using the
// Homestead instruction set.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB, config Config) *EVM {
	return &EVM{
		Context:   blockCtx,
		TxContext: txCtx,
		StateDB:   statedb,
		Config:    config,
		jumpTable: NewHomesteadInstructionSet(),
	}
}

// Depth returns the current call nesting depth.
func (evm *EVM) Depth() int { return evm.depth }

// canTransfer reports whether the account has value wei to spend.
func (evm *EVM) canTransfer(addr types.Address, value *big.Int) bool {
	return evm.StateDB.GetBalance(addr).Cmp(value) >= 0
}

// transfer moves value from sender to recipient. The debit lands first so
// a self-call observes the post-transfer balance.
func (evm *EVM) transfer(sender, recipient types.Address, value *big.Int) {
	evm.StateDB.SubBalance(sender, value)
	evm.StateDB.AddBalance(recipient, value)
}

// Call executes a message call against addr, transferring value and
// running the destination code with the supplied gas. On any execution
// error the frame's checkpoint is reverted and the remaining gas is
// consumed; depth and balance failures are cheap and leave gas untouched.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth >= CallCreateDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	debug := evm.Config.Debug && evm.Config.Tracer != nil && evm.depth == 0
	if debug {
		evm.Config.Tracer.CaptureStart(caller, addr, false, input, gas, value)
	}

	transfersValue := value != nil && value.Sign() > 0
	if transfersValue && !evm.canTransfer(caller, value) {
		if debug {
			evm.Config.Tracer.CaptureEnd(nil, 0, ErrInsufficientBalance)
		}
		return nil, gas, ErrInsufficientBalance
	}

	evm.StateDB.Checkpoint()

	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	if transfersValue {
		evm.transfer(caller, addr, value)
	}

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.Revert()
			return nil, 0, err
		}
		evm.StateDB.Commit()
		return ret, gasLeft, nil
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		evm.StateDB.Commit()
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	ret, err := evm.Run(contract, input)
	if err != nil {
		evm.StateDB.Revert()
		if debug {
			evm.Config.Tracer.CaptureEnd(nil, gas, err)
		}
		return nil, 0, err
	}
	evm.StateDB.Commit()
	if debug {
		evm.Config.Tracer.CaptureEnd(ret, gas-contract.Gas, nil)
	}
	return ret, contract.Gas, nil
}

// CallCode runs the code at addr against the caller's own account. Value
// is checked but stays put: a transfer to oneself moves nothing.
func (evm *EVM) CallCode(caller, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth >= CallCreateDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if value != nil && value.Sign() > 0 && !evm.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}

	evm.StateDB.Checkpoint()

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.Revert()
			return nil, 0, err
		}
		evm.StateDB.Commit()
		return ret, gasLeft, nil
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		evm.StateDB.Commit()
		return nil, gas, nil
	}

	contract := NewContract(caller, caller, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	ret, err := evm.Run(contract, input)
	if err != nil {
		evm.StateDB.Revert()
		return nil, 0, err
	}
	evm.StateDB.Commit()
	return ret, contract.Gas, nil
}

// DelegateCall runs the code at addr inside the parent frame's context:
// address, caller, and call value are all inherited, and no value moves.
func (evm *EVM) DelegateCall(parent *Contract, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth >= CallCreateDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}

	evm.StateDB.Checkpoint()

	if p, ok := evm.precompile(addr); ok {
		ret, gasLeft, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.Revert()
			return nil, 0, err
		}
		evm.StateDB.Commit()
		return ret, gasLeft, nil
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		evm.StateDB.Commit()
		return nil, gas, nil
	}

	contract := NewContract(parent.CallerAddress, parent.Address, parent.Value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	ret, err := evm.Run(contract, input)
	if err != nil {
		evm.StateDB.Revert()
		return nil, 0, err
	}
	evm.StateDB.Commit()
	return ret, contract.Gas, nil
}

// Create deploys a new contract: the address derives from the creator's
// address and pre-increment nonce, the init code runs, and its return
// value becomes the contract code after the code-deposit charge. A return
// larger than MaxCodeSize or an unaffordable deposit fails the whole
// creation, consuming all supplied gas.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *big.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth >= CallCreateDepth {
		return nil, types.Address{}, gas, ErrMaxCallDepthExceeded
	}
	if value != nil && value.Sign() > 0 && !evm.canTransfer(caller, value) {
		return nil, types.Address{}, gas, ErrInsufficientBalance
	}

	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	contractAddr := CreateAddress(caller, nonce)

	evm.StateDB.Checkpoint()

	evm.StateDB.CreateAccount(contractAddr)
	if value != nil && value.Sign() > 0 {
		evm.transfer(caller, contractAddr, value)
	}

	contract := NewContract(caller, contractAddr, value, gas)
	contract.Code = code
	contract.CodeHash = crypto.Keccak256Hash(code)

	ret, err := evm.Run(contract, nil)
	if err != nil {
		evm.StateDB.Revert()
		return nil, contractAddr, 0, err
	}

	if uint64(len(ret)) > MaxCodeSize {
		evm.StateDB.Revert()
		return nil, contractAddr, 0, ErrMaxCodeSizeExceeded
	}
	if !contract.UseGas(uint64(len(ret)) * CreateDataGas) {
		evm.StateDB.Revert()
		return nil, contractAddr, 0, ErrCodeStoreOutOfGas
	}
	evm.StateDB.SetCode(contractAddr, ret)

	evm.StateDB.Commit()
	return ret, contractAddr, contract.Gas, nil
}

// RunCode executes raw bytecode at the current depth without the call
// bookkeeping. Exposed for tests and tooling.
func (evm *EVM) RunCode(caller, addr types.Address, code, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	contract := NewContract(caller, addr, value, gas)
	contract.Code = code
	contract.CodeHash = crypto.Keccak256Hash(code)
	ret, err := evm.Run(contract, input)
	return ret, contract.Gas, err
}

// precompile looks up the native contract at addr.
func (evm *EVM) precompile(addr types.Address) (PrecompiledContract, bool) {
	p, ok := PrecompiledContracts[addr]
	return p, ok
}

// CreateAddress derives the address of a contract created by sender with
// the given nonce: Keccak256(rlp([sender, nonce]))[12:].
func CreateAddress(sender types.Address, nonce uint64) types.Address {
	enc, _ := rlp.EncodeToBytes(struct {
		Sender types.Address
		Nonce  uint64
	}{sender, nonce})
	return types.BytesToAddress(crypto.Keccak256(enc)[12:])
}

package vm

// Gas schedule in force at the Homestead fork, per Yellow Paper Appendix G.
// Tiers: Gzero=0, Gbase=2, Gverylow=3, Glow=5, Gmid=8, Ghigh=10, Gext=20.
const (
	GasQuickStep   uint64 = 2  // Gbase
	GasFastestStep uint64 = 3  // Gverylow
	GasFastStep    uint64 = 5  // Glow
	GasMidStep     uint64 = 8  // Gmid
	GasSlowStep    uint64 = 10 // Ghigh
	GasExtStep     uint64 = 20 // Gext

	BalanceGas     uint64 = 20 // BALANCE
	SloadGas       uint64 = 50 // SLOAD
	ExtcodeSizeGas uint64 = 20 // EXTCODESIZE
	ExtcodeCopyGas uint64 = 20 // EXTCODECOPY base
	BlockhashGas   uint64 = 20 // BLOCKHASH

	SstoreSetGas    uint64 = 20000 // SSTORE zero -> non-zero
	SstoreResetGas  uint64 = 5000  // SSTORE all other transitions
	SstoreRefundGas uint64 = 15000 // refund for clearing a slot

	ExpByteGas uint64 = 10 // per byte of the EXP exponent

	Sha3Gas     uint64 = 30 // SHA3 base
	Sha3WordGas uint64 = 6  // per 32-byte word hashed

	JumpdestGas uint64 = 1

	LogGas      uint64 = 375 // per LOG operation
	LogTopicGas uint64 = 375 // per topic
	LogDataGas  uint64 = 8   // per byte of log data

	CallGas              uint64 = 40    // CALL/CALLCODE/DELEGATECALL base
	CallValueTransferGas uint64 = 9000  // surcharge for non-zero value
	CallNewAccountGas    uint64 = 25000 // surcharge when the destination must be created
	CallStipend          uint64 = 2300  // free gas given to the callee on value transfer

	CreateGas     uint64 = 32000 // CREATE
	CreateDataGas uint64 = 200   // per byte of deployed code

	SelfdestructRefundGas uint64 = 24000

	MemoryGas    uint64 = 3   // per 32-byte word of the memory high-water mark
	QuadCoeffDiv uint64 = 512 // divisor of the quadratic memory cost term
	CopyGas      uint64 = 3   // per word copied by *COPY operations

	TxGas                 uint64 = 21000 // per transaction
	TxGasContractCreation uint64 = 53000 // per transaction that creates a contract
	TxDataZeroGas         uint64 = 4     // per zero byte of transaction data
	TxDataNonZeroGas      uint64 = 68    // per non-zero byte of transaction data

	StackLimit      int    = 1024  // maximum operand stack depth
	CallCreateDepth int    = 1024  // maximum call/create nesting
	MaxCodeSize     uint64 = 24576 // maximum deployed contract size

	// Precompile pricing.
	EcrecoverGas        uint64 = 3000
	Sha256BaseGas       uint64 = 60
	Sha256PerWordGas    uint64 = 12
	Ripemd160BaseGas    uint64 = 600
	Ripemd160PerWordGas uint64 = 120
	IdentityBaseGas     uint64 = 15
	IdentityPerWordGas  uint64 = 3
)

// toWordSize rounds a byte size up to 32-byte words.
func toWordSize(size uint64) uint64 {
	if size > (1<<64)-1-31 {
		return (1<<64)/32 + 1
	}
	return (size + 31) / 32
}

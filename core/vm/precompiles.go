package vm

import (
	"crypto/sha256"
	"math/big"

	"golang.org/x/crypto/ripemd160"

	"github.com/hearthvm/hearth/core/types"
	"github.com/hearthvm/hearth/crypto"
)

// PrecompiledContract is a contract implemented natively at a fixed
// address rather than as bytecode.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

// PrecompiledContracts holds the four Homestead precompiles.
var PrecompiledContracts = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{1}): &ecrecover{},
	types.BytesToAddress([]byte{2}): &sha256hash{},
	types.BytesToAddress([]byte{3}): &ripemd160hash{},
	types.BytesToAddress([]byte{4}): &dataCopy{},
}

// IsPrecompiledContract reports whether addr hosts a precompile.
func IsPrecompiledContract(addr types.Address) bool {
	_, ok := PrecompiledContracts[addr]
	return ok
}

// runPrecompile charges the fixed gas and executes the native contract.
func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

// ecrecover (0x01) recovers the signer address from a 32-byte message
// hash and a [v, r, s] signature. Malformed signatures yield an empty
// return without faulting.
type ecrecover struct{}

func (c *ecrecover) RequiredGas(input []byte) uint64 {
	return EcrecoverGas
}

func (c *ecrecover) Run(input []byte) ([]byte, error) {
	input = rightPad(input, 128)

	hash := input[0:32]
	v := new(big.Int).SetBytes(input[32:64])
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])

	if v.BitLen() > 8 {
		return nil, nil
	}
	vByte := byte(v.Uint64())
	if vByte != 27 && vByte != 28 {
		return nil, nil
	}
	if !crypto.ValidateSignatureValues(vByte-27, r, s, true) {
		return nil, nil
	}

	sig := make([]byte, 65)
	rBytes, sBytes := r.Bytes(), s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = vByte - 27

	pub, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}

	result := make([]byte, 32)
	copy(result[12:], crypto.Keccak256(pub[1:])[12:])
	return result, nil
}

// sha256hash (0x02).
type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return Sha256BaseGas + Sha256PerWordGas*toWordSize(uint64(len(input)))
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// ripemd160hash (0x03). The 20-byte digest returns left-padded to 32.
type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return Ripemd160BaseGas + Ripemd160PerWordGas*toWordSize(uint64(len(input)))
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	result := make([]byte, 32)
	copy(result[12:], h.Sum(nil))
	return result, nil
}

// dataCopy (0x04) returns its input verbatim.
type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return IdentityBaseGas + IdentityPerWordGas*toWordSize(uint64(len(input)))
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// rightPad extends data with zeros to at least minLen bytes.
func rightPad(data []byte, minLen int) []byte {
	if len(data) >= minLen {
		return data
	}
	out := make([]byte, minLen)
	copy(out, data)
	return out
}

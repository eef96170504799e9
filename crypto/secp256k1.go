package crypto

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/hearthvm/hearth/core/types"
)

// secp256k1N is the order of the secp256k1 curve.
var secp256k1N = secp256k1.S256().N

// secp256k1halfN is half the curve order, the Homestead low-S bound.
var secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

// Ecrecover returns the uncompressed public key that produced the given
// signature over hash. sig is 65 bytes [R || S || V] with V in {0, 1}.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("ecrecover: hash must be 32 bytes")
	}
	if len(sig) != 65 {
		return nil, errors.New("ecrecover: signature must be 65 bytes")
	}
	// RecoverCompact wants the recovery code first: 27 + V.
	compact := make([]byte, 65)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := secpecdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// ValidateSignatureValues checks r, s, v per the Homestead rules: v in
// {0, 1}, r and s in (0, N), and s in the lower half of the curve order
// when homestead is set.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// PubkeyBytesToAddress derives the account address from a 65-byte
// uncompressed public key: Keccak256(pubkey[1:])[12:].
func PubkeyBytesToAddress(pub []byte) types.Address {
	if len(pub) != 65 {
		return types.Address{}
	}
	return types.BytesToAddress(Keccak256(pub[1:])[12:])
}

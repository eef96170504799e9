package types

import (
	"golang.org/x/crypto/sha3"
)

// Bloom represents a 2048-bit log bloom filter.
type Bloom [BloomLength]byte

// BloomBitLength is the number of bits in a bloom filter.
const BloomBitLength = 8 * BloomLength

// bloom9 computes the three bit positions for a bloom filter entry. The
// entry is keccak256-hashed and the first six bytes are taken as three
// big-endian 11-bit slices.
func bloom9(data []byte) [3]uint {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	h := d.Sum(nil)
	var bits [3]uint
	for i := 0; i < 3; i++ {
		bits[i] = (uint(h[2*i])<<8 | uint(h[2*i+1])) & 0x7FF
	}
	return bits
}

// Add sets the three bloom bits derived from data.
func (b *Bloom) Add(data []byte) {
	for _, bit := range bloom9(data) {
		b[BloomLength-1-bit/8] |= 1 << (bit % 8)
	}
}

// Contains reports whether all three bits derived from data are set. A true
// result may be a false positive; a false result is definitive.
func (b Bloom) Contains(data []byte) bool {
	for _, bit := range bloom9(data) {
		if b[BloomLength-1-bit/8]&(1<<(bit%8)) == 0 {
			return false
		}
	}
	return true
}

// Or merges other into b byte-wise.
func (b *Bloom) Or(other Bloom) {
	for i := 0; i < BloomLength; i++ {
		b[i] |= other[i]
	}
}

// Bytes returns the byte representation of the bloom.
func (b Bloom) Bytes() []byte { return b[:] }

// LogsBloom computes the bloom filter for a set of logs. Each log
// contributes its address and every topic.
func LogsBloom(logs []*Log) Bloom {
	var bloom Bloom
	for _, log := range logs {
		bloom.Add(log.Address.Bytes())
		for _, topic := range log.Topics {
			bloom.Add(topic.Bytes())
		}
	}
	return bloom
}

// CreateBloom computes the combined bloom for a list of receipts.
func CreateBloom(receipts []*Receipt) Bloom {
	var bloom Bloom
	for _, receipt := range receipts {
		bloom.Or(receipt.Bloom)
	}
	return bloom
}
